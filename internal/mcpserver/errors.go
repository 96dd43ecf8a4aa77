package mcpserver

import (
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// MCPError is a JSON-RPC-friendly error, mapping internal errors to
// client-facing ones.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return e.Message
}

// Error codes, following JSON-RPC 2.0 reserved ranges for the first two
// and JSON-RPC's implementation-defined server-error range (-32000 to
// -32099) for the rest.
const (
	codeInvalidParams = -32602
	codeInternal      = -32603
	codeNotFound      = -32001
)

// NewInvalidParamsError builds an invalid-params error for missing or
// malformed tool arguments.
func NewInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: codeInvalidParams, Message: msg}
}

// MapError classifies err against the engine's status codes and returns
// the matching MCP error.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}
	switch omrxerrors.Code(err) {
	case omrxerrors.StatusCodeNotFound:
		return &MCPError{Code: codeNotFound, Message: err.Error()}
	case "":
		return &MCPError{Code: codeInternal, Message: err.Error()}
	default:
		return &MCPError{Code: codeInternal, Message: err.Error()}
	}
}
