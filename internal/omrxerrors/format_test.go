package omrxerrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatJSON_RoundTripsFields(t *testing.T) {
	err := New(ErrCodeBadMagic, "bad magic", nil).WithDetail("got", "XXXX")

	data, marshalErr := FormatJSON(err)
	require.NoError(t, marshalErr)
	assert.Contains(t, string(data), `"code":"ERR_301_BAD_MAGIC"`)
	assert.Contains(t, string(data), `"got":"XXXX"`)
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(assertPlainError("disk exploded"))
	assert.Contains(t, out, "disk exploded")
	assert.Contains(t, out, ErrCodeInternal)
}

type plainErr struct{ msg string }

func (p plainErr) Error() string { return p.msg }

func assertPlainError(msg string) error { return plainErr{msg: msg} }
