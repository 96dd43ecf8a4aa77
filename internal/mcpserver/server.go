// Package mcpserver exposes OMRX container navigation as MCP tools,
// built on mcp.NewServer/mcp.AddTool with a stdio-only Serve loop. The
// tool set covers chunk-tree navigation, attribute inspection, LOD
// resolution, nearest-vertex lookup, and catalog search.
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/foogod/go-omrx/internal/catalog"
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/model"
	"github.com/foogod/go-omrx/pkg/omrx"
	"github.com/foogod/go-omrx/pkg/version"
)

// Server is the MCP server fronting one or more open OMRX containers.
type Server struct {
	mcp           *mcp.Server
	logger        *slog.Logger
	catalog       *catalog.Catalog
	cacheCapacity int

	mu         sync.RWMutex
	containers map[string]*omrx.Container
}

// NewServer constructs a server with no containers open yet; callers add
// them via Open before starting Serve (or concurrently, since Open is
// safe to call from another goroutine). cat is the shared catalog
// backing the catalog_search tool; a nil cat leaves that tool disabled.
func NewServer(logger *slog.Logger, cat *catalog.Catalog) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		logger:     logger,
		catalog:    cat,
		containers: make(map[string]*omrx.Container),
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "go-omrx",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s
}

// SetCacheCapacity sets the attribute cache capacity applied to every
// container opened afterward (existing open containers are untouched).
func (s *Server) SetCacheCapacity(capacity int) {
	s.cacheCapacity = capacity
}

// Open scans path and registers it under its own path as a handle future
// tool calls can reference.
func (s *Server) Open(path string) error {
	c, err := omrx.Open(path, s.logger)
	if err != nil {
		return err
	}
	if s.cacheCapacity > 0 {
		c.SetCacheCapacity(s.cacheCapacity)
	}
	s.mu.Lock()
	s.containers[path] = c
	s.mu.Unlock()
	return nil
}

// Forget closes and drops the container registered under path.
func (s *Server) Forget(path string) error {
	s.mu.Lock()
	c, ok := s.containers[path]
	delete(s.containers, path)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return c.Close()
}

func (s *Server) container(path string) (*omrx.Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.containers[path]
	if !ok {
		return nil, fmt.Errorf("container not open: %s", path)
	}
	return c, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("starting MCP server", slog.String("transport", "stdio"))
	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && err != context.Canceled {
		s.logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
	} else {
		s.logger.Info("MCP server stopped gracefully")
	}
	return err
}

// Close closes every open container and the shared catalog, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for path, c := range s.containers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.containers, path)
	}
	if s.catalog != nil {
		if err := s.catalog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func tagToString(tag [4]byte) string {
	return string(tag[:])
}

func stringToTag(s string) ([4]byte, error) {
	var tag [4]byte
	if len(s) != 4 {
		return tag, fmt.Errorf("tag must be exactly 4 characters, got %q", s)
	}
	copy(tag[:], s)
	return tag, nil
}

func chunkSummary(ch *chunktree.Chunk) ChunkSummary {
	sum := ChunkSummary{Tag: tagToString(ch.Tag)}
	if a := ch.FindAttr(omrx.AttrID); a != nil {
		if err := a.Load(); err == nil {
			sum.ID = string(a.Data)
		}
	}
	for _, a := range ch.Attrs {
		sum.AttrIDs = append(sum.AttrIDs, a.ID)
	}
	return sum
}

func modelSummary(m model.Model) ModelSummary {
	id, _ := m.ID()
	name, _ := m.Name()
	return ModelSummary{ID: id, Name: name}
}
