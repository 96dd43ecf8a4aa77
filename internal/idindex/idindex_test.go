package idindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogod/go-omrx/internal/chunktree"
)

func mustChunk(t *testing.T, tagStr string) *chunktree.Chunk {
	t.Helper()
	var tag [4]byte
	copy(tag[:], tagStr)
	c, err := chunktree.New(tag)
	require.NoError(t, err)
	return c
}

func TestRegister_DuplicateRetainsFirstMapping(t *testing.T) {
	idx := New()
	first := mustChunk(t, "MesH")
	second := mustChunk(t, "MesH")

	require.Nil(t, idx.Register("dup", first))

	warn := idx.Register("dup", second)
	require.NotNil(t, warn)
	assert.Equal(t, "WARN_904_DUPLICATE_ID", warn.Code)

	got, ok := idx.Lookup("dup")
	require.True(t, ok)
	assert.Same(t, first, got)
}

func TestDeregister_ClearsLookup(t *testing.T) {
	idx := New()
	c := mustChunk(t, "MesH")
	require.Nil(t, idx.Register("test", c))

	idx.Deregister("test")

	_, ok := idx.Lookup("test")
	assert.False(t, ok)
}

func TestLookup_NotFoundForUnregisteredID(t *testing.T) {
	idx := New()
	_, ok := idx.Lookup("nope")
	assert.False(t, ok)
}
