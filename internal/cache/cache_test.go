package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/dtype"
)

func fileBackedAttr(id uint16, pos int64, payload []byte) *attr.Attribute {
	a := attr.NewFileBacked(id, dtype.U8, uint32(len(payload)), 1, pos, func(int64, int) ([]byte, error) {
		return append([]byte(nil), payload...), nil
	})
	a.Load()
	return a
}

func TestCache_EvictingOldestEntryReleasesItsPayload(t *testing.T) {
	c := New(1)
	a := fileBackedAttr(1, 100, []byte{1, 2, 3})
	b := fileBackedAttr(2, 200, []byte{4, 5, 6})

	c.Touch("scene.omrx", a)
	require.NotNil(t, a.Data)

	c.Touch("scene.omrx", b)
	assert.Nil(t, a.Data, "evicted entry should have been released")
	assert.NotNil(t, b.Data)
}

func TestCache_ReleaseClearsPayloadAndBookkeeping(t *testing.T) {
	c := New(4)
	a := fileBackedAttr(1, 100, []byte{9})
	c.Touch("scene.omrx", a)
	require.Equal(t, 1, c.Len())

	c.Release("scene.omrx", a)
	assert.Nil(t, a.Data)
	assert.Equal(t, 0, c.Len())
}

func TestCache_ForgetDropsOnlyEntriesForGivenPath(t *testing.T) {
	c := New(8)
	a := fileBackedAttr(1, 100, []byte{1})
	b := fileBackedAttr(2, 200, []byte{2})
	c.Touch("a.omrx", a)
	c.Touch("b.omrx", b)

	c.Forget("a.omrx")

	assert.Nil(t, a.Data)
	assert.NotNil(t, b.Data)
	assert.Equal(t, 1, c.Len())
}

func TestCache_TouchIgnoresInMemoryOnlyAttributes(t *testing.T) {
	c := New(4)
	a := attr.New(attr.IDData, dtype.U8, []byte{1}, 1)
	c.Touch("scene.omrx", a)
	assert.Equal(t, 0, c.Len())
}
