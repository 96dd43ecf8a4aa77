package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogod/go-omrx/internal/dtype"
)

func TestSet_CopyOwnershipDoesNotAliasCallerBuffer(t *testing.T) {
	// Given: a source buffer set with Copy ownership
	src := []byte{1, 2, 3, 4}
	a := New(IDData, dtype.U8, nil, 1)
	a.Set(dtype.U8, Copy, src, 1)

	// When: the caller mutates its own buffer afterward
	src[0] = 0xFF

	// Then: the stored payload is unaffected (invariant 5)
	assert.Equal(t, byte(1), a.Data[0])
}

func TestSet_TakeOwnershipAdoptsBufferDirectly(t *testing.T) {
	src := []byte{1, 2, 3}
	a := New(IDData, dtype.U8, nil, 1)
	a.Set(dtype.U8, Take, src, 1)
	assert.Same(t, &src[0], &a.Data[0])
}

func TestGetTyped_FailsOnDtypeMismatch(t *testing.T) {
	a := New(IDData, dtype.U32, []byte{0, 0, 0, 0}, 1)
	_, err := a.GetTyped(dtype.F32)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_304_WRONG_DTYPE")
}

func TestLoadRelease_FileBackedRoundTrips(t *testing.T) {
	payload := []byte{10, 20, 30, 40}
	calls := 0
	loader := func(pos int64, size int) ([]byte, error) {
		calls++
		return append([]byte(nil), payload...), nil
	}
	a := NewFileBacked(IDData, dtype.U8, uint32(len(payload)), 1, 100, loader)

	// Given: a freshly scanned file-backed attribute, payload is absent
	assert.Nil(t, a.Data)

	// When: loaded
	require.NoError(t, a.Load())
	assert.Equal(t, payload, a.Data)

	// And: released
	a.Release()
	assert.Nil(t, a.Data)

	// Then: reload reproduces identical bytes and the loader is called again
	require.NoError(t, a.Load())
	assert.Equal(t, payload, a.Data)
	assert.Equal(t, 2, calls)
}

func TestRelease_NoopOnInMemoryOnlyAttribute(t *testing.T) {
	a := New(IDData, dtype.U8, []byte{1}, 1)
	a.Release()
	assert.Equal(t, []byte{1}, a.Data)
}

func TestSet_DiscardsFileBackingPermanently(t *testing.T) {
	a := NewFileBacked(IDData, dtype.U8, 4, 1, 50, func(int64, int) ([]byte, error) { return []byte{1, 2, 3, 4}, nil })
	a.Set(dtype.U8, Copy, []byte{9}, 1)
	assert.False(t, a.IsFileBacked())
	assert.Equal(t, int64(-1), a.FilePos)
}

func TestGetInfo_DerivesRowsForArrayTypes(t *testing.T) {
	a := New(IDData, dtype.Type(dtype.ArrayF32), make([]byte, 24), 3)
	info := a.GetInfo()
	assert.True(t, info.IsArray)
	assert.Equal(t, 4, info.ElemSize)
	assert.Equal(t, uint16(3), info.Cols)
	assert.Equal(t, uint32(2), info.Rows)
}

func TestGetInfo_UTF8ElemSizeEqualsTotalSize(t *testing.T) {
	a := New(IDString, dtype.UTF8, []byte("hero"), 1)
	info := a.GetInfo()
	assert.Equal(t, 4, info.ElemSize)
}
