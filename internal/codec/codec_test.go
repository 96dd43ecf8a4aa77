package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkHeader_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	in := ChunkHeader{Tag: [4]byte{'M', 'o', 'D', 'L'}, AttrCount: 3}
	require.NoError(t, w.WriteChunkHeader(in))

	r := NewReader(bytes.NewReader(buf.Bytes()))
	out, err := r.ReadChunkHeader()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestAttrHeader_RoundTrips(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	in := AttrHeader{ID: 0xFFFF, Dtype: 0x100A, Size: 24}
	require.NoError(t, w.WriteAttrHeader(in))

	r := NewReader(bytes.NewReader(buf.Bytes()))
	out, err := r.ReadAttrHeader()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestArraySubheaderCols_NormalizesZeroToOne(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x00, 0x00}))
	cols, err := r.ReadArraySubheaderCols()
	require.NoError(t, err)
	assert.Equal(t, uint16(1), cols)
}

func TestReadExact_DistinguishesEOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2}))
	_, err := r.ReadExact(4)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_202_UNEXPECTED_EOF")
}

func TestFloat32Array_RoundTripsLittleEndian(t *testing.T) {
	values := []float32{0, 1, 2, 1, 2, 3}
	encoded := EncodeFloat32Array(values)
	assert.Len(t, encoded, len(values)*4)
	decoded := DecodeFloat32Array(encoded)
	assert.Equal(t, values, decoded)
}

func TestSkipForward_AdvancesWithoutReading(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}))
	require.NoError(t, r.SkipForward(3))
	rest, err := r.ReadExact(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, rest)
}
