// Package codec implements the on-disk binary encoding of OMRX chunk and
// attribute headers: four primitives over a seekable byte stream
// (read-exact, seek-absolute, skip-forward, write-exact), with
// little-endian multi-byte integers throughout.
package codec

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// ChunkHeaderSize is the on-disk size of a chunk header: 4-byte tag plus a
// 2-byte little-endian attribute count.
const ChunkHeaderSize = 6

// AttrHeaderSize is the on-disk size of an attribute header: id, dtype,
// size, each little-endian.
const AttrHeaderSize = 8

// ArraySubheaderSize is the on-disk size of the array column-count
// subheader that follows an attribute header when the dtype is an array.
const ArraySubheaderSize = 2

// ChunkHeader is the fixed-size header preceding every chunk's attributes.
type ChunkHeader struct {
	Tag       [4]byte
	AttrCount uint16
}

// AttrHeader is the fixed-size header preceding every attribute's payload.
type AttrHeader struct {
	ID    uint16
	Dtype uint16
	Size  uint32 // includes the 2-byte array subheader when the type is an array
}

// Reader wraps an io.ReadSeeker with the codec's read primitives.
type Reader struct {
	r io.ReadSeeker
}

// NewReader wraps r for codec reads.
func NewReader(r io.ReadSeeker) *Reader {
	return &Reader{r: r}
}

// ReadExact reads exactly n bytes, distinguishing EOF from other I/O
// failures.
func (cr *Reader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(cr.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, omrxerrors.New(omrxerrors.ErrCodeEOF, "unexpected end of file", err)
		}
		return nil, omrxerrors.New(omrxerrors.ErrCodeOSError, "read failed", err)
	}
	return buf, nil
}

// SeekAbsolute seeks to an absolute offset from the start of the stream.
func (cr *Reader) SeekAbsolute(pos int64) error {
	if _, err := cr.r.Seek(pos, io.SeekStart); err != nil {
		return omrxerrors.New(omrxerrors.ErrCodeOSError, "seek failed", err)
	}
	return nil
}

// SkipForward advances the stream by n bytes relative to the current
// position, without reading the skipped bytes into memory.
func (cr *Reader) SkipForward(n int64) error {
	if _, err := cr.r.Seek(n, io.SeekCurrent); err != nil {
		return omrxerrors.New(omrxerrors.ErrCodeOSError, "seek failed", err)
	}
	return nil
}

// Pos returns the current absolute stream position.
func (cr *Reader) Pos() (int64, error) {
	pos, err := cr.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, omrxerrors.New(omrxerrors.ErrCodeOSError, "tell failed", err)
	}
	return pos, nil
}

// ReadChunkHeader reads a chunk's tag and attribute count.
func (cr *Reader) ReadChunkHeader() (ChunkHeader, error) {
	buf, err := cr.ReadExact(ChunkHeaderSize)
	if err != nil {
		return ChunkHeader{}, err
	}
	var h ChunkHeader
	copy(h.Tag[:], buf[0:4])
	h.AttrCount = binary.LittleEndian.Uint16(buf[4:6])
	return h, nil
}

// ReadAttrHeader reads an attribute's id, dtype, and size.
func (cr *Reader) ReadAttrHeader() (AttrHeader, error) {
	buf, err := cr.ReadExact(AttrHeaderSize)
	if err != nil {
		return AttrHeader{}, err
	}
	return AttrHeader{
		ID:    binary.LittleEndian.Uint16(buf[0:2]),
		Dtype: binary.LittleEndian.Uint16(buf[2:4]),
		Size:  binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// ReadArraySubheaderCols reads the 2-byte column count subheader,
// normalizing an on-disk 0 to 1 in memory.
func (cr *Reader) ReadArraySubheaderCols() (uint16, error) {
	buf, err := cr.ReadExact(ArraySubheaderSize)
	if err != nil {
		return 0, err
	}
	cols := binary.LittleEndian.Uint16(buf)
	if cols == 0 {
		cols = 1
	}
	return cols, nil
}

// Writer wraps an io.Writer with the codec's write primitive.
type Writer struct {
	w io.Writer
}

// NewWriter wraps w for codec writes.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteExact writes all of b or returns an error.
func (cw *Writer) WriteExact(b []byte) error {
	if _, err := cw.w.Write(b); err != nil {
		return omrxerrors.New(omrxerrors.ErrCodeOSError, "write failed", err)
	}
	return nil
}

// WriteChunkHeader writes a chunk header.
func (cw *Writer) WriteChunkHeader(h ChunkHeader) error {
	buf := make([]byte, ChunkHeaderSize)
	copy(buf[0:4], h.Tag[:])
	binary.LittleEndian.PutUint16(buf[4:6], h.AttrCount)
	return cw.WriteExact(buf)
}

// WriteAttrHeader writes an attribute header.
func (cw *Writer) WriteAttrHeader(h AttrHeader) error {
	buf := make([]byte, AttrHeaderSize)
	binary.LittleEndian.PutUint16(buf[0:2], h.ID)
	binary.LittleEndian.PutUint16(buf[2:4], h.Dtype)
	binary.LittleEndian.PutUint32(buf[4:8], h.Size)
	return cw.WriteExact(buf)
}

// WriteArraySubheaderCols writes the 2-byte column count subheader.
func (cw *Writer) WriteArraySubheaderCols(cols uint16) error {
	buf := make([]byte, ArraySubheaderSize)
	binary.LittleEndian.PutUint16(buf, cols)
	return cw.WriteExact(buf)
}

// EncodeUint32 encodes a little-endian u32, used for the version attribute.
func EncodeUint32(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)
	return buf
}

// DecodeUint32 decodes a little-endian u32.
func DecodeUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

// EncodeFloat32Array encodes a []float32 as little-endian bytes,
// element-wise — the write path this spec requires to fix the original's
// latent array-payload endianness bug.
func EncodeFloat32Array(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// DecodeFloat32Array decodes little-endian bytes into a []float32.
func DecodeFloat32Array(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
