// Package attr implements the in-memory attribute store: a typed
// id→payload entry on a chunk, with lazy file-backed loading and
// own/copy ownership semantics on set.
package attr

import (
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// Well-known attribute ids.
const (
	IDVersion uint16 = 0x0000
	IDString  uint16 = 0x0001
	IDData    uint16 = 0xFFFF
)

// Ownership selects whether Set adopts the caller's buffer or duplicates
// it.
type Ownership int

const (
	// Take adopts the caller's buffer directly; the caller must not
	// retain or mutate it afterward.
	Take Ownership = iota
	// Copy allocates a new buffer and duplicates the caller's bytes.
	Copy
)

// Loader reads size bytes of file-backed payload starting at an absolute
// position. The container implements this over its open file handle and
// wires it into attributes created during Scan.
type Loader func(pos int64, size int) ([]byte, error)

// Attribute is one id→payload entry on a chunk.
type Attribute struct {
	ID     uint16
	Dtype  dtype.Type
	Size   uint32 // payload size in bytes, excluding any array subheader
	Cols   uint16 // 1 for non-array types
	Data   []byte // in-memory payload, nil if not loaded
	FilePos int64 // absolute file position of the payload, -1 if in-memory-only

	loader Loader
}

// New constructs an in-memory-only attribute (FilePos = -1).
func New(id uint16, dt dtype.Type, data []byte, cols uint16) *Attribute {
	if cols == 0 {
		cols = 1
	}
	return &Attribute{
		ID:      id,
		Dtype:   dt,
		Size:    uint32(len(data)),
		Cols:    cols,
		Data:    data,
		FilePos: -1,
	}
}

// NewFileBacked constructs an attribute whose payload is not yet loaded,
// to be read lazily from loader at pos.
func NewFileBacked(id uint16, dt dtype.Type, size uint32, cols uint16, pos int64, loader Loader) *Attribute {
	if cols == 0 {
		cols = 1
	}
	return &Attribute{
		ID:      id,
		Dtype:   dt,
		Size:    size,
		Cols:    cols,
		FilePos: pos,
		loader:  loader,
	}
}

// IsFileBacked reports whether the payload has (or had) a file position.
func (a *Attribute) IsFileBacked() bool {
	return a.FilePos >= 0
}

// Load ensures the payload is resident in memory, reading it from the
// loader if absent. UTF-8 payloads are represented as the Go string's
// own bytes; the C reference implementation's size+1 null-terminator
// allocation is a memory-management artifact with no observable Go
// equivalent.
func (a *Attribute) Load() error {
	if a.Data != nil {
		return nil
	}
	if !a.IsFileBacked() {
		return nil
	}
	if a.loader == nil {
		return omrxerrors.New(omrxerrors.ErrCodeInternal, "file-backed attribute has no loader", nil)
	}
	data, err := a.loader(a.FilePos, int(a.Size))
	if err != nil {
		return err
	}
	a.Data = data
	return nil
}

// Release frees the in-memory payload if the attribute is file-backed,
// keeping FilePos so a later Load call can reproduce identical bytes.
// No-op for in-memory-only attributes.
func (a *Attribute) Release() {
	if !a.IsFileBacked() {
		return
	}
	a.Data = nil
}

// Set replaces the attribute's payload and dtype, honoring ownership. The
// caller must ensure dtype compatibility before calling Set on an existing
// attribute id — Chunk.SetAttr is responsible for the wrong-dtype check.
// A successful Set discards any file-backing permanently: any mutation
// transitions the attribute to in-memory-only.
func (a *Attribute) Set(dt dtype.Type, ownership Ownership, data []byte, cols uint16) {
	if cols == 0 {
		cols = 1
	}
	var stored []byte
	switch ownership {
	case Take:
		stored = data
	case Copy:
		stored = append([]byte(nil), data...)
	}
	a.Dtype = dt
	a.Data = stored
	a.Size = uint32(len(stored))
	a.Cols = cols
	a.FilePos = -1
	a.loader = nil
}

// Info is the derived description returned by get_info.
type Info struct {
	Exists     bool
	Dtype      dtype.Type
	Size       uint32
	ElemSize   int
	IsArray    bool
	Cols       uint16
	Rows       uint32
}

// GetInfo derives existence, type, size, element size, array-ness, cols,
// and rows: total_size / cols / elem_size when elem_size is known, else
// 0 rows.
func (a *Attribute) GetInfo() Info {
	if a == nil {
		return Info{}
	}
	elemSize := a.Dtype.ElementSize()
	isArray := a.Dtype.IsArray()
	info := Info{
		Exists:   true,
		Dtype:    a.Dtype,
		Size:     a.Size,
		ElemSize: elemSize,
		IsArray:  isArray,
		Cols:     a.Cols,
	}
	if elemSize == 0 && (a.Dtype == dtype.UTF8 || a.Dtype == dtype.RAW) {
		info.ElemSize = int(a.Size)
	}
	if info.ElemSize > 0 {
		cols := uint32(a.Cols)
		if cols == 0 {
			cols = 1
		}
		info.Rows = a.Size / cols / uint32(info.ElemSize)
	}
	return info
}

// GetTyped returns the loaded payload, failing with wrong-dtype if
// expected does not match the attribute's stored type.
func (a *Attribute) GetTyped(expected dtype.Type) ([]byte, error) {
	if a.Dtype != expected {
		return nil, omrxerrors.New(omrxerrors.ErrCodeWrongDtype, "attribute dtype mismatch", nil).
			WithDetail("expected", expected.String()).
			WithDetail("actual", a.Dtype.String())
	}
	if err := a.Load(); err != nil {
		return nil, err
	}
	return a.Data, nil
}
