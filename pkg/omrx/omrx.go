// Package omrx is the public façade over the OMRX container engine,
// re-exporting the stable surface of internal/container,
// internal/chunktree, internal/attr, internal/dtype, and internal/model
// as a single importable API.
package omrx

import (
	"io"
	"log/slog"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/container"
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/model"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// Re-exported types so callers never need to import the internal
// packages directly.
type (
	Chunk          = chunktree.Chunk
	Attribute      = attr.Attribute
	AttributeInfo  = attr.Info
	Ownership      = attr.Ownership
	Dtype          = dtype.Type
	Error          = omrxerrors.Error
	Band           = omrxerrors.Band
	Version        = container.Version
	Model          = model.Model
	Mesh           = model.Mesh
	LODEntry       = model.LODEntry
	VertexData     = model.VertexData
	Polys          = model.Polys
	VertexDataType = model.VertexDataType
)

// MagicTag is the root chunk's tag, and the first four bytes on disk.
var MagicTag = container.MagicTag

// Ownership values.
const (
	Take = attr.Take
	Copy = attr.Copy
)

// Well-known attribute ids.
const (
	AttrVersion = attr.IDVersion
	AttrID      = attr.IDString
	AttrData    = attr.IDData
)

// Dtype values.
const (
	U8       = dtype.U8
	U16      = dtype.U16
	U32      = dtype.U32
	U64      = dtype.U64
	S8       = dtype.S8
	S16      = dtype.S16
	S32      = dtype.S32
	S64      = dtype.S64
	F32      = dtype.F32
	F64      = dtype.F64
	UTF8     = dtype.UTF8
	RAW      = dtype.RAW
	ArrayU8  = dtype.ArrayU8
	ArrayU16 = dtype.ArrayU16
	ArrayU32 = dtype.ArrayU32
	ArrayU64 = dtype.ArrayU64
	ArrayS8  = dtype.ArrayS8
	ArrayS16 = dtype.ArrayS16
	ArrayS32 = dtype.ArrayS32
	ArrayS64 = dtype.ArrayS64
	ArrayF32 = dtype.ArrayF32
	ArrayF64 = dtype.ArrayF64
)

// Model overlay tags and vertex-data kinds.
var (
	TagModel = model.TagModel
	TagLOD   = model.TagLOD
	TagMesh  = model.TagMesh
	TagVDat  = model.TagVDat
	TagPoly  = model.TagPoly
)

const (
	VertexDataVertices       = model.VertexDataVertices
	VertexDataNormals        = model.VertexDataNormals
	VertexDataMaterialIndices = model.VertexDataMaterialIndices
	VertexDataTexCoords      = model.VertexDataTexCoords
)

// Container is a handle on one OMRX container's chunk tree, id index, and
// status. It wraps internal/container.Container so callers depend only
// on this package.
type Container struct {
	inner *container.Container
}

// New constructs an empty container with a synthetic root and the
// library's minimum-supported version. A nil logger falls back to
// slog.Default.
func New(logger *slog.Logger) *Container {
	return &Container{inner: container.New(logger)}
}

// Open opens path, scans it, and keeps the file handle for lazy loads.
func Open(path string, logger *slog.Logger) (*Container, error) {
	c := New(logger)
	if err := c.inner.Open(path); err != nil {
		return c, err
	}
	return c, nil
}

// Scan (re)parses r as an OMRX container, discarding any prior tree.
func (c *Container) Scan(r io.ReadSeeker) error {
	return c.inner.Scan(r)
}

// Write serializes the tree depth-first to w.
func (c *Container) Write(w io.Writer) error {
	return c.inner.Write(w)
}

// WriteFile atomically rewrites path with the container's tree, holding
// an exclusive filelock for the duration.
func (c *Container) WriteFile(path string) error {
	return c.inner.WriteFile(path)
}

// Close releases any open file handle.
func (c *Container) Close() error {
	return c.inner.Close()
}

// Root returns the container's root chunk.
func (c *Container) Root() *Chunk {
	return c.inner.GetRootChunk()
}

// Child returns the first child of parent whose tag matches, or the
// first child of any tag if tag is nil.
func (c *Container) Child(parent *Chunk, tag *[4]byte) (*Chunk, bool) {
	return c.inner.GetChild(parent, tag)
}

// Next returns the first later sibling of chunk whose tag matches, or the
// immediate next sibling if tag is nil.
func (c *Container) Next(chunk *Chunk, tag *[4]byte) (*Chunk, bool) {
	return c.inner.GetNextChunk(chunk, tag)
}

// Parent returns chunk's parent, or nil for the root.
func (c *Container) Parent(chunk *Chunk) *Chunk {
	return c.inner.GetParent(chunk)
}

// ByID looks a chunk up by its registered id string, optionally verifying
// its tag.
func (c *Container) ByID(id string, tag *[4]byte) (*Chunk, error) {
	return c.inner.GetChunkByID(id, tag)
}

// AddChunk creates a new child chunk under parent.
func (c *Container) AddChunk(parent *Chunk, tag [4]byte) (*Chunk, error) {
	return c.inner.AddChunk(parent, tag)
}

// DeleteChunk detaches chunk (and its subtree) from the tree.
func (c *Container) DeleteChunk(chunk *Chunk) {
	c.inner.DeleteChunk(chunk)
}

// SetAttr creates or replaces an attribute on chunk.
func (c *Container) SetAttr(chunk *Chunk, id uint16, dt Dtype, ownership Ownership, data []byte, cols uint16) (*Attribute, error) {
	return c.inner.SetAttr(chunk, id, dt, ownership, data, cols)
}

// DeleteAttr removes the attribute with the given id from chunk.
func (c *Container) DeleteAttr(chunk *Chunk, id uint16) {
	c.inner.DeleteAttr(chunk, id)
}

// ReleaseAttrData frees a's in-memory payload if file-backed.
func (c *Container) ReleaseAttrData(a *Attribute) {
	c.inner.ReleaseAttrData(a)
}

// LoadAttr ensures a's payload is resident, touching the container's
// attribute cache so repeated release/reload cycles stay cheap.
func (c *Container) LoadAttr(a *Attribute) error {
	return c.inner.LoadAttr(a)
}

// SetCacheCapacity resizes the container's attribute cache.
func (c *Container) SetCacheCapacity(capacity int) {
	c.inner.SetCacheCapacity(capacity)
}

// LastResult returns the outcome of the most recent operation, or nil.
func (c *Container) LastResult() *Error {
	return c.inner.LastResult()
}

// Status returns the sticky worst-outcome-so-far status, or nil.
func (c *Container) Status() *Error {
	return c.inner.Status()
}

// ResetStatus clears the sticky status.
func (c *Container) ResetStatus() {
	c.inner.ResetStatus()
}

// Models returns every model directly under the container's root.
func (c *Container) Models() []Model {
	return model.ModelsOf(c.inner.GetRootChunk())
}

// Mesh resolves entry's referenced mesh through the container's id
// index.
func (c *Container) Mesh(entry LODEntry) (Mesh, error) {
	return entry.Mesh(c.inner)
}
