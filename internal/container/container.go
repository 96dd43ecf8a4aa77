// Package container implements the container engine: construction,
// scan (open-for-read), write, the navigation API, and sticky
// two-field status accumulation, wiring together dtype, codec, attr,
// chunktree, and idindex.
package container

import (
	"io"
	"log/slog"
	"os"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/cache"
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/codec"
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/filelock"
	"github.com/foogod/go-omrx/internal/idindex"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// MagicTag is the root chunk's tag, also the first four bytes on disk.
var MagicTag = [4]byte{'O', 'M', 'R', 'X'}

// Container owns the chunk tree, the id index, and a file handle for
// lazy-loaded attribute payloads.
type Container struct {
	Root *chunktree.Chunk

	index  *idindex.Index
	file   *os.File
	path   string
	logger *slog.Logger
	cache  *cache.Cache

	lastResult *omrxerrors.Error
	status     *omrxerrors.Error
}

// New constructs an empty container: a synthetic root tagged with the
// magic, carrying the library's minimum-supported version, and a fresh id
// index. A nil logger falls back to slog.Default. The attribute cache
// starts at cache.DefaultCapacity; call SetCacheCapacity to resize it
// from loaded configuration.
func New(logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{
		Root:   freshRoot(),
		index:  idindex.New(),
		logger: logger,
		cache:  cache.New(cache.DefaultCapacity),
	}
}

// SetCacheCapacity replaces the container's attribute cache with one
// bounded to capacity entries, discarding whatever was previously
// tracked (their payloads, if resident, stay resident until next
// release).
func (c *Container) SetCacheCapacity(capacity int) {
	c.cache = cache.New(capacity)
}

func freshRoot() *chunktree.Chunk {
	root, err := chunktree.New(MagicTag)
	if err != nil {
		// MagicTag is a compile-time constant known to validate; a failure
		// here would be a programming error in the constant itself.
		panic(err)
	}
	if _, err := root.SetAttr(attr.IDVersion, dtype.U32, attr.Copy, codec.EncodeUint32(MinSupportedVersion.Encode()), 1); err != nil {
		panic(err)
	}
	return root
}

// toOmrxError normalizes any error into *omrxerrors.Error, wrapping
// foreign errors as an internal-invariant failure.
func toOmrxError(err error) *omrxerrors.Error {
	if err == nil {
		return nil
	}
	if oe, ok := err.(*omrxerrors.Error); ok {
		return oe
	}
	return omrxerrors.Wrap(omrxerrors.ErrCodeInternal, err)
}

// fail records err as both last_result and a candidate sticky status
// upgrade, then returns it.
func (c *Container) fail(err error) *omrxerrors.Error {
	oe := toOmrxError(err)
	c.lastResult = oe
	c.status = omrxerrors.Worse(c.status, oe)
	return oe
}

// ok clears last_result to success. Sticky status is untouched: a
// successful call never downgrades an already-recorded warning or error.
func (c *Container) ok() {
	c.lastResult = nil
}

// notFound records err as last_result only, leaving the sticky status
// untouched. A lookup that finds nothing is a normal, expected outcome,
// not a warning or error — callers distinguish it from success by
// reading LastResult(), the same way a successful call is distinguished
// from one that found nothing.
func (c *Container) notFound(err *omrxerrors.Error) *omrxerrors.Error {
	c.lastResult = err
	return err
}

// LastResult returns the outcome of the most recently attempted
// operation, or nil on success.
func (c *Container) LastResult() *omrxerrors.Error {
	return c.lastResult
}

// Status returns the sticky worst-outcome-so-far status, or nil if
// nothing has gone wrong.
func (c *Container) Status() *omrxerrors.Error {
	return c.status
}

// ResetStatus clears the sticky status.
func (c *Container) ResetStatus() {
	c.status = nil
}

// makeLoader binds an attr.Loader to r, preferring io.ReaderAt (safe to
// call out of order and concurrently with the scan cursor) and falling
// back to seek-then-read for streams that don't implement it.
func makeLoader(r io.ReadSeeker) attr.Loader {
	if ra, ok := r.(io.ReaderAt); ok {
		return func(pos int64, size int) ([]byte, error) {
			buf := make([]byte, size)
			if _, err := ra.ReadAt(buf, pos); err != nil {
				return nil, omrxerrors.New(omrxerrors.ErrCodeOSError, "lazy attribute read failed", err)
			}
			return buf, nil
		}
	}
	return func(pos int64, size int) ([]byte, error) {
		if _, err := r.Seek(pos, io.SeekStart); err != nil {
			return nil, omrxerrors.New(omrxerrors.ErrCodeOSError, "seek failed", err)
		}
		buf := make([]byte, size)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, omrxerrors.New(omrxerrors.ErrCodeOSError, "lazy attribute read failed", err)
		}
		return buf, nil
	}
}

// Scan resets the tree and (re)parses r as an OMRX container.
func (c *Container) Scan(r io.ReadSeeker) error {
	cr := codec.NewReader(r)
	magic, err := cr.ReadExact(4)
	if err != nil {
		return c.fail(err)
	}
	if err := cr.SeekAbsolute(0); err != nil {
		return c.fail(err)
	}
	if magic[0] != MagicTag[0] || magic[1] != MagicTag[1] || magic[2] != MagicTag[2] || magic[3] != MagicTag[3] {
		return c.fail(omrxerrors.New(omrxerrors.ErrCodeBadMagic, "file does not start with the OMRX magic", nil))
	}

	loader := makeLoader(r)
	index := idindex.New()

	var root, context *chunktree.Chunk
	first := true
	for {
		pos, err := cr.Pos()
		if err != nil {
			return c.fail(err)
		}
		hdr, err := cr.ReadChunkHeader()
		if err != nil {
			return c.fail(err)
		}
		if err := chunktree.ValidateTagBytes(hdr.Tag); err != nil {
			return c.fail(err)
		}
		chunk, err := chunktree.New(hdr.Tag)
		if err != nil {
			return c.fail(err)
		}
		chunk.FilePos = pos
		if err := c.scanAttrs(cr, chunk, hdr.AttrCount, loader, index); err != nil {
			return c.fail(err)
		}

		if first {
			root = chunk
			context = chunk
			first = false
			continue
		}

		if chunk.TagInt == context.TagInt|chunktree.EndChunkFlag {
			context = context.GetParent()
		} else {
			context.AttachChild(chunk)
			if !chunktree.HasEndFlag(chunk.Tag) {
				context = chunk
			}
		}
		if context == nil {
			break
		}
	}

	c.index = index
	c.Root = root

	if verr := checkVersion(root); verr != nil {
		if verr.Band == omrxerrors.BandError {
			c.Root = freshRoot()
			c.index = idindex.New()
			return c.fail(verr)
		}
		c.status = omrxerrors.Worse(c.status, verr)
	}
	c.ok()
	return nil
}

// scanAttrs reads count attribute headers onto chunk, eagerly loading and
// registering the id-string attribute and leaving everything else
// file-backed for lazy loading.
func (c *Container) scanAttrs(cr *codec.Reader, chunk *chunktree.Chunk, count uint16, loader attr.Loader, index *idindex.Index) error {
	for i := uint16(0); i < count; i++ {
		ah, err := cr.ReadAttrHeader()
		if err != nil {
			return err
		}
		dt := dtype.Type(ah.Dtype)
		size := ah.Size
		var cols uint16 = 1
		if dt.IsArray() {
			cols, err = cr.ReadArraySubheaderCols()
			if err != nil {
				return err
			}
			size -= codec.ArraySubheaderSize
		}
		pos, err := cr.Pos()
		if err != nil {
			return err
		}

		if ah.ID == attr.IDString && dt == dtype.UTF8 {
			data, err := cr.ReadExact(int(size))
			if err != nil {
				return err
			}
			a := attr.NewFileBacked(ah.ID, dt, size, cols, pos, loader)
			a.Data = data
			chunk.AppendAttrSorted(a)
			if warn := index.Register(string(data), chunk); warn != nil {
				c.status = omrxerrors.Worse(c.status, warn)
			}
			continue
		}
		if ah.ID == attr.IDString {
			c.status = omrxerrors.Worse(c.status, omrxerrors.New(
				omrxerrors.WarnCodeBadAttr, "id attribute has a non-utf8 dtype", nil,
			))
		}
		if err := cr.SkipForward(int64(size)); err != nil {
			return err
		}
		chunk.AppendAttrSorted(attr.NewFileBacked(ah.ID, dt, size, cols, pos, loader))
	}
	return nil
}

// checkVersion inspects root's version attribute against LibraryVersion.
func checkVersion(root *chunktree.Chunk) *omrxerrors.Error {
	a := root.FindAttr(attr.IDVersion)
	if a == nil {
		return nil
	}
	if err := a.Load(); err != nil {
		return toOmrxError(err)
	}
	fileVersion := DecodeVersion(codec.DecodeUint32(a.Data))
	if fileVersion.Major > LibraryVersion.Major {
		return omrxerrors.New(omrxerrors.ErrCodeBadVersion, "file major version exceeds library support", nil)
	}
	if fileVersion.Minor > LibraryVersion.Minor {
		return omrxerrors.New(omrxerrors.WarnCodeBadVersion, "file minor version is newer than this library", nil)
	}
	return nil
}

// Open opens path for reading and scans it, keeping the file handle open
// for subsequent lazy attribute loads.
func (c *Container) Open(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return c.fail(omrxerrors.Wrap(omrxerrors.ErrCodeOSError, err))
	}
	if c.file != nil {
		c.file.Close()
	}
	c.file = f
	c.path = path
	return c.Scan(f)
}

// Close releases the open file handle. Closing a container that has no
// open file (never opened, or already closed) fails with ErrCodeNotOpen.
func (c *Container) Close() error {
	if c.file == nil {
		return c.fail(omrxerrors.New(omrxerrors.ErrCodeNotOpen, "container is not open", nil))
	}
	err := c.file.Close()
	c.file = nil
	if err != nil {
		return c.fail(omrxerrors.New(omrxerrors.WarnCodeOSWarning, "close failed", err))
	}
	c.ok()
	return nil
}

// Write serializes the tree depth-first to w.
func (c *Container) Write(w io.Writer) error {
	cw := codec.NewWriter(w)
	if err := writeChunk(cw, c.Root); err != nil {
		return c.fail(err)
	}
	c.ok()
	return nil
}

func writeChunk(cw *codec.Writer, chunk *chunktree.Chunk) error {
	if err := cw.WriteChunkHeader(codec.ChunkHeader{Tag: chunk.Tag, AttrCount: uint16(len(chunk.Attrs))}); err != nil {
		return err
	}
	for _, a := range chunk.Attrs {
		if err := writeAttr(cw, a); err != nil {
			return err
		}
	}
	for ch := chunk.FirstChild; ch != nil; ch = ch.NextSibling {
		if err := writeChunk(cw, ch); err != nil {
			return err
		}
	}
	if !chunktree.HasEndFlag(chunk.Tag) {
		closeTag := chunk.Tag
		closeTag[3] |= byte(chunktree.EndChunkFlag)
		if err := cw.WriteChunkHeader(codec.ChunkHeader{Tag: closeTag, AttrCount: 0}); err != nil {
			return err
		}
	}
	return nil
}

// writeAttr emits one attribute's header, subheader, and payload,
// loading the payload into a temporary buffer and freeing it afterward if
// it was not already resident.
func writeAttr(cw *codec.Writer, a *attr.Attribute) error {
	isArray := a.Dtype.IsArray()
	onDiskSize := a.Size
	if isArray {
		onDiskSize += codec.ArraySubheaderSize
	}
	if err := cw.WriteAttrHeader(codec.AttrHeader{ID: a.ID, Dtype: uint16(a.Dtype), Size: onDiskSize}); err != nil {
		return err
	}
	if isArray {
		if err := cw.WriteArraySubheaderCols(a.Cols); err != nil {
			return err
		}
	}
	temporary := a.Data == nil
	if temporary {
		if err := a.Load(); err != nil {
			return err
		}
		defer a.Release()
	}
	return cw.WriteExact(a.Data)
}

// WriteFile atomically rewrites path with the container's current tree,
// taking an exclusive filelock for the duration so a concurrent writer
// never interleaves with this one.
func (c *Container) WriteFile(path string) error {
	lock := filelock.New(path)
	if err := lock.Lock(); err != nil {
		return c.fail(omrxerrors.Wrap(omrxerrors.ErrCodeOSError, err))
	}
	defer lock.Unlock()

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return c.fail(omrxerrors.Wrap(omrxerrors.ErrCodeOSError, err))
	}
	if err := c.Write(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return c.fail(omrxerrors.Wrap(omrxerrors.ErrCodeOSError, err))
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return c.fail(omrxerrors.Wrap(omrxerrors.ErrCodeOSError, err))
	}
	c.ok()
	return nil
}

// GetRootChunk returns the container's root chunk.
func (c *Container) GetRootChunk() *chunktree.Chunk {
	return c.Root
}

// GetChild delegates to Chunk.GetChild.
func (c *Container) GetChild(parent *chunktree.Chunk, tag *[4]byte) (*chunktree.Chunk, bool) {
	return parent.GetChild(tag)
}

// GetNextChunk delegates to Chunk.GetNext.
func (c *Container) GetNextChunk(chunk *chunktree.Chunk, tag *[4]byte) (*chunktree.Chunk, bool) {
	return chunk.GetNext(tag)
}

// GetParent delegates to Chunk.GetParent.
func (c *Container) GetParent(chunk *chunktree.Chunk) *chunktree.Chunk {
	return chunk.GetParent()
}

// GetChunkByID looks the chunk up in the id index, optionally verifying
// it carries the expected tag.
func (c *Container) GetChunkByID(id string, tag *[4]byte) (*chunktree.Chunk, error) {
	chunk, found := c.index.Lookup(id)
	if !found {
		return nil, c.notFound(omrxerrors.New(omrxerrors.StatusCodeNotFound, "no chunk registered under id", nil).WithDetail("id", id))
	}
	if tag != nil && chunk.Tag != *tag {
		return nil, c.notFound(omrxerrors.New(omrxerrors.StatusCodeNotFound, "chunk id registered under a different tag", nil).WithDetail("id", id))
	}
	c.ok()
	return chunk, nil
}

// AddChunk creates a new child chunk under parent.
func (c *Container) AddChunk(parent *chunktree.Chunk, tag [4]byte) (*chunktree.Chunk, error) {
	child, err := parent.AddChild(tag)
	if err != nil {
		return nil, c.fail(err)
	}
	c.ok()
	return child, nil
}

// DeleteChunk detaches chunk (and its whole subtree) from the tree,
// deregistering every id mapping the subtree held.
func (c *Container) DeleteChunk(chunk *chunktree.Chunk) {
	chunk.Walk(func(ch *chunktree.Chunk) {
		if ch.ChunkID != "" {
			c.index.Deregister(ch.ChunkID)
		}
	})
	chunk.DetachFromParent()
	c.ok()
}

// SetAttr creates or replaces an attribute on chunk, keeping the id index
// in sync when id is the id-string attribute.
func (c *Container) SetAttr(chunk *chunktree.Chunk, id uint16, dt dtype.Type, ownership attr.Ownership, data []byte, cols uint16) (*attr.Attribute, error) {
	a, err := chunk.SetAttr(id, dt, ownership, data, cols)
	if err != nil {
		return nil, c.fail(err)
	}
	if id == attr.IDString && dt == dtype.UTF8 {
		if chunk.ChunkID != "" {
			c.index.Deregister(chunk.ChunkID)
		}
		if warn := c.index.Register(string(a.Data), chunk); warn != nil {
			c.status = omrxerrors.Worse(c.status, warn)
		}
	}
	c.ok()
	return a, nil
}

// DeleteAttr removes the attribute with the given id from chunk,
// deregistering its id mapping first if id is the id-string attribute.
func (c *Container) DeleteAttr(chunk *chunktree.Chunk, id uint16) {
	if id == attr.IDString && chunk.ChunkID != "" {
		c.index.Deregister(chunk.ChunkID)
		chunk.ChunkID = ""
	}
	chunk.DeleteAttr(id)
	c.ok()
}

// ReleaseAttrData frees a's in-memory payload if file-backed, keeping
// FilePos so a later load reproduces identical bytes. Unlike the
// reference implementation's stub, this is a fully working operation.
// It releases through the same cache that LoadAttr touches, so an
// explicit release and an LRU eviction leave the cache's bookkeeping in
// the same state.
func (c *Container) ReleaseAttrData(a *attr.Attribute) {
	c.cache.Release(c.path, a)
	c.ok()
}

// LoadAttr ensures a's payload is resident, touching the attribute
// cache so a later eviction (or explicit ReleaseAttrData) can free it
// and a subsequent load re-reads it lazily.
func (c *Container) LoadAttr(a *attr.Attribute) error {
	if err := a.Load(); err != nil {
		return c.fail(err)
	}
	c.cache.Touch(c.path, a)
	c.ok()
	return nil
}
