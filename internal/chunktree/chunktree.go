// Package chunktree implements the in-memory chunk tree: parent/child/
// sibling links, a tag, an attribute list ordered by attribute id
// ascending, and an optional string id.
package chunktree

import (
	"sort"
	"strconv"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// Tag bit flags. These are observable on the 32-bit packed tag integer
// built by TagInt, not on the raw bytes directly, matching the reference
// implementation's packed-word flag constants.
const (
	// EndChunkFlag marks a chunk as either a leaf (set from creation) or a
	// close marker (set only on the transient marker chunk consumed
	// during Scan, never retained in the tree).
	EndChunkFlag uint32 = 0x00000020
	// AncillaryChunkFlag and CopyableChunkFlag are recorded on the tag but
	// not interpreted by the core engine.
	AncillaryChunkFlag uint32 = 0x20000000
	CopyableChunkFlag  uint32 = 0x00200000
)

// Chunk is a node in the container tree.
type Chunk struct {
	Tag    [4]byte
	TagInt uint32

	Parent      *Chunk
	FirstChild  *Chunk
	LastChild   *Chunk
	NextSibling *Chunk

	Attrs []*attr.Attribute // sorted ascending by ID, no duplicates

	ChunkID string // cached string id, "" if none

	// FilePos is the absolute file position where this chunk's attribute
	// region began, kept for diagnostics and lazy loading.
	FilePos int64
}

// PackTagInt builds the 32-bit comparison key for a tag: four bytes packed
// big-endian-within-word, tag[0] as the most significant byte. This
// ordering is an internal choice, not observable on disk.
func PackTagInt(tag [4]byte) uint32 {
	return uint32(tag[0])<<24 | uint32(tag[1])<<16 | uint32(tag[2])<<8 | uint32(tag[3])
}

// ValidateTagBytes checks that all four tag bytes lie in 0x40-0x7F,
// matching the reference implementation's `(tagint & 0xc0c0c0c0) !=
// 0x40404040` bitmask check.
func ValidateTagBytes(tag [4]byte) error {
	for _, b := range tag {
		if b&0xC0 != 0x40 {
			return omrxerrors.New(omrxerrors.ErrCodeBadChunk, "chunk tag byte out of range", nil).
				WithDetail("tag", string(tag[:]))
		}
	}
	return nil
}

// HasEndFlag reports whether t's fourth byte carries the end-chunk flag.
func HasEndFlag(t [4]byte) bool {
	return PackTagInt(t)&EndChunkFlag != 0
}

// New constructs a detached chunk with the given tag. Callers normally go
// through AddChild instead.
func New(tag [4]byte) (*Chunk, error) {
	if err := ValidateTagBytes(tag); err != nil {
		return nil, err
	}
	return &Chunk{Tag: tag, TagInt: PackTagInt(tag), FilePos: -1}, nil
}

// AddChild allocates a new chunk and links it at the end of c's child
// list.
func (c *Chunk) AddChild(tag [4]byte) (*Chunk, error) {
	child, err := New(tag)
	if err != nil {
		return nil, err
	}
	c.appendChild(child)
	return child, nil
}

// appendChild links an already-constructed chunk as c's last child,
// shared by AddChild and the scan parser.
func (c *Chunk) appendChild(child *Chunk) {
	child.Parent = c
	if c.LastChild == nil {
		c.FirstChild = child
		c.LastChild = child
	} else {
		c.LastChild.NextSibling = child
		c.LastChild = child
	}
}

// AttachChild links an already-constructed, detached chunk as c's last
// child. Used by the scan parser, which must read a chunk's header and
// attributes before it can tell whether the chunk is a close marker, a
// leaf, or a new parent to push onto the context.
func (c *Chunk) AttachChild(child *Chunk) {
	c.appendChild(child)
}

// AppendAttrSorted inserts an already-constructed attribute at its sorted
// position. Used by the scan parser, which builds attributes directly
// from the wire format rather than through SetAttr's dtype-match check.
func (c *Chunk) AppendAttrSorted(a *attr.Attribute) {
	c.insertSorted(a)
}

// GetChild returns the first child whose tag matches, or the first child
// of any tag if tag is nil.
func (c *Chunk) GetChild(tag *[4]byte) (*Chunk, bool) {
	for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
		if tag == nil || ch.Tag == *tag {
			return ch, true
		}
	}
	return nil, false
}

// GetNext returns the first later sibling whose tag matches, or the
// immediate next sibling if tag is nil.
func (c *Chunk) GetNext(tag *[4]byte) (*Chunk, bool) {
	if tag == nil {
		if c.NextSibling != nil {
			return c.NextSibling, true
		}
		return nil, false
	}
	for s := c.NextSibling; s != nil; s = s.NextSibling {
		if s.Tag == *tag {
			return s, true
		}
	}
	return nil, false
}

// GetParent returns c's parent, or nil for the root.
func (c *Chunk) GetParent() *Chunk {
	return c.Parent
}

// DetachFromParent removes c from its parent's child list, preserving the
// parent's last-child tail when c was the tail.
func (c *Chunk) DetachFromParent() {
	p := c.Parent
	if p == nil {
		return
	}
	if p.FirstChild == c {
		p.FirstChild = c.NextSibling
		if p.LastChild == c {
			p.LastChild = nil
		}
		c.Parent = nil
		c.NextSibling = nil
		return
	}
	prev := p.FirstChild
	for prev != nil && prev.NextSibling != c {
		prev = prev.NextSibling
	}
	if prev != nil {
		prev.NextSibling = c.NextSibling
		if p.LastChild == c {
			p.LastChild = prev
		}
	}
	c.Parent = nil
	c.NextSibling = nil
}

// Walk calls fn for c and every descendant, depth-first, children before
// their own children's siblings (pre-order), matching Write's traversal
// order.
func (c *Chunk) Walk(fn func(*Chunk)) {
	fn(c)
	for ch := c.FirstChild; ch != nil; ch = ch.NextSibling {
		ch.Walk(fn)
	}
}

// FindAttr returns the attribute with the given id, or nil.
func (c *Chunk) FindAttr(id uint16) *attr.Attribute {
	i := sort.Search(len(c.Attrs), func(i int) bool { return c.Attrs[i].ID >= id })
	if i < len(c.Attrs) && c.Attrs[i].ID == id {
		return c.Attrs[i]
	}
	return nil
}

// insertSorted inserts a into c.Attrs at the position that preserves
// ascending-by-id order.
func (c *Chunk) insertSorted(a *attr.Attribute) {
	i := sort.Search(len(c.Attrs), func(i int) bool { return c.Attrs[i].ID >= a.ID })
	c.Attrs = append(c.Attrs, nil)
	copy(c.Attrs[i+1:], c.Attrs[i:])
	c.Attrs[i] = a
}

// SetAttr creates or replaces an attribute, enforcing the dtype-match
// invariant on an existing attribute of the same id. It does not by
// itself handle the id-string/ID-index bookkeeping — the container
// layer does that, since it alone knows the index.
func (c *Chunk) SetAttr(id uint16, dt dtype.Type, ownership attr.Ownership, data []byte, cols uint16) (*attr.Attribute, error) {
	if existing := c.FindAttr(id); existing != nil {
		if existing.Dtype != dt {
			return nil, omrxerrors.New(omrxerrors.ErrCodeWrongDtype, "attribute dtype mismatch on re-set", nil).
				WithDetail("id", strconv.Itoa(int(id)))
		}
		existing.Set(dt, ownership, data, cols)
		return existing, nil
	}
	a := attr.New(id, dt, nil, cols)
	a.Set(dt, ownership, data, cols)
	c.insertSorted(a)
	return a, nil
}

// DeleteAttr unlinks and discards the attribute with the given id,
// returning whether it existed.
func (c *Chunk) DeleteAttr(id uint16) bool {
	for i, a := range c.Attrs {
		if a.ID == id {
			c.Attrs = append(c.Attrs[:i], c.Attrs[i+1:]...)
			return true
		}
	}
	return false
}
