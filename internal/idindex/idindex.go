// Package idindex implements the ID index: a dynamic mapping from
// string id to chunk reference.
//
// The reference C implementation stores this as a flat array of (id,
// chunk) pairs that doubles on overflow, with its own author's comment
// "FIXME: make this a hashtable or something". A hash map substitute is
// an explicitly sanctioned implementation choice, so this package is a
// map[string]*chunktree.Chunk — the improvement the original author
// already wanted.
package idindex

import (
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// Index maps chunk id strings to chunks.
type Index struct {
	byID map[string]*chunktree.Chunk
}

// New constructs an empty index.
func New() *Index {
	return &Index{byID: make(map[string]*chunktree.Chunk)}
}

// Register associates id with chunk. If id is already registered, the
// call reports duplicate as a signalled warning, not a fatal error, and
// the existing mapping is retained: the first registration wins and the
// second is skipped.
func (idx *Index) Register(id string, chunk *chunktree.Chunk) *omrxerrors.Error {
	if _, exists := idx.byID[id]; exists {
		return omrxerrors.New(omrxerrors.WarnCodeDuplicate, "chunk id already registered", nil).
			WithDetail("id", id)
	}
	idx.byID[id] = chunk
	chunk.ChunkID = id
	return nil
}

// Deregister clears id's slot, if present.
func (idx *Index) Deregister(id string) {
	delete(idx.byID, id)
}

// Lookup returns the chunk registered under id, or ok=false.
func (idx *Index) Lookup(id string) (*chunktree.Chunk, bool) {
	c, ok := idx.byID[id]
	return c, ok
}

// Len returns the number of registered ids.
func (idx *Index) Len() int {
	return len(idx.byID)
}
