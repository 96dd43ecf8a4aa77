// Package spatial indexes mesh vertex positions for nearest-vertex
// queries, built on github.com/coder/hnsw. It indexes 3-component
// vertex positions under Euclidean distance, so a caller can ask "which
// vertex of this mesh is closest to this point" without a linear scan
// of VDat payloads.
package spatial

import (
	"context"
	"fmt"
	"sync"

	"github.com/coder/hnsw"

	"github.com/foogod/go-omrx/internal/codec"
	"github.com/foogod/go-omrx/internal/model"
)

// VertexRef identifies one vertex within one mesh of one container.
type VertexRef struct {
	Path   string // container file this mesh belongs to
	MeshID string // the mesh's registered id string
	Index  uint32 // row index into the mesh's VertexDataVertices table
}

// Match is one nearest-vertex result.
type Match struct {
	VertexRef
	Distance float32
}

// Index is an HNSW graph over vertex positions, keyed by an internal
// sequential key mapped back to a VertexRef via a string-id <-> uint64-key
// double map.
type Index struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]

	refs    map[uint64]VertexRef
	nextKey uint64
}

// New constructs an empty index with Euclidean distance over 3-vectors,
// since scene-unit vertex coordinates carry no natural notion of
// direction-only similarity the way text embeddings do.
func New() *Index {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.EuclideanDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return &Index{
		graph: g,
		refs:  make(map[uint64]VertexRef),
	}
}

// IndexMesh decodes mesh's VertexDataVertices table (if present) and adds
// every vertex to the graph under ref.Path/meshID.
func (idx *Index) IndexMesh(path, meshID string, mesh model.Mesh) error {
	vd, err := mesh.FindVertexData(model.VertexDataVertices, 0)
	if err != nil {
		return err
	}
	if vd.Cols != 3 {
		return fmt.Errorf("spatial: mesh %s has %d-column vertex data, want 3", meshID, vd.Cols)
	}

	flat := codec.DecodeFloat32Array(vd.Data)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for row := uint32(0); row < vd.Rows; row++ {
		pos := flat[row*3 : row*3+3]
		key := idx.nextKey
		idx.nextKey++
		idx.graph.Add(hnsw.MakeNode(key, pos))
		idx.refs[key] = VertexRef{Path: path, MeshID: meshID, Index: row}
	}
	return nil
}

// Nearest returns up to k vertices closest to point (x, y, z).
func (idx *Index) Nearest(ctx context.Context, point [3]float32, k int) ([]Match, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph.Len() == 0 {
		return nil, nil
	}

	nodes := idx.graph.Search(point[:], k)
	out := make([]Match, 0, len(nodes))
	for _, node := range nodes {
		ref, ok := idx.refs[node.Key]
		if !ok {
			continue
		}
		out = append(out, Match{
			VertexRef: ref,
			Distance:  idx.graph.Distance(point[:], node.Value),
		})
	}
	return out, nil
}

// Forget removes every vertex indexed under path, so a container whose
// file changed can be reindexed from scratch.
func (idx *Index) Forget(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for key, ref := range idx.refs {
		if ref.Path == path {
			delete(idx.refs, key)
		}
	}
}

// Len returns the number of vertices currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.refs)
}
