package spatial

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/codec"
	"github.com/foogod/go-omrx/internal/container"
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/model"
)

func buildMesh(t *testing.T, verts []float32) model.Mesh {
	t.Helper()
	c := container.New(nil)
	mesh, err := c.AddChunk(c.Root, model.TagMesh)
	require.NoError(t, err)

	vdat, err := c.AddChunk(mesh, model.TagVDat)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, model.AttrType, dtype.U32, attr.Copy, codec.EncodeUint32(uint32(model.VertexDataVertices)), 1)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, model.AttrIndex, dtype.U32, attr.Copy, codec.EncodeUint32(0), 1)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, attr.IDData, dtype.ArrayF32, attr.Take, codec.EncodeFloat32Array(verts), 3)
	require.NoError(t, err)

	return model.Mesh{Chunk: mesh}
}

func TestIndex_NearestReturnsClosestVertex(t *testing.T) {
	// Given a mesh with three vertices spread along the x axis
	mesh := buildMesh(t, []float32{
		0, 0, 0,
		10, 0, 0,
		20, 0, 0,
	})
	idx := New()
	require.NoError(t, idx.IndexMesh("scene.omrx", "hero_mesh", mesh))
	require.Equal(t, 3, idx.Len())

	// When querying near the second vertex
	matches, err := idx.Nearest(context.Background(), [3]float32{9, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)

	// Then the second vertex (index 1) wins
	assert.Equal(t, uint32(1), matches[0].Index)
	assert.Equal(t, "hero_mesh", matches[0].MeshID)
}

func TestIndex_ForgetDropsOnlyVerticesForGivenPath(t *testing.T) {
	mesh := buildMesh(t, []float32{0, 0, 0})
	idx := New()
	require.NoError(t, idx.IndexMesh("a.omrx", "mesh-a", mesh))
	require.NoError(t, idx.IndexMesh("b.omrx", "mesh-b", mesh))
	require.Equal(t, 2, idx.Len())

	idx.Forget("a.omrx")
	assert.Equal(t, 1, idx.Len())
}

func TestIndex_RejectsNonThreeColumnVertexData(t *testing.T) {
	c := container.New(nil)
	mesh, err := c.AddChunk(c.Root, model.TagMesh)
	require.NoError(t, err)
	vdat, err := c.AddChunk(mesh, model.TagVDat)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, model.AttrType, dtype.U32, attr.Copy, codec.EncodeUint32(uint32(model.VertexDataVertices)), 1)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, model.AttrIndex, dtype.U32, attr.Copy, codec.EncodeUint32(0), 1)
	require.NoError(t, err)
	_, err = c.SetAttr(vdat, attr.IDData, dtype.ArrayF32, attr.Take, codec.EncodeFloat32Array([]float32{1, 2}), 2)
	require.NoError(t, err)

	idx := New()
	err = idx.IndexMesh("scene.omrx", "bad-mesh", model.Mesh{Chunk: mesh})
	require.Error(t, err)
}

func TestIndex_NearestOnEmptyIndexReturnsNoMatches(t *testing.T) {
	idx := New()
	matches, err := idx.Nearest(context.Background(), [3]float32{0, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
