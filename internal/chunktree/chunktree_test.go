package chunktree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/dtype"
)

func tag(s string) [4]byte {
	var t [4]byte
	copy(t[:], s)
	return t
}

func TestValidateTagBytes_RejectsOutOfRange(t *testing.T) {
	_, err := New([4]byte{0x00, 'M', 'D', 'L'})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_303_BAD_CHUNK_TAG")
}

func TestAddChild_LinksAtTailPreservingOrder(t *testing.T) {
	root, err := New(tag("OMRX"))
	require.NoError(t, err)

	a, err := root.AddChild(tag("MoDL"))
	require.NoError(t, err)
	b, err := root.AddChild(tag("MoDL"))
	require.NoError(t, err)

	assert.Same(t, a, root.FirstChild)
	assert.Same(t, b, root.LastChild)
	assert.Same(t, b, a.NextSibling)
	assert.Same(t, root, a.Parent)
}

func TestDetachFromParent_TailRemovalFixesLastChild(t *testing.T) {
	root, _ := New(tag("OMRX"))
	a, _ := root.AddChild(tag("MoDL"))
	b, _ := root.AddChild(tag("MoDL"))

	b.DetachFromParent()

	assert.Same(t, a, root.LastChild)
	assert.Nil(t, a.NextSibling)
}

func TestDetachFromParent_HeadRemovalUpdatesFirstChild(t *testing.T) {
	root, _ := New(tag("OMRX"))
	a, _ := root.AddChild(tag("MoDL"))
	b, _ := root.AddChild(tag("MoDL"))

	a.DetachFromParent()

	assert.Same(t, b, root.FirstChild)
	assert.Same(t, b, root.LastChild)
}

func TestGetChild_FiltersByTagOrReturnsFirst(t *testing.T) {
	root, _ := New(tag("OMRX"))
	_, _ = root.AddChild(tag("MoDL"))
	mesh, _ := root.AddChild(tag("MesH"))

	found, ok := root.GetChild(&mesh.Tag)
	require.True(t, ok)
	assert.Same(t, mesh, found)

	any, ok := root.GetChild(nil)
	require.True(t, ok)
	assert.Same(t, root.FirstChild, any)
}

func TestGetNext_SkipsToMatchingSibling(t *testing.T) {
	root, _ := New(tag("OMRX"))
	a, _ := root.AddChild(tag("MoDL"))
	_, _ = root.AddChild(tag("MesH"))
	c, _ := root.AddChild(tag("MoDL"))

	modlTag := tag("MoDL")
	found, ok := a.GetNext(&modlTag)
	require.True(t, ok)
	assert.Same(t, c, found)
}

func TestSetAttr_SortsByIDAscending(t *testing.T) {
	c, _ := New(tag("MesH"))
	_, err := c.SetAttr(0xFFFF, dtype.U8, attr.Copy, []byte{1}, 1)
	require.NoError(t, err)
	_, err = c.SetAttr(0x0001, dtype.UTF8, attr.Copy, []byte("x"), 1)
	require.NoError(t, err)

	require.Len(t, c.Attrs, 2)
	assert.Equal(t, uint16(0x0001), c.Attrs[0].ID)
	assert.Equal(t, uint16(0xFFFF), c.Attrs[1].ID)
}

func TestSetAttr_RejectsDtypeChangeOnExistingID(t *testing.T) {
	c, _ := New(tag("MesH"))
	_, err := c.SetAttr(0xFFFF, dtype.U32, attr.Copy, []byte{0, 0, 0, 0}, 1)
	require.NoError(t, err)

	_, err = c.SetAttr(0xFFFF, dtype.F32, attr.Copy, []byte{0, 0, 0, 0}, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ERR_304_WRONG_DTYPE")

	// first value remains
	existing := c.FindAttr(0xFFFF)
	assert.Equal(t, dtype.U32, existing.Dtype)
}

func TestPackTagInt_TreatsFirstByteAsMostSignificant(t *testing.T) {
	got := PackTagInt([4]byte{0x41, 0x42, 0x43, 0x44})
	assert.Equal(t, uint32(0x41424344), got)
}

func TestHasEndFlag_ReadsFourthByteBit(t *testing.T) {
	assert.False(t, HasEndFlag(tag("MoDL")))
	leaf := tag("MoDL")
	leaf[3] |= 0x20
	assert.True(t, HasEndFlag(leaf))
}

func TestWalk_VisitsPreOrder(t *testing.T) {
	root, _ := New(tag("OMRX"))
	a, _ := root.AddChild(tag("MoDL"))
	_, _ = a.AddChild(tag("MLOd"))
	_, _ = root.AddChild(tag("MesH"))

	var order []string
	root.Walk(func(c *Chunk) { order = append(order, string(c.Tag[:])) })
	assert.Equal(t, []string{"OMRX", "MoDL", "MLOd", "MesH"}, order)
}
