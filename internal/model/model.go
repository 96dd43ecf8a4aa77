// Package model implements the model overlay: a structural reading of
// model/LOD/mesh/vertex-data/polygon chunks on top of the container
// engine.
//
// The overlay's well-known attribute ids (name, scale, ppsu, vertex-data
// type, vertex-data index) have no surviving definition in the reference
// C implementation available for this port — the header that assigns
// their numeric values was not available. This package assigns them
// stable values in the unclaimed 0x0002-0x0006 range, distinct from the
// container-level ids (version 0x0000, id 0x0001, data 0xFFFF); see
// DESIGN.md.
package model

import (
	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/codec"
	"github.com/foogod/go-omrx/internal/container"
	"github.com/foogod/go-omrx/internal/dtype"
	"github.com/foogod/go-omrx/internal/omrxerrors"
)

// Well-known model-overlay attribute ids.
const (
	AttrName  uint16 = 0x0002 // model display name (UTF-8)
	AttrScale uint16 = 0x0003 // model's scene-unit scale factor (f32)
	AttrPPSU  uint16 = 0x0004 // LOD entry's pixels-per-scene-unit threshold (f32)
	AttrType  uint16 = 0x0005 // vertex-data kind (u32, see VertexDataType)
	AttrIndex uint16 = 0x0006 // vertex-data disambiguator among same-kind sets (u32)
)

// VertexDataType classifies a VDat chunk's payload.
type VertexDataType uint32

const (
	VertexDataVertices VertexDataType = iota + 1
	VertexDataNormals
	VertexDataMaterialIndices
	VertexDataTexCoords
)

// PolyType classifies a PoLy chunk's column width.
type PolyType int

const (
	PolyTriStrips PolyType = iota
	PolyTriangles
	PolyQuads
)

// Tags for the model-overlay chunk kinds.
var (
	TagModel = [4]byte{'M', 'o', 'D', 'L'}
	TagLOD   = [4]byte{'M', 'L', 'O', 'd'}
	TagMesh  = [4]byte{'M', 'e', 's', 'H'}
	TagVDat  = [4]byte{'V', 'D', 'a', 't'}
	TagPoly  = [4]byte{'P', 'o', 'L', 'y'}
)

// Model is a thin view over a MoDL chunk.
type Model struct {
	Chunk *chunktree.Chunk
}

// Mesh is a thin view over a MesH chunk.
type Mesh struct {
	Chunk *chunktree.Chunk
}

// ModelsOf returns every MoDL chunk directly under root.
func ModelsOf(root *chunktree.Chunk) []Model {
	var out []Model
	for ch, ok := root.GetChild(&TagModel); ok; ch, ok = ch.GetNext(&TagModel) {
		out = append(out, Model{Chunk: ch})
	}
	return out
}

// ID returns the model's id-string attribute, if any.
func (m Model) ID() (string, bool) {
	a := m.Chunk.FindAttr(attr.IDString)
	if a == nil {
		return "", false
	}
	if err := a.Load(); err != nil {
		return "", false
	}
	return string(a.Data), true
}

// Name returns the model's display name, if set.
func (m Model) Name() (string, bool) {
	a := m.Chunk.FindAttr(AttrName)
	if a == nil || a.Dtype != dtype.UTF8 {
		return "", false
	}
	if err := a.Load(); err != nil {
		return "", false
	}
	return string(a.Data), true
}

// Scale returns the model's scene-unit scale factor, defaulting to 1.0
// and reporting a bad-attr warning when the attribute is missing or the
// wrong type (model.c's get_model_scale: "Result may be wrong size").
func (m Model) Scale() (float32, *omrxerrors.Error) {
	a := m.Chunk.FindAttr(AttrScale)
	if a == nil || a.Dtype != dtype.F32 {
		return 1.0, omrxerrors.New(omrxerrors.WarnCodeBadAttr, "model has bad or missing scale attribute, using 1.0", nil)
	}
	if err := a.Load(); err != nil {
		return 1.0, omrxerrors.New(omrxerrors.WarnCodeBadAttr, "model scale attribute failed to load, using 1.0", nil)
	}
	return decodeFloat32(a.Data), nil
}

// LODEntry is one MLOd child: its ppsu threshold and the mesh id it
// references.
type LODEntry struct {
	Chunk *chunktree.Chunk
	PPSU  float32
	Valid bool
}

// LODEntries returns the model's MLOd children in on-disk order, along
// with any bad-attr warnings raised for entries with a missing or
// non-positive ppsu (model.c's get_lod_ppsu/find_lod).
func (m Model) LODEntries() ([]LODEntry, []*omrxerrors.Error) {
	var entries []LODEntry
	var warnings []*omrxerrors.Error
	for ch, ok := m.Chunk.GetChild(&TagLOD); ok; ch, ok = ch.GetNext(&TagLOD) {
		ppsu, valid := lodPPSU(ch)
		if !valid {
			warnings = append(warnings, omrxerrors.New(
				omrxerrors.WarnCodeBadAttr,
				"model LOD entry has bad or missing ppsu attribute, ignoring",
				nil,
			))
		}
		entries = append(entries, LODEntry{Chunk: ch, PPSU: ppsu, Valid: valid})
	}
	return entries, warnings
}

func lodPPSU(ch *chunktree.Chunk) (float32, bool) {
	a := ch.FindAttr(AttrPPSU)
	if a == nil || a.Dtype != dtype.F32 {
		return 0, false
	}
	if err := a.Load(); err != nil {
		return 0, false
	}
	v := decodeFloat32(a.Data)
	if v <= 0 {
		return 0, false
	}
	return v, true
}

// FindLOD walks the model's MLOd children in highest-to-lowest ppsu
// order and returns the least-detailed entry whose ppsu is still >= the
// requested value, i.e. the last one seen before ppsu drops below the
// request. If none qualifies, not-found is reported.
func (m Model) FindLOD(requestedPPSU float32) (LODEntry, *omrxerrors.Error) {
	entries, _ := m.LODEntries()
	var best LODEntry
	found := false
	for _, e := range entries {
		if !e.Valid {
			continue
		}
		if e.PPSU < requestedPPSU {
			break
		}
		best = e
		found = true
	}
	if !found {
		return LODEntry{}, omrxerrors.New(omrxerrors.StatusCodeNotFound, "no LOD entry satisfies the requested ppsu", nil)
	}
	return best, nil
}

// Mesh resolves entry's referenced mesh id through c's id index, requiring
// the target be tagged MesH (model.c's omrx_find_model_mesh_by_lod).
func (entry LODEntry) Mesh(c *container.Container) (Mesh, error) {
	a := entry.Chunk.FindAttr(attr.IDString)
	if a == nil || a.Dtype != dtype.UTF8 {
		return Mesh{}, omrxerrors.New(omrxerrors.WarnCodeBadAttr, "LOD entry has no usable mesh id attribute", nil)
	}
	if err := a.Load(); err != nil {
		return Mesh{}, err
	}
	chunk, err := c.GetChunkByID(string(a.Data), &TagMesh)
	if err != nil {
		return Mesh{}, err
	}
	return Mesh{Chunk: chunk}, nil
}

// VertexData is one VDat chunk's decoded payload.
type VertexData struct {
	Type  VertexDataType
	Index uint32
	Dtype dtype.Type
	Cols  uint16
	Rows  uint32
	Data  []byte
}

// FindVertexData returns the VDat child matching typ/index (model.c's
// find_vdat_chunk / omrx_get_mesh_vdata).
func (m Mesh) FindVertexData(typ VertexDataType, index uint32) (VertexData, error) {
	for ch, ok := m.Chunk.GetChild(&TagVDat); ok; ch, ok = ch.GetNext(&TagVDat) {
		gotType, ok1 := readUint32Attr(ch, AttrType)
		gotIndex, ok2 := readUint32Attr(ch, AttrIndex)
		if ok1 && VertexDataType(gotType) == typ && ok2 && gotIndex == index {
			return vertexDataFromChunk(ch)
		}
	}
	return VertexData{}, omrxerrors.New(omrxerrors.StatusCodeNotFound, "no matching vertex-data chunk", nil)
}

func vertexDataFromChunk(ch *chunktree.Chunk) (VertexData, error) {
	a := ch.FindAttr(attr.IDData)
	if a == nil {
		return VertexData{}, omrxerrors.New(omrxerrors.StatusCodeNotFound, "vertex-data chunk has no data attribute", nil)
	}
	if err := a.Load(); err != nil {
		return VertexData{}, err
	}
	info := a.GetInfo()
	return VertexData{
		Dtype: a.Dtype,
		Cols:  info.Cols,
		Rows:  info.Rows,
		Data:  a.Data,
	}, nil
}

// Polys is a mesh's single PoLy chunk's decoded payload.
type Polys struct {
	Dtype dtype.Type
	Count uint32
	Data  []byte
}

// Polys returns the mesh's polygon-index table (model.c's
// omrx_get_mesh_polys).
func (m Mesh) Polys() (Polys, error) {
	ch, ok := m.Chunk.GetChild(&TagPoly)
	if !ok {
		return Polys{}, omrxerrors.New(omrxerrors.StatusCodeNotFound, "mesh has no polygon chunk", nil)
	}
	a := ch.FindAttr(attr.IDData)
	if a == nil {
		return Polys{}, omrxerrors.New(omrxerrors.StatusCodeNotFound, "polygon chunk has no data attribute", nil)
	}
	if err := a.Load(); err != nil {
		return Polys{}, err
	}
	info := a.GetInfo()
	return Polys{Dtype: a.Dtype, Count: info.Rows * uint32(info.Cols), Data: a.Data}, nil
}

func readUint32Attr(ch *chunktree.Chunk, id uint16) (uint32, bool) {
	a := ch.FindAttr(id)
	if a == nil || a.Dtype != dtype.U32 {
		return 0, false
	}
	if err := a.Load(); err != nil {
		return 0, false
	}
	return codec.DecodeUint32(a.Data), true
}

func decodeFloat32(b []byte) float32 {
	vals := codec.DecodeFloat32Array(b)
	if len(vals) == 0 {
		return 0
	}
	return vals[0]
}
