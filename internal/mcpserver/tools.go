package mcpserver

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/model"
	"github.com/foogod/go-omrx/internal/spatial"
)

// ChunkSummary is the tool-facing view of a chunktree.Chunk: its tag,
// registered id (if any), and the ids of its attributes (not their
// payloads, which may be large or file-backed).
type ChunkSummary struct {
	Tag     string   `json:"tag" jsonschema:"the chunk's 4-character tag"`
	ID      string   `json:"id,omitempty" jsonschema:"the chunk's registered id string, if any"`
	AttrIDs []uint16 `json:"attr_ids,omitempty" jsonschema:"attribute ids present on this chunk"`
}

// ModelSummary is the tool-facing view of a model.Model.
type ModelSummary struct {
	ID   string `json:"id,omitempty" jsonschema:"the model's registered id string"`
	Name string `json:"name,omitempty" jsonschema:"the model's display name"`
}

// OpenInput identifies a container file by path.
type OpenInput struct {
	Path string `json:"path" jsonschema:"filesystem path to the .omrx container"`
}

// OpenOutput reports the root chunk of a newly opened container.
type OpenOutput struct {
	Root ChunkSummary `json:"root" jsonschema:"the container's root chunk"`
}

// ListModelsInput identifies which open container to list models from.
type ListModelsInput struct {
	Path string `json:"path" jsonschema:"path of a previously opened container"`
}

// ListModelsOutput lists every model at the root of a container.
type ListModelsOutput struct {
	Models []ModelSummary `json:"models" jsonschema:"models found under the container's root"`
}

// FindLODInput selects a model and a target pixels-per-scene-unit ratio.
type FindLODInput struct {
	Path       string  `json:"path" jsonschema:"path of a previously opened container"`
	ModelID    string  `json:"model_id" jsonschema:"id of the model to query"`
	RequestedPPSU float32 `json:"requested_ppsu" jsonschema:"target pixels-per-scene-unit detail level"`
}

// FindLODOutput reports the mesh id chosen for the requested detail level.
type FindLODOutput struct {
	MeshID string `json:"mesh_id" jsonschema:"id of the mesh chosen for the requested detail level"`
}

// ChunkByIDInput looks a chunk up by its registered id.
type ChunkByIDInput struct {
	Path string `json:"path" jsonschema:"path of a previously opened container"`
	ID   string `json:"id" jsonschema:"registered id string to look up"`
}

// ChunkByIDOutput reports the matching chunk.
type ChunkByIDOutput struct {
	Chunk ChunkSummary `json:"chunk" jsonschema:"the matching chunk"`
}

// AttributeSummary is the tool-facing view of an attr.Attribute: its
// type, shape, and raw payload.
type AttributeSummary struct {
	ID    uint16 `json:"id" jsonschema:"the attribute's numeric id"`
	Dtype string `json:"dtype" jsonschema:"the attribute's element type"`
	Size  uint32 `json:"size" jsonschema:"payload size in bytes"`
	Cols  uint16 `json:"cols" jsonschema:"column count for array types, 1 otherwise"`
	Rows  uint32 `json:"rows,omitempty" jsonschema:"row count: size / cols / element size, 0 when the element size is unknown"`
	Data  []byte `json:"data" jsonschema:"the attribute's raw payload, base64-encoded"`
}

// GetAttributeInput identifies a chunk by registered id and an
// attribute by numeric id.
type GetAttributeInput struct {
	Path    string `json:"path" jsonschema:"path of a previously opened container"`
	ChunkID string `json:"chunk_id" jsonschema:"registered id string of the chunk carrying the attribute"`
	AttrID  uint16 `json:"attr_id" jsonschema:"numeric id of the attribute to read"`
}

// GetAttributeOutput reports the matching attribute.
type GetAttributeOutput struct {
	Attribute AttributeSummary `json:"attribute" jsonschema:"the matching attribute"`
}

// FindNearestVertexInput selects a mesh and a query point within it.
type FindNearestVertexInput struct {
	Path   string     `json:"path" jsonschema:"path of a previously opened container"`
	MeshID string     `json:"mesh_id" jsonschema:"registered id of the mesh to search within"`
	Point  [3]float32 `json:"point" jsonschema:"query point as [x, y, z]"`
	K      int        `json:"k" jsonschema:"number of nearest vertices to return, default 1"`
}

// NearestVertexMatch is one nearest-vertex hit.
type NearestVertexMatch struct {
	Index    uint32  `json:"index" jsonschema:"row index into the mesh's vertex table"`
	Distance float32 `json:"distance" jsonschema:"Euclidean distance to the query point"`
}

// FindNearestVertexOutput lists the vertices closest to the query point.
type FindNearestVertexOutput struct {
	Matches []NearestVertexMatch `json:"matches" jsonschema:"vertices closest to the query point, nearest first"`
}

// CatalogSearchInput is a free-text query over the shared catalog.
type CatalogSearchInput struct {
	Query string `json:"query" jsonschema:"free-text query matched against chunk ids, tags, and model names"`
	Limit int    `json:"limit" jsonschema:"maximum number of results to return, default 10"`
}

// CatalogSearchResult is the tool-facing view of a catalog.Result.
type CatalogSearchResult struct {
	Path  string  `json:"path" jsonschema:"container file the match belongs to"`
	ID    string  `json:"id" jsonschema:"the chunk's registered id string"`
	Tag   string  `json:"tag" jsonschema:"the chunk's 4-character tag"`
	Score float64 `json:"score" jsonschema:"relevance score, higher is better"`
}

// CatalogSearchOutput lists the matches for a catalog query.
type CatalogSearchOutput struct {
	Results []CatalogSearchResult `json:"results" jsonschema:"catalog matches ranked by relevance"`
}

func (s *Server) registerTools() {
	s.logger.Debug("registering MCP tools")

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "open_container",
		Description: "Opens an OMRX container file and makes it available to the other tools by path. Returns the root chunk.",
	}, s.mcpOpenHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "list_models",
		Description: "Lists every model (MoDL chunk) directly under an open container's root, with their ids and display names.",
	}, s.mcpListModelsHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_lod",
		Description: "Selects the mesh a model should render at a given pixels-per-scene-unit detail level: the last LOD entry, in stored order, whose ppsu threshold is at or above the requested value.",
	}, s.mcpFindLODHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "chunk_by_id",
		Description: "Looks up a chunk by its registered id string within an open container.",
	}, s.mcpChunkByIDHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_attribute",
		Description: "Reads one attribute's type, shape, and raw payload off a chunk identified by its registered id.",
	}, s.mcpGetAttributeHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "find_nearest_vertex",
		Description: "Finds the vertices of a mesh closest to a query point, building a one-off spatial index over just that mesh.",
	}, s.mcpFindNearestVertexHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "catalog_search",
		Description: "Runs a full-text search over the catalog built by 'omrxctl index' for chunk ids, tags, and model names.",
	}, s.mcpCatalogSearchHandler)

	s.logger.Info("MCP tools registered", slog.Int("count", 7))
}

func (s *Server) mcpOpenHandler(ctx context.Context, _ *mcp.CallToolRequest, input OpenInput) (
	*mcp.CallToolResult, OpenOutput, error,
) {
	if input.Path == "" {
		return nil, OpenOutput{}, NewInvalidParamsError("path parameter is required")
	}
	if err := s.Open(input.Path); err != nil {
		return nil, OpenOutput{}, MapError(err)
	}
	c, err := s.container(input.Path)
	if err != nil {
		return nil, OpenOutput{}, MapError(err)
	}
	return nil, OpenOutput{Root: chunkSummary(c.Root())}, nil
}

func (s *Server) mcpListModelsHandler(ctx context.Context, _ *mcp.CallToolRequest, input ListModelsInput) (
	*mcp.CallToolResult, ListModelsOutput, error,
) {
	c, err := s.container(input.Path)
	if err != nil {
		return nil, ListModelsOutput{}, MapError(err)
	}
	models := c.Models()
	out := ListModelsOutput{Models: make([]ModelSummary, 0, len(models))}
	for _, m := range models {
		out.Models = append(out.Models, modelSummary(m))
	}
	return nil, out, nil
}

func (s *Server) mcpFindLODHandler(ctx context.Context, _ *mcp.CallToolRequest, input FindLODInput) (
	*mcp.CallToolResult, FindLODOutput, error,
) {
	c, err := s.container(input.Path)
	if err != nil {
		return nil, FindLODOutput{}, MapError(err)
	}

	var target *model.Model
	for _, m := range c.Models() {
		if id, ok := m.ID(); ok && id == input.ModelID {
			mm := m
			target = &mm
			break
		}
	}
	if target == nil {
		return nil, FindLODOutput{}, NewInvalidParamsError("no model with that id is open")
	}

	entry, werr := target.FindLOD(input.RequestedPPSU)
	if werr != nil {
		return nil, FindLODOutput{}, MapError(werr)
	}

	mesh, err := c.Mesh(entry)
	if err != nil {
		return nil, FindLODOutput{}, MapError(err)
	}
	meshID, _ := (model.Model{Chunk: mesh.Chunk}).ID()
	return nil, FindLODOutput{MeshID: meshID}, nil
}

func (s *Server) mcpChunkByIDHandler(ctx context.Context, _ *mcp.CallToolRequest, input ChunkByIDInput) (
	*mcp.CallToolResult, ChunkByIDOutput, error,
) {
	c, err := s.container(input.Path)
	if err != nil {
		return nil, ChunkByIDOutput{}, MapError(err)
	}
	ch, err := c.ByID(input.ID, nil)
	if err != nil {
		return nil, ChunkByIDOutput{}, MapError(err)
	}
	return nil, ChunkByIDOutput{Chunk: chunkSummary(ch)}, nil
}

func (s *Server) mcpGetAttributeHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetAttributeInput) (
	*mcp.CallToolResult, GetAttributeOutput, error,
) {
	c, err := s.container(input.Path)
	if err != nil {
		return nil, GetAttributeOutput{}, MapError(err)
	}
	ch, err := c.ByID(input.ChunkID, nil)
	if err != nil {
		return nil, GetAttributeOutput{}, MapError(err)
	}
	a := ch.FindAttr(input.AttrID)
	if a == nil {
		return nil, GetAttributeOutput{}, NewInvalidParamsError("chunk has no attribute with that id")
	}
	if err := c.LoadAttr(a); err != nil {
		return nil, GetAttributeOutput{}, MapError(err)
	}
	return nil, GetAttributeOutput{Attribute: attributeSummary(a)}, nil
}

func (s *Server) mcpFindNearestVertexHandler(ctx context.Context, _ *mcp.CallToolRequest, input FindNearestVertexInput) (
	*mcp.CallToolResult, FindNearestVertexOutput, error,
) {
	c, err := s.container(input.Path)
	if err != nil {
		return nil, FindNearestVertexOutput{}, MapError(err)
	}
	ch, err := c.ByID(input.MeshID, &model.TagMesh)
	if err != nil {
		return nil, FindNearestVertexOutput{}, MapError(err)
	}

	k := input.K
	if k <= 0 {
		k = 1
	}

	idx := spatial.New()
	if err := idx.IndexMesh(input.Path, input.MeshID, model.Mesh{Chunk: ch}); err != nil {
		return nil, FindNearestVertexOutput{}, MapError(err)
	}
	matches, err := idx.Nearest(ctx, input.Point, k)
	if err != nil {
		return nil, FindNearestVertexOutput{}, MapError(err)
	}

	out := FindNearestVertexOutput{Matches: make([]NearestVertexMatch, 0, len(matches))}
	for _, m := range matches {
		out.Matches = append(out.Matches, NearestVertexMatch{Index: m.Index, Distance: m.Distance})
	}
	return nil, out, nil
}

func (s *Server) mcpCatalogSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input CatalogSearchInput) (
	*mcp.CallToolResult, CatalogSearchOutput, error,
) {
	if s.catalog == nil {
		return nil, CatalogSearchOutput{}, NewInvalidParamsError("no catalog is configured for this server")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	results, err := s.catalog.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, CatalogSearchOutput{}, MapError(err)
	}
	out := CatalogSearchOutput{Results: make([]CatalogSearchResult, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, CatalogSearchResult{Path: r.Path, ID: r.ID, Tag: r.Tag, Score: r.Score})
	}
	return nil, out, nil
}

func attributeSummary(a *attr.Attribute) AttributeSummary {
	info := a.GetInfo()
	return AttributeSummary{
		ID:    a.ID,
		Dtype: a.Dtype.String(),
		Size:  info.Size,
		Cols:  info.Cols,
		Rows:  info.Rows,
		Data:  a.Data,
	}
}
