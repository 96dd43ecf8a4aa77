// Package catalog indexes chunk ids, tags, and model names for keyword
// search across one or more open containers, built on Bleve v2. Rather
// than indexing file content, catalog indexes the much smaller surface
// of an OMRX tree: registered id strings, chunk tags, and model display
// names, so a caller can find "the mesh named hero_lod2" without walking
// the tree by hand.
package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/foogod/go-omrx/internal/attr"
	"github.com/foogod/go-omrx/internal/chunktree"
	"github.com/foogod/go-omrx/internal/model"
)

// entryDocument is the document shape indexed in Bleve. Content folds
// together the id, tag, and (for models) display name into one
// analyzed field; Path and Tag are stored verbatim for exact
// filtering once a Result comes back.
type entryDocument struct {
	Content string `json:"content"`
	Path    string `json:"path"`
	Tag     string `json:"tag"`
}

// Result is one catalog hit.
type Result struct {
	// Path identifies the container this chunk belongs to, so a caller
	// watching many files can tell which one to reopen.
	Path string
	// ID is the chunk's registered id string.
	ID string
	// Tag is the chunk's 4-byte tag, rendered as text.
	Tag string
	Score float64
}

// Catalog is a Bleve-backed text index over chunk ids, tags, and model
// names, shared across every container a caller has opened.
type Catalog struct {
	mu    sync.RWMutex
	index bleve.Index
	path  string
}

// New opens (or creates) a catalog at path. An empty path builds an
// in-memory index, useful for tests and one-shot CLI invocations.
func New(path string) (*Catalog, error) {
	m, err := buildMapping()
	if err != nil {
		return nil, fmt.Errorf("catalog: build mapping: %w", err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(m)
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("catalog: create directory: %w", err)
		}
		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, m)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: open index: %w", err)
	}

	return &Catalog{index: idx, path: path}, nil
}

func buildMapping() (*mapping.IndexMappingImpl, error) {
	im := bleve.NewIndexMapping()
	return im, nil
}

// docID is the Bleve document id: unique per container path + chunk id,
// since the same id string may appear (legitimately, pre-Scan) in more
// than one open container.
func docID(path, id string) string {
	return path + "\x00" + id
}

// IndexTree walks root (and every descendant) and indexes each chunk
// that carries a registered id string, plus, for MoDL chunks, their
// display name (internal/model.AttrName) folded into the same searchable
// content field.
func (c *Catalog) IndexTree(path string, root *chunktree.Chunk) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := c.index.NewBatch()
	root.Walk(func(ch *chunktree.Chunk) {
		idAttr := ch.FindAttr(attr.IDString)
		if idAttr == nil {
			return
		}
		if err := idAttr.Load(); err != nil {
			return
		}
		id := string(idAttr.Data)
		tag := tagString(ch.Tag)

		content := id + " " + tag
		if ch.Tag == model.TagModel {
			if name, ok := (model.Model{Chunk: ch}).Name(); ok {
				content += " " + name
			}
		}

		doc := entryDocument{Content: content, Path: path, Tag: tag}
		_ = batch.Index(docID(path, id), doc)
	})

	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("catalog: index batch: %w", err)
	}
	return nil
}

// Forget removes every document indexed under path, used when a watched
// file is removed or about to be re-scanned from scratch.
func (c *Catalog) Forget(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	query := bleve.NewMatchQuery(path)
	query.SetField("path")
	req := bleve.NewSearchRequest(query)
	req.Size = 1 << 20
	req.Fields = []string{"path"}

	result, err := c.index.Search(req)
	if err != nil {
		return fmt.Errorf("catalog: search for forget: %w", err)
	}

	batch := c.index.NewBatch()
	for _, hit := range result.Hits {
		if p, _ := hit.Fields["path"].(string); p == path {
			batch.Delete(hit.ID)
		}
	}
	return c.index.Batch(batch)
}

// Search returns up to limit chunks whose id, tag, or model name matches
// query, ranked by Bleve's default BM25-like scoring.
func (c *Catalog) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	matchQuery := bleve.NewMatchQuery(query)
	matchQuery.SetField("content")

	req := bleve.NewSearchRequest(matchQuery)
	req.Size = limit
	req.Fields = []string{"path", "tag"}

	result, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}

	out := make([]Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		path, _ := hit.Fields["path"].(string)
		tag, _ := hit.Fields["tag"].(string)
		_, id := splitDocID(hit.ID)
		out = append(out, Result{Path: path, ID: id, Tag: tag, Score: hit.Score})
	}
	return out, nil
}

// Close releases the underlying Bleve index.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Close()
}

func tagString(tag [4]byte) string {
	return string(tag[:])
}

func splitDocID(id string) (path, chunkID string) {
	parts := strings.SplitN(id, "\x00", 2)
	if len(parts) != 2 {
		return "", id
	}
	return parts[0], parts[1]
}
