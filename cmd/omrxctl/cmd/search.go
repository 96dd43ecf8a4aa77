package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/catalog"
	"github.com/foogod/go-omrx/internal/omrxconfig"
	"github.com/foogod/go-omrx/internal/spatial"
	"github.com/foogod/go-omrx/pkg/omrx"
)

func newSearchCmd() *cobra.Command {
	var nearestPath string
	var meshID string
	var point [3]float32
	var k int
	var limit int

	cmd := &cobra.Command{
		Use:   "search <dir> [query]",
		Short: "Search the catalog, or the nearest vertices of a mesh",
		Long: `With a query argument, runs a full-text search over the catalog
built by 'omrxctl index' for chunk ids, tags, and model names.

With --nearest, instead finds the vertices of a single mesh closest to
--point, building a one-off spatial index over just that mesh.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if nearestPath != "" {
				return runSearchNearest(cmd, nearestPath, meshID, point, k)
			}
			if len(args) < 2 {
				return fmt.Errorf("search requires a query argument unless --nearest is set")
			}
			return runSearchCatalog(cmd, args[0], args[1], limit)
		},
	}

	cmd.Flags().StringVar(&nearestPath, "nearest", "", "Container path to run a nearest-vertex query against")
	cmd.Flags().StringVar(&meshID, "mesh", "", "Mesh id to search within (required with --nearest)")
	cmd.Flags().Float32Var(&point[0], "x", 0, "Query point X")
	cmd.Flags().Float32Var(&point[1], "y", 0, "Query point Y")
	cmd.Flags().Float32Var(&point[2], "z", 0, "Query point Z")
	cmd.Flags().IntVar(&k, "k", 1, "Number of nearest vertices to return")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum catalog results to return")

	return cmd
}

func runSearchCatalog(cmd *cobra.Command, dir, query string, limit int) error {
	cfg, err := omrxconfig.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	cat, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	results, err := cat.Search(cmd.Context(), query, limit)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	for _, r := range results {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%.3f  %-8s %-6s %s\n", r.Score, r.ID, r.Tag, r.Path)
	}
	return nil
}

func runSearchNearest(cmd *cobra.Command, path, meshID string, point [3]float32, k int) error {
	if meshID == "" {
		return fmt.Errorf("--mesh is required with --nearest")
	}

	c, err := omrx.Open(path, slog.Default())
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = c.Close() }()

	mesh, err := c.ByID(meshID, &omrx.TagMesh)
	if err != nil {
		return fmt.Errorf("find mesh %q: %w", meshID, err)
	}

	sp := spatial.New()
	if err := sp.IndexMesh(path, meshID, omrx.Mesh{Chunk: mesh}); err != nil {
		return fmt.Errorf("index mesh: %w", err)
	}

	matches, err := sp.Nearest(cmd.Context(), point, k)
	if err != nil {
		return fmt.Errorf("nearest: %w", err)
	}

	for _, m := range matches {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "vertex %d  distance=%.6f\n", m.Index, m.Distance)
	}
	return nil
}
