package cmd

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/catalog"
	"github.com/foogod/go-omrx/internal/omrxconfig"
	"github.com/foogod/go-omrx/internal/spatial"
	"github.com/foogod/go-omrx/internal/tui"
	"github.com/foogod/go-omrx/pkg/omrx"
)

func newIndexCmd() *cobra.Command {
	var forcePlain bool

	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Build the catalog and spatial indexes over a directory of containers",
		Long: `Walk dir for .omrx files, registering each chunk id, tag, and
model name into the text catalog and the vertex positions of every mesh
a model's LOD entries reference into the spatial nearest-vertex index, so 'omrxctl search' can answer both
kinds of query.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd.Context(), cmd, args[0], forcePlain)
		},
	}

	cmd.Flags().BoolVar(&forcePlain, "plain", false, "Force plain-text progress output")

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, dir string, forcePlain bool) error {
	cfg, err := omrxconfig.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	paths, err := findOMRXFiles(dir)
	if err != nil {
		return fmt.Errorf("scan %s: %w", dir, err)
	}

	cat, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = cat.Close() }()

	sp := spatial.New()

	rendererCfg := tui.NewConfig(cmd.OutOrStdout(), tui.WithForcePlain(forcePlain))
	renderer := tui.NewRenderer(rendererCfg)
	if err := renderer.Start(ctx); err != nil {
		return fmt.Errorf("start progress renderer: %w", err)
	}

	start := time.Now()
	var scanTime, catalogTime, spatialTime time.Duration
	var chunkCount, meshCount, errCount int

	for i, path := range paths {
		renderer.UpdateProgress(tui.ProgressEvent{
			Stage:       tui.StageScanning,
			Current:     i,
			Total:       len(paths),
			CurrentFile: path,
		})

		scanStart := time.Now()
		c, err := omrx.Open(path, slog.Default())
		scanTime += time.Since(scanStart)
		if err != nil {
			renderer.AddError(tui.ErrorEvent{File: path, Err: err})
			errCount++
			continue
		}
		c.SetCacheCapacity(cfg.Cache.Capacity)

		catStart := time.Now()
		if err := cat.IndexTree(path, c.Root()); err != nil {
			renderer.AddError(tui.ErrorEvent{File: path, Err: err, IsWarn: true})
		}
		catalogTime += time.Since(catStart)

		renderer.UpdateProgress(tui.ProgressEvent{
			Stage:       tui.StageSpatial,
			Current:     i,
			Total:       len(paths),
			CurrentFile: path,
		})

		spStart := time.Now()
		for _, m := range c.Models() {
			entries, _ := m.LODEntries()
			for _, entry := range entries {
				mesh, err := c.Mesh(entry)
				if err != nil {
					continue
				}
				meshID := tagToString(mesh.Chunk.Tag)
				if id := mesh.Chunk.ChunkID; id != "" {
					meshID = id
				}
				if err := sp.IndexMesh(path, meshID, mesh); err != nil {
					continue
				}
				meshCount++
			}
		}
		spatialTime += time.Since(spStart)

		renderer.UpdateProgress(tui.ProgressEvent{
			Stage:   tui.StageCataloging,
			Current: i + 1,
			Total:   len(paths),
		})

		chunkCount += countChunks(c.Root())
		_ = c.Close()
	}

	renderer.Complete(tui.CompletionStats{
		Files:    len(paths),
		Chunks:   chunkCount,
		Duration: time.Since(start),
		Errors:   errCount,
		Stages: tui.StageTimings{
			Scan:    scanTime,
			Spatial: spatialTime,
			Catalog: catalogTime,
		},
		Spatial: tui.SpatialInfo{
			Backend:     "hnsw",
			Dimensions:  3,
			VertexCount: sp.Len(),
		},
	})

	return renderer.Stop()
}

func findOMRXFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".omrx") {
			paths = append(paths, path)
		}
		return nil
	})
	return paths, err
}

func countChunks(root *omrx.Chunk) int {
	if root == nil {
		return 0
	}
	count := 1
	for ch := root.FirstChild; ch != nil; ch = ch.NextSibling {
		count += countChunks(ch)
	}
	return count
}
