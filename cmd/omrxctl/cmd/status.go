package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/omrxconfig"
	"github.com/foogod/go-omrx/internal/tui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <dir>",
		Short: "Show catalog index health and configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, dir string, jsonOutput bool) error {
	cfg, err := omrxconfig.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	info := tui.StatusInfo{
		ProjectName:    filepath.Base(dir),
		CatalogSize:    dirSize(cfg.Catalog.Path),
		SpatialBackend: "hnsw",
		// The spatial index is rebuilt in-memory on every 'omrxctl index'
		// or 'omrxctl search --nearest' run rather than persisted to
		// disk, so status always reports it as empty between runs.
		SpatialStatus: "empty",
		WatcherStatus: "n/a",
	}
	info.TotalSize = info.MetadataSize + info.CatalogSize + info.SpatialSize

	renderer := tui.NewStatusRenderer(cmd.OutOrStdout(), tui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}

func dirSize(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}

	var total int64
	_ = filepath.Walk(path, func(_ string, fi os.FileInfo, err error) error {
		if err != nil || fi == nil || fi.IsDir() {
			return nil
		}
		total += fi.Size()
		return nil
	})
	return total
}
