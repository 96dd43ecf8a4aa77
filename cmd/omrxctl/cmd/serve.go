package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/catalog"
	"github.com/foogod/go-omrx/internal/mcpserver"
	"github.com/foogod/go-omrx/internal/omrxconfig"
	"github.com/foogod/go-omrx/internal/omrxlog"
)

func newServeCmd() *cobra.Command {
	var configDir string

	cmd := &cobra.Command{
		Use:   "serve [container...]",
		Short: "Serve container navigation over MCP (stdio)",
		Long: `Start an MCP server on stdio exposing container/model/mesh
navigation, attribute inspection, LOD resolution, nearest-vertex
lookup, and catalog search as tools for AI coding assistants. Any
containers named on the command line are opened before the server
starts accepting requests. The catalog searched by catalog_search is
the one built by 'omrxctl index' for --config-dir.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, configDir)
		},
	}

	cmd.Flags().StringVar(&configDir, "config-dir", ".", "Directory whose .omrxctl.yaml configures the shared catalog")

	return cmd
}

func runServe(cmd *cobra.Command, paths []string, configDir string) error {
	// MCP stdio requires stdout reserved exclusively for JSON-RPC. Route
	// everything else, including our own startup errors, through the
	// stdio-safe logging setup rather than cmd.OutOrStdout().
	cleanup, err := omrxlog.SetupMCPMode()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer cleanup()

	logger := slog.Default()

	cfg, err := omrxconfig.Load(configDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cat, err := catalog.New(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("open catalog: %w", err)
	}

	srv := mcpserver.NewServer(logger, cat)
	srv.SetCacheCapacity(cfg.Cache.Capacity)
	defer func() { _ = srv.Close() }()

	for _, path := range paths {
		if err := srv.Open(path); err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
	}

	return srv.Serve(cmd.Context())
}
