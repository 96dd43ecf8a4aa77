package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/omrxconfig"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage project configuration",
		Long: `Manage the per-project .omrxctl.yaml configuration file covering
watch include/exclude patterns, cache sizing, catalog and spatial index
tuning, and the MCP server transport.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. Project config (.omrxctl.yaml, nearest ancestor of the given directory)
  3. Environment variables (OMRXCTL_*)`,
		Example: `  # Create a project config with defaults
  omrxctl config init .

  # Show the effective configuration (merged from all sources)
  omrxctl config show .`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Write a default .omrxctl.yaml into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, args[0], force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration file")

	return cmd
}

func runConfigInit(cmd *cobra.Command, dir string, force bool) error {
	path := filepath.Join(dir, omrxconfig.ConfigFileName)

	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	cfg := omrxconfig.NewConfig()
	if err := cfg.WriteYAML(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show <dir>",
		Short: "Print the effective configuration for dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, args[0], jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runConfigShow(cmd *cobra.Command, dir string, jsonOutput bool) error {
	cfg, err := omrxconfig.Load(dir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "version: %d\n", cfg.Version)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "watch:\n  include: %v\n  exclude: %v\n  debounce_ms: %d\n",
		cfg.Watch.Include, cfg.Watch.Exclude, cfg.Watch.DebounceMS)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cache:\n  capacity: %d\n", cfg.Cache.Capacity)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "catalog:\n  path: %q\n", cfg.Catalog.Path)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "spatial:\n  m: %d\n  ef_search: %d\n", cfg.Spatial.M, cfg.Spatial.EfSearch)
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "server:\n  transport: %s\n  log_level: %s\n", cfg.Server.Transport, cfg.Server.LogLevel)

	return nil
}
