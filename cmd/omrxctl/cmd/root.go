// Package cmd provides the CLI commands for omrxctl.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/omrxlog"
	"github.com/foogod/go-omrx/pkg/version"
)

// Debug logging flag
var (
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the omrxctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "omrxctl",
		Short: "Inspect, index, and serve OMRX binary model containers",
		Long: `omrxctl reads and writes OMRX containers: a chunked binary format
for 3D models with attributes, LOD chains, and mesh vertex data.

It can dump a container's chunk tree, resolve a model's LOD at a given
pixels-per-scene-unit budget, build a text and spatial index over a
directory of containers, and serve container navigation to AI tools
over MCP.`,
		Version: version.Version,
		SilenceUsage: true,
	}

	cmd.SetVersionTemplate("omrxctl version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.omrxctl/logs/")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newDumpCmd())
	cmd.AddCommand(newLODCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging enables debug logging if requested.
func startLogging(_ *cobra.Command, _ []string) error {
	if !debugMode {
		return nil
	}

	logger, cleanup, err := omrxlog.Setup(omrxlog.DebugConfig())
	if err != nil {
		return fmt.Errorf("failed to setup debug logging: %w", err)
	}
	loggingCleanup = cleanup
	slog.SetDefault(logger)
	slog.Info("debug logging enabled", slog.String("log_file", omrxlog.DefaultLogPath()))

	return nil
}

// stopLogging flushes and closes the debug log, if one was started.
func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		slog.Info("debug logging stopped")
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
