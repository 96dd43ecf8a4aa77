package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/pkg/omrx"
)

func newLODCmd() *cobra.Command {
	var modelID string
	var ppsu float64

	cmd := &cobra.Command{
		Use:   "lod <path>",
		Short: "Resolve a model's LOD mesh at a given pixels-per-scene-unit budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := omrx.Open(args[0], nil)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() { _ = c.Close() }()

			m, err := findModel(c, modelID)
			if err != nil {
				return err
			}

			entry, lodErr := m.FindLOD(float32(ppsu))
			if lodErr != nil {
				return fmt.Errorf("find lod: %w", lodErr)
			}

			mesh, err := c.Mesh(entry)
			if err != nil {
				return fmt.Errorf("resolve mesh: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ppsu=%.2f -> lod entry ppsu=%.2f mesh=%s\n",
				ppsu, entry.PPSU, tagToString(mesh.Chunk.Tag))
			return nil
		},
	}

	cmd.Flags().StringVar(&modelID, "model", "", "Model id to resolve (default: first model under root)")
	cmd.Flags().Float64Var(&ppsu, "ppsu", 0, "Requested pixels-per-scene-unit budget")

	return cmd
}

func findModel(c *omrx.Container, id string) (omrx.Model, error) {
	models := c.Models()
	if len(models) == 0 {
		return omrx.Model{}, fmt.Errorf("no models found in container")
	}

	if id == "" {
		return models[0], nil
	}

	for _, m := range models {
		if mid, ok := m.ID(); ok && mid == id {
			return m, nil
		}
	}
	return omrx.Model{}, fmt.Errorf("model %q not found", id)
}
