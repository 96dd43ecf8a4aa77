package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/pkg/omrx"
)

func newDumpCmd() *cobra.Command {
	var showAttrs bool

	cmd := &cobra.Command{
		Use:   "dump <path>",
		Short: "Print a container's chunk tree",
		Long: `Open an OMRX container and print its chunk tree depth-first,
one line per chunk, optionally with each chunk's attributes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := omrx.Open(args[0], nil)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() { _ = c.Close() }()

			if status := c.Status(); status != nil && status.Band == omrx.BandError {
				return fmt.Errorf("scan %s: %w", args[0], status)
			}

			dumpChunk(cmd.OutOrStdout(), c, c.Root(), 0, showAttrs)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAttrs, "attrs", false, "Also print each chunk's attributes")

	return cmd
}

func dumpChunk(w io.Writer, c *omrx.Container, chunk *omrx.Chunk, depth int, showAttrs bool) {
	if chunk == nil {
		return
	}

	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	id := ""
	if chunk.ChunkID != "" {
		id = fmt.Sprintf(" id=%q", chunk.ChunkID)
	}
	_, _ = fmt.Fprintf(w, "%s%s%s\n", indent, tagToString(chunk.Tag), id)

	if showAttrs {
		for _, a := range chunk.Attrs {
			_, _ = fmt.Fprintf(w, "%s  attr 0x%04X dtype=%s cols=%d size=%d\n",
				indent, a.ID, a.Dtype, a.Cols, a.Size)
		}
	}

	for child, ok := c.Child(chunk, nil); ok; child, ok = c.Next(child, nil) {
		dumpChunk(w, c, child, depth+1, showAttrs)
	}
}

func tagToString(tag [4]byte) string {
	return string(tag[:])
}
