package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foogod/go-omrx/internal/tui"
	"github.com/foogod/go-omrx/pkg/omrx"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse <path>",
		Short: "Interactively browse a container's chunk tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !tui.IsTTY(cmd.OutOrStdout()) {
				return fmt.Errorf("browse requires an interactive terminal; use 'omrxctl dump' instead")
			}

			c, err := omrx.Open(args[0], nil)
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer func() { _ = c.Close() }()

			root := &browseChunk{container: c, chunk: c.Root()}
			return tui.RunBrowser(root, cmd.OutOrStdout())
		},
	}
	return cmd
}

// browseChunk adapts pkg/omrx's navigation API to tui.BrowseChunk.
type browseChunk struct {
	container *omrx.Container
	chunk     *omrx.Chunk
}

func (b *browseChunk) Tag() [4]byte { return b.chunk.Tag }

func (b *browseChunk) ID() string { return b.chunk.ChunkID }

func (b *browseChunk) Children() []tui.BrowseChunk {
	var out []tui.BrowseChunk
	for ch, ok := b.container.Child(b.chunk, nil); ok; ch, ok = b.container.Next(ch, nil) {
		out = append(out, &browseChunk{container: b.container, chunk: ch})
	}
	return out
}

func (b *browseChunk) AttrSummary() []string {
	out := make([]string, 0, len(b.chunk.Attrs))
	for _, a := range b.chunk.Attrs {
		out = append(out, fmt.Sprintf("0x%04X:%s[%d]", a.ID, a.Dtype, a.Size))
	}
	return out
}
