package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// BrowseChunk is the minimal view of a chunk tree node the browser needs.
// Defined as an interface rather than importing chunktree directly so
// this package stays free of a dependency on the container engine.
type BrowseChunk interface {
	Tag() [4]byte
	ID() string
	Children() []BrowseChunk
	AttrSummary() []string
}

type browserRow struct {
	chunk BrowseChunk
	depth int
}

// BrowserModel is a read-only, collapsible tree view over a container's
// chunk tree, navigated with the arrow keys / j,k, expand/collapse with
// enter or space, and quit with q or ctrl+c.
type BrowserModel struct {
	root     BrowseChunk
	expanded map[BrowseChunk]bool
	rows     []browserRow
	cursor   int
	viewport viewport.Model
	styles   Styles
	width    int
	height   int
}

// NewBrowserModel constructs a browser rooted at root.
func NewBrowserModel(root BrowseChunk) BrowserModel {
	m := BrowserModel{
		root:     root,
		expanded: map[BrowseChunk]bool{root: true},
		styles:   DefaultStyles(),
		viewport: viewport.New(80, 20),
	}
	m.rebuild()
	return m
}

func (m *BrowserModel) rebuild() {
	m.rows = nil
	m.walk(m.root, 0)
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *BrowserModel) walk(ch BrowseChunk, depth int) {
	m.rows = append(m.rows, browserRow{chunk: ch, depth: depth})
	if !m.expanded[ch] {
		return
	}
	for _, child := range ch.Children() {
		m.walk(child, depth+1)
	}
}

// Init satisfies tea.Model.
func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update satisfies tea.Model.
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 3
		m.syncViewport()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter", " ":
			if m.cursor < len(m.rows) {
				ch := m.rows[m.cursor].chunk
				m.expanded[ch] = !m.expanded[ch]
				m.rebuild()
			}
		}
		m.syncViewport()
	}
	return m, nil
}

func (m *BrowserModel) syncViewport() {
	m.viewport.SetContent(m.renderRows())
	m.viewport.YOffset = clampOffset(m.cursor, m.viewport.Height, len(m.rows))
}

func clampOffset(cursor, visible, total int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	offset := cursor - visible/2
	if offset < 0 {
		offset = 0
	}
	if offset > total-visible {
		offset = total - visible
	}
	return offset
}

func (m BrowserModel) renderRows() string {
	var b strings.Builder
	for i, row := range m.rows {
		marker := "  "
		if len(row.chunk.Children()) > 0 {
			if m.expanded[row.chunk] {
				marker = "- "
			} else {
				marker = "+ "
			}
		}
		line := fmt.Sprintf("%s%s%s", strings.Repeat("  ", row.depth), marker, chunkLabel(row.chunk))
		if i == m.cursor {
			line = m.styles.Active.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func chunkLabel(ch BrowseChunk) string {
	tag := ch.Tag()
	label := string(tag[:])
	if id := ch.ID(); id != "" {
		label += fmt.Sprintf(" %q", id)
	}
	return label
}

// View satisfies tea.Model.
func (m BrowserModel) View() string {
	header := m.styles.Header.Render("omrxctl browse")
	footer := m.styles.Dim.Render("↑/k ↓/j move   enter/space expand   q quit")

	detail := ""
	if m.cursor < len(m.rows) {
		attrs := m.rows[m.cursor].chunk.AttrSummary()
		if len(attrs) > 0 {
			detail = m.styles.Label.Render(strings.Join(attrs, "  "))
		}
	}

	return header + "\n" + m.viewport.View() + "\n" + detail + "\n" + footer
}

// RunBrowser starts an interactive bubbletea program over root, blocking
// until the user quits. out is used only for bubbletea's own terminal
// I/O wiring.
func RunBrowser(root BrowseChunk, out io.Writer) error {
	p := tea.NewProgram(NewBrowserModel(root), tea.WithOutput(out))
	_, err := p.Run()
	return err
}
