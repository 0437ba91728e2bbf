package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// console serializes status lines written by the two session contexts.
type console struct {
	mu  sync.Mutex
	w   io.Writer
	tag map[string]lipgloss.Style
}

func newConsole(w io.Writer) *console {
	if w == nil {
		w = io.Discard
	}
	// Bind the renderer to w so colors are only emitted on terminals.
	r := lipgloss.NewRenderer(w)
	return &console{
		w: w,
		tag: map[string]lipgloss.Style{
			tagMain:       r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
			tagBackground: r.NewStyle().Foreground(lipgloss.Color("244")),
		},
	}
}

const (
	tagMain       = "main"
	tagBackground = "background"
)

func (c *console) printf(tag, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	label := "[" + tag + "]"
	if style, ok := c.tag[tag]; ok {
		label = style.Render(label)
	}
	fmt.Fprintf(c.w, "%s %s\n", label, fmt.Sprintf(format, args...))
}
