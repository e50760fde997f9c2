package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Previewer renders an exported markdown document as styled terminal output.
type Previewer struct {
	glamour *glamour.TermRenderer
}

// NewPreviewer creates a previewer wrapped at the given terminal width.
func NewPreviewer(width int) *Previewer {
	if width <= 0 {
		width = 80
	}
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	return &Previewer{glamour: r}
}

// Render returns the styled document, falling back to the raw markdown if
// the terminal renderer is unavailable.
func (p *Previewer) Render(markdown string) string {
	if p.glamour == nil {
		return markdown
	}
	out, err := p.glamour.Render(markdown)
	if err != nil {
		return markdown
	}
	return strings.TrimSpace(out)
}
