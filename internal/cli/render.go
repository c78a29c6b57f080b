package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
)

// markdownPrinter renders assistant replies and tool results for the terminal
type markdownPrinter struct {
	out      io.Writer
	renderer *glamour.TermRenderer
}

func newMarkdownPrinter(out io.Writer, plain bool) *markdownPrinter {
	p := &markdownPrinter{out: out}
	if plain {
		return p
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err == nil {
		p.renderer = renderer
	}
	return p
}

func (p *markdownPrinter) Print(markdown string) {
	if p.renderer != nil {
		if rendered, err := p.renderer.Render(markdown); err == nil {
			fmt.Fprint(p.out, rendered)
			return
		}
	}
	fmt.Fprintln(p.out, strings.TrimRight(markdown, "\n"))
}

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	failColor = color.New(color.FgRed, color.Bold)
	dimColor  = color.New(color.FgHiBlack)
)
