package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#0070f3", "#1DB954", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style

	bold   lipgloss.Style
	italic lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		bold:   lipgloss.NewStyle().Bold(true),
		italic: lipgloss.NewStyle().Italic(true),
	}
}

func (p *Palette) On(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Background(c).Render(s)
}

func (p *Palette) As(s string, c lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(c).Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

func Title(s string) string   { return styles.title.Render(s) }
func Success(s string) string { return styles.ok.Render(s) }
func Error(s string) string   { return styles.err.Render(s) }
func Warning(s string) string { return styles.warn.Render(s) }
func Help(s string) string    { return styles.help.Render(s) }

// RenderCritique styles **bold** and *italic* spans. Unterminated markers are kept as written.
func RenderCritique(text string) string {
	var out strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			out.WriteByte('\n')
		}
		out.WriteString(renderSpans(line, "**", styles.bold, func(s string) string {
			return renderSpans(s, "*", styles.italic, nil)
		}))
	}
	return out.String()
}

// renderSpans styles text between pairs of marker. Text outside the pairs goes through rest when set.
// An unpaired marker is written as is and never reaches rest.
func renderSpans(line, marker string, style lipgloss.Style, rest func(string) string) string {
	if rest == nil {
		rest = func(s string) string { return s }
	}

	var out strings.Builder
	for {
		start := strings.Index(line, marker)
		if start < 0 {
			break
		}
		end := strings.Index(line[start+len(marker):], marker)
		if end < 0 {
			out.WriteString(rest(line[:start]))
			out.WriteString(marker)
			line = line[start+len(marker):]
			break
		}
		end += start + len(marker)

		out.WriteString(rest(line[:start]))
		out.WriteString(style.Render(line[start+len(marker) : end]))
		line = line[end+len(marker):]
	}
	out.WriteString(rest(line))
	return out.String()
}
