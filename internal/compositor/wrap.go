package compositor

import (
	"strings"

	"github.com/mitchellh/go-wordwrap"
)

// Wrap fills lines greedily up to width runes, breaking only at whitespace.
//
// Runs of whitespace (newlines included) collapse to one break opportunity. A word longer than width
// is kept whole on its own line. Wrapping already wrapped text at the same width is a no-op.
func Wrap(text string, width int) []string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return nil
	}
	if width < 1 {
		width = 1
	}
	return strings.Split(wordwrap.WrapString(flat, uint(width)), "\n")
}

// Fill is [Wrap] joined with newlines.
func Fill(text string, width int) string {
	return strings.Join(Wrap(text, width), "\n")
}
