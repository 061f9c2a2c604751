package compositor

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestWrap(t *testing.T) {
	tc := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{name: "empty", text: "", width: 10, want: nil},
		{name: "whitespace only", text: " \n\t ", width: 10, want: nil},
		{name: "fits", text: "short line", width: 40, want: []string{"short line"}},
		{name: "exact width", text: "abcd efgh", width: 9, want: []string{"abcd efgh"}},
		{name: "breaks at space", text: "abcd efgh", width: 8, want: []string{"abcd", "efgh"}},
		{
			name:  "greedy fill",
			text:  "Your music taste is deeply-and-specifically bad.",
			width: 40,
			want:  []string{"Your music taste is", "deeply-and-specifically bad."},
		},
		{name: "long word kept whole", text: "a supercalifragilistic b", width: 5, want: []string{"a", "supercalifragilistic", "b"}},
		{name: "collapses spaces", text: "a    b\n\nc", width: 10, want: []string{"a b c"}},
		{name: "runes not bytes", text: "ééé ééé", width: 7, want: []string{"ééé ééé"}},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.text, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") || len(got) != len(tt.want) {
				t.Errorf("Wrap(%q, %d) = %q, want %q", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapIdempotent(t *testing.T) {
	inputs := []string{
		"Your music taste is music-to-cry-in-a-parked-car-while-pretending-to-be-in-a-movie bad.",
		"10. The Less I Know The Better - Tame Impala featuring a very long artist credit list",
		"one two three four five six seven eight nine ten eleven twelve thirteen",
	}

	for _, width := range []int{10, 40, 45} {
		for _, in := range inputs {
			once := Fill(in, width)
			twice := Fill(once, width)
			if once != twice {
				t.Errorf("width %d: wrap not idempotent:\n%q\n%q", width, once, twice)
			}
		}
	}
}

func TestWrapLineWidths(t *testing.T) {
	in := strings.Repeat("word ", 50)
	for _, line := range Wrap(in, 45) {
		if n := utf8.RuneCountInString(line); n > 45 {
			t.Errorf("line exceeds width: %d %q", n, line)
		}
	}
}
