package compositor

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/desertthunder/personify/internal/models"
)

const (
	Width  = 1080
	Height = 1920

	Title        = "Personify AI"
	TracksHeader = "Your top tracks:"

	DefaultTrackCap = 10
)

var (
	White  = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Accent = color.RGBA{R: 0x00, G: 0x70, B: 0xf3, A: 0xff} // #0070f3
	Black  = color.RGBA{A: 0xff}
)

// Layout holds every constant of the vertical layout. All y values are top edges in pixels.
type Layout struct {
	Margin    int // left x of every block
	TopOffset int // added to each fixed y below

	TitleY      int
	RoastY      int
	HeaderBaseY int // header y before adding the roast block height
	TracksBaseY int // track cursor start before the top offset
	TrackGap    int

	RoastWidth int // wrap width in characters
	TrackWidth int
	TrackCap   int // tracks rendered at most

	// TrackOffsetFace is measured once and added to the cursor when drawing each track.
	// TrackAdvanceFace is measured to advance the cursor past a track block.
	TrackOffsetFace  FaceRole
	TrackAdvanceFace FaceRole

	Background color.Color
	TitleColor color.Color
	TextColor  color.Color
}

// DefaultLayout returns the layout of the shareable image. The track cursor is offset by the title face's
// line height while blocks advance by the body face's.
func DefaultLayout() Layout {
	return Layout{
		Margin:           50,
		TopOffset:        100,
		TitleY:           50,
		RoastY:           200,
		HeaderBaseY:      350,
		TracksBaseY:      650,
		TrackGap:         10,
		RoastWidth:       40,
		TrackWidth:       45,
		TrackCap:         DefaultTrackCap,
		TrackOffsetFace:  TitleFace,
		TrackAdvanceFace: BodyFace,
		Background:       Black,
		TitleColor:       White,
		TextColor:        Accent,
	}
}

// BlockKind identifies what a [Block] holds.
type BlockKind int

const (
	TitleBlock BlockKind = iota
	RoastBlock
	HeaderBlock
	TrackBlock
)

func (k BlockKind) String() string {
	switch k {
	case TitleBlock:
		return "title"
	case RoastBlock:
		return "roast"
	case HeaderBlock:
		return "header"
	default:
		return "track"
	}
}

// Block is one drawn element: its wrapped lines, face, colour and top-left corner.
// Height is the line-height accounted size: one line height of Face per line.
// Descenders on the last line can reach a few pixels past Bottom; TrackGap keeps that ink
// clear of the next track.
type Block struct {
	Kind   BlockKind
	Lines  []string
	Face   FaceRole
	Color  color.Color
	X, Y   int
	Height int
}

// Bottom is the first y below the block.
func (b Block) Bottom() int {
	return b.Y + b.Height
}

// ClosingRoast removes every asterisk from critique and returns its last non-empty line.
func ClosingRoast(critique string) (string, bool) {
	lines := strings.Split(strings.ReplaceAll(critique, "*", ""), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			return line, true
		}
	}
	return "", false
}

// TrackLines formats at most cap tracks as "{i}. {name} - {artist}", 1-based. cap <= 0 uses [DefaultTrackCap].
func TrackLines(tracks []models.Track, cap int) []string {
	if cap <= 0 {
		cap = DefaultTrackCap
	}

	n := min(len(tracks), cap)
	lines := make([]string, 0, n)
	for i, t := range tracks[:n] {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, t))
	}
	return lines
}

// plan lays out the blocks top to bottom. roast must be non-empty.
func (l Layout) plan(faces *Faces, roast string, trackLines []string) []Block {
	titleLH := faces.LineHeight(TitleFace)
	bodyLH := faces.LineHeight(BodyFace)

	blocks := make([]Block, 0, 3+len(trackLines))

	blocks = append(blocks, Block{
		Kind:   TitleBlock,
		Lines:  []string{Title},
		Face:   TitleFace,
		Color:  l.TitleColor,
		X:      l.Margin,
		Y:      l.TitleY + l.TopOffset,
		Height: titleLH,
	})

	roastLines := Wrap(roast, l.RoastWidth)
	roastHeight := bodyLH * len(roastLines)
	blocks = append(blocks, Block{
		Kind:   RoastBlock,
		Lines:  roastLines,
		Face:   BodyFace,
		Color:  l.TextColor,
		X:      l.Margin,
		Y:      l.RoastY + l.TopOffset,
		Height: roastHeight,
	})

	header := Block{
		Kind:   HeaderBlock,
		Lines:  []string{TracksHeader},
		Face:   TitleFace,
		Color:  l.TitleColor,
		X:      l.Margin,
		Y:      l.HeaderBaseY + roastHeight + l.TopOffset,
		Height: titleLH,
	}
	blocks = append(blocks, header)

	// a roast long enough to push the header past the fixed track start moves the cursor with it
	cursor := max(l.TracksBaseY+l.TopOffset, header.Bottom()-faces.LineHeight(l.TrackOffsetFace))
	offset := faces.LineHeight(l.TrackOffsetFace)
	advance := faces.LineHeight(l.TrackAdvanceFace)

	for _, text := range trackLines {
		lines := Wrap(text, l.TrackWidth)
		blocks = append(blocks, Block{
			Kind:   TrackBlock,
			Lines:  lines,
			Face:   BodyFace,
			Color:  l.TextColor,
			X:      l.Margin,
			Y:      cursor + offset,
			Height: bodyLH * len(lines),
		})
		cursor += advance*len(lines) + l.TrackGap
	}

	return blocks
}
