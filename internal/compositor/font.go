package compositor

import (
	"fmt"
	"os"

	"github.com/desertthunder/personify/internal/shared"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	TitleSize = 70
	BodySize  = 40
)

// FaceRole names which of the two faces a block is drawn or measured with.
type FaceRole int

const (
	TitleFace FaceRole = iota
	BodyFace
)

func (r FaceRole) String() string {
	if r == TitleFace {
		return "title"
	}
	return "body"
}

// Faces holds the title and body faces. Loaded once, shared by every render.
type Faces struct {
	Title font.Face
	Body  font.Face
}

// Face returns the face for role.
func (f *Faces) Face(r FaceRole) font.Face {
	if r == TitleFace {
		return f.Title
	}
	return f.Body
}

// LineHeight returns the pixel height of one line for role. See [LineHeight].
func (f *Faces) LineHeight(r FaceRole) int {
	return LineHeight(f.Face(r))
}

// LoadFaces reads the font at path and builds title and body faces.
//
// A missing or unparsable font is a configuration error and wraps [shared.ErrInvalidConfig].
func LoadFaces(path string) (*Faces, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read font %s: %v", shared.ErrInvalidConfig, path, err)
	}

	faces, err := ParseFaces(data)
	if err != nil {
		return nil, fmt.Errorf("%w: font %s: %v", shared.ErrInvalidConfig, path, err)
	}
	return faces, nil
}

// DefaultFaces builds faces from the embedded Go Mono font.
func DefaultFaces() *Faces {
	faces, err := ParseFaces(gomono.TTF)
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded font: %v", err))
	}
	return faces
}

// ParseFaces builds title and body faces from raw font data.
func ParseFaces(data []byte) (*Faces, error) {
	title, err := newFace(data, TitleSize)
	if err != nil {
		return nil, err
	}
	body, err := newFace(data, BodySize)
	if err != nil {
		return nil, err
	}
	return &Faces{Title: title, Body: body}, nil
}

// newFace parses TrueType outlines with freetype; fonts it rejects (CFF-based .otf) go through opentype.
// Sizes are in pixels (72 DPI).
func newFace(data []byte, size float64) (font.Face, error) {
	if f, err := truetype.Parse(data); err == nil {
		return truetype.NewFace(f, &truetype.Options{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		}), nil
	}

	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

// LineHeight is the bottom of the bounding box of "a" drawn with its top at y=0: the ascent plus
// whatever part of the glyph falls below the baseline.
func LineHeight(face font.Face) int {
	ascent := face.Metrics().Ascent
	bounds, _ := font.BoundString(face, "a")

	h := (ascent + max(bounds.Max.Y, fixed.I(0))).Ceil()
	if h <= 0 {
		return face.Metrics().Height.Ceil()
	}
	return h
}
