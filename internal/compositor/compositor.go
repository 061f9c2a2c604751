package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
	"github.com/golang/freetype"
	"golang.org/x/image/font"
)

// Compositor draws critiques onto images. Safe for concurrent use.
type Compositor struct {
	faces  *Faces
	layout Layout
	logger *log.Logger

	// font faces cache glyphs and are not safe to share between goroutines
	mu sync.Mutex
}

// New creates a [Compositor]. A nil faces uses [DefaultFaces]; a nil logger discards.
func New(faces *Faces, layout Layout, logger *log.Logger) *Compositor {
	if faces == nil {
		faces = DefaultFaces()
	}
	if logger == nil {
		logger = shared.DiscardLogger()
	}
	if layout.TrackCap <= 0 {
		layout.TrackCap = DefaultTrackCap
	}
	return &Compositor{faces: faces, layout: layout, logger: shared.WithLogger(logger, "component", "compositor")}
}

// Layout returns the layout in use.
func (c *Compositor) Layout() Layout {
	return c.layout
}

// Plan computes the blocks Render would draw.
//
// A critique with no non-empty line wraps [shared.ErrMissingCritique]; nil tracks wraps [shared.ErrMissingTracks].
// An empty, non-nil track list is valid and yields no track blocks.
func (c *Compositor) Plan(critique string, tracks []models.Track) ([]Block, error) {
	if tracks == nil {
		return nil, fmt.Errorf("%w: tracks are required", shared.ErrMissingTracks)
	}
	roast, ok := ClosingRoast(critique)
	if !ok {
		return nil, fmt.Errorf("%w: critique has no text", shared.ErrMissingCritique)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.layout.plan(c.faces, roast, TrackLines(tracks, c.layout.TrackCap)), nil
}

// Render draws the critique's closing roast and tracks onto a new [Width]x[Height] image.
// The same inputs always produce the same pixels.
func (c *Compositor) Render(critique string, tracks []models.Track) (*image.RGBA, error) {
	blocks, err := c.Plan(critique, tracks)
	if err != nil {
		return nil, err
	}

	img := image.NewRGBA(image.Rect(0, 0, Width, Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(c.layout.Background), image.Point{}, draw.Src)

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, b := range blocks {
		c.drawBlock(img, b)
	}

	c.logger.Debug("rendered image", "blocks", len(blocks), "tracks", len(blocks)-3)
	return img, nil
}

// RenderPNG renders and encodes the image as PNG.
func (c *Compositor) RenderPNG(critique string, tracks []models.Track) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.WritePNG(&buf, critique, tracks); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePNG renders and writes the PNG encoding to w.
func (c *Compositor) WritePNG(w io.Writer, critique string, tracks []models.Track) error {
	img, err := c.Render(critique, tracks)
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// drawBlock draws each line with its top at b.Y + i*lineHeight. Callers hold c.mu.
func (c *Compositor) drawBlock(dst draw.Image, b Block) {
	face := c.faces.Face(b.Face)
	lh := LineHeight(face)
	ascent := face.Metrics().Ascent.Ceil()

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(b.Color),
		Face: face,
	}
	for i, line := range b.Lines {
		d.Dot = freetype.Pt(b.X, b.Y+i*lh+ascent)
		d.DrawString(line)
	}
}
