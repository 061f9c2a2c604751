package compositor

import (
	"bytes"
	"errors"
	"image"
	"image/draw"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
	tu "github.com/desertthunder/personify/internal/testing"
)

const scenarioCritique = "Some opinionated text.\n**Your top 10 tracks:**\nYour music taste is deeply-and-specifically bad."

func TestClosingRoast(t *testing.T) {
	tc := []struct {
		name     string
		critique string
		want     string
		ok       bool
	}{
		{name: "last line", critique: scenarioCritique, want: "Your music taste is deeply-and-specifically bad.", ok: true},
		{name: "trailing blank lines", critique: "first\n**bold roast**\n\n  \n", want: "bold roast", ok: true},
		{name: "single line", critique: "just one", want: "just one", ok: true},
		{name: "only asterisks", critique: "**\n***", ok: false},
		{name: "empty", critique: "", ok: false},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClosingRoast(tt.critique)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ClosingRoast() = %q, %v; want %q, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestTrackLines(t *testing.T) {
	t.Run("numbered from one", func(t *testing.T) {
		lines := TrackLines(tu.Tracks(2), 10)
		want := []string{"1. Song 1 - Artist 1", "2. Song 2 - Artist 2"}
		if strings.Join(lines, "|") != strings.Join(want, "|") {
			t.Errorf("got %v, want %v", lines, want)
		}
	})

	t.Run("capped", func(t *testing.T) {
		if n := len(TrackLines(tu.Tracks(11), 10)); n != 10 {
			t.Errorf("expected 10 lines, got %d", n)
		}
		if n := len(TrackLines(tu.Tracks(11), 11)); n != 11 {
			t.Errorf("expected 11 lines, got %d", n)
		}
	})

	t.Run("non-positive cap uses default", func(t *testing.T) {
		if n := len(TrackLines(tu.Tracks(12), 0)); n != DefaultTrackCap {
			t.Errorf("expected %d lines, got %d", DefaultTrackCap, n)
		}
	})
}

func TestCompositorPlan(t *testing.T) {
	c := New(nil, DefaultLayout(), nil)
	titleLH := c.faces.LineHeight(TitleFace)
	bodyLH := c.faces.LineHeight(BodyFace)

	t.Run("scenario", func(t *testing.T) {
		blocks, err := c.Plan(scenarioCritique, tu.Tracks(3))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blocks) != 6 {
			t.Fatalf("expected 6 blocks, got %d", len(blocks))
		}

		title, roast, header := blocks[0], blocks[1], blocks[2]
		if title.Kind != TitleBlock || title.Lines[0] != Title || title.Y != 150 || title.X != 50 {
			t.Errorf("unexpected title block %+v", title)
		}

		wantRoast := []string{"Your music taste is", "deeply-and-specifically bad."}
		if strings.Join(roast.Lines, "|") != strings.Join(wantRoast, "|") {
			t.Errorf("expected roast lines %v, got %v", wantRoast, roast.Lines)
		}
		if roast.Y != 300 || roast.Height != 2*bodyLH {
			t.Errorf("unexpected roast geometry y=%d h=%d", roast.Y, roast.Height)
		}
		if roast.Color != Accent {
			t.Errorf("expected accent colour, got %v", roast.Color)
		}

		if header.Kind != HeaderBlock || header.Lines[0] != TracksHeader {
			t.Errorf("unexpected header %+v", header)
		}
		if header.Y != 450+roast.Height {
			t.Errorf("expected header at %d, got %d", 450+roast.Height, header.Y)
		}

		tracks := blocks[3:]
		if tracks[0].Y != 750+titleLH {
			t.Errorf("expected first track at %d, got %d", 750+titleLH, tracks[0].Y)
		}
		for i, b := range tracks {
			if b.Kind != TrackBlock {
				t.Errorf("block %d: expected track, got %v", i, b.Kind)
			}
			if !strings.HasPrefix(b.Lines[0], string(rune('1'+i))+". Song") {
				t.Errorf("block %d: unexpected text %q", i, b.Lines[0])
			}
			if i > 0 && b.Y != tracks[i-1].Y+bodyLH+10 {
				t.Errorf("block %d: expected y %d, got %d", i, tracks[i-1].Y+bodyLH+10, b.Y)
			}
		}

		assertNoOverlap(t, blocks)
	})

	t.Run("long track wraps and advances by its line count", func(t *testing.T) {
		long := []models.Track{
			{Name: "An Extremely Long Song Title That Keeps Going", Artist: "Somebody"},
			{Name: "Short", Artist: "Band"},
		}
		blocks, err := c.Plan(scenarioCritique, long)
		if err != nil {
			t.Fatal(err)
		}

		first, second := blocks[3], blocks[4]
		if len(first.Lines) < 2 {
			t.Fatalf("expected wrapped track, got %v", first.Lines)
		}
		if want := first.Y + bodyLH*len(first.Lines) + 10; second.Y != want {
			t.Errorf("expected second track at %d, got %d", want, second.Y)
		}
		for _, line := range first.Lines {
			if len([]rune(line)) > 45 {
				t.Errorf("line %q exceeds 45 characters", line)
			}
		}
	})

	t.Run("long roast pushes tracks below header", func(t *testing.T) {
		roast := strings.TrimSpace(strings.Repeat("embarrassing ", 60))
		blocks, err := c.Plan("intro\n"+roast, tu.Tracks(10))
		if err != nil {
			t.Fatal(err)
		}
		if blocks[3].Y < blocks[2].Bottom() {
			t.Errorf("track at %d overlaps header ending at %d", blocks[3].Y, blocks[2].Bottom())
		}
		assertNoOverlap(t, blocks)
	})

	t.Run("track cap", func(t *testing.T) {
		blocks, _ := c.Plan(scenarioCritique, tu.Tracks(11))
		if n := len(blocks) - 3; n != 10 {
			t.Errorf("expected 10 track blocks, got %d", n)
		}

		l := DefaultLayout()
		l.TrackCap = 11
		blocks, _ = New(c.faces, l, nil).Plan(scenarioCritique, tu.Tracks(11))
		if n := len(blocks) - 3; n != 11 {
			t.Errorf("expected 11 track blocks, got %d", n)
		}
	})

	t.Run("uniform faces", func(t *testing.T) {
		l := DefaultLayout()
		l.TrackOffsetFace = BodyFace
		blocks, _ := New(c.faces, l, nil).Plan(scenarioCritique, tu.Tracks(1))
		if blocks[3].Y != 750+bodyLH {
			t.Errorf("expected track at %d, got %d", 750+bodyLH, blocks[3].Y)
		}
	})

	t.Run("empty tracks", func(t *testing.T) {
		blocks, err := c.Plan(scenarioCritique, []models.Track{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(blocks) != 3 {
			t.Errorf("expected title, roast and header only, got %d blocks", len(blocks))
		}
	})

	t.Run("errors", func(t *testing.T) {
		if _, err := c.Plan(scenarioCritique, nil); !errors.Is(err, shared.ErrMissingTracks) {
			t.Errorf("expected ErrMissingTracks, got %v", err)
		}
		if _, err := c.Plan("  \n**\n", tu.Tracks(1)); !errors.Is(err, shared.ErrMissingCritique) {
			t.Errorf("expected ErrMissingCritique, got %v", err)
		}
	})
}

func TestCompositorRender(t *testing.T) {
	c := New(nil, DefaultLayout(), nil)

	t.Run("size and background", func(t *testing.T) {
		img, err := c.Render(scenarioCritique, tu.Tracks(3))
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		if b := img.Bounds(); b.Dx() != Width || b.Dy() != Height {
			t.Errorf("expected %dx%d, got %v", Width, Height, b)
		}
		if got := img.RGBAAt(5, 5); got != Black {
			t.Errorf("expected black corner, got %v", got)
		}
		if got := img.RGBAAt(Width-1, Height-1); got != Black {
			t.Errorf("expected black bottom corner, got %v", got)
		}
	})

	t.Run("text is drawn inside each block", func(t *testing.T) {
		img, _ := c.Render(scenarioCritique, tu.Tracks(3))
		blocks, _ := c.Plan(scenarioCritique, tu.Tracks(3))

		for _, b := range blocks {
			r := image.Rect(b.X, b.Y, Width, b.Bottom())
			if !hasInk(img, r) {
				t.Errorf("%s block at %v has no drawn pixels", b.Kind, r)
			}
		}
	})

	t.Run("track ink does not overlap", func(t *testing.T) {
		tracks := []models.Track{
			{Name: "gypsy jig, quietly played", Artist: "Joy Pyjama"},
			{Name: "Yogurt Pygmy Quagga", Artist: "jq gy"},
			{Name: "Sprig", Artist: "Jpg"},
		}
		blocks, err := c.Plan(scenarioCritique, tracks)
		if err != nil {
			t.Fatal(err)
		}

		var spans [][2]int
		for _, b := range blocks {
			if b.Kind != TrackBlock {
				continue
			}
			img := image.NewRGBA(image.Rect(0, 0, Width, Height))
			draw.Draw(img, img.Bounds(), image.NewUniform(Black), image.Point{}, draw.Src)
			c.mu.Lock()
			c.drawBlock(img, b)
			c.mu.Unlock()

			top, bottom, ok := inkRows(img)
			if !ok {
				t.Fatalf("track block at %d drew nothing", b.Y)
			}
			spans = append(spans, [2]int{top, bottom})
		}

		for i := 1; i < len(spans); i++ {
			if spans[i][0] <= spans[i-1][1] {
				t.Errorf("track ink %v overlaps previous track ink %v", spans[i], spans[i-1])
			}
		}
	})

	t.Run("descent fits in track gap", func(t *testing.T) {
		descent := DefaultFaces().Body.Metrics().Descent.Ceil()
		if gap := DefaultLayout().TrackGap; descent >= gap {
			t.Errorf("body descent %d does not fit in track gap %d", descent, gap)
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		a, err := c.RenderPNG(scenarioCritique, tu.Tracks(10))
		if err != nil {
			t.Fatal(err)
		}
		b, _ := c.RenderPNG(scenarioCritique, tu.Tracks(10))
		if !bytes.Equal(a, b) {
			t.Error("expected identical output for identical input")
		}
	})

	t.Run("png decodes", func(t *testing.T) {
		data, err := c.RenderPNG(scenarioCritique, tu.Tracks(2))
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("invalid png: %v", err)
		}
		if cfg.Width != Width || cfg.Height != Height {
			t.Errorf("expected %dx%d, got %dx%d", Width, Height, cfg.Width, cfg.Height)
		}
	})

	t.Run("write errors surface", func(t *testing.T) {
		if err := c.WritePNG(&tu.FWriter{}, scenarioCritique, tu.Tracks(1)); err == nil {
			t.Error("expected write error")
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		if _, err := c.RenderPNG("", tu.Tracks(1)); !errors.Is(err, shared.ErrMissingCritique) {
			t.Errorf("expected ErrMissingCritique, got %v", err)
		}
	})

	t.Run("concurrent renders", func(t *testing.T) {
		want, _ := c.RenderPNG(scenarioCritique, tu.Tracks(5))

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				got, err := c.RenderPNG(scenarioCritique, tu.Tracks(5))
				if err != nil || !bytes.Equal(got, want) {
					t.Error("concurrent render differs")
				}
			}()
		}
		wg.Wait()
	})
}

func assertNoOverlap(t *testing.T, blocks []Block) {
	t.Helper()
	for i := 1; i < len(blocks); i++ {
		if blocks[i].Y < blocks[i-1].Bottom() {
			t.Errorf("%s block at %d overlaps %s block ending at %d",
				blocks[i].Kind, blocks[i].Y, blocks[i-1].Kind, blocks[i-1].Bottom())
		}
	}
}

// inkRows returns the first and last rows holding a non-background pixel.
func inkRows(img *image.RGBA) (top, bottom int, ok bool) {
	b := img.Bounds()
	top, bottom = -1, -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		if hasInk(img, image.Rect(b.Min.X, y, b.Max.X, y+1)) {
			if top < 0 {
				top = y
			}
			bottom = y
		}
	}
	return top, bottom, top >= 0
}

func hasInk(img *image.RGBA, r image.Rectangle) bool {
	r = r.Intersect(img.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if img.RGBAAt(x, y) != Black {
				return true
			}
		}
	}
	return false
}
