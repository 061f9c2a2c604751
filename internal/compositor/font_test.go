package compositor

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/desertthunder/personify/internal/shared"
	tu "github.com/desertthunder/personify/internal/testing"
	"golang.org/x/image/font/gofont/goregular"
)

func TestFaces(t *testing.T) {
	t.Run("DefaultFaces", func(t *testing.T) {
		faces := DefaultFaces()

		title, body := faces.LineHeight(TitleFace), faces.LineHeight(BodyFace)
		if title <= 0 || body <= 0 {
			t.Fatalf("expected positive line heights, got %d %d", title, body)
		}
		if title <= body {
			t.Errorf("title line height %d should exceed body %d", title, body)
		}
		if title > TitleSize || body > BodySize {
			t.Errorf("line heights %d/%d should not exceed font sizes", title, body)
		}
	})

	t.Run("LineHeight is stable", func(t *testing.T) {
		faces := DefaultFaces()
		if a, b := LineHeight(faces.Body), LineHeight(faces.Body); a != b {
			t.Errorf("expected stable metric, got %d and %d", a, b)
		}
	})

	t.Run("LoadFaces from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "regular.ttf")
		tu.MustWriteFile(t, path, string(goregular.TTF))

		faces, err := LoadFaces(path)
		if err != nil {
			t.Fatalf("failed to load faces: %v", err)
		}
		if faces.Title == nil || faces.Body == nil {
			t.Error("expected both faces")
		}
	})

	t.Run("missing font is a config error", func(t *testing.T) {
		_, err := LoadFaces("/nonexistent/font.otf")
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("unreadable font is a config error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.otf")
		tu.MustWriteFile(t, path, "not a font")

		_, err := LoadFaces(path)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("FaceRole String", func(t *testing.T) {
		if TitleFace.String() != "title" || BodyFace.String() != "body" {
			t.Error("unexpected role names")
		}
	})
}
