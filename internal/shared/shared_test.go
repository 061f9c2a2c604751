package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestLogger(t *testing.T) {
	t.Run("writes to provided writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		logger.Info("hello", "key", "value")

		if !strings.Contains(buf.String(), "hello") {
			t.Errorf("expected log output to contain message, got %q", buf.String())
		}
	})

	t.Run("child logger carries fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "critique")
		logger.Info("attempt")

		if !strings.Contains(buf.String(), "component=critique") {
			t.Errorf("expected child fields in output, got %q", buf.String())
		}
	})

	t.Run("level filters debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewLogger(&buf)
		SetLogLevel(logger, log.WarnLevel)
		logger.Info("dropped")

		if buf.Len() != 0 {
			t.Errorf("expected info to be filtered, got %q", buf.String())
		}
	})
}

func TestGenerateState(t *testing.T) {
	a, b := GenerateState(), GenerateState()
	if a == b {
		t.Error("expected unique state tokens")
	}
	if strings.Contains(a, "-") {
		t.Errorf("state should not contain dashes: %s", a)
	}
	if len(a) != 32 {
		t.Errorf("expected 32 hex chars, got %d", len(a))
	}
}

func TestTruncate(t *testing.T) {
	tc := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "abc", n: 5, want: "abc"},
		{name: "exact", in: "abcde", n: 5, want: "abcde"},
		{name: "cut", in: "abcdef", n: 3, want: "abc..."},
		{name: "zero keeps", in: "abc", n: 0, want: "abc"},
		{name: "multibyte", in: "ééééé", n: 2, want: "éé..."},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}
