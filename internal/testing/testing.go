// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/personify/internal/models"
)

// MockCompleter is a test double for critique.Completer.
//
// Each call consumes the next entry of Responses and Errs; once exhausted the last entry repeats.
type MockCompleter struct {
	Responses []string
	Errs      []error
	Panic     any

	mu      sync.Mutex
	calls   int
	prompts []string
}

func (m *MockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	if m.Panic != nil {
		panic(m.Panic)
	}

	var err error
	if len(m.Errs) > 0 {
		err = m.Errs[min(i, len(m.Errs)-1)]
	}
	if err != nil {
		return "", err
	}

	if len(m.Responses) == 0 {
		return "", nil
	}
	return m.Responses[min(i, len(m.Responses)-1)], nil
}

// Calls returns how many times Complete was invoked.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns the prompts received, in order.
func (m *MockCompleter) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.prompts...)
}

// MockTrackSupplier is a test double for services.TrackSupplier.
type MockTrackSupplier struct {
	Tracks []models.Track
	Err    error
	Limit  int
}

func (m *MockTrackSupplier) TopTracks(ctx context.Context, limit int) ([]models.Track, error) {
	m.Limit = limit
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Tracks, nil
}

// SleepRecorder replaces the generator's backoff wait and records requested durations.
type SleepRecorder struct {
	mu     sync.Mutex
	Waits  []time.Duration
	Result error
}

func (s *SleepRecorder) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Waits = append(s.Waits, d)
	return s.Result
}

// Tracks builds n tracks named "Song {i}" by "Artist {i}", 1-based.
func Tracks(n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		tracks[i] = models.Track{Name: fmt.Sprintf("Song %d", i+1), Artist: fmt.Sprintf("Artist %d", i+1)}
	}
	return tracks
}

// LongCritique returns a critique of at least words words whose last line is roast.
func LongCritique(words int, roast string) string {
	body := strings.TrimSpace(strings.Repeat("your playlist is *deeply* embarrassing ", words/4+1))
	return fmt.Sprintf("%s\n**Your top 10 tracks:**\n1. Song - Artist\n**%s**", body, roast)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}
