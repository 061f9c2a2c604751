package critique

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
)

const (
	// DefaultMinWords is the shortest completion accepted. Shorter text cannot hold the ten-track enumeration.
	DefaultMinWords = 100

	// FallbackMessage is returned after every attempt failed. Callers match it with [IsFallbackText].
	FallbackMessage = "Your music taste broke the AI. Please reload the page or go back to home."

	// NoTracksMessage is returned for an empty track list without calling the completer.
	NoTracksMessage = "No tracks available."
)

// Completer is a single request/response text completion.
//
// Absent content is returned as an empty string with a nil error.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// CompleterFunc adapts a function to [Completer].
type CompleterFunc func(ctx context.Context, system, prompt string) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, system, prompt string) (string, error) {
	return f(ctx, system, prompt)
}

// Options configures a [Generator]. Zero values select defaults.
type Options struct {
	MinWords int
	Logger   *log.Logger

	// Jitter returns the extra wait added to each backoff. Defaults to uniform [1s, 2s).
	Jitter func() time.Duration

	// Sleep waits d or until ctx is done. Defaults to a timer-backed wait.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Generator produces critiques. It holds no mutable state and is safe for concurrent use.
type Generator struct {
	completer Completer
	minWords  int
	jitter    func() time.Duration
	sleep     func(context.Context, time.Duration) error
	logger    *log.Logger
}

// NewGenerator creates a [Generator] backed by completer.
func NewGenerator(completer Completer, opts Options) *Generator {
	if opts.MinWords <= 0 {
		opts.MinWords = DefaultMinWords
	}
	if opts.Jitter == nil {
		opts.Jitter = defaultJitter
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logger == nil {
		opts.Logger = shared.DiscardLogger()
	}

	return &Generator{
		completer: completer,
		minWords:  opts.MinWords,
		jitter:    opts.Jitter,
		sleep:     opts.Sleep,
		logger:    shared.WithLogger(opts.Logger, "component", "critique"),
	}
}

// Generate asks the completer for a critique of tracks, making at most maxRetries attempts.
//
// It never returns an error: failures end in [FallbackMessage] with IsFallback set.
// maxRetries below 1 is treated as 1. If ctx is done during a backoff wait, no further attempt is made.
func (g *Generator) Generate(ctx context.Context, tracks []models.Track, maxRetries int, retryDelay time.Duration) models.CritiqueResult {
	if len(tracks) == 0 {
		g.logger.Warn("no tracks supplied, skipping completion")
		return models.CritiqueResult{Text: NoTracksMessage, IsFallback: true}
	}
	if maxRetries < 1 {
		maxRetries = 1
	}

	prompt := BuildPrompt(tracks)

	for attempt := 1; attempt <= maxRetries; attempt++ {
		text, err := g.attempt(ctx, prompt)
		switch {
		case err != nil:
			g.logger.Warn("completion failed", "attempt", attempt, "error", err)
		case Valid(text, g.minWords):
			g.logger.Info("received critique", "attempt", attempt, "words", WordCount(text))
			g.logger.Debug("critique text", "text", shared.Truncate(text, 120))
			return models.CritiqueResult{Text: text}
		default:
			g.logger.Warn("critique too short", "attempt", attempt, "words", WordCount(text), "min", g.minWords)
		}

		if attempt == maxRetries {
			break
		}

		wait := retryDelay + g.jitter()
		if err := g.sleep(ctx, wait); err != nil {
			g.logger.Warn("backoff interrupted", "attempt", attempt, "error", err)
			break
		}
	}

	g.logger.Error("all attempts failed, returning fallback", "attempts", maxRetries)
	return models.CritiqueResult{Text: FallbackMessage, IsFallback: true}
}

// attempt runs one completion and returns its trimmed text. A panic inside the completer is
// converted to an error so it consumes the attempt like any other failure.
func (g *Generator) attempt(ctx context.Context, prompt string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: completer panicked: %v", shared.ErrAPIRequest, r)
		}
	}()

	out, err := g.completer.Complete(ctx, SystemPersona, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

// Valid reports whether text is non-empty after trimming and has at least minWords words.
func Valid(text string, minWords int) bool {
	text = strings.TrimSpace(text)
	return text != "" && WordCount(text) >= minWords
}

// IsFallbackText reports whether s is one of the generator's non-model messages.
func IsFallbackText(s string) bool {
	s = strings.TrimSpace(s)
	return s == FallbackMessage || s == NoTracksMessage
}

func defaultJitter() time.Duration {
	return time.Second + rand.N(time.Second)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
