package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/personify/internal/compositor"
	"github.com/desertthunder/personify/internal/critique"
	"github.com/desertthunder/personify/internal/formatter"
	"github.com/desertthunder/personify/internal/models"
	"github.com/desertthunder/personify/internal/shared"
	"github.com/desertthunder/personify/internal/ui"
	"github.com/urfave/cli/v3"
)

// trackSource produces the tracks a roast is written about.
type trackSource func(ctx context.Context, report func(string)) ([]models.Track, error)

// RoastTracks generates and renders a roast for a JSON track list.
func (r *Runner) RoastTracks(ctx context.Context, cmd *cli.Command) error {
	tracks, err := formatter.ReadTracks(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	gen, err := r.generator(ctx)
	if err != nil {
		return err
	}
	comp, err := r.compositor()
	if err != nil {
		return err
	}

	source := func(context.Context, func(string)) ([]models.Track, error) { return tracks, nil }
	return r.runRoast(ctx, cmd, r.roastJob(gen, comp, source, cmd.String("out")))
}

// RoastRender draws an existing critique without calling a completion provider.
func (r *Runner) RoastRender(ctx context.Context, cmd *cli.Command) error {
	data, err := os.ReadFile(cmd.String("critique"))
	if err != nil {
		return fmt.Errorf("%w: failed to read critique: %v", shared.ErrInvalidInput, err)
	}
	tracks, err := formatter.ReadTracks(cmd.String("file"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	comp, err := r.compositor()
	if err != nil {
		return err
	}

	text := strings.TrimSpace(string(data))
	out := cmd.String("out")
	job := func(ctx context.Context, report func(string)) (*ui.Outcome, error) {
		report("rendering image")
		outcome := &ui.Outcome{
			Critique: models.CritiqueResult{Text: text, IsFallback: critique.IsFallbackText(text)},
			Tracks:   tracks,
		}
		if err := r.renderTo(comp, text, tracks, out); err != nil {
			return nil, err
		}
		outcome.ImagePath = out
		return outcome, nil
	}
	return r.runRoast(ctx, cmd, job)
}

// RoastSpotify authorizes with Spotify, then roasts the user's top tracks.
func (r *Runner) RoastSpotify(ctx context.Context, cmd *cli.Command) error {
	auth, err := r.spotifyAuth()
	if err != nil {
		return err
	}
	gen, err := r.generator(ctx)
	if err != nil {
		return err
	}
	comp, err := r.compositor()
	if err != nil {
		return err
	}

	token, err := r.authorize(ctx, auth)
	if err != nil {
		return err
	}

	supplier := auth.Supplier(ctx, token)
	limit := int(cmd.Int("limit"))
	source := func(ctx context.Context, report func(string)) ([]models.Track, error) {
		report("fetching top tracks")
		return supplier.TopTracks(ctx, limit)
	}
	return r.runRoast(ctx, cmd, r.roastJob(gen, comp, source, cmd.String("out")))
}

// roastJob fetches tracks, writes the critique and renders it to out.
func (r *Runner) roastJob(gen *critique.Generator, comp *compositor.Compositor, source trackSource, out string) ui.Job {
	ai := r.cfg().AI
	return func(ctx context.Context, report func(string)) (*ui.Outcome, error) {
		tracks, err := source(ctx, report)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("tracks loaded", "count", len(tracks))

		report("writing critique")
		result := gen.Generate(ctx, tracks, ai.MaxRetries, ai.RetryDelay())
		outcome := &ui.Outcome{Critique: result, Tracks: tracks}

		report("rendering image")
		if err := r.renderTo(comp, result.Text, tracks, out); err != nil {
			return nil, err
		}
		outcome.ImagePath = out
		return outcome, nil
	}
}

func (r *Runner) renderTo(comp *compositor.Compositor, text string, tracks []models.Track, path string) error {
	if path == "" {
		return fmt.Errorf("%w: --out", shared.ErrMissingArgument)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := comp.WritePNG(f, text, tracks); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	r.logger.Info("image written", "path", path)
	return nil
}

// runRoast runs job behind the progress view, or line by line with --plain or when output is not a terminal.
func (r *Runner) runRoast(ctx context.Context, cmd *cli.Command, job ui.Job) error {
	var outcome *ui.Outcome
	var err error

	if cmd.Bool("plain") || !r.interactive() {
		outcome, err = ui.RunPlain(ctx, job, r.output)
	} else {
		outcome, err = ui.Run(ctx, job, r.input, r.output)
	}
	if err != nil {
		return err
	}

	return r.report(cmd, outcome)
}

// report prints the outcome and writes any requested exports.
func (r *Runner) report(cmd *cli.Command, outcome *ui.Outcome) error {
	roast := &formatter.Roast{
		Critique:    outcome.Critique,
		Tracks:      outcome.Tracks,
		GeneratedAt: r.now().UTC(),
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(roast, true); err != nil {
			return err
		}
	} else {
		r.writePlain("\n%s\n\n", ui.RenderCritique(roast.Critique.Text))
		if roast.Critique.IsFallback {
			r.writePlain("%s\n", ui.Warning("⚠ The critique could not be generated."))
		}
	}

	if outcome.ImagePath != "" {
		r.writePlain("%s\n", ui.Success("✓ Image saved to "+outcome.ImagePath))
	}

	if dir := cmd.String("export"); dir != "" {
		var png []byte
		if outcome.ImagePath != "" {
			data, err := os.ReadFile(outcome.ImagePath)
			if err != nil {
				return fmt.Errorf("failed to read image for export: %w", err)
			}
			png = data
		}

		result, err := formatter.WriteMarkdownExport(roast, dir, png)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d files to %s\n", len(result.Files), result.Directory)
	}

	if path := cmd.String("text"); path != "" {
		written, err := formatter.WriteTextExport(roast, path)
		if err != nil {
			return err
		}
		r.writePlain("✓ Critique saved to %s\n", written)
	}

	if path := cmd.String("csv"); path != "" {
		data, err := formatter.ExportToCSV(roast)
		if err != nil {
			return err
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}
		r.writePlain("✓ Tracks saved to %s\n", path)
	}

	return nil
}
