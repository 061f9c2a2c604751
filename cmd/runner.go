package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/personify/internal/compositor"
	"github.com/desertthunder/personify/internal/critique"
	"github.com/desertthunder/personify/internal/server"
	"github.com/desertthunder/personify/internal/shared"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	completer   critique.Completer
	auth        server.Authorizer
	openBrowser func(string) error
	authTimeout time.Duration
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader

	// Completer replaces the provider selected by the config.
	Completer critique.Completer
	// Auth replaces the Spotify service built from the config.
	Auth server.Authorizer
	// OpenBrowser defaults to [shared.OpenBrowser].
	OpenBrowser func(string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		completer:   opts.Completer,
		auth:        opts.Auth,
		openBrowser: opts.OpenBrowser,
		authTimeout: 2 * time.Minute,
		now:         time.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){setupCommand, roastCommand, serveCommand} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Load is the root Before hook. It reads the config file named by --config when present,
// falls back to the embedded defaults, then applies environment overrides.
func (r *Runner) Load(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if r.config != nil {
		return ctx, nil
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}

	config, err := r.loadConfig()
	if err != nil {
		return ctx, err
	}
	config.ApplyEnv(os.Getenv)
	r.config = config
	return ctx, nil
}

func (r *Runner) loadConfig() (*shared.Config, error) {
	if r.configPath == "" {
		return shared.DefaultConfig(), nil
	}
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded config", "path", r.configPath)
	return config, nil
}

func (r *Runner) cfg() *shared.Config {
	if r.config == nil {
		r.config = shared.DefaultConfig()
	}
	return r.config
}

// generator builds a critique generator over the configured completion provider.
func (r *Runner) generator(ctx context.Context) (*critique.Generator, error) {
	config := r.cfg()

	completer := r.completer
	if completer == nil {
		var err error
		if completer, err = critique.NewCompleter(ctx, config); err != nil {
			return nil, fmt.Errorf("failed to create completer: %w", err)
		}
	}

	return critique.NewGenerator(completer, critique.Options{
		MinWords: config.AI.MinWords,
		Logger:   r.logger,
	}), nil
}

// compositor builds the image compositor from the [render] section.
func (r *Runner) compositor() (*compositor.Compositor, error) {
	config := r.cfg()

	var faces *compositor.Faces
	if path := config.Render.FontPath; path != "" {
		var err error
		if faces, err = compositor.LoadFaces(path); err != nil {
			return nil, err
		}
	}

	layout := compositor.DefaultLayout()
	if config.Render.TrackCap > 0 {
		layout.TrackCap = config.Render.TrackCap
	}
	return compositor.New(faces, layout, r.logger), nil
}

// interactive reports whether output is a terminal the progress view can draw on.
func (r *Runner) interactive() bool {
	f, ok := r.output.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
