package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/personify/internal/models"
)

// Outcome is what a roast job produced.
type Outcome struct {
	Critique  models.CritiqueResult
	Tracks    []models.Track
	ImagePath string
}

// Job produces a roast, calling report as it moves between stages.
type Job func(ctx context.Context, report func(stage string)) (*Outcome, error)

// MsgKind enumerates the progress view's messages.
type MsgKind int

const (
	MsgStage MsgKind = iota
	MsgDone
)

// Msg is a message from the running job (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

type jobResult struct {
	outcome *Outcome
	err     error
}

// Model is the progress view: a spinner with the current stage until the job finishes.
type Model struct {
	ctx     context.Context
	cancel  context.CancelFunc
	job     Job
	updates chan Msg
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	stage   string
	outcome *Outcome
	err     error
	done    bool
}

// NewModel creates the progress view for job. The job's context is cancelled when the user quits.
func NewModel(ctx context.Context, job Job) Model {
	ctx, cancel := context.WithCancel(ctx)
	return Model{
		ctx:     ctx,
		cancel:  cancel,
		job:     job,
		updates: make(chan Msg, 8),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.title.UnsetMarginBottom())),
		help:    help.New(),
		keys:    newKeyMap(),
		stage:   "starting",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.run(), m.wait())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancel()
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case Msg:
		switch msg.kind {
		case MsgStage:
			m.stage = msg.data.(string)
			return m, m.wait()
		case MsgDone:
			res := msg.data.(jobResult)
			m.outcome, m.err, m.done = res.outcome, res.err, true
			m.cancel()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return Error(fmt.Sprintf("Error: %v", m.err)) + "\n"
		}
		return ""
	}
	return fmt.Sprintf("%s %s...\n\n%s\n", m.spinner.View(), m.stage, m.help.View(m.keys))
}

// Outcome returns the job's result once the view has finished.
func (m Model) Outcome() (*Outcome, error) {
	if !m.done {
		return nil, context.Canceled
	}
	return m.outcome, m.err
}

// run starts the job in its own goroutine; its messages arrive through m.updates.
func (m Model) run() tea.Cmd {
	return func() tea.Msg {
		go func() {
			report := func(stage string) {
				select {
				case m.updates <- Msg{kind: MsgStage, data: stage}:
				case <-m.ctx.Done():
				}
			}
			out, err := m.job(m.ctx, report)
			select {
			case m.updates <- Msg{kind: MsgDone, data: jobResult{outcome: out, err: err}}:
			case <-m.ctx.Done():
				// the view quit first; nobody is reading
			}
		}()
		return nil
	}
}

func (m Model) wait() tea.Cmd {
	return func() tea.Msg {
		return <-m.updates
	}
}

// Run shows the progress view on out until job finishes or the user cancels. A nil in disables keyboard input.
func Run(ctx context.Context, job Job, in io.Reader, out io.Writer) (*Outcome, error) {
	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
	if in == nil {
		opts = append(opts, tea.WithInput(nil))
	} else {
		opts = append(opts, tea.WithInput(in))
	}

	final, err := tea.NewProgram(NewModel(ctx, job), opts...).Run()
	if err != nil {
		return nil, fmt.Errorf("progress view failed: %w", err)
	}
	return final.(Model).Outcome()
}

// RunPlain runs job without the interactive view, printing each stage to out.
func RunPlain(ctx context.Context, job Job, out io.Writer) (*Outcome, error) {
	return job(ctx, func(stage string) {
		fmt.Fprintln(out, Help(stage+"..."))
	})
}
