package cli

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/cbcsl/cbcsl/internal/core/pipeline"
)

var (
	resolveInfoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	resolveSpinStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// resolveState holds resolution state
type resolveState struct {
	mu     sync.RWMutex
	done   bool
	err    error
	result *pipeline.Result
}

func (s *resolveState) finish(result *pipeline.Result, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.result = result
	s.err = err
}

func (s *resolveState) get() (bool, *pipeline.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.done, s.result, s.err
}

type resolveTickMsg time.Time

type resolveModel struct {
	spinner spinner.Model
	input   string
	state   *resolveState
}

func newResolveModel(input string, state *resolveState) resolveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = resolveSpinStyle

	return resolveModel{spinner: s, input: input, state: state}
}

func resolveTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return resolveTickMsg(t)
	})
}

func (m resolveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, resolveTickCmd())
}

func (m resolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resolveTickMsg:
		if done, _, _ := m.state.get(); done {
			return m, tea.Quit
		}
		return m, resolveTickCmd()
	}

	return m, nil
}

func (m resolveModel) View() string {
	if done, _, _ := m.state.get(); done {
		return ""
	}
	return fmt.Sprintf("%s Resolving %s\n", m.spinner.View(), resolveInfoStyle.Render(m.input))
}

// resolveWithSpinner resolves input while a spinner runs on stderr. The
// spinner only shows on a terminal; otherwise resolution runs inline.
func resolveWithSpinner(ctx context.Context, p *pipeline.Pipeline, input string, show bool) (*pipeline.Result, error) {
	if !show || !term.IsTerminal(int(os.Stderr.Fd())) {
		return p.Resolve(ctx, input)
	}

	state := &resolveState{}
	go func() {
		state.finish(p.Resolve(ctx, input))
	}()

	// Ctrl-C reaches ctx through the process signal handler, so the
	// program reads no keys and installs no handler of its own.
	prog := tea.NewProgram(newResolveModel(input, state),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	if _, err := prog.Run(); err != nil {
		return nil, err
	}

	done, result, err := state.get()
	if !done {
		return nil, fmt.Errorf("resolution cancelled")
	}
	return result, err
}
