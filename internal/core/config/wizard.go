package config

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const asciiArt = `
  ██████╗██████╗  ██████╗███████╗██╗
 ██╔════╝██╔══██╗██╔════╝██╔════╝██║
 ██║     ██████╔╝██║     ███████╗██║
 ██║     ██╔══██╗██║     ╚════██║██║
 ╚██████╗██████╔╝╚██████╗███████║███████╗
  ╚═════╝╚═════╝  ╚═════╝╚══════╝╚══════╝
`

var (
	logoStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	titleStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	stepStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	selectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	unselectedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	cursorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	inputStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	inputCursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("248")).Width(16)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	containerStyle   = lipgloss.NewStyle().Padding(2, 4)
)

const (
	stepBackend = iota
	stepProxy
	stepQuality
	stepLogLevel
	stepConfirm
	stepCount
)

type option struct{ label, value string }

type model struct {
	currentStep int
	cursor      int
	config      *Config
	confirmed   bool
	cancelled   bool
	inputBuffer string
	width       int
	height      int
}

func initialModel(cfg *Config) model {
	m := model{config: cfg}
	m.setCursorFromConfig()
	return m
}

func (m *model) getStepTitle() string {
	switch m.currentStep {
	case stepBackend:
		return "API backend"
	case stepProxy:
		return "Proxy"
	case stepQuality:
		return "Stream quality"
	case stepLogLevel:
		return "Player log level"
	case stepConfirm:
		return "Save configuration?"
	}
	return ""
}

func (m *model) getStepDescription() string {
	switch m.currentStep {
	case stepBackend:
		return "Which generation of the CBC player API to talk to"
	case stepProxy:
		return "socks5://host:port or http://host:port, empty for none"
	case stepQuality:
		return "Quality passed to streamlink"
	case stepLogLevel:
		return "streamlink --loglevel"
	case stepConfirm:
		return "Review your settings"
	}
	return ""
}

func (m *model) getOptions() []option {
	switch m.currentStep {
	case stepBackend:
		return []option{
			{"GraphQL (current)", "graphql"},
			{"Catalog", "catalog"},
			{"Legacy", "legacy"},
		}
	case stepQuality:
		return []option{
			{"Best available", "best"},
			{"1080p", "1080p"},
			{"720p", "720p"},
			{"480p", "480p"},
			{"Worst", "worst"},
		}
	case stepLogLevel:
		opts := make([]option, len(PlayerLogLevels))
		for i, l := range PlayerLogLevels {
			opts[i] = option{l, l}
		}
		return opts
	case stepConfirm:
		return []option{
			{"Yes, save", "yes"},
			{"No, cancel", "no"},
		}
	}
	return nil
}

func (m *model) isInputStep() bool {
	return m.currentStep == stepProxy
}

func (m *model) setCursorFromConfig() {
	if m.isInputStep() {
		m.inputBuffer = m.config.Proxy
		return
	}

	var currentValue string
	switch m.currentStep {
	case stepBackend:
		currentValue = m.config.Backend
	case stepQuality:
		currentValue = m.config.Quality
	case stepLogLevel:
		currentValue = m.config.PlayerLogLevel
	}

	for i, opt := range m.getOptions() {
		if opt.value == currentValue {
			m.cursor = i
			break
		}
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "left":
			if m.currentStep > 0 {
				m.saveCurrentValue()
				m.currentStep--
				m.cursor = 0
				m.setCursorFromConfig()
			}
			return m, nil

		case "right", "enter":
			m.saveCurrentValue()

			if m.currentStep == stepConfirm {
				if m.cursor == 0 {
					m.confirmed = true
				} else {
					m.cancelled = true
				}
				return m, tea.Quit
			}

			m.currentStep++
			m.cursor = 0
			m.setCursorFromConfig()
			return m, nil

		case "up", "k":
			if !m.isInputStep() {
				options := m.getOptions()
				if m.cursor > 0 {
					m.cursor--
				} else {
					m.cursor = len(options) - 1
				}
				return m, nil
			}

		case "down", "j":
			if !m.isInputStep() {
				options := m.getOptions()
				if m.cursor < len(options)-1 {
					m.cursor++
				} else {
					m.cursor = 0
				}
				return m, nil
			}

		case "backspace":
			if m.isInputStep() && len(m.inputBuffer) > 0 {
				m.inputBuffer = m.inputBuffer[:len(m.inputBuffer)-1]
			}
			return m, nil
		}

		if m.isInputStep() && len(msg.String()) == 1 {
			m.inputBuffer += msg.String()
		}
	}

	return m, nil
}

func (m *model) saveCurrentValue() {
	if m.isInputStep() {
		m.config.Proxy = strings.TrimSpace(m.inputBuffer)
		return
	}

	options := m.getOptions()
	if m.cursor < len(options) {
		value := options[m.cursor].value
		switch m.currentStep {
		case stepBackend:
			m.config.Backend = value
		case stepQuality:
			m.config.Quality = value
		case stepLogLevel:
			m.config.PlayerLogLevel = value
		}
	}
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(logoStyle.Render(asciiArt))
	b.WriteString("\n\n")

	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d", m.currentStep+1, stepCount)))
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render(m.getStepTitle()))
	b.WriteString("\n")
	b.WriteString(stepStyle.Render(m.getStepDescription()))
	b.WriteString("\n\n")

	if m.currentStep == stepConfirm {
		b.WriteString(m.renderReview())
		b.WriteString("\n")
	}

	if m.isInputStep() {
		b.WriteString(inputCursorStyle.Render("> "))
		b.WriteString(inputStyle.Render(m.inputBuffer))
		b.WriteString(inputCursorStyle.Render("█"))
		b.WriteString("\n")
	} else {
		for i, opt := range m.getOptions() {
			cursor := "  "
			style := unselectedStyle
			if i == m.cursor {
				cursor = cursorStyle.Render("> ")
				style = selectedStyle
			}
			b.WriteString(cursor)
			b.WriteString(style.Render(opt.label))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("← back • → next • ↑↓ select • enter confirm • esc quit"))

	content := containerStyle.Render(b.String())

	if m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, content)
	}

	return content
}

func (m model) renderReview() string {
	var b strings.Builder

	proxy := m.config.Proxy
	if proxy == "" {
		proxy = "(none)"
	}

	lines := []struct {
		label string
		value string
	}{
		{"Backend", m.config.Backend},
		{"Proxy", proxy},
		{"Quality", m.config.Quality},
		{"Player log", m.config.PlayerLogLevel},
	}

	for _, line := range lines {
		b.WriteString(labelStyle.Render(line.label + ":"))
		b.WriteString(valueStyle.Render(line.value))
		b.WriteString("\n")
	}

	return b.String()
}

// RunInitWizard runs an interactive TUI wizard to configure cbcsl
func RunInitWizard() (*Config, error) {
	cfg := LoadOrDefault()

	p := tea.NewProgram(initialModel(cfg), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}

	result := finalModel.(model)
	if result.cancelled {
		return nil, fmt.Errorf("configuration cancelled")
	}
	if err := result.config.Validate(); err != nil {
		return nil, err
	}

	return result.config, nil
}
