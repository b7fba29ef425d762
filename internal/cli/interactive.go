package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apresai/summarizer/internal/pipeline"
)

// focusArea is the part of the screen receiving keys.
type focusArea int

const (
	focusMode focusArea = iota
	focusInput
	focusButton
)

var modeChoices = []pipeline.Mode{pipeline.ModePDF, pipeline.ModeURL}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

var spinnerInterval = 100 * time.Millisecond

// style constants
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			MarginRight(1)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	valueDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Italic(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#04B575")).
				Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 3)

	buttonDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555")).
			Padding(0, 3)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5555")).
			Bold(true)

	summaryHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#7D56F4")).
				MarginTop(1)

	summaryBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#04B575")).
			Padding(0, 1)

	headerBorder = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)
)

// renderer is the part of the pipeline engine the screen drives.
type renderer interface {
	Render(ctx context.Context, s pipeline.State, ev pipeline.Event) pipeline.State
}

type extractedMsg struct{ state pipeline.State }

type summarizedMsg struct{ state pipeline.State }

type tickMsg struct{}

// tuiModel is the Bubble Tea model for the interactive screen. All session
// data lives in state; the model only adds cursor and input buffer.
type tuiModel struct {
	ctx        context.Context
	engine     renderer
	state      pipeline.State
	focus      focusArea
	modeCursor int
	input      string
	busy       string
	frame      int
	width      int
}

func initialTUIModel(ctx context.Context, engine renderer) tuiModel {
	m := tuiModel{
		ctx:    ctx,
		engine: engine,
		width:  80,
	}
	m.state = engine.Render(ctx, pipeline.State{}, pipeline.SelectMode{Mode: modeChoices[0]})
	return m
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case extractedMsg:
		m.busy = ""
		m.state = msg.state
		if m.state.HasContent() {
			m.focus = focusButton
		}
		return m, nil
	case summarizedMsg:
		m.busy = ""
		m.state = msg.state
		return m, nil
	case tickMsg:
		if m.busy == "" {
			return m, nil
		}
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy != "" {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			m.focus = (m.focus + 1) % 3
			return m, nil
		case "shift+tab":
			m.focus = (m.focus + 2) % 3
			return m, nil
		case "esc":
			if m.focus == focusInput {
				m.focus = focusMode
				return m, nil
			}
		}
		switch m.focus {
		case focusMode:
			return m.updateMode(msg)
		case focusInput:
			return m.updateInput(msg)
		case focusButton:
			return m.updateButton(msg)
		}
	}
	return m, nil
}

func (m tuiModel) updateMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k", "left", "h":
		if m.modeCursor > 0 {
			m.modeCursor--
		}
	case "down", "j", "right", "l":
		if m.modeCursor < len(modeChoices)-1 {
			m.modeCursor++
		}
	case "enter", " ":
		m.focus = focusInput
		return m, nil
	default:
		return m, nil
	}

	mode := modeChoices[m.modeCursor]
	if mode != m.state.Mode {
		m.input = ""
	}
	m.state = m.engine.Render(m.ctx, m.state, pipeline.SelectMode{Mode: mode})
	return m, nil
}

func (m tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m.submit()
	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case "ctrl+u":
		m.input = ""
	default:
		// Accept typed characters and pasted text
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m tuiModel) updateButton(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "enter", " ":
		// The button is disabled until content is present.
		if !m.state.HasContent() {
			return m, nil
		}
		m.state = pipeline.MarkSummarizing(m.state)
		m.busy = "Summarizing..."
		engine, ctx, s := m.engine, m.ctx, m.state
		return m, tea.Batch(func() tea.Msg {
			return summarizedMsg{state: engine.Render(ctx, s, pipeline.Summarize{})}
		}, tick())
	}
	return m, nil
}

func (m tuiModel) submit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input)
	var ev pipeline.Event
	switch m.state.Mode {
	case pipeline.ModePDF:
		ev = pipeline.SubmitPath{Path: input}
		m.busy = "Extracting text from PDF..."
	default:
		ev = pipeline.SubmitURL{URL: input}
		m.busy = "Fetching content from URL..."
	}
	if input == "" {
		m.busy = ""
		m.state = m.engine.Render(m.ctx, m.state, ev)
		return m, nil
	}

	engine, ctx, s := m.engine, m.ctx, m.state
	return m, tea.Batch(func() tea.Msg {
		return extractedMsg{state: engine.Render(ctx, s, ev)}
	}, tick())
}

func tick() tea.Cmd {
	return tea.Tick(spinnerInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m tuiModel) View() string {
	var b strings.Builder

	header := titleStyle.Render("Summarizer") + "\n" + subtitleStyle.Render("Summarize a PDF file or a web page.")
	b.WriteString(headerBorder.Render(header))
	b.WriteString("\n")

	// Input type choice
	b.WriteString(m.cursorFor(focusMode) + labelStyle.Render("Choose input type:") + "\n")
	for i, mode := range modeChoices {
		if mode == m.state.Mode {
			b.WriteString("    " + selectedOptionStyle.Render("(•) "+mode.String()))
		} else {
			b.WriteString("    ( ) " + mode.String())
		}
		if i == m.modeCursor && m.focus == focusMode {
			b.WriteString(cursorStyle.Render(" <"))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Input line
	label := "Path to a PDF file:"
	if m.state.Mode == pipeline.ModeURL {
		label = "Enter the URL to summarize:"
	}
	var value string
	switch {
	case m.focus == focusInput:
		value = valueStyle.Render(m.input + "_")
	case m.input == "":
		value = valueDimStyle.Render("(not set)")
	default:
		value = valueStyle.Render(m.input)
	}
	b.WriteString(m.cursorFor(focusInput) + labelStyle.Render(label) + value + "\n")

	if m.busy != "" {
		b.WriteString("\n  " + cursorStyle.Render(spinnerFrames[m.frame]) + " " + m.busy + "\n")
	}

	if m.state.HasContent() && m.busy == "" {
		c := m.state.Content
		info := fmt.Sprintf("Extracted %d words", c.WordCount)
		if c.Pages > 0 {
			info += fmt.Sprintf(" from %d pages", c.Pages)
		}
		if c.Title != "" {
			info += " · " + c.Title
		}
		b.WriteString("\n  " + subtitleStyle.Render(info) + "\n")
	}

	// Summarize button
	b.WriteString("\n" + m.cursorFor(focusButton))
	if m.state.HasContent() && m.busy == "" {
		b.WriteString(buttonStyle.Render(" Summarize "))
	} else {
		b.WriteString(buttonDimStyle.Render(" Summarize "))
	}
	b.WriteString("\n")

	if m.state.Err != nil {
		b.WriteString("\n" + errorStyle.Render("  Error: "+m.state.Err.Message) + "\n")
	}

	if m.state.Phase == pipeline.SummaryDisplayed {
		b.WriteString(summaryHeaderStyle.Render("  Summary") + "\n")
		width := m.width - 6
		if width < 20 {
			width = 20
		}
		b.WriteString(summaryBoxStyle.Width(width).Render(m.state.Summary) + "\n")
	}

	switch m.focus {
	case focusMode:
		b.WriteString(helpStyle.Render("  j/k or arrows to choose | enter to continue | tab to move | q to quit"))
	case focusInput:
		b.WriteString(helpStyle.Render("  type value | enter to extract | ctrl+u to clear | esc or tab to move"))
	case focusButton:
		b.WriteString(helpStyle.Render("  enter to summarize | tab to move | q to quit"))
	}
	b.WriteString("\n")

	return b.String()
}

func (m tuiModel) cursorFor(f focusArea) string {
	if m.focus == f {
		return cursorStyle.Render("> ")
	}
	return "  "
}

func runTUI(ctx context.Context, engine renderer) error {
	p := tea.NewProgram(initialTUIModel(ctx, engine), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
