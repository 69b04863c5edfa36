package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/agentlink/agentlink/internal/chat"
	"github.com/agentlink/agentlink/internal/status"
	"github.com/agentlink/agentlink/internal/system"
)

var (
	youStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	agentStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	hintStyle  = lipgloss.NewStyle().Faint(true)

	badgeSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("●")
	badgeWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("●")
	badgeError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("●")
)

// Messages delivered to the model.
type (
	// chatResultMsg carries a completed exchange back into the update loop.
	chatResultMsg struct{ ex chat.Exchange }

	// statusMsg carries an aggregated status report pushed by the core.
	statusMsg struct{ report status.Report }
)

// Model is the bubbletea model for the interactive chat session. It is a
// thin render layer: all connectivity decisions live in the system package.
type Model struct {
	sys      *system.System
	input    textinput.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	transcript []string
	waiting    bool
	current    *status.Report
	width      int
}

// NewModel builds the initial chat model bound to an initialized system.
func NewModel(sys *system.System) Model {
	in := textinput.New()
	in.Placeholder = "Type a message"
	in.Prompt = "> "
	in.Focus()
	in.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))

	// Markdown rendering is best-effort: a nil renderer falls back to
	// plain text.
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)

	return Model{
		sys:      sys,
		input:    in,
		spin:     sp,
		renderer: renderer,
		current:  sys.Aggregator().Current(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.spin.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 4; w > 10 {
			m.input.Width = w
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			text := strings.TrimSpace(m.input.Value())
			if text == "" || m.waiting {
				return m, nil
			}
			m.input.Reset()
			m.waiting = true
			m.transcript = append(m.transcript, youStyle.Render("You: ")+text)
			return m, tea.Batch(m.sendCmd(text), m.spin.Tick)
		}

	case chatResultMsg:
		m.waiting = false
		m.transcript = append(m.transcript, m.renderExchange(msg.ex))
		return m, nil

	case statusMsg:
		r := msg.report
		m.current = &r
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	for _, line := range m.transcript {
		b.WriteString(line)
		b.WriteString("\n")
	}

	if m.waiting {
		b.WriteString(m.spin.View())
		b.WriteString(" thinking…\n")
	}

	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("enter to send · esc to quit"))
	return b.String()
}

// sendCmd performs the chat send off the update loop.
func (m Model) sendCmd(text string) tea.Cmd {
	sys := m.sys
	return func() tea.Msg {
		ex := sys.SendChat(context.Background(), text, chat.Options{})
		return chatResultMsg{ex: ex}
	}
}

// renderExchange formats one completed exchange for the transcript.
func (m Model) renderExchange(ex chat.Exchange) string {
	if !ex.Result.Success {
		line := errStyle.Render(fmt.Sprintf("✗ %s", ex.Result.Err))
		if m.current != nil && m.current.Suggestion != "" {
			line += "\n" + hintStyle.Render("  hint: "+m.current.Suggestion)
		}
		return line
	}

	body := ex.Result.Data.Response
	if m.renderer != nil {
		if rendered, err := m.renderer.Render(body); err == nil {
			body = strings.TrimRight(rendered, "\n")
		}
	}
	meta := fmt.Sprintf("%dms", ex.Duration.Milliseconds())
	if ex.Result.Data.ModelUsed != "" {
		meta = ex.Result.Data.ModelUsed + " · " + meta
	}
	return agentStyle.Render("Agent: ") + body + "\n" + hintStyle.Render("  "+meta)
}

// statusLine renders the connection badge from the latest report.
func (m Model) statusLine() string {
	if m.current == nil {
		return hintStyle.Render("○ connecting…")
	}
	badge := badgeError
	switch m.current.Level {
	case status.LevelSuccess:
		badge = badgeSuccess
	case status.LevelWarning:
		badge = badgeWarning
	}
	return fmt.Sprintf("%s %s", badge, m.current.Message)
}
