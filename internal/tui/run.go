package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/agentlink/agentlink/internal/status"
	"github.com/agentlink/agentlink/internal/system"
)

// Run starts the interactive chat session and blocks until the user quits
// or the context is cancelled. Status reports from the core are pushed into
// the running program so the badge updates live.
func Run(ctx context.Context, sys *system.System) error {
	p := tea.NewProgram(NewModel(sys), tea.WithContext(ctx), tea.WithAltScreen())

	unsubscribe := sys.Aggregator().Subscribe(func(r status.Report) {
		p.Send(statusMsg{report: r})
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session: %w", err)
	}
	return nil
}
