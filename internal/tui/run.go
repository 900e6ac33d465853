package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the terminal UI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	if cfg.Tracker == nil {
		return fmt.Errorf("tracker is required")
	}
	cfg.Context = ctx

	p := tea.NewProgram(
		New(cfg),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run terminal ui: %w", err)
	}
	return nil
}
