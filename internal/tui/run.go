package tui

import (
	"context"
	"errors"
	"fmt"

	"github.com/Veraticus/expensy/internal/query"
	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the browser until the user quits or ctx ends.
func Run(ctx context.Context, loader PageLoader, nav query.Navigator, opts ...Option) error {
	if loader == nil {
		return fmt.Errorf("page loader is required")
	}
	if nav == nil {
		return fmt.Errorf("navigator is required")
	}

	m := New(ctx, loader, nav, opts...)
	program := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
