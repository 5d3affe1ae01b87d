package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwafle/pubtail/internal/telemetry"
)

// Receiver is the source of parsed messages; *transport.Stream satisfies it.
type Receiver interface {
	Recv(ctx context.Context) (telemetry.Message, error)
}

// readFrame returns a command that receives one message from r.
func readFrame(ctx context.Context, r Receiver) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		m, err := r.Recv(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		return m
	}
}

// Run spins up the Bubble Tea program over o and blocks until the TUI exits.
func Run(ctx context.Context, o Options) error {
	m := NewModel(ctx, o)
	final, err := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}
