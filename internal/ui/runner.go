package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jlais/visiondemo/internal/session"
)

// Run drives the shell in the alternate screen until the user quits or ctx
// ends. Store updates are forwarded to the program as SnapshotMsg.
func Run(ctx context.Context, store *session.Store, shell *Shell) error {
	updates, unsubscribe := store.Subscribe()
	defer unsubscribe()

	program := tea.NewProgram(shell, tea.WithAltScreen(), tea.WithContext(ctx))
	go forward(updates, program.Send)

	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// forward relays snapshots until the subscription closes.
func forward(updates <-chan session.Snapshot, send func(tea.Msg)) {
	for snap := range updates {
		send(SnapshotMsg(snap))
	}
}
