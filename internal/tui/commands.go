package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/api"
	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/playback"
)

// Command factories for async operations

// SubmitDownloadCmd queues validated submissions on the backend.
func SubmitDownloadCmd(client *api.Client, subs []domain.Submission) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := client.SubmitDownload(ctx, subs); err != nil {
			return SubmitDoneMsg{Err: err}
		}
		return SubmitDoneMsg{Count: len(subs)}
	}
}

// ClearCompletedCmd asks the backend to drop finished tasks.
func ClearCompletedCmd(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		return ClearCompletedDoneMsg{Err: client.ClearCompleted(ctx)}
	}
}

// ListenMediaCmd reads one event from a player handle's stream. The update
// loop re-arms it after each event until the stream closes.
func ListenMediaCmd(events <-chan playback.Event, handleID int) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return MediaEventMsg{HandleID: handleID, Closed: true}
		}
		return MediaEventMsg{HandleID: handleID, Event: ev}
	}
}

// ClearStatusCmd clears the status banner after a delay. Seq makes older
// timers harmless when a newer banner has replaced the message.
func ClearStatusCmd(seq int, delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(time.Time) tea.Msg {
		return ClearStatusMsg{Seq: seq}
	})
}
