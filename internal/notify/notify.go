// Package notify observes task-completion edges and emits user-facing
// notifications. It never re-fires for a task id, even across restarts.
package notify

import (
	"fmt"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/voxtui/vox/internal/domain"
)

// Ledger records which task ids have already been notified about. The set
// only grows.
type Ledger interface {
	IsNotified(taskID string) bool
	MarkNotified(taskID string) error
}

// Sink dedups and emits completion notifications.
type Sink struct {
	ledger  Ledger
	desktop bool // emit OS notifications (best-effort)
	logger  *slog.Logger
}

// NewSink creates a notification sink.
func NewSink(ledger Ledger, desktop bool, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{ledger: ledger, desktop: desktop, logger: logger}
}

// TaskCompleted handles one observation of a task. On the first time a
// given id is seen completed it emits a desktop notification (failures are
// logged, never surfaced) and returns true so the caller can show an
// in-app banner. Every later observation of the same id is a no-op.
func (s *Sink) TaskCompleted(t domain.Task) bool {
	if t.Status != domain.StatusCompleted {
		return false
	}
	if s.ledger.IsNotified(t.ID) {
		return false
	}
	if err := s.ledger.MarkNotified(t.ID); err != nil {
		s.logger.Warn("failed to persist notified id", "task", t.ID, "error", err)
	}

	if s.desktop {
		title := t.DisplayTitle()
		if title == "" {
			title = "Download complete"
		}
		body := fmt.Sprintf("%s was downloaded and converted to audio", fileBodyName(t))
		if err := beeep.Notify(title, body, ""); err != nil {
			// Desktop notifications are a best-effort capability; their
			// absence is not an error.
			s.logger.Debug("desktop notification unavailable", "error", err)
		}
	}

	s.logger.Info("task completed", "task", t.ID, "title", t.DisplayTitle())
	return true
}

func fileBodyName(t domain.Task) string {
	if t.Title != "" {
		return t.Title
	}
	return "The file"
}
