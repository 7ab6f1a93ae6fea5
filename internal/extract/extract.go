// Package extract drives the local-file extraction flow: an upload with
// exact byte-level progress, followed by a synthetic progress sequence for
// the server-side processing phase, which reports no granular signal.
package extract

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/voxtui/vox/internal/api"
	"github.com/voxtui/vox/internal/progress"
)

const uploadTimeout = 10 * time.Minute

// Client is the slice of the API client the extractor needs.
type Client interface {
	LocalExtract(ctx context.Context, req api.ExtractRequest, onProgress func(sent, total int64)) error
}

// Phase is the extraction session's lifecycle stage.
type Phase int

const (
	PhaseUploading Phase = iota
	PhaseProcessing
	PhaseDone
	PhaseFailed
)

// ProgressMsg reports upload bytes for a session.
type ProgressMsg struct {
	UploadID string
	Sent     int64
	Total    int64
}

// DoneMsg is the server's terminal response for a session.
type DoneMsg struct {
	UploadID string
	Err      error
}

// SynthTickMsg advances the synthetic processing sequence.
type SynthTickMsg struct {
	UploadID string
}

// event flows from the upload goroutine to the update loop.
type event struct {
	sent, total int64
	done        bool
	err         error
}

// Session is one extraction upload. The UI owns at most one; starting a new
// session replaces it and every in-flight message carrying the old upload
// id is discarded.
type Session struct {
	id       string
	fileName string
	phase    Phase
	err      error

	uploadSent  int64
	uploadTotal int64

	synth *progress.Synthetic

	events chan event
	done   chan event
	logger *slog.Logger
}

// Start opens path and begins uploading it for extraction. The returned
// command must be dispatched to pump progress into the update loop.
func Start(client Client, path, format, outName string, logger *slog.Logger) (*Session, tea.Cmd, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}

	s := &Session{
		id:          uuid.NewString(),
		fileName:    filepath.Base(path),
		phase:       PhaseUploading,
		uploadTotal: info.Size(),
		events:      make(chan event, 16),
		done:        make(chan event, 1),
		logger:      logger,
	}

	go func() {
		defer f.Close()

		ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
		defer cancel()

		err := client.LocalExtract(ctx, api.ExtractRequest{
			FileName: s.fileName,
			Content:  f,
			Size:     info.Size(),
			Format:   format,
			OutName:  outName,
		}, func(sent, total int64) {
			select {
			case s.events <- event{sent: sent, total: total}:
			default: // drop when the UI is behind; the next tick catches up
			}
		})
		// The done channel has capacity for the single terminal event,
		// so the goroutine exits even if the session was replaced and
		// nothing is listening anymore.
		s.done <- event{done: true, err: err}
	}()

	logger.Info("extraction upload started", "file", s.fileName, "bytes", info.Size())
	return s, s.listenCmd(), nil
}

// listenCmd reads the next upload event and converts it to a message. The
// continuation is re-issued from the update loop until DoneMsg arrives.
func (s *Session) listenCmd() tea.Cmd {
	return func() tea.Msg {
		select {
		case ev := <-s.events:
			return ProgressMsg{UploadID: s.id, Sent: ev.sent, Total: ev.total}
		case ev := <-s.done:
			return DoneMsg{UploadID: s.id, Err: ev.err}
		}
	}
}

// HandleProgress applies an upload progress message. When the upload phase
// completes, the synthetic processing sequence begins at phase-local zero
// and its recurring timer is armed.
func (s *Session) HandleProgress(msg ProgressMsg) tea.Cmd {
	if msg.UploadID != s.id || s.phase >= PhaseDone {
		return nil
	}

	s.uploadSent = msg.Sent
	s.uploadTotal = msg.Total

	cmds := []tea.Cmd{s.listenCmd()}
	if s.phase == PhaseUploading && msg.Total > 0 && msg.Sent >= msg.Total {
		s.phase = PhaseProcessing
		s.synth = progress.NewSynthetic(nil)
		cmds = append(cmds, s.synthTickCmd())
	}
	return tea.Batch(cmds...)
}

// HandleSynthTick advances synthetic progress. Ticks for a replaced session
// or after a terminal response carry a stale id or find a terminal phase,
// so the timer dies within one tick of either.
func (s *Session) HandleSynthTick(msg SynthTickMsg) tea.Cmd {
	if msg.UploadID != s.id || s.phase != PhaseProcessing {
		return nil
	}
	s.synth.Advance()
	if s.synth.Done() {
		return nil
	}
	return s.synthTickCmd()
}

// HandleDone applies the server's terminal response.
func (s *Session) HandleDone(msg DoneMsg) {
	if msg.UploadID != s.id || s.phase >= PhaseDone {
		return
	}
	if msg.Err != nil {
		s.phase = PhaseFailed
		s.err = msg.Err
		s.logger.Warn("extraction failed", "file", s.fileName, "error", msg.Err)
		return
	}
	s.phase = PhaseDone
	s.logger.Info("extraction finished", "file", s.fileName)
}

func (s *Session) synthTickCmd() tea.Cmd {
	return tea.Tick(progress.TickInterval, func(time.Time) tea.Msg {
		return SynthTickMsg{UploadID: s.id}
	})
}

// ID returns the session's upload id.
func (s *Session) ID() string { return s.id }

// FileName returns the uploaded file's base name.
func (s *Session) FileName() string { return s.fileName }

// Phase returns the current lifecycle stage.
func (s *Session) Phase() Phase { return s.phase }

// Err returns the terminal error, if the session failed.
func (s *Session) Err() error { return s.err }

// UploadPercent is the exact upload-phase percentage.
func (s *Session) UploadPercent() int {
	if s.uploadTotal <= 0 {
		return 0
	}
	pct := int(float64(s.uploadSent) / float64(s.uploadTotal) * 100)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// ProcessingValue is the synthetic processing-phase value (0-100).
func (s *Session) ProcessingValue() float64 {
	if s.synth == nil {
		return 0
	}
	return s.synth.Value()
}

// RemainingEstimate is the labeled remaining-time guess for the processing
// phase.
func (s *Session) RemainingEstimate() string {
	if s.synth == nil {
		return ""
	}
	return s.synth.RemainingEstimate()
}
