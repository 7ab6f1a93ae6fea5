// Package reconcile refreshes the converted-file listing on a fixed period
// and rebuilds it wholesale, preserving any live playback session across
// the rebuild. Audible playback always wins over listing freshness.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/playback"
)

const fetchTimeout = 10 * time.Second

// FileClient fetches the authoritative file listing.
type FileClient interface {
	ListFiles(ctx context.Context) ([]domain.File, error)
}

// Session is the slice of the playback controller the reconciler needs. It
// only reads session state and hands ownership back intact via Restore.
type Session interface {
	ActiveUnpaused() bool
	Snapshot() (playback.Snapshot, bool)
	Restore(snap playback.Snapshot, url string) tea.Cmd
}

// DueMsg signals that a scheduled reconciliation should fire.
type DueMsg struct {
	Gen int
}

// ResultMsg carries one listing fetch back to the update loop. Rearm marks
// results of the recurring loop; one-shot refreshes leave it false so they
// never spawn a second timer chain.
type ResultMsg struct {
	Gen   int
	Files []domain.File
	Err   error
	Rearm bool
}

// Result describes what a reconciliation pass did.
type Result struct {
	Applied        bool // listing replaced, redraw wanted
	Failed         bool // fetch failed, render a neutral placeholder
	SessionDropped bool // snapshotted file vanished from the listing
}

// Reconciler owns the recurring file-list loop.
type Reconciler struct {
	client   FileClient
	session  Session
	logger   *slog.Logger
	interval time.Duration

	gen     int
	running bool
	files   []domain.File
}

// New creates a reconciler. interval is clamped to the 2-10s band the
// backend is comfortable with.
func New(client FileClient, session Session, interval time.Duration, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval < 2*time.Second {
		interval = 2 * time.Second
	}
	if interval > 10*time.Second {
		interval = 10 * time.Second
	}
	return &Reconciler{
		client:   client,
		session:  session,
		logger:   logger,
		interval: interval,
	}
}

// Files returns the current listing.
func (r *Reconciler) Files() []domain.File {
	return r.files
}

// SeedFiles primes the listing (from the local cache) without a fetch.
func (r *Reconciler) SeedFiles(files []domain.File) {
	r.files = files
}

// Start begins (or restarts) the recurring loop with an immediate fetch.
// The generation bump cancels any prior loop.
func (r *Reconciler) Start() tea.Cmd {
	r.gen++
	r.running = true
	return r.fetchCmd(r.gen, true)
}

// RefreshNow performs a one-shot fetch outside the recurring schedule,
// e.g. right after all tasks finish or once playback stops. The guard
// still applies: audible playback defers the refresh to the next cycle.
func (r *Reconciler) RefreshNow() tea.Cmd {
	if r.session.ActiveUnpaused() {
		return nil
	}
	return r.fetchCmd(r.gen, false)
}

// HandleDue runs one scheduled cycle. If a session is playing unpaused the
// whole cycle is skipped: no fetch, no redraw, just the next timer.
func (r *Reconciler) HandleDue(msg DueMsg) tea.Cmd {
	if !r.running || msg.Gen != r.gen {
		return nil
	}
	if r.session.ActiveUnpaused() {
		return r.scheduleCmd(msg.Gen)
	}
	return r.fetchCmd(msg.Gen, true)
}

// HandleResult applies one listing fetch: replace the listing wholesale,
// then re-bind the snapshotted session onto the fresh entry if its file
// survived. A vanished file drops the session silently. Fetch failure
// leaves both the listing and the session untouched.
func (r *Reconciler) HandleResult(msg ResultMsg) (Result, tea.Cmd) {
	if msg.Gen != r.gen {
		return Result{}, nil
	}

	var next tea.Cmd
	if msg.Rearm && r.running {
		next = r.scheduleCmd(msg.Gen)
	}

	if msg.Err != nil {
		r.logger.Warn("file listing fetch failed", "error", msg.Err)
		return Result{Failed: true}, next
	}

	// The guard ran before the fetch, but audio may have gone audible in
	// the meantime. Re-check before the destructive rebuild and throw the
	// result away rather than disturb playback.
	if r.session.ActiveUnpaused() {
		return Result{}, next
	}

	snap, hadSession := r.session.Snapshot()

	r.files = msg.Files
	res := Result{Applied: true}

	if hadSession {
		if file, ok := domain.FindFile(msg.Files, snap.Filename); ok {
			if cmd := r.session.Restore(snap, file.URL); cmd != nil {
				next = tea.Batch(next, cmd)
			}
		} else {
			r.logger.Info("playing file vanished from listing", "file", snap.Filename)
			res.SessionDropped = true
		}
	}

	return res, next
}

func (r *Reconciler) fetchCmd(gen int, rearm bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		files, err := r.client.ListFiles(ctx)
		return ResultMsg{Gen: gen, Files: files, Err: err, Rearm: rearm}
	}
}

func (r *Reconciler) scheduleCmd(gen int) tea.Cmd {
	return tea.Tick(r.interval, func(time.Time) tea.Msg {
		return DueMsg{Gen: gen}
	})
}
