// Package poller drives the recurring task-status fetch. Every recurring
// loop is identified by a generation tag; starting a loop bumps the tag so
// messages from any prior loop are discarded, which is what prevents
// duplicate concurrent timers and double notification.
package poller

import (
	"context"
	"log/slog"
	"sort"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/domain"
)

const fetchTimeout = 10 * time.Second

// StatusClient fetches the full task snapshot.
type StatusClient interface {
	TaskStatuses(ctx context.Context) (map[string]domain.Task, error)
}

// DueMsg signals that a scheduled poll should fire.
type DueMsg struct {
	Gen int
}

// ResultMsg carries one poll's outcome back to the update loop.
type ResultMsg struct {
	Gen   int
	Tasks map[string]domain.Task
	Err   error
}

// Result describes what a poll tick did.
type Result struct {
	Applied  bool          // snapshot replaced, render wanted
	Tasks    []domain.Task // ordered snapshot for rendering
	Finished bool          // everything terminal; loop stopped itself
	Err      error         // tick failed; loop stays armed
}

// Poller owns the recurring status loop and the last-fetched snapshot.
type Poller struct {
	client   StatusClient
	logger   *slog.Logger
	interval time.Duration

	gen      int
	running  bool
	snapshot map[string]domain.Task
}

// New creates a poller. interval is the re-arm period while tasks are
// active (the backend mutates tasks on the same cadence).
func New(client StatusClient, interval time.Duration, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Poller{
		client:   client,
		logger:   logger,
		interval: interval,
		snapshot: make(map[string]domain.Task),
	}
}

// Start begins (or restarts) the loop with an immediate fetch. Any loop
// already running is cancelled by the generation bump, so re-entry never
// produces two concurrent timers.
func (p *Poller) Start() tea.Cmd {
	p.gen++
	p.running = true
	return p.fetchCmd(p.gen)
}

// Stop cancels the loop. In-flight messages become stale and are dropped.
func (p *Poller) Stop() {
	p.gen++
	p.running = false
}

// Running reports whether a loop currently owns a scheduled tick.
func (p *Poller) Running() bool {
	return p.running
}

// Snapshot returns the last-fetched task map.
func (p *Poller) Snapshot() map[string]domain.Task {
	return p.snapshot
}

// Tasks returns the snapshot ordered for stable rendering.
func (p *Poller) Tasks() []domain.Task {
	return orderTasks(p.snapshot)
}

// HandleDue turns a fired timer into a fetch, unless the tick is stale.
func (p *Poller) HandleDue(msg DueMsg) tea.Cmd {
	if !p.running || msg.Gen != p.gen {
		return nil
	}
	return p.fetchCmd(msg.Gen)
}

// HandleResult applies one poll outcome.
//
// Transport and protocol failures are logged and the tick is otherwise
// dropped; the loop stays armed, which is the whole retry policy. An empty
// snapshot renders nothing and does not re-arm. When every task is
// terminal, the loop cancels itself and reports Finished so the caller can
// refresh the file list and deliver notifications.
func (p *Poller) HandleResult(msg ResultMsg) (Result, tea.Cmd) {
	if !p.running || msg.Gen != p.gen {
		return Result{}, nil
	}

	if msg.Err != nil {
		p.logger.Warn("status poll failed", "error", msg.Err)
		return Result{Err: msg.Err}, p.scheduleCmd(msg.Gen)
	}

	if len(msg.Tasks) == 0 {
		p.running = false
		return Result{}, nil
	}

	p.snapshot = msg.Tasks
	res := Result{Applied: true, Tasks: orderTasks(msg.Tasks)}

	if domain.AllTerminal(msg.Tasks) {
		p.running = false
		res.Finished = true
		return res, nil
	}
	return res, p.scheduleCmd(msg.Gen)
}

func (p *Poller) fetchCmd(gen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		tasks, err := p.client.TaskStatuses(ctx)
		return ResultMsg{Gen: gen, Tasks: tasks, Err: err}
	}
}

func (p *Poller) scheduleCmd(gen int) tea.Cmd {
	return tea.Tick(p.interval, func(time.Time) tea.Msg {
		return DueMsg{Gen: gen}
	})
}

// orderTasks sorts by id, shorter ids first so backend-assigned task_N keys
// order numerically.
func orderTasks(tasks map[string]domain.Task) []domain.Task {
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].ID, out[j].ID
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return out
}
