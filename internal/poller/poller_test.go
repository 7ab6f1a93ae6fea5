package poller

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/voxtui/vox/internal/domain"
)

type stubClient struct {
	tasks map[string]domain.Task
	err   error
}

func (s *stubClient) TaskStatuses(ctx context.Context) (map[string]domain.Task, error) {
	return s.tasks, s.err
}

func newPoller(c StatusClient) *Poller {
	return New(c, time.Second, nil)
}

func TestPoller_DoubleStartLeavesOneLoop(t *testing.T) {
	client := &stubClient{tasks: map[string]domain.Task{
		"t1": {ID: "t1", Status: domain.StatusDownloading},
	}}
	p := newPoller(client)

	first := p.Start()
	if first == nil {
		t.Fatal("Start must issue an immediate fetch")
	}
	firstGen := p.gen

	second := p.Start()
	if second == nil {
		t.Fatal("restart must issue an immediate fetch")
	}

	// The first loop's result is now stale and must be dropped entirely.
	res, cmd := p.HandleResult(ResultMsg{Gen: firstGen, Tasks: client.tasks})
	if res.Applied || cmd != nil {
		t.Error("stale generation result must not render or reschedule")
	}

	// The live loop proceeds normally.
	res, cmd = p.HandleResult(ResultMsg{Gen: p.gen, Tasks: client.tasks})
	if !res.Applied {
		t.Error("current generation result must apply")
	}
	if cmd == nil {
		t.Error("active tasks must re-arm the loop")
	}
}

func TestPoller_TransportFailureKeepsPolling(t *testing.T) {
	p := newPoller(&stubClient{})
	p.Start()

	res, cmd := p.HandleResult(ResultMsg{Gen: p.gen, Err: errors.New("connection refused")})
	if res.Applied {
		t.Error("failed tick must not render")
	}
	if res.Err == nil {
		t.Error("failure must be reported to the caller")
	}
	if cmd == nil {
		t.Error("failed tick must keep the timer armed")
	}
	if !p.Running() {
		t.Error("transport failure must never stop the loop")
	}
}

func TestPoller_EmptySnapshotDoesNotRearm(t *testing.T) {
	p := newPoller(&stubClient{})
	p.Start()

	res, cmd := p.HandleResult(ResultMsg{Gen: p.gen, Tasks: map[string]domain.Task{}})
	if res.Applied || res.Finished {
		t.Errorf("empty snapshot should neither render nor finish: %+v", res)
	}
	if cmd != nil {
		t.Error("empty snapshot must not re-arm the loop")
	}
	if p.Running() {
		t.Error("loop should have stopped")
	}
}

func TestPoller_AllTerminalStopsAndFinishes(t *testing.T) {
	p := newPoller(&stubClient{})
	p.Start()

	tasks := map[string]domain.Task{
		"t1": {ID: "t1", Status: domain.StatusCompleted, ElapsedStr: "12s"},
		"t2": {ID: "t2", Status: domain.StatusError, Message: "failed"},
	}
	res, cmd := p.HandleResult(ResultMsg{Gen: p.gen, Tasks: tasks})
	if !res.Applied || !res.Finished {
		t.Fatalf("expected applied+finished, got %+v", res)
	}
	if cmd != nil {
		t.Error("finished loop must not reschedule")
	}
	if p.Running() {
		t.Error("loop must cancel itself once everything is terminal")
	}

	// A late timer firing for the dead generation is ignored.
	if c := p.HandleDue(DueMsg{Gen: p.gen}); c != nil {
		t.Error("due tick after self-cancel must be dropped")
	}
}

func TestPoller_SnapshotReplacedAtomically(t *testing.T) {
	p := newPoller(&stubClient{})
	p.Start()

	p.HandleResult(ResultMsg{Gen: p.gen, Tasks: map[string]domain.Task{
		"t1": {ID: "t1", Status: domain.StatusDownloading, Progress: "37%"},
	}})
	if len(p.Snapshot()) != 1 {
		t.Fatalf("snapshot size = %d", len(p.Snapshot()))
	}

	p.HandleResult(ResultMsg{Gen: p.gen, Tasks: map[string]domain.Task{
		"t2": {ID: "t2", Status: domain.StatusPending},
		"t3": {ID: "t3", Status: domain.StatusPending},
	}})
	snap := p.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("snapshot not replaced wholesale: %+v", snap)
	}
	if _, ok := snap["t1"]; ok {
		t.Error("old tasks must not leak into the new snapshot")
	}
}

func TestPoller_TasksOrderedForRender(t *testing.T) {
	p := newPoller(&stubClient{})
	p.Start()
	p.HandleResult(ResultMsg{Gen: p.gen, Tasks: map[string]domain.Task{
		"task_10": {ID: "task_10", Status: domain.StatusPending},
		"task_2":  {ID: "task_2", Status: domain.StatusPending},
		"task_1":  {ID: "task_1", Status: domain.StatusPending},
	}})

	tasks := p.Tasks()
	want := []string{"task_1", "task_2", "task_10"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("position %d = %s, expected %s", i, tasks[i].ID, id)
		}
	}
}

func TestPoller_FetchCmdDeliversResult(t *testing.T) {
	client := &stubClient{tasks: map[string]domain.Task{
		"t1": {ID: "t1", Status: domain.StatusConverting},
	}}
	p := newPoller(client)

	msg := p.Start()()
	res, ok := msg.(ResultMsg)
	if !ok {
		t.Fatalf("expected ResultMsg, got %T", msg)
	}
	if res.Gen != p.gen || res.Err != nil || len(res.Tasks) != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}
