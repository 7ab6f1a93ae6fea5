package notify

import (
	"testing"

	"github.com/voxtui/vox/internal/domain"
)

// memLedger is an in-memory Ledger for tests.
type memLedger struct {
	seen map[string]struct{}
}

func newMemLedger() *memLedger { return &memLedger{seen: make(map[string]struct{})} }

func (m *memLedger) IsNotified(id string) bool {
	_, ok := m.seen[id]
	return ok
}

func (m *memLedger) MarkNotified(id string) error {
	m.seen[id] = struct{}{}
	return nil
}

// Desktop notifications are disabled in tests; only the dedup edge and the
// banner decision are under test.
func newTestSink(l Ledger) *Sink { return NewSink(l, false, nil) }

func TestSink_FiresOncePerTaskID(t *testing.T) {
	sink := newTestSink(newMemLedger())
	task := domain.Task{ID: "t1", Status: domain.StatusCompleted, Title: "Some Video"}

	if !sink.TaskCompleted(task) {
		t.Error("first completed observation must notify")
	}
	// The backend resends completed tasks on later polls.
	if sink.TaskCompleted(task) {
		t.Error("second observation of the same id must not notify")
	}
	if sink.TaskCompleted(task) {
		t.Error("notification must never re-fire")
	}
}

func TestSink_IgnoresNonCompletedStatuses(t *testing.T) {
	sink := newTestSink(newMemLedger())

	for _, status := range []domain.TaskStatus{
		domain.StatusPending,
		domain.StatusStarting,
		domain.StatusDownloading,
		domain.StatusConverting,
		domain.StatusError,
	} {
		if sink.TaskCompleted(domain.Task{ID: "t1", Status: status}) {
			t.Errorf("status %s must not notify", status)
		}
	}

	// The id was never marked, so completion still fires later.
	if !sink.TaskCompleted(domain.Task{ID: "t1", Status: domain.StatusCompleted}) {
		t.Error("completion after active statuses must still notify")
	}
}

func TestSink_DistinctIDsEachNotify(t *testing.T) {
	sink := newTestSink(newMemLedger())

	if !sink.TaskCompleted(domain.Task{ID: "t1", Status: domain.StatusCompleted}) {
		t.Error("t1 should notify")
	}
	if !sink.TaskCompleted(domain.Task{ID: "t2", Status: domain.StatusCompleted}) {
		t.Error("t2 should notify independently of t1")
	}
}

func TestSink_PersistedLedgerSuppressesAcrossSessions(t *testing.T) {
	ledger := newMemLedger()
	ledger.MarkNotified("t1") // notified in a previous run

	sink := newTestSink(ledger)
	if sink.TaskCompleted(domain.Task{ID: "t1", Status: domain.StatusCompleted}) {
		t.Error("id notified in a previous session must stay silent")
	}
}
