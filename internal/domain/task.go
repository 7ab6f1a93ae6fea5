package domain

// TaskStatus is the backend-assigned lifecycle state of a conversion task.
type TaskStatus string

const (
	StatusPending     TaskStatus = "pending"
	StatusStarting    TaskStatus = "starting"
	StatusDownloading TaskStatus = "downloading"
	StatusConverting  TaskStatus = "converting"
	StatusCompleted   TaskStatus = "completed"
	StatusError       TaskStatus = "error"
)

// String returns the raw status value.
func (s TaskStatus) String() string {
	return string(s)
}

// IsActive returns true while the task still has work in flight.
func (s TaskStatus) IsActive() bool {
	switch s {
	case StatusPending, StatusStarting, StatusDownloading, StatusConverting:
		return true
	}
	return false
}

// IsTerminal returns true once the task can no longer change.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// statusRank orders the forward lifecycle. Terminal states have no rank.
var statusRank = map[TaskStatus]int{
	StatusPending:     0,
	StatusStarting:    1,
	StatusDownloading: 2,
	StatusConverting:  3,
}

// CanTransitionTo reports whether the lifecycle permits moving from s to
// next. The graph is strictly ordered pending → starting → downloading →
// converting → completed, with error reachable from any non-terminal state
// and no outgoing edges from completed or error.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	if next == StatusCompleted {
		return true
	}
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// Task is one submitted conversion job as reported by the backend. The
// client never mutates a Task; each successful poll replaces the local copy
// wholesale.
type Task struct {
	ID              string     `json:"-"` // map key in /api/status, filled in by the client
	Status          TaskStatus `json:"status"`
	Title           string     `json:"title"`
	URL             string     `json:"url"`
	Progress        string     `json:"progress"`         // free-text percentage, e.g. "42.0%"
	ProgressPercent *int       `json:"progress_percent"` // preferred when present
	DownloadedStr   string     `json:"downloaded_str"`
	TotalStr        string     `json:"total_str"`
	Speed           string     `json:"speed"`
	ETA             string     `json:"eta"`
	ElapsedStr      string     `json:"elapsed_str"`
	Message         string     `json:"message"`
}

// DisplayTitle returns the title, falling back to the URL before the
// backend has resolved one.
func (t Task) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}

// AllTerminal returns true iff no task in the snapshot is still active.
func AllTerminal(tasks map[string]Task) bool {
	for _, t := range tasks {
		if t.Status.IsActive() {
			return false
		}
	}
	return true
}
