// Package playback owns the single active audio session. At most one media
// handle is ever attached; starting a new session always tears the previous
// one down first.
package playback

// EventKind classifies media lifecycle events.
type EventKind int

const (
	// EventReady fires once playable metadata is available; deferred seeks
	// and resumes are applied at this point.
	EventReady EventKind = iota
	// EventEnded fires when the resource plays to completion.
	EventEnded
	// EventPaused and EventUnpaused track externally observed pause flips.
	EventPaused
	EventUnpaused
	// EventFailed fires on a genuine media error (decode, network, format).
	EventFailed
)

// Event is one media lifecycle notification.
type Event struct {
	Kind EventKind
	Err  error // set for EventFailed
}

// Media is a playable audio resource. Implementations emit lifecycle events
// on the Events channel until Close, after which the channel is closed.
type Media interface {
	Play() error
	Pause() error
	Seek(seconds float64) error
	Position() (float64, error)
	Duration() (float64, error)
	Ready() bool
	Events() <-chan Event
	Close() error
}

// Factory constructs media handles bound to a playable URL.
type Factory interface {
	Open(url string) (Media, error)
}
