package playback

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/domain"
)

// Snapshot captures the volatile part of a session so it can be restored
// after the file list is rebuilt.
type Snapshot struct {
	Filename string
	Position float64 // seconds
	Paused   bool
}

// session is the one live playback session, if any.
type session struct {
	id       int // handle identity; stale events carry an older id
	filename string
	url      string
	media    Media
	paused   bool
	lastPos  float64

	// Deferred restore state, applied when the handle signals readiness.
	pendingSeek   float64
	hasPending    bool
	pendingResume bool
}

// Controller is the state machine over {Idle, Playing(filename)}. It is the
// exclusive owner of the media handle. All methods must be called from the
// UI update loop; the controller is not safe for concurrent use.
type Controller struct {
	factory Factory
	logger  *slog.Logger

	current *session
	seq     int
}

// NewController creates a playback controller.
func NewController(factory Factory, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{factory: factory, logger: logger}
}

// NowPlaying returns the active session's filename, if any.
func (c *Controller) NowPlaying() (string, bool) {
	if c.current == nil {
		return "", false
	}
	return c.current.filename, true
}

// ActiveUnpaused reports whether audio is (nominally) audible right now.
// The reconciler uses this as its skip guard.
func (c *Controller) ActiveUnpaused() bool {
	return c.current != nil && !c.current.paused
}

// SessionEvents exposes the live handle's event stream together with the
// handle identity, so the caller can discard events from torn-down handles.
func (c *Controller) SessionEvents() (<-chan Event, int, bool) {
	if c.current == nil {
		return nil, 0, false
	}
	return c.current.media.Events(), c.current.id, true
}

// OpenedMsg carries the result of an asynchronous handle open back to the
// update loop. Seq identifies the open; a Stop or newer Start issued in the
// meantime leaves it stale.
type OpenedMsg struct {
	Seq      int
	Filename string
	URL      string
	Media    Media
	Err      error
	Restore  *Snapshot // non-nil when the open re-binds a snapshotted session
}

// Toggle flips pause for the file already playing, or stops the current
// session and returns a command that starts the named one.
func (c *Controller) Toggle(filename, url string) (tea.Cmd, error) {
	if c.current != nil && c.current.filename == filename {
		if c.current.paused {
			if err := c.current.media.Play(); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrMedia, err)
			}
			c.current.paused = false
		} else {
			if err := c.current.media.Pause(); err != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrMedia, err)
			}
			c.current.paused = true
		}
		return nil, nil
	}
	return c.Start(filename, url), nil
}

// Start tears down any existing session and returns a command that opens a
// handle for url off the update loop. The session attaches when the
// resulting OpenedMsg reaches HandleOpened; genuine media failures surface
// later as EventFailed on the new handle's stream.
func (c *Controller) Start(filename, url string) tea.Cmd {
	c.Stop()
	c.seq++
	return c.openCmd(c.seq, filename, url, nil)
}

// openCmd performs the blocking handle open in a command goroutine. It
// touches only the factory and its arguments, never controller state.
func (c *Controller) openCmd(seq int, filename, url string, restore *Snapshot) tea.Cmd {
	factory := c.factory
	return func() tea.Msg {
		media, err := factory.Open(url)
		return OpenedMsg{
			Seq:      seq,
			Filename: filename,
			URL:      url,
			Media:    media,
			Err:      err,
			Restore:  restore,
		}
	}
}

// HandleOpened attaches a freshly opened handle, or discards it when the
// open went stale. Restore opens apply (or defer) the snapshotted position
// and pause state; plain opens begin playing.
func (c *Controller) HandleOpened(msg OpenedMsg) Outcome {
	if msg.Seq != c.seq {
		// A Stop or a newer open superseded this one.
		if msg.Media != nil {
			if err := msg.Media.Close(); err != nil {
				c.logger.Warn("closing superseded handle failed", "file", msg.Filename, "error", err)
			}
		}
		return Outcome{}
	}
	if msg.Err != nil {
		return Outcome{Stopped: true, Err: fmt.Errorf("%w: %v", domain.ErrMedia, msg.Err)}
	}

	s := &session{
		id:       msg.Seq,
		filename: msg.Filename,
		url:      msg.URL,
		media:    msg.Media,
	}
	c.current = s

	if msg.Restore != nil {
		snap := *msg.Restore
		s.paused = snap.Paused
		s.lastPos = snap.Position
		if msg.Media.Ready() {
			if err := c.applyRestore(s, snap); err != nil {
				return Outcome{Stopped: true, Err: err}
			}
			return Outcome{}
		}
		s.pendingSeek = snap.Position
		s.hasPending = true
		s.pendingResume = !snap.Paused
		return Outcome{}
	}

	if err := msg.Media.Play(); err != nil {
		// Transport to the player failed outright; anything softer is
		// reported asynchronously and handled by HandleEvent.
		c.Stop()
		return Outcome{Stopped: true, Err: fmt.Errorf("%w: %v", domain.ErrMedia, err)}
	}
	c.logger.Info("playback started", "file", msg.Filename)
	return Outcome{}
}

// Stop tears down the active session: pause, discard the handle (stale
// callbacks are dropped by handle identity), release the resource. Safe to
// call when idle, and safe to call twice. The sequence bump also invalidates
// any open still in flight.
func (c *Controller) Stop() bool {
	c.seq++
	if c.current == nil {
		return false
	}
	s := c.current
	c.current = nil

	if err := s.media.Pause(); err != nil {
		c.logger.Warn("pause during teardown failed", "file", s.filename, "error", err)
	}
	if err := s.media.Close(); err != nil {
		c.logger.Warn("media close failed", "file", s.filename, "error", err)
	}
	c.logger.Info("playback stopped", "file", s.filename)
	return true
}

// Snapshot records the session's filename, position and pause state ahead
// of a destructive list rebuild.
func (c *Controller) Snapshot() (Snapshot, bool) {
	if c.current == nil {
		return Snapshot{}, false
	}
	pos, err := c.current.media.Position()
	if err != nil {
		pos = c.current.lastPos
	}
	return Snapshot{
		Filename: c.current.filename,
		Position: pos,
		Paused:   c.current.paused,
	}, true
}

// Restore re-binds a snapshotted session onto a freshly rendered entry via
// an asynchronous open. If the new handle is not yet ready when it attaches,
// the seek and resume are deferred until it signals readiness.
func (c *Controller) Restore(snap Snapshot, url string) tea.Cmd {
	c.Stop()
	c.seq++
	return c.openCmd(c.seq, snap.Filename, url, &snap)
}

func (c *Controller) applyRestore(s *session, snap Snapshot) error {
	if err := s.media.Seek(snap.Position); err != nil {
		c.logger.Warn("restore seek failed", "file", s.filename, "error", err)
	}
	if !snap.Paused {
		if err := s.media.Play(); err != nil {
			c.Stop()
			return fmt.Errorf("%w: %v", domain.ErrMedia, err)
		}
	}
	return nil
}

// Outcome describes what a media event did to the session.
type Outcome struct {
	Stopped bool  // session ended (naturally or by failure)
	Err     error // set when a genuine media error should be surfaced
}

// HandleEvent applies one media lifecycle event. Events carrying a stale
// handle id are ignored; they belong to a session already torn down.
func (c *Controller) HandleEvent(handleID int, ev Event) Outcome {
	if c.current == nil || c.current.id != handleID {
		return Outcome{}
	}
	s := c.current

	switch ev.Kind {
	case EventReady:
		if s.hasPending {
			s.hasPending = false
			if err := s.media.Seek(s.pendingSeek); err != nil {
				c.logger.Warn("deferred seek failed", "file", s.filename, "error", err)
			}
			if s.pendingResume {
				s.pendingResume = false
				if err := s.media.Play(); err != nil {
					c.Stop()
					return Outcome{Stopped: true, Err: fmt.Errorf("%w: %v", domain.ErrMedia, err)}
				}
				s.paused = false
			}
		}
	case EventPaused:
		s.paused = true
		if pos, err := s.media.Position(); err == nil {
			s.lastPos = pos
		}
	case EventUnpaused:
		s.paused = false
	case EventEnded:
		c.Stop()
		return Outcome{Stopped: true}
	case EventFailed:
		c.Stop()
		err := ev.Err
		if err == nil {
			err = domain.ErrMedia
		}
		return Outcome{Stopped: true, Err: fmt.Errorf("%w: %v", domain.ErrMedia, err)}
	}
	return Outcome{}
}
