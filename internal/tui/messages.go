package tui

import (
	"github.com/voxtui/vox/internal/playback"
)

// SubmitDoneMsg reports the outcome of a download submission.
type SubmitDoneMsg struct {
	Count int
	Err   error
}

// ClearCompletedDoneMsg reports the outcome of clearing finished tasks.
type ClearCompletedDoneMsg struct {
	Err error
}

// MediaEventMsg carries one player lifecycle event, tagged with the handle
// it came from so events from torn-down handles can be discarded.
type MediaEventMsg struct {
	HandleID int
	Event    playback.Event
	Closed   bool // event stream ended
}

// ClearStatusMsg clears the transient status banner.
type ClearStatusMsg struct {
	Seq int
}

// ErrMsg is a generic async failure with context for the banner.
type ErrMsg struct {
	Err     error
	Context string
}
