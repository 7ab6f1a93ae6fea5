package progress

import (
	"fmt"
	"math/rand"
	"time"
)

// Synthetic increment bounds per tick, in percentage points.
const (
	synthMin = 2.0
	synthMax = 7.0
)

// TickInterval is how often a synthetic sequence should be advanced.
const TickInterval = 400 * time.Millisecond

// Synthetic produces a smoothly increasing progress value for phases where
// the backend carries no granular percentage (server-side extraction after
// upload). Values are monotonically non-decreasing and capped at 100.
type Synthetic struct {
	current float64
	rng     *rand.Rand
}

// NewSynthetic starts a fresh sequence at phase-local zero. A nil rng uses
// a time-seeded source.
func NewSynthetic(rng *rand.Rand) *Synthetic {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Synthetic{rng: rng}
}

// Advance moves the sequence forward by a pseudo-random increment and
// returns the new value. Once the cap is reached, further calls return 100.
func (s *Synthetic) Advance() float64 {
	if s.current >= 100 {
		return 100
	}
	s.current += synthMin + s.rng.Float64()*(synthMax-synthMin)
	if s.current > 100 {
		s.current = 100
	}
	return s.current
}

// Value returns the current value without advancing.
func (s *Synthetic) Value() float64 {
	return s.current
}

// Done reports whether the sequence has reached its target.
func (s *Synthetic) Done() bool {
	return s.current >= 100
}

// RemainingEstimate derives a remaining-time string from the gap to 100.
// It is a guess by construction and is labeled as one.
func (s *Synthetic) RemainingEstimate() string {
	if s.Done() {
		return "finishing…"
	}
	gap := 100 - s.current
	avg := (synthMin + synthMax) / 2
	ticks := gap / avg
	eta := time.Duration(ticks * float64(TickInterval)).Round(time.Second)
	if eta < time.Second {
		eta = time.Second
	}
	return fmt.Sprintf("~%s left (estimate)", eta)
}
