// Package progress turns raw backend progress fields into values fit for
// rendering, and synthesizes progress for phases where the backend reports
// no granular signal at all.
package progress

import (
	"strconv"
	"strings"

	"github.com/voxtui/vox/internal/domain"
)

// Percent derives a normalized 0-100 percentage for a task. The backend's
// progress_percent field wins when present; otherwise the free-text
// progress string is parsed. Parse failure or absence yields 0, never an
// error.
func Percent(t domain.Task) int {
	if t.ProgressPercent != nil {
		return clamp(*t.ProgressPercent)
	}
	if t.Progress == "" {
		return 0
	}
	s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t.Progress), "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clamp(int(f))
}

func clamp(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DisplayStats holds defaulted presentation strings for a task. Absence of
// backend data surfaces as a neutral placeholder, never an error.
type DisplayStats struct {
	Downloaded string
	Total      string
	Speed      string
	ETA        string
	Elapsed    string
}

// Stats returns the task's presentation fields with defaults applied.
func Stats(t domain.Task) DisplayStats {
	return DisplayStats{
		Downloaded: orDefault(t.DownloadedStr, "0 B"),
		Total:      orDefault(t.TotalStr, "unknown"),
		Speed:      orDefault(t.Speed, "N/A"),
		ETA:        orDefault(t.ETA, "computing…"),
		Elapsed:    orDefault(t.ElapsedStr, "0s"),
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
