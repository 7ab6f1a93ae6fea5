package progress

import (
	"testing"

	"github.com/voxtui/vox/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestPercent(t *testing.T) {
	tests := []struct {
		name     string
		task     domain.Task
		expected int
	}{
		{"progress_percent wins", domain.Task{ProgressPercent: intPtr(73), Progress: "10%"}, 73},
		{"plain percent string", domain.Task{Progress: "37%"}, 37},
		{"decimal floored", domain.Task{Progress: "42.9%"}, 42},
		{"whitespace tolerated", domain.Task{Progress: " 12.0% "}, 12},
		{"no trailing percent", domain.Task{Progress: "55"}, 55},
		{"garbage resets to zero", domain.Task{Progress: "n/a"}, 0},
		{"absent", domain.Task{}, 0},
		{"negative clamped", domain.Task{ProgressPercent: intPtr(-3)}, 0},
		{"overflow clamped", domain.Task{ProgressPercent: intPtr(140)}, 100},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Percent(test.task); got != test.expected {
				t.Errorf("Percent() = %d, expected %d", got, test.expected)
			}
		})
	}
}

func TestStats_Defaults(t *testing.T) {
	stats := Stats(domain.Task{})

	if stats.Downloaded != "0 B" {
		t.Errorf("Downloaded default = %q", stats.Downloaded)
	}
	if stats.Total != "unknown" {
		t.Errorf("Total default = %q", stats.Total)
	}
	if stats.Speed != "N/A" {
		t.Errorf("Speed default = %q", stats.Speed)
	}
	if stats.ETA != "computing…" {
		t.Errorf("ETA default = %q", stats.ETA)
	}
	if stats.Elapsed != "0s" {
		t.Errorf("Elapsed default = %q", stats.Elapsed)
	}
}

func TestStats_PassthroughWhenPresent(t *testing.T) {
	stats := Stats(domain.Task{
		DownloadedStr: "1.2 MB",
		TotalStr:      "3.4 MB",
		Speed:         "512 KB/s",
		ETA:           "4s",
		ElapsedStr:    "12s",
	})

	if stats.Downloaded != "1.2 MB" || stats.Total != "3.4 MB" || stats.Speed != "512 KB/s" {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
