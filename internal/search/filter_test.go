package search

import (
	"testing"
)

var testNames = []string{
	"lecture_01_intro.mp3",
	"lecture_02_basics.mp3",
	"podcast_episode_14.mp3",
	"interview_final_cut.mp3",
}

func TestFilterEmptyQueryReturnsAll(t *testing.T) {
	matches := Filter("", testNames)
	if len(matches) != len(testNames) {
		t.Fatalf("got %d matches, want %d", len(matches), len(testNames))
	}
	for i, m := range matches {
		if m.Index != i {
			t.Errorf("match %d: index = %d, want %d", i, m.Index, i)
		}
	}
}

func TestFilterSubsequence(t *testing.T) {
	matches := Filter("lec01", testNames)
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0].Index != 0 {
		t.Errorf("best match index = %d, want 0", matches[0].Index)
	}
	if len(matches[0].MatchedIndexes) == 0 {
		t.Error("expected matched character positions for highlighting")
	}
}

func TestFilterCaseInsensitive(t *testing.T) {
	matches := Filter("PODCAST", testNames)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Index != 2 {
		t.Errorf("match index = %d, want 2", matches[0].Index)
	}
}

func TestFilterNoMatch(t *testing.T) {
	matches := Filter("zzzzqqqq", testNames)
	if len(matches) != 0 {
		t.Fatalf("got %d matches, want 0", len(matches))
	}
}

func TestFilterNearMissTypo(t *testing.T) {
	names := []string{"soundtrack.mp3", "other.mp3"}
	// "soundtrack.mp4" is one edit away and has no subsequence match
	// against other.mp3, so the near-miss pass should find it.
	matches := Filter("soundtrack.mp4", names)
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
	if matches[0].Index != 0 {
		t.Errorf("match index = %d, want 0", matches[0].Index)
	}
}

func TestFilterOrdersBetterMatchesFirst(t *testing.T) {
	names := []string{"abc_lecture.mp3", "lecture.mp3"}
	matches := Filter("lecture", names)
	if len(matches) < 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Index != 1 {
		t.Errorf("best match index = %d, want 1 (prefix beats infix)", matches[0].Index)
	}
}
