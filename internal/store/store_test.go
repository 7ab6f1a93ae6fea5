package store

import (
	"testing"

	"github.com/voxtui/vox/internal/domain"
)

func TestNotifiedSet(t *testing.T) {
	t.Run("set grows monotonically and persists", func(t *testing.T) {
		dir := t.TempDir()

		s, err := Open(dir)
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if s.IsNotified("task_1") {
			t.Error("fresh store should have no notified ids")
		}
		if err := s.MarkNotified("task_1"); err != nil {
			t.Fatalf("MarkNotified: %v", err)
		}
		if !s.IsNotified("task_1") {
			t.Error("expected task_1 to be notified")
		}
		s.Close()

		// Reopen: the set must survive restarts.
		s2, err := Open(dir)
		if err != nil {
			t.Fatalf("reopen: %v", err)
		}
		defer s2.Close()
		if !s2.IsNotified("task_1") {
			t.Error("notified set lost across reopen")
		}
	})

	t.Run("memory-only mode works without a dir", func(t *testing.T) {
		s, err := Open("")
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()

		if err := s.MarkNotified("t"); err != nil {
			t.Fatalf("MarkNotified: %v", err)
		}
		if !s.IsNotified("t") {
			t.Error("expected in-memory mark to stick")
		}
	})
}

func TestFileListingCache(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if _, ok := s.GetFiles(); ok {
		t.Error("fresh store should have no cached listing")
	}

	files := []domain.File{
		{Name: "a.mp3", SizeStr: "3.1 MB", URL: "/api/audio/a.mp3"},
		{Name: "b.mp3", SizeStr: "1.0 MB", URL: "/api/audio/b.mp3"},
	}
	if err := s.SaveFiles(files); err != nil {
		t.Fatalf("SaveFiles: %v", err)
	}
	s.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, ok := s2.GetFiles()
	if !ok {
		t.Fatal("expected cached listing after reopen")
	}
	if len(got) != 2 || got[0].Name != "a.mp3" || got[1].Name != "b.mp3" {
		t.Errorf("unexpected cached listing: %+v", got)
	}
}
