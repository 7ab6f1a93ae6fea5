package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/config"
	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/log"
	"github.com/voxtui/vox/internal/notify"
	"github.com/voxtui/vox/internal/playback"
	"github.com/voxtui/vox/internal/poller"
	"github.com/voxtui/vox/internal/reconcile"
	"github.com/voxtui/vox/internal/store"
)

// scriptedFiles serves the listing endpoint with adjustable results.
type scriptedFiles struct {
	files []domain.File
	err   error
}

func (s *scriptedFiles) ListFiles(ctx context.Context) ([]domain.File, error) {
	return s.files, s.err
}

type noopStatuses struct{}

func (noopStatuses) TaskStatuses(ctx context.Context) (map[string]domain.Task, error) {
	return nil, nil
}

type noopFactory struct{}

func (noopFactory) Open(url string) (playback.Media, error) {
	return nil, errors.New("no player in tests")
}

func newTestModel(t *testing.T, files *scriptedFiles) Model {
	t.Helper()

	st, err := store.Open("")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := config.DefaultConfig()
	cfg.Server.URL = "http://localhost:8000"

	logger := log.Null()
	ctrl := playback.NewController(noopFactory{}, logger)
	p := poller.New(noopStatuses{}, time.Second, logger)
	r := reconcile.New(files, ctrl, 5*time.Second, logger)
	sink := notify.NewSink(st, false, logger)

	m := NewModel(cfg, nil, st, p, r, ctrl, sink, logger)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return model.(Model)
}

func TestFilesPane_FetchFailureShowsPlaceholder(t *testing.T) {
	files := &scriptedFiles{err: errors.New("connection refused")}
	m := newTestModel(t, files)
	m.reconciler.SeedFiles([]domain.File{{Name: "lecture.mp3", SizeStr: "3.1 MB"}})

	fetch := m.reconciler.Start()
	model, _ := m.Update(fetch())
	m = model.(Model)

	view := m.View()
	if !strings.Contains(view, "file listing unavailable") {
		t.Fatal("failed fetch must render the listing placeholder")
	}
	if strings.Contains(view, "lecture.mp3") {
		t.Error("stale rows must not render while the listing is unavailable")
	}

	// A later successful cycle replaces the placeholder with fresh rows.
	files.err = nil
	files.files = []domain.File{{Name: "lecture.mp3", SizeStr: "3.1 MB", URL: "/api/audio/lecture.mp3"}}
	refresh := m.reconciler.RefreshNow()
	if refresh == nil {
		t.Fatal("expected a one-shot refresh while idle")
	}
	model, _ = m.Update(refresh())
	m = model.(Model)

	view = m.View()
	if strings.Contains(view, "file listing unavailable") {
		t.Error("placeholder must clear once a fetch succeeds")
	}
	if !strings.Contains(view, "lecture.mp3") {
		t.Error("fresh listing must render after recovery")
	}
}

func TestFilesPane_HeaderShowsTotalCount(t *testing.T) {
	files := &scriptedFiles{files: []domain.File{
		{Name: "a.mp3", SizeStr: "3.1 MB", URL: "/api/audio/a.mp3"},
		{Name: "b.mp3", SizeStr: "1.0 MB", URL: "/api/audio/b.mp3"},
	}}
	m := newTestModel(t, files)

	fetch := m.reconciler.Start()
	model, _ := m.Update(fetch())
	m = model.(Model)

	if view := m.View(); !strings.Contains(view, "Files (2)") {
		t.Error("header must carry the total file count")
	}

	// The count stays the full total even when a filter narrows the rows.
	m.filterQuery = "a"
	if view := m.View(); !strings.Contains(view, "Files (2)") {
		t.Error("filtering must not change the header count")
	}
}
