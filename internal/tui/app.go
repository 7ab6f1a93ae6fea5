// Package tui is the terminal frontend: one bubbletea update loop owning
// the poller, the file reconciler, the playback controller and the extract
// session. Everything stateful runs through this loop; command goroutines
// only ever report back via messages.
package tui

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voxtui/vox/internal/api"
	"github.com/voxtui/vox/internal/config"
	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/extract"
	"github.com/voxtui/vox/internal/notify"
	"github.com/voxtui/vox/internal/playback"
	"github.com/voxtui/vox/internal/poller"
	"github.com/voxtui/vox/internal/reconcile"
	"github.com/voxtui/vox/internal/search"
	"github.com/voxtui/vox/internal/store"
	"github.com/voxtui/vox/internal/tui/styles"
)

// focusArea identifies which pane owns the keyboard.
type focusArea int

const (
	focusForm focusArea = iota
	focusFiles
)

const statusTTL = 4 * time.Second

// Model is the main Bubble Tea model for the application
type Model struct {
	cfg    *config.Config
	logger *slog.Logger

	// Services
	client     *api.Client
	store      *store.Store
	poller     *poller.Poller
	reconciler *reconcile.Reconciler
	controller *playback.Controller
	sink       *notify.Sink

	// Extraction
	session      *extract.Session
	uploadPrompt textinput.Model
	prompting    bool

	// UI components
	form        submitForm
	filterInput textinput.Model
	taskBar     progress.Model
	extractBar  progress.Model
	spin        spinner.Model

	// UI state
	focus         focusArea
	filtering     bool
	filterQuery   string
	cursor        int
	showHelp      bool
	listingFailed bool

	// Status banner
	statusMsg string
	statusErr bool
	statusSeq int

	// Media event subscription; the id of the handle being listened to
	listenID int

	width  int
	height int
	ready  bool
}

// NewModel wires the application model. All services are shared pointers;
// the model is the only goroutine that touches them after Init.
func NewModel(
	cfg *config.Config,
	client *api.Client,
	st *store.Store,
	p *poller.Poller,
	r *reconcile.Reconciler,
	ctrl *playback.Controller,
	sink *notify.Sink,
	logger *slog.Logger,
) Model {
	filter := textinput.New()
	filter.Placeholder = "type to filter"
	filter.Prompt = "/ "
	filter.CharLimit = 128
	filter.Width = 32

	prompt := textinput.New()
	prompt.Placeholder = "/path/to/video.mp4"
	prompt.Prompt = "extract: "
	prompt.CharLimit = 512
	prompt.Width = 48

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = styles.AccentStyle

	form := newSubmitForm()
	form.Focus()

	return Model{
		cfg:          cfg,
		logger:       logger,
		client:       client,
		store:        st,
		poller:       p,
		reconciler:   r,
		controller:   ctrl,
		sink:         sink,
		form:         form,
		filterInput:  filter,
		uploadPrompt: prompt,
		taskBar:      progress.New(progress.WithDefaultGradient()),
		extractBar:   progress.New(progress.WithDefaultGradient()),
		spin:         spin,
		focus:        focusForm,
	}
}

// Init starts both recurring loops and the spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.poller.Start(),
		m.reconciler.Start(),
		m.spin.Tick,
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.taskBar.Width = m.barWidth()
		m.extractBar.Width = m.barWidth()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case poller.DueMsg:
		return m, m.poller.HandleDue(msg)

	case poller.ResultMsg:
		return m.handlePollResult(msg)

	case reconcile.DueMsg:
		return m, m.reconciler.HandleDue(msg)

	case reconcile.ResultMsg:
		return m.handleListingResult(msg)

	case SubmitDoneMsg:
		return m.handleSubmitDone(msg)

	case ClearCompletedDoneMsg:
		if msg.Err != nil {
			return m, m.setStatus("clearing finished tasks failed: "+msg.Err.Error(), true)
		}
		return m, tea.Batch(
			m.poller.Start(),
			m.setStatus("finished tasks cleared", false),
		)

	case extract.ProgressMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.session.HandleProgress(msg)

	case extract.SynthTickMsg:
		if m.session == nil {
			return m, nil
		}
		return m, m.session.HandleSynthTick(msg)

	case extract.DoneMsg:
		return m.handleExtractDone(msg)

	case playback.OpenedMsg:
		return m.handleOpened(msg)

	case MediaEventMsg:
		return m.handleMediaEvent(msg)

	case ClearStatusMsg:
		if msg.Seq == m.statusSeq {
			m.statusMsg = ""
			m.statusErr = false
		}
		return m, nil

	case ErrMsg:
		m.logger.Error("async operation failed", "context", msg.Context, "error", msg.Err)
		return m, m.setStatus(msg.Context+": "+msg.Err.Error(), true)
	}

	return m, nil
}

// handlePollResult applies one status poll. When the batch finishes, every
// completed task gets its once-only notification and the file listing is
// refreshed out of schedule.
func (m Model) handlePollResult(msg poller.ResultMsg) (tea.Model, tea.Cmd) {
	res, cmd := m.poller.HandleResult(msg)

	// Transport failures ride out silently until the next tick; a backend
	// that answers with garbage deserves a visible message.
	if errors.Is(res.Err, domain.ErrProtocol) {
		return m, tea.Batch(cmd, m.setStatus("status update failed: "+res.Err.Error(), true))
	}
	if !res.Finished {
		return m, cmd
	}

	var cmds []tea.Cmd
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	notified := 0
	for _, t := range res.Tasks {
		if m.sink.TaskCompleted(t) {
			notified++
		}
	}
	if notified > 0 {
		cmds = append(cmds, m.setStatus("conversion finished", false))
	}
	if refresh := m.reconciler.RefreshNow(); refresh != nil {
		cmds = append(cmds, refresh)
	}
	return m, tea.Batch(cmds...)
}

// handleListingResult applies one file-listing fetch. A failed fetch flips
// the listing pane to its placeholder until a later cycle succeeds.
func (m Model) handleListingResult(msg reconcile.ResultMsg) (tea.Model, tea.Cmd) {
	res, cmd := m.reconciler.HandleResult(msg)

	var cmds []tea.Cmd
	if cmd != nil {
		cmds = append(cmds, cmd)
	}

	if res.Failed {
		m.listingFailed = true
	}
	if res.Applied {
		m.listingFailed = false
		if err := m.store.SaveFiles(m.reconciler.Files()); err != nil {
			m.logger.Warn("caching file listing failed", "error", err)
		}
		m.clampCursor()
	}
	if res.SessionDropped {
		cmds = append(cmds, m.setStatus("playback stopped: file no longer on server", true))
	}
	return m, tea.Batch(cmds...)
}

// handleOpened attaches (or discards) an asynchronously opened media handle
// and subscribes to the new handle's event stream.
func (m Model) handleOpened(msg playback.OpenedMsg) (tea.Model, tea.Cmd) {
	outcome := m.controller.HandleOpened(msg)

	var cmds []tea.Cmd
	if outcome.Err != nil {
		cmds = append(cmds, m.setStatus("playback failed: "+outcome.Err.Error(), true))
	}
	if listen := m.listenMedia(); listen != nil {
		cmds = append(cmds, listen)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleSubmitDone(msg SubmitDoneMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		return m, m.setStatus("submission failed: "+msg.Err.Error(), true)
	}
	m.form.Reset()
	label := "download queued"
	if msg.Count > 1 {
		label = "downloads queued"
	}
	return m, tea.Batch(
		m.poller.Start(),
		m.setStatus(label, false),
	)
}

func (m Model) handleExtractDone(msg extract.DoneMsg) (tea.Model, tea.Cmd) {
	if m.session == nil {
		return m, nil
	}
	m.session.HandleDone(msg)
	if err := m.session.Err(); err != nil {
		return m, m.setStatus("extraction failed: "+err.Error(), true)
	}

	var cmds []tea.Cmd
	cmds = append(cmds, m.setStatus("extraction finished: "+m.session.FileName(), false))
	if refresh := m.reconciler.RefreshNow(); refresh != nil {
		cmds = append(cmds, refresh)
	}
	return m, tea.Batch(cmds...)
}

// handleMediaEvent feeds one player event to the controller, dropping stale
// handles, and keeps the single event subscription alive.
func (m Model) handleMediaEvent(msg MediaEventMsg) (tea.Model, tea.Cmd) {
	if msg.Closed {
		if msg.HandleID == m.listenID {
			m.listenID = 0
		}
		return m, nil
	}

	outcome := m.controller.HandleEvent(msg.HandleID, msg.Event)

	var cmds []tea.Cmd
	if outcome.Stopped {
		if msg.HandleID == m.listenID {
			m.listenID = 0
		}
		if refresh := m.reconciler.RefreshNow(); refresh != nil {
			cmds = append(cmds, refresh)
		}
		if outcome.Err != nil {
			cmds = append(cmds, m.setStatus("playback failed: "+outcome.Err.Error(), true))
		}
	} else if ch, id, ok := m.controller.SessionEvents(); ok && id == msg.HandleID {
		// Same handle still live; keep reading its stream.
		cmds = append(cmds, ListenMediaCmd(ch, id))
	}
	return m, tea.Batch(cmds...)
}

// handleKey routes keyboard input by focus and mode.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, whatever has focus.
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.prompting {
		return m.handlePromptKey(msg)
	}
	if m.filtering {
		return m.handleFilterKey(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.focus == focusForm {
		return m.handleFormKey(msg)
	}
	return m.handleFilesKey(msg)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.form.Blur()
		m.focus = focusFiles
		return m, nil

	case key.Matches(msg, Keys.Tab):
		m.form.Next()
		return m, nil

	case msg.String() == "shift+tab":
		m.form.Prev()
		return m, nil

	case key.Matches(msg, Keys.AddRow):
		m.form.AddRow()
		return m, nil

	case key.Matches(msg, Keys.RemoveRow):
		m.form.RemoveRow()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		subs, err := domain.ValidateSubmissions(m.form.Submissions())
		if err != nil {
			return m, m.setStatus(err.Error(), true)
		}
		return m, SubmitDownloadCmd(m.client, subs)
	}

	return m, m.form.Update(msg)
}

func (m Model) handleFilesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Tab):
		m.focus = focusForm
		m.form.Focus()
		return m, nil

	case key.Matches(msg, Keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, Keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, Keys.Down):
		if m.cursor < len(m.visibleFiles())-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, Keys.Filter):
		m.filtering = true
		m.filterInput.SetValue(m.filterQuery)
		m.filterInput.Focus()
		return m, nil

	case key.Matches(msg, Keys.Escape):
		if m.filterQuery != "" {
			m.filterQuery = ""
			m.clampCursor()
		}
		return m, nil

	case key.Matches(msg, Keys.Enter):
		return m.togglePlayback()

	case key.Matches(msg, Keys.Stop):
		if m.controller.Stop() {
			m.listenID = 0
			return m, m.reconciler.RefreshNow()
		}
		return m, nil

	case key.Matches(msg, Keys.Refresh):
		if refresh := m.reconciler.RefreshNow(); refresh != nil {
			return m, refresh
		}
		return m, m.setStatus("refresh deferred while playing", false)

	case key.Matches(msg, Keys.ClearCompleted):
		return m, ClearCompletedCmd(m.client)

	case key.Matches(msg, Keys.Upload):
		m.prompting = true
		m.uploadPrompt.SetValue("")
		m.uploadPrompt.Focus()
		return m, nil
	}

	return m, nil
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.filtering = false
		m.filterQuery = ""
		m.filterInput.Blur()
		m.clampCursor()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		m.filtering = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.filterQuery = m.filterInput.Value()
	m.clampCursor()
	return m, cmd
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, Keys.Escape):
		m.prompting = false
		m.uploadPrompt.Blur()
		return m, nil

	case key.Matches(msg, Keys.Enter):
		path := strings.TrimSpace(m.uploadPrompt.Value())
		m.prompting = false
		m.uploadPrompt.Blur()
		if path == "" {
			return m, nil
		}
		session, cmd, err := extract.Start(m.client, path, m.cfg.Extract.Format, "", m.logger)
		if err != nil {
			return m, m.setStatus("extraction failed: "+err.Error(), true)
		}
		m.session = session
		return m, cmd
	}

	var cmd tea.Cmd
	m.uploadPrompt, cmd = m.uploadPrompt.Update(msg)
	return m, cmd
}

// togglePlayback plays or pauses the file under the cursor.
func (m Model) togglePlayback() (tea.Model, tea.Cmd) {
	files := m.visibleFiles()
	if m.cursor >= len(files) {
		return m, nil
	}
	f := files[m.cursor]

	cmd, err := m.controller.Toggle(f.Name, f.URL)
	if err != nil {
		return m, m.setStatus("playback failed: "+err.Error(), true)
	}
	return m, cmd
}

// listenMedia subscribes to the live handle's event stream, unless it is
// already being listened to.
func (m *Model) listenMedia() tea.Cmd {
	ch, id, ok := m.controller.SessionEvents()
	if !ok || id == m.listenID {
		return nil
	}
	m.listenID = id
	return ListenMediaCmd(ch, id)
}

// visibleFiles applies the filter query to the current listing.
func (m Model) visibleFiles() []domain.File {
	files := m.reconciler.Files()
	if m.filterQuery == "" {
		return files
	}
	matches := search.Filter(m.filterQuery, domain.FileNames(files))
	out := make([]domain.File, len(matches))
	for i, match := range matches {
		out[i] = files[match.Index]
	}
	return out
}

func (m *Model) clampCursor() {
	n := len(m.visibleFiles())
	if n == 0 {
		m.cursor = 0
		return
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
}

// setStatus replaces the banner and schedules its expiry.
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	m.statusMsg = msg
	m.statusErr = isErr
	m.statusSeq++
	return ClearStatusCmd(m.statusSeq, statusTTL)
}

func (m Model) barWidth() int {
	w := m.width - 10
	if w > 50 {
		w = 50
	}
	if w < 10 {
		w = 10
	}
	return w
}
