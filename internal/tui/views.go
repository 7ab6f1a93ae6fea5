package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/extract"
	"github.com/voxtui/vox/internal/progress"
	"github.com/voxtui/vox/internal/tui/styles"
)

const maxVisibleFiles = 12

// View renders the whole screen.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}

	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.submitView())
	b.WriteString(m.tasksView())
	b.WriteString(m.filesView())
	if m.session != nil {
		b.WriteString(m.extractView())
	}
	b.WriteString(m.footerView())

	return b.String()
}

func (m Model) headerView() string {
	title := styles.TitleStyle.Render("vox")
	server := styles.DimStyle.Render(m.cfg.Server.URL)
	return styles.PanelStyle.Render(title + "  " + server)
}

// submitView renders the download submission form.
func (m Model) submitView() string {
	label := "Queue downloads"
	if m.focus == focusForm {
		label = styles.AccentStyle.Render(label)
	} else {
		label = styles.SubtitleStyle.Render(label)
	}
	hint := styles.DimStyle.Render("enter submit · C-n add row · C-x remove row · esc files")
	return styles.PanelStyle.Render(label+"  "+hint) + "\n" + m.form.View()
}

// tasksView renders one card per task in the current snapshot.
func (m Model) tasksView() string {
	tasks := m.poller.Tasks()
	if len(tasks) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.SubtitleStyle.Render(" Tasks") + "\n")
	for _, t := range tasks {
		b.WriteString(m.taskCard(t))
		b.WriteString("\n")
	}
	return b.String()
}

// taskCard renders a single task, varying by status: queued states show a
// spinner, active states a live progress bar with transfer stats, terminal
// states a colored summary line.
func (m Model) taskCard(t domain.Task) string {
	title := styles.Truncate(t.DisplayTitle(), m.width-20)
	card := styles.CardStyle

	var body string
	switch t.Status {
	case domain.StatusPending, domain.StatusStarting:
		body = fmt.Sprintf("%s %s %s",
			badge(t.Status), m.spin.View(), styles.SubtitleStyle.Render(title))

	case domain.StatusDownloading:
		stats := progress.Stats(t)
		pct := progress.Percent(t)
		body = fmt.Sprintf("%s %s\n%s %3d%%\n%s",
			badge(t.Status),
			styles.TitleStyle.Render(title),
			m.taskBar.ViewAs(float64(pct)/100),
			pct,
			styles.DimStyle.Render(fmt.Sprintf("%s / %s · %s · ETA %s · %s",
				stats.Downloaded, stats.Total, stats.Speed, stats.ETA, stats.Elapsed)))

	case domain.StatusConverting:
		pct := progress.Percent(t)
		body = fmt.Sprintf("%s %s\n%s %3d%%",
			badge(t.Status),
			styles.TitleStyle.Render(title),
			m.taskBar.ViewAs(float64(pct)/100),
			pct)

	case domain.StatusCompleted:
		card = styles.CardDoneStyle
		body = fmt.Sprintf("%s %s",
			badge(t.Status), styles.SuccessStyle.Render(title))

	case domain.StatusError:
		card = styles.CardErrorStyle
		detail := t.Message
		if detail == "" {
			detail = "conversion failed"
		}
		body = fmt.Sprintf("%s %s\n%s",
			badge(t.Status),
			styles.TitleStyle.Render(title),
			styles.ErrorStyle.Render(styles.Truncate(detail, m.width-10)))

	default:
		body = fmt.Sprintf("%s %s", badge(t.Status), title)
	}

	return card.Width(m.contentWidth()).Render(body)
}

func badge(s domain.TaskStatus) string {
	switch s {
	case domain.StatusPending, domain.StatusStarting:
		return styles.BadgePending.Render(s.String())
	case domain.StatusDownloading, domain.StatusConverting:
		return styles.BadgeActive.Render(s.String())
	case domain.StatusCompleted:
		return styles.BadgeDone.Render(s.String())
	case domain.StatusError:
		return styles.BadgeError.Render(s.String())
	}
	return s.String()
}

// filesView renders the filterable converted-file listing.
func (m Model) filesView() string {
	var b strings.Builder

	label := fmt.Sprintf("Files (%d)", len(m.reconciler.Files()))
	if m.focus == focusFiles {
		label = styles.AccentStyle.Render(label)
	} else {
		label = styles.SubtitleStyle.Render(label)
	}
	b.WriteString(styles.PanelStyle.Render(label))

	if m.filtering {
		b.WriteString("  " + m.filterInput.View())
	} else if m.filterQuery != "" {
		b.WriteString("  " + styles.FilterPromptStyle.Render("/"+m.filterQuery))
	}
	b.WriteString("\n")

	// A failed fetch hides the stale listing behind a neutral placeholder
	// until a later cycle succeeds.
	if m.listingFailed {
		b.WriteString(styles.DimStyle.Render("  file listing unavailable") + "\n")
		return b.String()
	}

	files := m.visibleFiles()
	if len(files) == 0 {
		if m.filterQuery != "" {
			b.WriteString(styles.DimStyle.Render("  no files match") + "\n")
		} else {
			b.WriteString(styles.DimStyle.Render("  no converted files yet") + "\n")
		}
		return b.String()
	}

	nowPlaying, playing := m.controller.NowPlaying()
	start, end := window(m.cursor, len(files), maxVisibleFiles)

	for i := start; i < end; i++ {
		f := files[i]
		indicator := "  "
		if playing && f.Name == nowPlaying {
			if m.controller.ActiveUnpaused() {
				indicator = styles.PlayingChar + " "
			} else {
				indicator = styles.PausedChar + " "
			}
		}

		row := fmt.Sprintf("%s%s  %s  %s",
			indicator,
			styles.Pad(styles.Truncate(f.Name, 48), 48),
			styles.Pad(f.SizeStr, 10),
			f.Modified)

		switch {
		case i == m.cursor && m.focus == focusFiles:
			b.WriteString(styles.SelectedItemStyle.Render(row))
		case playing && f.Name == nowPlaying:
			b.WriteString(styles.NowPlayingStyle.Render(row))
		default:
			b.WriteString(styles.NormalItemStyle.Render(row))
		}
		b.WriteString("\n")
	}

	if len(files) > maxVisibleFiles {
		b.WriteString(styles.DimStyle.Render(
			fmt.Sprintf("  %d-%d of %d", start+1, end, len(files))) + "\n")
	}
	return b.String()
}

// extractView renders the local-extraction pane: the exact upload bar while
// bytes move, then the synthetic processing bar with its estimate.
func (m Model) extractView() string {
	s := m.session
	var body string

	switch s.Phase() {
	case extract.PhaseUploading:
		pct := s.UploadPercent()
		body = fmt.Sprintf("uploading %s\n%s %3d%%",
			styles.TitleStyle.Render(s.FileName()),
			m.extractBar.ViewAs(float64(pct)/100),
			pct)

	case extract.PhaseProcessing:
		val := s.ProcessingValue()
		body = fmt.Sprintf("extracting %s\n%s %3.0f%%  %s",
			styles.TitleStyle.Render(s.FileName()),
			m.extractBar.ViewAs(val/100),
			val,
			styles.DimStyle.Render(s.RemainingEstimate()))

	case extract.PhaseDone:
		body = styles.SuccessStyle.Render("extracted " + s.FileName())

	case extract.PhaseFailed:
		msg := "extraction failed"
		if s.Err() != nil {
			msg = s.Err().Error()
		}
		body = styles.ErrorStyle.Render(styles.Truncate(msg, m.width-10))
	}

	return styles.CardStyle.Width(m.contentWidth()).Render(body) + "\n"
}

func (m Model) footerView() string {
	if m.prompting {
		return styles.PanelStyle.Render(m.uploadPrompt.View())
	}
	if m.statusMsg != "" {
		if m.statusErr {
			return styles.PanelStyle.Render(styles.ErrorStyle.Render(m.statusMsg))
		}
		return styles.PanelStyle.Render(styles.SuccessStyle.Render(m.statusMsg))
	}

	help := []string{
		helpEntry(Keys.Tab), helpEntry(Keys.Enter), helpEntry(Keys.Filter),
		helpEntry(Keys.Stop), helpEntry(Keys.Help), helpEntry(Keys.Quit),
	}
	return styles.PanelStyle.Render(strings.Join(help, "  "))
}

// helpView is the full-screen key reference.
func (m Model) helpView() string {
	rows := [][2]string{
		{"tab", "switch between form and files"},
		{"enter", "submit form / play or pause file"},
		{"j/k, ↑/↓", "move selection"},
		{"/", "filter files (esc clears)"},
		{"s", "stop playback"},
		{"r", "refresh file listing"},
		{"c", "clear finished tasks"},
		{"u", "extract audio from a local file"},
		{"C-n / C-x", "add / remove a form row"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Key bindings") + "\n\n")
	for _, r := range rows {
		b.WriteString("  " + styles.HelpKeyStyle.Render(styles.Pad(r[0], 12)))
		b.WriteString(styles.HelpDescStyle.Render(r[1]) + "\n")
	}
	b.WriteString("\n" + styles.DimStyle.Render("press any key to close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func helpEntry(b key.Binding) string {
	h := b.Help()
	return styles.HelpKeyStyle.Render(h.Key) + " " + styles.HelpDescStyle.Render(h.Desc)
}

func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	return w
}

// window returns the [start, end) slice of a list of n items that keeps
// cursor visible within size rows.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	if start < 0 {
		start = 0
	}
	if start+size > n {
		start = n - size
	}
	return start, start + size
}
