package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/voxtui/vox/internal/domain"
	"github.com/voxtui/vox/internal/tui/styles"
)

const maxFormRows = 5

// formRow is one URL + optional output filename pair.
type formRow struct {
	url  textinput.Model
	name textinput.Model
}

// submitForm is the multi-row download submission form.
type submitForm struct {
	rows    []formRow
	row     int
	col     int // 0 = url, 1 = filename
	focused bool
}

func newFormRow() formRow {
	url := textinput.New()
	url.Placeholder = "video URL"
	url.CharLimit = 512
	url.Width = 48

	name := textinput.New()
	name.Placeholder = "output name (optional)"
	name.CharLimit = 128
	name.Width = 28

	return formRow{url: url, name: name}
}

func newSubmitForm() submitForm {
	return submitForm{rows: []formRow{newFormRow()}}
}

// Focus gives the form keyboard focus on its current field.
func (f *submitForm) Focus() {
	f.focused = true
	f.focusCurrent()
}

// Blur removes keyboard focus from every field.
func (f *submitForm) Blur() {
	f.focused = false
	for i := range f.rows {
		f.rows[i].url.Blur()
		f.rows[i].name.Blur()
	}
}

func (f *submitForm) focusCurrent() {
	for i := range f.rows {
		f.rows[i].url.Blur()
		f.rows[i].name.Blur()
	}
	if f.col == 0 {
		f.rows[f.row].url.Focus()
	} else {
		f.rows[f.row].name.Focus()
	}
}

// AddRow appends an empty row and moves focus to it.
func (f *submitForm) AddRow() {
	if len(f.rows) >= maxFormRows {
		return
	}
	f.rows = append(f.rows, newFormRow())
	f.row = len(f.rows) - 1
	f.col = 0
	f.focusCurrent()
}

// RemoveRow deletes the current row; the last remaining row is cleared
// instead of removed.
func (f *submitForm) RemoveRow() {
	if len(f.rows) == 1 {
		f.rows[0].url.SetValue("")
		f.rows[0].name.SetValue("")
		f.col = 0
		f.focusCurrent()
		return
	}
	f.rows = append(f.rows[:f.row], f.rows[f.row+1:]...)
	if f.row >= len(f.rows) {
		f.row = len(f.rows) - 1
	}
	f.col = 0
	f.focusCurrent()
}

// Next advances focus url -> name -> next row's url, wrapping at the end.
func (f *submitForm) Next() {
	f.col++
	if f.col > 1 {
		f.col = 0
		f.row = (f.row + 1) % len(f.rows)
	}
	f.focusCurrent()
}

// Prev moves focus backwards.
func (f *submitForm) Prev() {
	f.col--
	if f.col < 0 {
		f.col = 1
		f.row--
		if f.row < 0 {
			f.row = len(f.rows) - 1
		}
	}
	f.focusCurrent()
}

// Update routes a message to the focused field.
func (f *submitForm) Update(msg tea.Msg) tea.Cmd {
	if !f.focused {
		return nil
	}
	var cmd tea.Cmd
	if f.col == 0 {
		f.rows[f.row].url, cmd = f.rows[f.row].url.Update(msg)
	} else {
		f.rows[f.row].name, cmd = f.rows[f.row].name.Update(msg)
	}
	return cmd
}

// Submissions collects the rows as submissions, unvalidated.
func (f *submitForm) Submissions() []domain.Submission {
	subs := make([]domain.Submission, len(f.rows))
	for i, r := range f.rows {
		subs[i] = domain.Submission{URL: r.url.Value(), Filename: r.name.Value()}
	}
	return subs
}

// Reset clears the form back to a single empty row.
func (f *submitForm) Reset() {
	f.rows = []formRow{newFormRow()}
	f.row = 0
	f.col = 0
	if f.focused {
		f.focusCurrent()
	}
}

// View renders the form rows.
func (f *submitForm) View() string {
	out := ""
	for i, r := range f.rows {
		marker := "  "
		if f.focused && i == f.row {
			marker = styles.AccentStyle.Render("> ")
		}
		out += marker + r.url.View() + "  " + r.name.View() + "\n"
	}
	return out
}
