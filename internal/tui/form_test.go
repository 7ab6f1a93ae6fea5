package tui

import (
	"testing"
)

func TestFormAddAndRemoveRows(t *testing.T) {
	f := newSubmitForm()
	f.Focus()

	if len(f.rows) != 1 {
		t.Fatalf("new form has %d rows, want 1", len(f.rows))
	}

	f.AddRow()
	f.AddRow()
	if len(f.rows) != 3 {
		t.Fatalf("got %d rows after two adds, want 3", len(f.rows))
	}
	if f.row != 2 || f.col != 0 {
		t.Errorf("focus at (%d,%d) after add, want (2,0)", f.row, f.col)
	}

	f.RemoveRow()
	if len(f.rows) != 2 {
		t.Fatalf("got %d rows after remove, want 2", len(f.rows))
	}
}

func TestFormRemoveLastRowClearsInstead(t *testing.T) {
	f := newSubmitForm()
	f.rows[0].url.SetValue("https://youtu.be/abc123")

	f.RemoveRow()
	if len(f.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(f.rows))
	}
	if f.rows[0].url.Value() != "" {
		t.Errorf("url not cleared: %q", f.rows[0].url.Value())
	}
}

func TestFormRowCap(t *testing.T) {
	f := newSubmitForm()
	for i := 0; i < 10; i++ {
		f.AddRow()
	}
	if len(f.rows) != maxFormRows {
		t.Errorf("got %d rows, want cap of %d", len(f.rows), maxFormRows)
	}
}

func TestFormSubmissionsCollectsAllRows(t *testing.T) {
	f := newSubmitForm()
	f.rows[0].url.SetValue("https://youtu.be/one")
	f.AddRow()
	f.rows[1].url.SetValue("https://youtu.be/two")
	f.rows[1].name.SetValue("second")

	subs := f.Submissions()
	if len(subs) != 2 {
		t.Fatalf("got %d submissions, want 2", len(subs))
	}
	if subs[1].Filename != "second" {
		t.Errorf("filename = %q, want %q", subs[1].Filename, "second")
	}
}

func TestFormFocusWraps(t *testing.T) {
	f := newSubmitForm()
	f.Focus()
	f.AddRow()

	// url -> name -> next row url ... and wrap back to the start.
	f.row, f.col = 0, 0
	f.focusCurrent()
	f.Next() // (0,1)
	f.Next() // (1,0)
	f.Next() // (1,1)
	f.Next() // wraps to (0,0)
	if f.row != 0 || f.col != 0 {
		t.Errorf("focus at (%d,%d) after wrap, want (0,0)", f.row, f.col)
	}

	f.Prev() // back to (1,1)
	if f.row != 1 || f.col != 1 {
		t.Errorf("focus at (%d,%d) after prev, want (1,1)", f.row, f.col)
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	tests := []struct {
		name               string
		cursor, n, size    int
		wantStart, wantEnd int
	}{
		{"fits entirely", 3, 5, 10, 0, 5},
		{"cursor at top", 0, 100, 10, 0, 10},
		{"cursor centered", 50, 100, 10, 45, 55},
		{"cursor at bottom", 99, 100, 10, 90, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := window(tt.cursor, tt.n, tt.size)
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("window(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.cursor, tt.n, tt.size, start, end, tt.wantStart, tt.wantEnd)
			}
			if tt.cursor < start || tt.cursor >= end {
				t.Errorf("cursor %d outside window [%d, %d)", tt.cursor, start, end)
			}
		})
	}
}
