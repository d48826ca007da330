// client/domain/note.go
package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrIncomplete is returned when a required note field is blank.
var ErrIncomplete = errors.New("please fill in all fields")

type Note struct {
	ID        NoteID    `json:"id"`
	Title     string    `json:"title"`
	Desc      string    `json:"desc"`
	Note      string    `json:"note"`
	Important bool      `json:"important"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// Edited reports whether the note was changed after it was created.
func (n Note) Edited() bool {
	return !n.UpdatedAt.IsZero() && !n.UpdatedAt.Equal(n.CreatedAt.Time)
}

// NoteData is the editable part of a note, sent on create and update.
type NoteData struct {
	Title     string `json:"title"`
	Desc      string `json:"desc"`
	Note      string `json:"note"`
	Important bool   `json:"important"`
}

func (d NoteData) Validate() error {
	if strings.TrimSpace(d.Title) == "" ||
		strings.TrimSpace(d.Desc) == "" ||
		strings.TrimSpace(d.Note) == "" {
		return ErrIncomplete
	}
	return nil
}

// Data returns the editable fields of n, used to prefill an edit form.
func (n Note) Data() NoteData {
	return NoteData{Title: n.Title, Desc: n.Desc, Note: n.Note, Important: n.Important}
}

// NoteID is an opaque backend identifier. Backends emit it either as a
// string or as a bare number; both decode to the same textual form.
type NoteID string

func (id *NoteID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NoteID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("note id: %w", err)
	}
	*id = NoteID(n.String())
	return nil
}

func (id NoteID) String() string { return string(id) }

// Timestamp accepts RFC 3339 as well as Python's str(datetime) layout.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// Display formats the timestamp the way the note list shows it.
func (t Timestamp) Display() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 2, 2006, 03:04 PM")
}
