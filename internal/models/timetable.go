package models

import "time"

// TimetableDocument is the versioned on-disk shape of a weekly timetable.
// The official document carries version+sessions only; the draft additionally
// tracks the week it targets and how many publish cycles produced it.
type TimetableDocument struct {
	Version   int       `json:"version"`
	WeekStart string    `json:"week_start,omitempty"`
	Revision  int       `json:"revision,omitempty"`
	Sessions  []Session `json:"sessions"`
}

// Clone returns a deep copy safe to mutate.
func (d *TimetableDocument) Clone() *TimetableDocument {
	if d == nil {
		return nil
	}
	clone := *d
	clone.Sessions = CloneSessions(d.Sessions)
	return &clone
}

// DateLayout is the wire format of week_start values.
const DateLayout = "2006-01-02"

// MondayOf snaps a date to the Monday of its ISO week.
func MondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
