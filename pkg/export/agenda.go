package export

import (
	"strings"
	"time"
)

// Entry is one occurrence line of an agenda.
type Entry struct {
	ID         string
	Title      string
	Type       string
	Color      string
	Start      time.Time
	End        time.Time
	Pets       []string
	Done       bool
	Notes      string
	Recurrence string
}

// Agenda is an ordered list of occurrences for one window.
type Agenda struct {
	Title string
	Start time.Time
	End   time.Time
	// Location renders times; nil keeps each entry's own location.
	Location *time.Location
	Entries  []Entry
}

// Agenda columns, in export order.
const (
	ColumnDate       = "date"
	ColumnStart      = "start"
	ColumnEnd        = "end"
	ColumnType       = "type"
	ColumnTitle      = "title"
	ColumnPets       = "pets"
	ColumnDone       = "done"
	ColumnRecurrence = "recurrence"
	ColumnNotes      = "notes"
)

var agendaHeaders = []string{ColumnDate, ColumnStart, ColumnEnd, ColumnType, ColumnTitle, ColumnPets, ColumnDone, ColumnRecurrence, ColumnNotes}

// Dataset flattens the agenda into tabular rows.
func (a Agenda) Dataset() Dataset {
	rows := make([]map[string]string, 0, len(a.Entries))
	for _, e := range a.Entries {
		start, end := a.local(e.Start), a.local(e.End)
		done := "no"
		if e.Done {
			done = "yes"
		}
		rows = append(rows, map[string]string{
			ColumnDate:       start.Format("2006-01-02"),
			ColumnStart:      start.Format("15:04"),
			ColumnEnd:        end.Format("15:04"),
			ColumnType:       e.Type,
			ColumnTitle:      e.Title,
			ColumnPets:       strings.Join(e.Pets, ", "),
			ColumnDone:       done,
			ColumnRecurrence: e.Recurrence,
			ColumnNotes:      e.Notes,
		})
	}
	return Dataset{Headers: agendaHeaders, Rows: rows}
}

func (a Agenda) local(t time.Time) time.Time {
	if a.Location == nil {
		return t
	}
	return t.In(a.Location)
}
