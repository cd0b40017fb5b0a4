package models

import (
	"strings"
	"time"
)

// EventType is the closed set of pet event categories.
type EventType string

const (
	EventTypeMedical     EventType = "medical"
	EventTypeFeeding     EventType = "feeding"
	EventTypeAppointment EventType = "appointment"
	EventTypeTraining    EventType = "training"
	EventTypeSocial      EventType = "social"
	EventTypeOther       EventType = "other"
)

// EventTypes lists every EventType in display order.
var EventTypes = []EventType{
	EventTypeMedical,
	EventTypeFeeding,
	EventTypeAppointment,
	EventTypeTraining,
	EventTypeSocial,
	EventTypeOther,
}

// Valid reports whether t belongs to the enumeration.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Frequency is the recurrence unit of a series.
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// Valid reports whether f is a supported frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	default:
		return false
	}
}

// Recurrence describes how a series repeats. EndDate and Occurrences are both
// optional; when both are set the series stops at whichever comes first.
type Recurrence struct {
	FrequencyType Frequency  `json:"frequency_type"`
	Frequency     int        `json:"frequency"`
	Days          []string   `json:"days,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Occurrences   *int       `json:"occurrences,omitempty"`
}

// Interval returns the repeat interval, treating non-positive values as 1.
func (r Recurrence) Interval() int {
	if r.Frequency < 1 {
		return 1
	}
	return r.Frequency
}

// Event is one occurrence as seen by calendar clients. Stored rows are either
// standalone events, series masters, or overrides that detach one occurrence
// of a series (OriginalStart set).
type Event struct {
	ID            string      `db:"id" json:"id"`
	MasterID      *string     `db:"master_id" json:"master_id"`
	Type          EventType   `db:"type" json:"type"`
	Title         string      `db:"title" json:"title"`
	StartDate     time.Time   `db:"start_date" json:"start_date"`
	EndDate       *time.Time  `db:"end_date" json:"end_date,omitempty"`
	IsRecurring   bool        `db:"is_recurring" json:"is_recurring"`
	Recurrence    *Recurrence `db:"-" json:"recurrence,omitempty"`
	IsDone        bool        `db:"is_done" json:"is_done"`
	Pets          []Pet       `db:"-" json:"pets"`
	Notes         string      `db:"notes" json:"notes"`
	OriginalStart *time.Time  `db:"original_start" json:"original_start,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// DefaultDuration applies to events without an end date.
const DefaultDuration = time.Hour

// EffectiveEnd returns EndDate or StartDate plus DefaultDuration.
func (e Event) EffectiveEnd() time.Time {
	if e.EndDate != nil {
		return *e.EndDate
	}
	return e.StartDate.Add(DefaultDuration)
}

// Duration returns the span used for duration math.
func (e Event) Duration() time.Duration {
	return e.EffectiveEnd().Sub(e.StartDate)
}

// SeriesID returns the master id for recurring events and "" otherwise.
func (e Event) SeriesID() string {
	if e.MasterID == nil {
		return ""
	}
	return *e.MasterID
}

// IsOverride reports whether the row detaches a single occurrence of a series.
func (e Event) IsOverride() bool {
	return e.OriginalStart != nil
}

// PetIDs returns the ids of the associated pets in order.
func (e Event) PetIDs() []string {
	ids := make([]string, 0, len(e.Pets))
	for _, p := range e.Pets {
		ids = append(ids, p.ID)
	}
	return ids
}

// Scope is the breadth of a mutation on a recurring event.
type Scope string

const (
	ScopeSingle Scope = "single"
	ScopeSeries Scope = "series"
)

// ParseScope accepts the API tokens plus the "this"/"all" wording used by
// calendar dialogs. Empty input defaults to a single-occurrence scope.
func ParseScope(raw string) (Scope, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "single", "this":
		return ScopeSingle, true
	case "series", "all":
		return ScopeSeries, true
	default:
		return "", false
	}
}

// DeleteOptions carries the scope of a delete and, for single occurrences of a
// series, the occurrence date that becomes an exception.
type DeleteOptions struct {
	Scope Scope
	Date  *time.Time
}

// EventException marks a removed occurrence of a series.
type EventException struct {
	MasterID       string    `db:"master_id" json:"master_id"`
	OccurrenceDate time.Time `db:"occurrence_date" json:"occurrence_date"`
}

// EventWindow is an inclusive time range used to query occurrences.
type EventWindow struct {
	Start time.Time
	End   time.Time
}
