package dto

import (
	"time"

	"github.com/noah-isme/petcal-api/internal/models"
)

// RecurrenceRequest describes how a new or edited series repeats.
type RecurrenceRequest struct {
	FrequencyType string     `json:"frequency_type" validate:"required,frequency_type"`
	Frequency     int        `json:"frequency" validate:"omitempty,min=1"`
	Days          []string   `json:"days" validate:"omitempty,dive,weekday"`
	EndDate       *time.Time `json:"end_date"`
	Occurrences   *int       `json:"occurrences" validate:"omitempty,min=1"`
}

// EventRequest is the body of POST /events and PUT /events/:id.
type EventRequest struct {
	Type        string             `json:"type" validate:"required,event_type"`
	Title       string             `json:"title" validate:"required,max=200"`
	StartDate   time.Time          `json:"start_date" validate:"required"`
	EndDate     *time.Time         `json:"end_date"`
	IsRecurring bool               `json:"is_recurring"`
	Recurrence  *RecurrenceRequest `json:"recurrence"`
	PetIDs      []string           `json:"pet_ids" validate:"omitempty,dive,required"`
	Notes       string             `json:"notes" validate:"max=2000"`
	IsDone      bool               `json:"is_done"`
}

// EventRequestFromModel builds the wire payload for ev.
func EventRequestFromModel(ev models.Event) EventRequest {
	req := EventRequest{
		Type:        string(ev.Type),
		Title:       ev.Title,
		StartDate:   ev.StartDate,
		EndDate:     ev.EndDate,
		IsRecurring: ev.IsRecurring,
		PetIDs:      ev.PetIDs(),
		Notes:       ev.Notes,
		IsDone:      ev.IsDone,
	}
	if rec := ev.Recurrence; rec != nil {
		req.Recurrence = &RecurrenceRequest{
			FrequencyType: string(rec.FrequencyType),
			Frequency:     rec.Frequency,
			Days:          rec.Days,
			EndDate:       rec.EndDate,
			Occurrences:   rec.Occurrences,
		}
	}
	return req
}

// DoneRequest is the body of PATCH /events/:id/done.
type DoneRequest struct {
	IsDone bool `json:"is_done"`
}

// EventListQuery bounds GET /events. Both bounds are required.
type EventListQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// MutationQuery carries the scope of PUT and DELETE on /events/:id.
type MutationQuery struct {
	Scope string `form:"scope"`
	Date  string `form:"date"`
}

// EventList is the payload of GET /events.
type EventList struct {
	Start     time.Time      `json:"start"`
	End       time.Time      `json:"end"`
	Events    []models.Event `json:"events"`
	Truncated []string       `json:"truncated,omitempty"`
}
