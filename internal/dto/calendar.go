package dto

import (
	"time"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/models"
)

// CalendarViewQuery selects the window of GET /calendar/view.
type CalendarViewQuery struct {
	Date        string `form:"date"`
	Granularity string `form:"granularity"`
}

// CalendarExportQuery selects the window and format of GET /calendar/export.
type CalendarExportQuery struct {
	Date        string `form:"date"`
	Granularity string `form:"granularity"`
	Format      string `form:"format"`
}

// SharedExport describes a stored export reachable through a signed link.
type SharedExport struct {
	Token     string    `json:"token"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	Format    string    `json:"format"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CalendarView is the materialized grid plus the type palette.
type CalendarView struct {
	Granularity calendar.Granularity                `json:"granularity"`
	Range       calendar.Range                      `json:"range"`
	Previous    string                              `json:"previous"`
	Next        string                              `json:"next"`
	Grid        calendar.Grid                       `json:"grid"`
	Styles      map[models.EventType]calendar.Style `json:"styles"`
}

// CreatePetRequest is the body of POST /pets.
type CreatePetRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Species string `json:"species" validate:"max=50"`
}
