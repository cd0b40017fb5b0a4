package export

import (
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ICSExporter renders agendas as an iCalendar feed, one VEVENT per occurrence.
type ICSExporter struct {
	productID string
	domain    string
	now       func() time.Time
}

// NewICSExporter constructs an iCalendar exporter. domain qualifies UIDs.
func NewICSExporter(productID, domain string) *ICSExporter {
	if productID == "" {
		productID = "-//petcal//calendar//EN"
	}
	if domain == "" {
		domain = "petcal.local"
	}
	return &ICSExporter{productID: productID, domain: domain, now: time.Now}
}

// ContentType is the MIME type of the rendered output.
func (e *ICSExporter) ContentType() string {
	return "text/calendar; charset=utf-8"
}

// Extension is the file suffix of the rendered output.
func (e *ICSExporter) Extension() string {
	return "ics"
}

// Render serializes the agenda. Times are written in UTC.
func (e *ICSExporter) Render(agenda Agenda) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(e.productID)
	if agenda.Title != "" {
		cal.SetName(agenda.Title)
	}

	stamp := e.now().UTC()
	for _, entry := range agenda.Entries {
		ev := cal.AddEvent(entry.ID + "@" + e.domain)
		ev.SetDtStampTime(stamp)
		ev.SetStartAt(entry.Start.UTC())
		ev.SetEndAt(entry.End.UTC())
		ev.SetSummary(entry.Title)
		if entry.Notes != "" {
			ev.SetDescription(entry.Notes)
		}
		ev.AddProperty(ics.ComponentPropertyCategories, strings.ToUpper(entry.Type))
		if entry.Done {
			ev.SetProperty(ics.ComponentPropertyStatus, "COMPLETED")
		} else {
			ev.SetProperty(ics.ComponentPropertyStatus, "CONFIRMED")
		}
		if len(entry.Pets) > 0 {
			ev.AddProperty(ics.ComponentProperty("X-PETCAL-PETS"), strings.Join(entry.Pets, ","))
		}
	}
	return []byte(cal.Serialize()), nil
}
