package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAgenda() Agenda {
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	return Agenda{
		Title:    "Week 11",
		Start:    time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC),
		Location: time.UTC,
		Entries: []Entry{
			{ID: "e1", Title: "Vet check", Type: "medical", Color: "#dc2626", Start: start, End: start.Add(time.Hour), Pets: []string{"Rex"}, Notes: "bring card"},
			{ID: "m1_20240315T080000Z", Title: "Breakfast", Type: "feeding", Color: "#16a34a", Start: start.Add(23 * time.Hour), End: start.Add(23*time.Hour + 30*time.Minute), Done: true, Recurrence: "FREQ=DAILY"},
		},
	}
}

func TestCSVExporterRendersAgenda(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleAgenda())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, agendaHeaders, records[0])
	assert.Equal(t, []string{"2024-03-14", "09:00", "10:00", "medical", "Vet check", "Rex", "no", "", "bring card"}, records[1])
	assert.Equal(t, "yes", records[2][6])
	assert.Equal(t, "FREQ=DAILY", records[2][7])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().RenderDataset(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleAgenda())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	empty := sampleAgenda()
	empty.Entries = nil
	out, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestICSExporterRoundTrips(t *testing.T) {
	exp := NewICSExporter("", "example.test")
	exp.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	out, err := exp.Render(sampleAgenda())
	require.NoError(t, err)

	cal, err := ics.ParseCalendar(strings.NewReader(string(out)))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "e1@example.test", events[0].Id())
	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	assert.True(t, start.Equal(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)))
	assert.Equal(t, "COMPLETED", events[1].GetProperty(ics.ComponentPropertyStatus).Value)
}

func TestHexColor(t *testing.T) {
	r, g, b := hexColor("#16a34a")
	assert.Equal(t, []int{0x16, 0xa3, 0x4a}, []int{r, g, b})
	r, _, _ = hexColor("nope")
	assert.Equal(t, 160, r)
}
