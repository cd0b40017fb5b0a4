package calendar

import (
	"time"

	"github.com/noah-isme/petcal-api/internal/models"
)

const (
	// MaxVisiblePerCell caps the events listed in a month cell.
	MaxVisiblePerCell = 3
	// HoursPerDay is the number of hour slots in day and week views.
	HoursPerDay = 24
)

// Cell is one square of the month grid. Padding cells have a zero Date.
type Cell struct {
	Date    time.Time      `json:"date,omitempty"`
	Padding bool           `json:"padding"`
	Today   bool           `json:"today"`
	Events  []models.Event `json:"events"`
	More    int            `json:"more"`
}

// Visible returns the events shown in the cell before the "+N more" summary.
func (c Cell) Visible() []models.Event {
	if len(c.Events) <= MaxVisiblePerCell {
		return c.Events
	}
	return c.Events[:MaxVisiblePerCell]
}

// Slot is one (date, hour) bucket in day and week views.
type Slot struct {
	Hour   int            `json:"hour"`
	Events []models.Event `json:"events"`
}

// Day is one column of a day or week view.
type Day struct {
	Date  time.Time             `json:"date"`
	Today bool                  `json:"today"`
	Slots [HoursPerDay]Slot     `json:"slots"`
	Now   *CurrentTimeIndicator `json:"now,omitempty"`
}

// CurrentTimeIndicator positions the "now" line inside an hour slot.
type CurrentTimeIndicator struct {
	Hour          int     `json:"hour"`
	OffsetPercent float64 `json:"offset_percent"`
}

// Grid is the materialized calendar for one window. Month views fill Cells
// (padded to whole weeks); day and week views fill Days.
type Grid struct {
	Granularity Granularity `json:"granularity"`
	Range       Range       `json:"range"`
	Leading     int         `json:"leading,omitempty"`
	Trailing    int         `json:"trailing,omitempty"`
	Cells       []Cell      `json:"cells,omitempty"`
	Days        []Day       `json:"days,omitempty"`
}

// Slot returns the bucket for (date, hour) in a day or week grid.
func (g Grid) Slot(date time.Time, hour int) (Slot, bool) {
	if hour < 0 || hour >= HoursPerDay {
		return Slot{}, false
	}
	for _, d := range g.Days {
		if sameDate(d.Date, date) {
			return d.Slots[hour], true
		}
	}
	return Slot{}, false
}

// Cell returns the month cell for date.
func (g Grid) Cell(date time.Time) (Cell, bool) {
	for _, c := range g.Cells {
		if !c.Padding && sameDate(c.Date, date) {
			return c, true
		}
	}
	return Cell{}, false
}

// CurrentTimeOffset is the distance of now from the top of its hour slot, in percent.
func CurrentTimeOffset(now time.Time) float64 {
	return float64(now.Minute()) / 60 * 100
}

// MonthPadding returns the leading and trailing empty cells for a month grid
// whose first day falls on first and which has days days.
func MonthPadding(first time.Time, days int) (leading, trailing int) {
	leading = MondayOffset(first)
	if rem := (leading + days) % 7; rem != 0 {
		trailing = 7 - rem
	}
	return leading, trailing
}

// Materialize buckets events into the cells of window. Events are placed by
// their start instant converted to the window's location; events starting
// outside the window are skipped. Input order is preserved inside a bucket.
func Materialize(events []models.Event, window Range, g Granularity, clock Clock) Grid {
	if clock == nil {
		clock = SystemClock
	}
	loc := window.Start.Location()
	now := clock.Now().In(loc)

	switch g {
	case GranularityMonth:
		return materializeMonth(events, window, now)
	case GranularityDay, GranularityWeek:
		return materializeHours(events, window, g, now)
	default:
		panic("calendar: invalid granularity " + string(g))
	}
}

func materializeMonth(events []models.Event, window Range, now time.Time) Grid {
	days := window.Days()
	grid := Grid{Granularity: GranularityMonth, Range: window}
	if len(days) == 0 {
		return grid
	}
	grid.Leading, grid.Trailing = MonthPadding(days[0], len(days))

	grid.Cells = make([]Cell, 0, grid.Leading+len(days)+grid.Trailing)
	for i := 0; i < grid.Leading; i++ {
		grid.Cells = append(grid.Cells, Cell{Padding: true})
	}
	index := make(map[string]int, len(days))
	for _, d := range days {
		index[dateKey(d)] = len(grid.Cells)
		grid.Cells = append(grid.Cells, Cell{Date: d, Today: sameDate(d, now), Events: []models.Event{}})
	}
	for i := 0; i < grid.Trailing; i++ {
		grid.Cells = append(grid.Cells, Cell{Padding: true})
	}

	loc := window.Start.Location()
	for _, ev := range events {
		start := ev.StartDate.In(loc)
		if !window.Contains(start) {
			continue
		}
		i, ok := index[dateKey(start)]
		if !ok {
			continue
		}
		grid.Cells[i].Events = append(grid.Cells[i].Events, ev)
	}
	for i := range grid.Cells {
		if n := len(grid.Cells[i].Events); n > MaxVisiblePerCell {
			grid.Cells[i].More = n - MaxVisiblePerCell
		}
	}
	return grid
}

func materializeHours(events []models.Event, window Range, g Granularity, now time.Time) Grid {
	days := window.Days()
	grid := Grid{Granularity: g, Range: window, Days: make([]Day, len(days))}
	index := make(map[string]int, len(days))
	for i, d := range days {
		day := Day{Date: d, Today: sameDate(d, now)}
		for h := 0; h < HoursPerDay; h++ {
			day.Slots[h] = Slot{Hour: h, Events: []models.Event{}}
		}
		if day.Today {
			day.Now = &CurrentTimeIndicator{Hour: now.Hour(), OffsetPercent: CurrentTimeOffset(now)}
		}
		grid.Days[i] = day
		index[dateKey(d)] = i
	}

	loc := window.Start.Location()
	for _, ev := range events {
		start := ev.StartDate.In(loc)
		if !window.Contains(start) {
			continue
		}
		i, ok := index[dateKey(start)]
		if !ok {
			continue
		}
		slot := &grid.Days[i].Slots[start.Hour()]
		slot.Events = append(slot.Events, ev)
	}
	return grid
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
