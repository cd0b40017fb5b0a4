package recurrence

import (
	"errors"
	"sort"
	"time"

	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/models"
)

// DefaultMaxOccurrences caps the slots generated per series and window.
const DefaultMaxOccurrences = 1000

// Config controls one expansion.
type Config struct {
	// Location is where wall-clock recurrence is evaluated and results are
	// rendered. Nil means time.Local.
	Location *time.Location
	// Start and End bound the window, both inclusive.
	Start time.Time
	End   time.Time
	// MaxOccurrences is the per-series cap. Zero means DefaultMaxOccurrences.
	MaxOccurrences int
}

// Input groups the stored rows touching a window.
type Input struct {
	Standalone []models.Event
	Masters    []models.Event
	Overrides  []models.Event
	Exceptions []models.EventException
}

// Result is the expanded, start-ordered occurrence list.
type Result struct {
	Occurrences []models.Event
	// Truncated lists series ids that hit the cap.
	Truncated []string
}

// Expander turns stored series into occurrences.
type Expander struct {
	logger *zap.Logger
}

// NewExpander builds an expander.
func NewExpander(logger *zap.Logger) *Expander {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expander{logger: logger}
}

// Expand materializes every occurrence starting inside the window. Generated
// slots that were deleted (exceptions) or detached (overrides) are skipped;
// overrides are emitted as stored, wherever they were moved to.
func (e *Expander) Expand(in Input, cfg Config) (Result, error) {
	var result Result
	if cfg.End.Before(cfg.Start) {
		return result, errors.New("expand: window end is before start")
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = DefaultMaxOccurrences
	}
	window := models.EventWindow{Start: cfg.Start, End: cfg.End}

	skipped := make(map[string]map[int64]bool)
	mark := func(masterID string, at time.Time) {
		if skipped[masterID] == nil {
			skipped[masterID] = make(map[int64]bool)
		}
		skipped[masterID][at.UnixMilli()] = true
	}
	for _, ex := range in.Exceptions {
		mark(ex.MasterID, ex.OccurrenceDate)
	}
	for _, ov := range in.Overrides {
		if ov.MasterID != nil && ov.OriginalStart != nil {
			mark(*ov.MasterID, *ov.OriginalStart)
		}
	}

	out := make([]models.Event, 0, len(in.Standalone)+len(in.Overrides))
	for _, ev := range in.Standalone {
		if inWindow(ev.StartDate, window) {
			out = append(out, localize(ev, cfg.Location))
		}
	}
	rules := make(map[string]*models.Recurrence, len(in.Masters))
	for _, master := range in.Masters {
		rules[master.ID] = master.Recurrence
	}
	for _, ov := range in.Overrides {
		if inWindow(ov.StartDate, window) {
			ov.IsRecurring = true
			if ov.Recurrence == nil && ov.MasterID != nil {
				ov.Recurrence = rules[*ov.MasterID]
			}
			out = append(out, localize(ov, cfg.Location))
		}
	}

	for _, master := range in.Masters {
		occ, hitCap, err := e.expandSeries(master, skipped[master.ID], cfg)
		if err != nil {
			e.logger.Error("expand series failed", zap.String("master_id", master.ID), zap.Error(err))
			continue
		}
		if hitCap {
			result.Truncated = append(result.Truncated, master.ID)
			e.logger.Warn("series expansion truncated",
				zap.String("master_id", master.ID),
				zap.Int("cap", cfg.MaxOccurrences))
		}
		out = append(out, occ...)
	}

	SortOccurrences(out)
	result.Occurrences = out
	return result, nil
}

func (e *Expander) expandSeries(master models.Event, skip map[int64]bool, cfg Config) ([]models.Event, bool, error) {
	if master.Recurrence == nil {
		return nil, false, errors.New("series has no recurrence")
	}
	dtstart := master.StartDate.In(cfg.Location)
	r, err := Rule(*master.Recurrence, dtstart)
	if err != nil {
		return nil, false, err
	}
	var set rrule.Set
	set.RRule(r)

	slots := set.Between(cfg.Start.In(cfg.Location), cfg.End.In(cfg.Location), true)
	hitCap := false
	if len(slots) > cfg.MaxOccurrences {
		slots = slots[:cfg.MaxOccurrences]
		hitCap = true
	}

	out := make([]models.Event, 0, len(slots))
	for _, slot := range slots {
		if skip[slot.UnixMilli()] {
			continue
		}
		out = append(out, Occurrence(master, slot))
	}
	return out, hitCap, nil
}

// Occurrence renders the generated occurrence of master starting at slot,
// keeping the master's duration.
func Occurrence(master models.Event, slot time.Time) models.Event {
	occ := master
	occ.ID = OccurrenceID(master.ID, master.StartDate, slot)
	masterID := master.ID
	occ.MasterID = &masterID
	occ.IsRecurring = true
	occ.StartDate = slot
	occ.OriginalStart = nil
	if master.EndDate != nil {
		end := slot.Add(master.Duration())
		occ.EndDate = &end
	}
	return occ
}

// IsSlot reports whether at is a generated start of master.
func IsSlot(master models.Event, at time.Time, loc *time.Location) bool {
	slots, err := Slots(master, at, at, loc)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if s.Equal(at) {
			return true
		}
	}
	return false
}

// Slots lists the generated slot starts of master inside [start, end],
// ignoring exceptions and overrides.
func Slots(master models.Event, start, end time.Time, loc *time.Location) ([]time.Time, error) {
	if master.Recurrence == nil {
		return nil, errors.New("series has no recurrence")
	}
	if loc == nil {
		loc = time.Local
	}
	r, err := Rule(*master.Recurrence, master.StartDate.In(loc))
	if err != nil {
		return nil, err
	}
	return r.Between(start.In(loc), end.In(loc), true), nil
}

// SortOccurrences orders by start, then id.
func SortOccurrences(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].StartDate.Equal(events[j].StartDate) {
			return events[i].StartDate.Before(events[j].StartDate)
		}
		return events[i].ID < events[j].ID
	})
}

func inWindow(t time.Time, w models.EventWindow) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func localize(ev models.Event, loc *time.Location) models.Event {
	ev.StartDate = ev.StartDate.In(loc)
	if ev.EndDate != nil {
		end := ev.EndDate.In(loc)
		ev.EndDate = &end
	}
	return ev
}
