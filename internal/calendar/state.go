package calendar

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/models"
)

// State is the client-side calendar cache: the visible window and the
// occurrences last fetched for it. Only the completion of the most recently
// issued fetch may replace the cached events.
type State struct {
	api      EventAPI
	clock    Clock
	notifier Notifier
	logger   *zap.Logger

	mu          sync.Mutex
	reference   time.Time
	granularity Granularity
	events      []models.Event
	latest      uint64
	loading     bool
}

// NewState creates a state positioned on today in loc.
func NewState(api EventAPI, clock Clock, loc *time.Location, g Granularity, notifier Notifier, logger *zap.Logger) *State {
	if clock == nil {
		clock = SystemClock
	}
	if loc == nil {
		loc = time.Local
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if !g.Valid() {
		g = GranularityWeek
	}
	return &State{
		api:         api,
		clock:       ZonedClock(clock, loc),
		notifier:    notifier,
		logger:      logger,
		reference:   clock.Now().In(loc),
		granularity: g,
	}
}

// Clock returns the zoned clock used for "today" checks.
func (s *State) Clock() Clock {
	return s.clock
}

// Reference returns the current reference date.
func (s *State) Reference() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference
}

// Granularity returns the current zoom level.
func (s *State) Granularity() Granularity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.granularity
}

// Window returns the range currently displayed.
func (s *State) Window() Range {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ResolveRange(s.reference, s.granularity)
}

// Loading reports whether a fetch is outstanding.
func (s *State) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Events returns a copy of the cached occurrences.
func (s *State) Events() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Event, len(s.events))
	copy(out, s.events)
	return out
}

// Grid materializes the cached occurrences for the current window.
func (s *State) Grid() Grid {
	s.mu.Lock()
	events := s.events
	g := s.granularity
	window := ResolveRange(s.reference, g)
	s.mu.Unlock()
	return Materialize(events, window, g, s.clock)
}

// Refresh refetches the current window. A response that arrives after a newer
// fetch was issued is discarded.
func (s *State) Refresh(ctx context.Context) error {
	s.mu.Lock()
	s.latest++
	token := s.latest
	window := ResolveRange(s.reference, s.granularity)
	s.loading = true
	s.mu.Unlock()

	events, err := s.api.FetchEventsForPeriod(ctx, window.Start, window.End)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.latest {
		s.logger.Debug("discarding stale calendar response", zap.Uint64("token", token), zap.Uint64("latest", s.latest))
		return nil
	}
	s.loading = false
	if err != nil {
		s.logger.Error("fetch events failed",
			zap.String("start", FormatBoundary(window.Start)),
			zap.String("end", FormatBoundary(window.End)),
			zap.Error(err))
		s.notifier.Notify(LevelError, "Could not load events.")
		return err
	}
	s.events = events
	return nil
}

// Next moves one unit forward and refetches.
func (s *State) Next(ctx context.Context) error {
	return s.move(ctx, 1)
}

// Prev moves one unit back and refetches.
func (s *State) Prev(ctx context.Context) error {
	return s.move(ctx, -1)
}

// Today jumps to the current date and refetches.
func (s *State) Today(ctx context.Context) error {
	return s.GoTo(ctx, s.clock.Now())
}

// Position moves the reference date without fetching.
func (s *State) Position(date time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = date.In(s.clock.Now().Location())
}

// GoTo jumps to date and refetches.
func (s *State) GoTo(ctx context.Context, date time.Time) error {
	s.Position(date)
	return s.Refresh(ctx)
}

// SetGranularity switches the zoom level and refetches.
func (s *State) SetGranularity(ctx context.Context, g Granularity) error {
	if !g.Valid() {
		panic("calendar: invalid granularity " + string(g))
	}
	s.mu.Lock()
	s.granularity = g
	s.mu.Unlock()
	return s.Refresh(ctx)
}

// ToggleDone flips the completion flag of one occurrence. The change never
// cascades to the series.
func (s *State) ToggleDone(ctx context.Context, ev models.Event) error {
	toggled := ev
	toggled.IsDone = !ev.IsDone
	if err := s.api.ChangeDoneStatus(ctx, toggled); err != nil {
		s.logger.Error("change done status failed", zap.String("event_id", ev.ID), zap.Error(err))
		s.notifier.Notify(LevelError, "Could not update the event status.")
		return err
	}
	return s.Refresh(ctx)
}

func (s *State) move(ctx context.Context, n int) error {
	s.mu.Lock()
	s.reference = Step(s.reference, s.granularity, n)
	s.mu.Unlock()
	return s.Refresh(ctx)
}
