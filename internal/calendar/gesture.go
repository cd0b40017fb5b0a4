package calendar

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

// DefaultHourRowHeight is the pixel height of one hour row in day and week views.
const DefaultHourRowHeight = 60.0

// MinResizeHours is the shortest duration a resize can produce.
const MinResizeHours = 1.0

// Bucket is a drop target in day and week views.
type Bucket struct {
	Date time.Time
	Hour int
}

// Valid reports whether the bucket addresses a real hour slot.
func (b Bucket) Valid() bool {
	return !b.Date.IsZero() && b.Hour >= 0 && b.Hour < HoursPerDay
}

// Start returns date at hour:00:00.000 in the bucket date's location.
func (b Bucket) Start() time.Time {
	y, m, d := b.Date.Date()
	return time.Date(y, m, d, b.Hour, 0, 0, 0, b.Date.Location())
}

type resizeState struct {
	event models.Event
	refY  float64
	hours float64
}

// GestureController turns drag and resize gestures into update requests.
// Only one gesture may be active at a time.
type GestureController struct {
	api       EventAPI
	refresher Refresher
	notifier  Notifier
	logger    *zap.Logger
	rowHeight float64

	mu      sync.Mutex
	dragged *models.Event
	resize  *resizeState
}

// NewGestureController builds a controller. A non-positive hourRowHeight
// falls back to DefaultHourRowHeight.
func NewGestureController(api EventAPI, refresher Refresher, notifier Notifier, logger *zap.Logger, hourRowHeight float64) *GestureController {
	if refresher == nil {
		refresher = nopRefresher{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if hourRowHeight <= 0 {
		hourRowHeight = DefaultHourRowHeight
	}
	return &GestureController{api: api, refresher: refresher, notifier: notifier, logger: logger, rowHeight: hourRowHeight}
}

// BeginDrag captures ev as the dragged event.
func (g *GestureController) BeginDrag(ev models.Event) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged != nil || g.resize != nil {
		return appErrors.ErrGestureActive
	}
	captured := ev
	g.dragged = &captured
	return nil
}

// Dragging returns the event being dragged, rendered at reduced opacity.
func (g *GestureController) Dragging() (models.Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged == nil {
		return models.Event{}, false
	}
	return *g.dragged, true
}

// CancelDrag ends a drag outside any drop target. No request is issued.
func (g *GestureController) CancelDrag() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.dragged = nil
}

// Drop moves the dragged event to target. Only the start moves; the absolute
// end timestamp is kept. An invalid target behaves like CancelDrag.
func (g *GestureController) Drop(ctx context.Context, target Bucket) error {
	g.mu.Lock()
	dragged := g.dragged
	g.dragged = nil
	g.mu.Unlock()

	if dragged == nil || !target.Valid() {
		return nil
	}

	moved := *dragged
	moved.StartDate = target.Start()
	err := g.api.UpdateEvent(ctx, moved, models.ScopeSingle, reference(*dragged))
	return g.afterAttempt(ctx, "move", moved, err)
}

// BeginResize captures ev and the pointer position on its bottom edge.
func (g *GestureController) BeginResize(ev models.Event, pointerY float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dragged != nil || g.resize != nil {
		return appErrors.ErrGestureActive
	}
	g.resize = &resizeState{event: ev, refY: pointerY, hours: ev.Duration().Hours()}
	return nil
}

// Resizing returns the event being resized with its latest requested end.
func (g *GestureController) Resizing() (models.Event, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resize == nil {
		return models.Event{}, false
	}
	return g.resize.event, true
}

// ResizeMove handles pointer movement during a resize. Every time the pointer
// crosses at least one hour row an update is sent and the reference position
// resets, so a long drag fires one request per crossing.
func (g *GestureController) ResizeMove(ctx context.Context, pointerY float64) error {
	g.mu.Lock()
	rs := g.resize
	if rs == nil {
		g.mu.Unlock()
		return nil
	}
	changed := roundHalfUp((pointerY - rs.refY) / g.rowHeight)
	if changed == 0 {
		g.mu.Unlock()
		return nil
	}
	hours := math.Max(MinResizeHours, rs.hours+changed)
	end := rs.event.StartDate.Add(time.Duration(hours * float64(time.Hour)))
	updated := rs.event
	updated.EndDate = &end
	rs.event = updated
	rs.hours = hours
	rs.refY = pointerY
	g.mu.Unlock()

	err := g.api.UpdateEvent(ctx, updated, models.ScopeSingle, reference(updated))
	return g.afterAttempt(ctx, "resize", updated, err)
}

// EndResize finishes the resize on pointer-up. No further request is sent.
func (g *GestureController) EndResize() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.resize = nil
}

// afterAttempt reports a failure and refetches whatever happened.
func (g *GestureController) afterAttempt(ctx context.Context, op string, ev models.Event, err error) error {
	if err != nil {
		g.logger.Error("gesture update failed",
			zap.String("gesture", op),
			zap.String("event_id", ev.ID),
			zap.Error(err))
		g.notifier.Notify(LevelError, "Could not reschedule the event. Please try again.")
	}
	if rerr := g.refresher.Refresh(ctx); rerr != nil {
		g.logger.Warn("refetch after gesture failed", zap.Error(rerr))
	}
	return err
}

// reference is the occurrence date sent with single-scope updates of a series.
func reference(ev models.Event) *time.Time {
	if !ev.IsRecurring {
		return nil
	}
	ref := ev.StartDate
	if ev.OriginalStart != nil {
		ref = *ev.OriginalStart
	}
	return &ref
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) float64 {
	return math.Floor(x + 0.5)
}
