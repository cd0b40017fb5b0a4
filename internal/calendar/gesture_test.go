package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

func timedEvent(start time.Time, d time.Duration) models.Event {
	end := start.Add(d)
	return models.Event{ID: "evt-3", Type: models.EventTypeTraining, Title: "Agility", StartDate: start, EndDate: &end}
}

func TestDropMovesStartAndKeepsEnd(t *testing.T) {
	api := &fakeEventAPI{}
	refresher := &countingRefresher{}
	g := NewGestureController(api, refresher, nil, nil, 0)
	ev := timedEvent(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, g.BeginDrag(ev))

	err := g.Drop(context.Background(), Bucket{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Hour: 14})

	require.NoError(t, err)
	require.Len(t, api.updates, 1)
	call := api.updates[0]
	assert.Equal(t, time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC), call.Event.StartDate)
	require.NotNil(t, call.Event.EndDate)
	assert.Equal(t, time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC), *call.Event.EndDate)
	assert.Equal(t, models.ScopeSingle, call.Scope)
	assert.Nil(t, call.Reference)
	assert.Equal(t, 1, refresher.calls)
	_, dragging := g.Dragging()
	assert.False(t, dragging)
}

func TestDropOutsideTargetIssuesNoRequest(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 0)
	require.NoError(t, g.BeginDrag(timedEvent(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.Hour)))

	require.NoError(t, g.Drop(context.Background(), Bucket{}))

	assert.Zero(t, api.requests())
}

func TestDropRecurringSendsOccurrenceReference(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 0)
	ev := recurringOccurrence()
	require.NoError(t, g.BeginDrag(ev))

	require.NoError(t, g.Drop(context.Background(), Bucket{Date: ev.StartDate, Hour: 10}))

	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].Reference)
	assert.True(t, api.updates[0].Reference.Equal(ev.StartDate))
}

func TestDropFailureNotifiesAndRefetches(t *testing.T) {
	api := &fakeEventAPI{err: errors.New("unavailable")}
	refresher := &countingRefresher{}
	notifier := &recordingNotifier{}
	g := NewGestureController(api, refresher, notifier, nil, 0)
	require.NoError(t, g.BeginDrag(timedEvent(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.Hour)))

	err := g.Drop(context.Background(), Bucket{Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Hour: 14})

	require.Error(t, err)
	assert.Equal(t, LevelError, notifier.last().Level)
	assert.Equal(t, 1, refresher.calls)
}

func TestResizeTwoRowsExtendsByTwoHours(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 60)
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, g.BeginResize(timedEvent(start, time.Hour), 200))

	require.NoError(t, g.ResizeMove(context.Background(), 320))

	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].Event.EndDate)
	assert.Equal(t, start.Add(3*time.Hour), *api.updates[0].Event.EndDate)
}

func TestResizeBelowHalfRowIsIgnored(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 60)
	require.NoError(t, g.BeginResize(timedEvent(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.Hour), 100))

	require.NoError(t, g.ResizeMove(context.Background(), 129))

	assert.Zero(t, api.requests())
}

func TestResizeNeverShrinksBelowOneHour(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 60)
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, g.BeginResize(timedEvent(start, 2*time.Hour), 300))

	require.NoError(t, g.ResizeMove(context.Background(), 60))

	require.Len(t, api.updates, 1)
	assert.Equal(t, start.Add(time.Hour), *api.updates[0].Event.EndDate)
}

func TestResizeFiresOncePerCrossing(t *testing.T) {
	api := &fakeEventAPI{}
	g := NewGestureController(api, nil, nil, nil, 60)
	start := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	require.NoError(t, g.BeginResize(timedEvent(start, time.Hour), 0))

	ctx := context.Background()
	require.NoError(t, g.ResizeMove(ctx, 60))
	require.NoError(t, g.ResizeMove(ctx, 80))
	require.NoError(t, g.ResizeMove(ctx, 120))
	g.EndResize()
	require.NoError(t, g.ResizeMove(ctx, 400))

	require.Len(t, api.updates, 2)
	assert.Equal(t, start.Add(2*time.Hour), *api.updates[0].Event.EndDate)
	assert.Equal(t, start.Add(3*time.Hour), *api.updates[1].Event.EndDate)
}

func TestSecondGestureIsRejected(t *testing.T) {
	g := NewGestureController(&fakeEventAPI{}, nil, nil, nil, 0)
	ev := timedEvent(time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC), time.Hour)
	require.NoError(t, g.BeginDrag(ev))

	assert.ErrorIs(t, g.BeginResize(ev, 0), appErrors.ErrGestureActive)
	assert.ErrorIs(t, g.BeginDrag(ev), appErrors.ErrGestureActive)

	g.CancelDrag()
	assert.NoError(t, g.BeginResize(ev, 0))
}

func TestRoundHalfUp(t *testing.T) {
	assert.Equal(t, 1.0, roundHalfUp(0.5))
	assert.Equal(t, 0.0, roundHalfUp(0.49))
	assert.Equal(t, 0.0, roundHalfUp(-0.5))
	assert.Equal(t, -1.0, roundHalfUp(-0.51))
}
