package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/petcal-api/internal/models"
)

type updateCall struct {
	Event     models.Event
	Scope     models.Scope
	Reference *time.Time
}

type deleteCall struct {
	ID   string
	Opts models.DeleteOptions
}

type fetchCall struct {
	Start time.Time
	End   time.Time
}

type fakeEventAPI struct {
	mu      sync.Mutex
	err     error
	events  []models.Event
	fetches []fetchCall
	updates []updateCall
	deletes []deleteCall
	done    []models.Event
}

func (f *fakeEventAPI) FetchEventsForPeriod(ctx context.Context, start, end time.Time) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, fetchCall{Start: start, End: end})
	if f.err != nil {
		return nil, f.err
	}
	return f.events, nil
}

func (f *fakeEventAPI) UpdateEvent(ctx context.Context, event models.Event, scope models.Scope, reference *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, updateCall{Event: event, Scope: scope, Reference: reference})
	return f.err
}

func (f *fakeEventAPI) DeleteEvent(ctx context.Context, id string, opts models.DeleteOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, deleteCall{ID: id, Opts: opts})
	return f.err
}

func (f *fakeEventAPI) ChangeDoneStatus(ctx context.Context, event models.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = append(f.done, event)
	return f.err
}

func (f *fakeEventAPI) requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates) + len(f.deletes) + len(f.done)
}

type countingRefresher struct {
	calls int
}

func (r *countingRefresher) Refresh(context.Context) error {
	r.calls++
	return nil
}

type recordedToast struct {
	Level   Level
	Message string
}

type recordingNotifier struct {
	toasts []recordedToast
}

func (n *recordingNotifier) Notify(level Level, message string) {
	n.toasts = append(n.toasts, recordedToast{Level: level, Message: message})
}

func (n *recordingNotifier) last() recordedToast {
	if len(n.toasts) == 0 {
		return recordedToast{}
	}
	return n.toasts[len(n.toasts)-1]
}

func strPtr(v string) *string { return &v }
