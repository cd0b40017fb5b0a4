package calendar

import (
	"context"
	"time"

	"github.com/noah-isme/petcal-api/internal/models"
)

// EventAPI is the remote event store the calendar talks to.
type EventAPI interface {
	FetchEventsForPeriod(ctx context.Context, start, end time.Time) ([]models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event, scope models.Scope, reference *time.Time) error
	DeleteEvent(ctx context.Context, id string, opts models.DeleteOptions) error
	ChangeDoneStatus(ctx context.Context, event models.Event) error
}

// Refresher refetches the visible window after a mutation.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Level classifies a user-facing notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notifier shows toast-style messages to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

type nopNotifier struct{}

func (nopNotifier) Notify(Level, string) {}

type nopRefresher struct{}

func (nopRefresher) Refresh(context.Context) error { return nil }
