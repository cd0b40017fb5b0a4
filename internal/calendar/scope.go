package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/models"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

// ScopeState tracks one edit or delete attempt.
type ScopeState int

const (
	StateIdle ScopeState = iota
	StateScopePending
	StateScopeThis
	StateScopeAll
	StateResolved
)

func (s ScopeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScopePending:
		return "scope_pending"
	case StateScopeThis:
		return "scope_this"
	case StateScopeAll:
		return "scope_all"
	case StateResolved:
		return "resolved"
	default:
		return fmt.Sprintf("ScopeState(%d)", int(s))
	}
}

// Action is the mutation the user started.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Selection pairs the chosen scope with the event it applies to.
type Selection struct {
	Scope models.Scope
	Event models.Event
}

// ScopeSelector decides whether an edit or delete applies to one occurrence
// or a whole series and issues exactly one request per resolution.
type ScopeSelector struct {
	api       EventAPI
	refresher Refresher
	notifier  Notifier
	logger    *zap.Logger

	mu       sync.Mutex
	state    ScopeState
	action   Action
	original models.Event
	edited   models.Event
}

// NewScopeSelector wires the selector to the event API. refresher and
// notifier may be nil.
func NewScopeSelector(api EventAPI, refresher Refresher, notifier Notifier, logger *zap.Logger) *ScopeSelector {
	if refresher == nil {
		refresher = nopRefresher{}
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeSelector{api: api, refresher: refresher, notifier: notifier, logger: logger}
}

// State returns the current state.
func (s *ScopeSelector) State() ScopeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pending returns the action and event awaiting a scope choice.
func (s *ScopeSelector) Pending() (Action, models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateScopePending {
		return "", models.Event{}, false
	}
	return s.action, s.original, true
}

// BeginDelete starts deleting ev. Non-recurring events are deleted right away.
func (s *ScopeSelector) BeginDelete(ctx context.Context, ev models.Event) error {
	return s.begin(ctx, ActionDelete, ev, ev)
}

// BeginEdit starts saving edited over original. Non-recurring events are
// updated right away.
func (s *ScopeSelector) BeginEdit(ctx context.Context, original, edited models.Event) error {
	return s.begin(ctx, ActionEdit, original, edited)
}

func (s *ScopeSelector) begin(ctx context.Context, action Action, original, edited models.Event) error {
	s.mu.Lock()
	if s.state != StateIdle && s.state != StateResolved {
		s.mu.Unlock()
		return appErrors.ErrScopeBusy
	}
	s.action = action
	s.original = original
	s.edited = edited
	if original.IsRecurring {
		s.state = StateScopePending
		s.mu.Unlock()
		return nil
	}
	s.state = StateScopeThis
	s.mu.Unlock()

	return s.resolve(ctx, Selection{Scope: models.ScopeSingle, Event: original}, StateIdle)
}

// Choose resolves a pending selection with scope.
func (s *ScopeSelector) Choose(ctx context.Context, scope models.Scope) error {
	s.mu.Lock()
	if s.state != StateScopePending {
		s.mu.Unlock()
		return appErrors.ErrNoScopePending
	}
	sel := Selection{Scope: scope, Event: s.original}
	switch scope {
	case models.ScopeSingle:
		s.state = StateScopeThis
	case models.ScopeSeries:
		s.state = StateScopeAll
	default:
		s.mu.Unlock()
		return appErrors.ErrInvalidScope
	}
	s.mu.Unlock()

	return s.resolve(ctx, sel, StateScopePending)
}

// Cancel abandons a pending selection without issuing a request.
func (s *ScopeSelector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateScopePending {
		s.reset()
	}
}

func (s *ScopeSelector) reset() {
	s.state = StateIdle
	s.action = ""
	s.original = models.Event{}
	s.edited = models.Event{}
}

// resolve issues the request for sel. On failure the selector returns to
// fallback so the dialog stays open as it was.
func (s *ScopeSelector) resolve(ctx context.Context, sel Selection, fallback ScopeState) error {
	s.mu.Lock()
	action := s.action
	edited := s.edited
	s.mu.Unlock()

	var err error
	switch action {
	case ActionDelete:
		id, opts := deleteRequest(sel)
		err = s.api.DeleteEvent(ctx, id, opts)
	case ActionEdit:
		payload, ref := updateRequest(sel, edited)
		err = s.api.UpdateEvent(ctx, payload, sel.Scope, ref)
	}

	s.mu.Lock()
	if err != nil {
		s.state = fallback
		if fallback == StateIdle {
			s.reset()
		}
		s.mu.Unlock()
		s.logger.Error("event mutation failed",
			zap.String("action", string(action)),
			zap.String("scope", string(sel.Scope)),
			zap.String("event_id", sel.Event.ID),
			zap.Error(err))
		s.notifier.Notify(LevelError, failureMessage(action))
		return err
	}
	s.state = StateResolved
	s.mu.Unlock()

	s.notifier.Notify(LevelSuccess, successMessage(action, sel.Scope))
	if rerr := s.refresher.Refresh(ctx); rerr != nil {
		s.logger.Warn("refetch after mutation failed", zap.Error(rerr))
	}
	return nil
}

func deleteRequest(sel Selection) (string, models.DeleteOptions) {
	ev := sel.Event
	if sel.Scope == models.ScopeSeries {
		return seriesTarget(ev), models.DeleteOptions{Scope: models.ScopeSeries}
	}
	if !ev.IsRecurring {
		return ev.ID, models.DeleteOptions{Scope: models.ScopeSingle}
	}
	date := ev.StartDate
	return ev.ID, models.DeleteOptions{Scope: models.ScopeSingle, Date: &date}
}

func updateRequest(sel Selection, edited models.Event) (models.Event, *time.Time) {
	ev := sel.Event
	if !ev.IsRecurring {
		edited.ID = ev.ID
		return edited, nil
	}
	if sel.Scope == models.ScopeSeries {
		edited.ID = seriesTarget(ev)
	} else {
		edited.ID = ev.ID
	}
	edited.MasterID = ev.MasterID
	return edited, reference(ev)
}

func seriesTarget(ev models.Event) string {
	if id := ev.SeriesID(); id != "" {
		return id
	}
	return ev.ID
}

func successMessage(action Action, scope models.Scope) string {
	target := "Event"
	if scope == models.ScopeSeries {
		target = "Series"
	}
	if action == ActionDelete {
		return target + " deleted"
	}
	return target + " updated"
}

func failureMessage(action Action) string {
	if action == ActionDelete {
		return "Could not delete the event. Please try again."
	}
	return "Could not save the event. Please try again."
}
