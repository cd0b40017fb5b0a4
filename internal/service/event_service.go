package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	"github.com/noah-isme/petcal-api/internal/realtime"
	"github.com/noah-isme/petcal-api/internal/recurrence"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

type eventRepository interface {
	ListStandalone(ctx context.Context, window models.EventWindow) ([]models.Event, error)
	ListSeries(ctx context.Context, window models.EventWindow) ([]models.Event, error)
	ListOverrides(ctx context.Context, window models.EventWindow) ([]models.Event, error)
	ListExceptions(ctx context.Context, masterIDs []string, window models.EventWindow) ([]models.EventException, error)
	LoadPets(ctx context.Context, events []models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	FindOverride(ctx context.Context, masterID string, slot time.Time) (*models.Event, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
	AddException(ctx context.Context, masterID string, slot time.Time) error
	ClearDetachments(ctx context.Context, masterID string) error
	SetDone(ctx context.Context, id string, done bool) error
}

type petLookup interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Pet, error)
}

// ChangePublisher announces mutations to connected calendars.
type ChangePublisher interface {
	Publish(n realtime.Notice)
}

// EventServiceConfig tunes expansion and caching.
type EventServiceConfig struct {
	Location       *time.Location
	MaxOccurrences int
	CacheTTL       time.Duration
}

// EventService serves occurrences and applies scoped mutations.
type EventService struct {
	repo      eventRepository
	pets      petLookup
	expander  *recurrence.Expander
	cache     *CacheService
	metrics   *MetricsService
	publisher ChangePublisher
	validator *validator.Validate
	logger    *zap.Logger
	cfg       EventServiceConfig
}

// NewEventService constructs the service. cache, metrics and publisher may be nil.
func NewEventService(repo eventRepository, pets petLookup, cache *CacheService, metrics *MetricsService, publisher ChangePublisher, validate *validator.Validate, logger *zap.Logger, cfg EventServiceConfig) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = recurrence.DefaultMaxOccurrences
	}
	RegisterEventValidators(validate)
	return &EventService{
		repo:      repo,
		pets:      pets,
		expander:  recurrence.NewExpander(logger),
		cache:     cache,
		metrics:   metrics,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// RegisterEventValidators installs the event_type, frequency_type and weekday tags.
func RegisterEventValidators(v *validator.Validate) {
	_ = v.RegisterValidation("event_type", func(fl validator.FieldLevel) bool {
		return models.EventType(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("frequency_type", func(fl validator.FieldLevel) bool {
		return models.Frequency(strings.ToLower(fl.Field().String())).Valid()
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := recurrence.ParseWeekday(fl.Field().String())
		return ok
	})
}

// List returns every occurrence starting inside [start, end]. The bool
// reports a cache hit.
func (s *EventService) List(ctx context.Context, start, end time.Time) (*dto.EventList, bool, error) {
	if start.IsZero() || end.IsZero() {
		return nil, false, appErrors.ErrMissingBounds
	}
	if end.Before(start) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}

	key := WindowKey(start, end)
	var cached dto.EventList
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	window := models.EventWindow{Start: start, End: end}
	began := time.Now()
	in, err := s.loadWindow(ctx, window)
	s.metrics.ObserveDBQuery("list_window", time.Since(began))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	res, err := s.expander.Expand(in, recurrence.Config{
		Location:       s.cfg.Location,
		Start:          start,
		End:            end,
		MaxOccurrences: s.cfg.MaxOccurrences,
	})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid window")
	}
	s.metrics.ObserveExpansion(len(res.Occurrences), len(res.Truncated))

	list := &dto.EventList{
		Start:     start.In(s.cfg.Location),
		End:       end.In(s.cfg.Location),
		Events:    res.Occurrences,
		Truncated: res.Truncated,
	}
	_ = s.cache.Set(ctx, key, list, s.cfg.CacheTTL)
	return list, false, nil
}

func (s *EventService) loadWindow(ctx context.Context, window models.EventWindow) (recurrence.Input, error) {
	var in recurrence.Input
	var err error
	if in.Standalone, err = s.repo.ListStandalone(ctx, window); err != nil {
		return in, err
	}
	if in.Masters, err = s.repo.ListSeries(ctx, window); err != nil {
		return in, err
	}
	if in.Overrides, err = s.repo.ListOverrides(ctx, window); err != nil {
		return in, err
	}
	ids := make([]string, 0, len(in.Masters))
	for _, m := range in.Masters {
		ids = append(ids, m.ID)
	}
	if in.Exceptions, err = s.repo.ListExceptions(ctx, ids, window); err != nil {
		return in, err
	}

	all := make([]models.Event, 0, len(in.Standalone)+len(in.Masters)+len(in.Overrides))
	all = append(all, in.Standalone...)
	all = append(all, in.Masters...)
	all = append(all, in.Overrides...)
	if err = s.repo.LoadPets(ctx, all); err != nil {
		return in, err
	}
	n, m := len(in.Standalone), len(in.Masters)
	in.Standalone, in.Masters, in.Overrides = all[:n], all[n:n+m], all[n+m:]
	return in, nil
}

// target is what an id (plus optional occurrence date) addresses. row is the
// stored row that is itself the occurrence: a standalone event or an
// override. Generated occurrences have a nil row.
type target struct {
	row    *models.Event
	master *models.Event
	slot   time.Time
}

func (t target) occurrence() models.Event {
	if t.row != nil {
		return *t.row
	}
	return recurrence.Occurrence(*t.master, t.slot)
}

func (s *EventService) resolve(ctx context.Context, id string, date *time.Time) (target, error) {
	if masterID, slot, ok := recurrence.ParseOccurrenceID(id); ok {
		master, err := s.load(ctx, masterID)
		if err != nil {
			return target{}, err
		}
		return s.seriesTarget(ctx, master, slot.In(s.cfg.Location))
	}

	row, err := s.load(ctx, id)
	if err != nil {
		return target{}, err
	}
	switch {
	case row.IsOverride():
		master, err := s.load(ctx, row.SeriesID())
		if err != nil {
			return target{}, err
		}
		return target{row: row, master: master, slot: *row.OriginalStart}, nil
	case row.SeriesID() == row.ID:
		slot := row.StartDate
		if date != nil {
			slot = date.In(s.cfg.Location)
		}
		return s.seriesTarget(ctx, row, slot)
	default:
		return target{row: row}, nil
	}
}

func (s *EventService) seriesTarget(ctx context.Context, master *models.Event, slot time.Time) (target, error) {
	t := target{master: master, slot: slot}
	override, err := s.repo.FindOverride(ctx, master.ID, slot)
	switch {
	case err == nil:
		t.row = override
		return t, nil
	case !errors.Is(err, sql.ErrNoRows):
		return target{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load occurrence")
	}
	if !recurrence.IsSlot(*master, slot, s.cfg.Location) {
		return target{}, appErrors.Clone(appErrors.ErrNotFound, "occurrence not found in series")
	}
	return t, nil
}

func (s *EventService) load(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return ev, nil
}

// Get returns the occurrence or stored row named by id.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	t, err := s.resolve(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	ev := t.occurrence()
	if t.master != nil && ev.Recurrence == nil {
		ev.IsRecurring = true
		ev.Recurrence = t.master.Recurrence
	}
	return &ev, nil
}

// Create stores a standalone event or a series master.
func (s *EventService) Create(ctx context.Context, req dto.EventRequest) (*models.Event, error) {
	ev, err := s.buildEvent(ctx, req)
	if err != nil {
		return nil, err
	}
	if ev.EndDate != nil && ev.EndDate.Before(ev.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	if ev.IsRecurring && ev.Recurrence == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence is required for recurring events")
	}
	if err := s.repo.Create(ctx, ev); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	s.afterMutation(ctx, "create", ev.ID, "")
	return ev, nil
}

// Update applies req to the occurrence or series addressed by id. For
// single-scope edits of a series occurrence the change is stored as an
// override of that slot; series-scope edits rewrite the master.
func (s *EventService) Update(ctx context.Context, id string, scope models.Scope, date *time.Time, req dto.EventRequest) (*models.Event, error) {
	if scope != models.ScopeSeries {
		// single edits never change the rule
		req.Recurrence = nil
	}
	edited, err := s.buildEvent(ctx, req)
	if err != nil {
		return nil, err
	}
	t, err := s.resolve(ctx, id, date)
	if err != nil {
		return nil, err
	}
	fitEnd(edited, t.occurrence())

	var saved *models.Event
	switch {
	case t.master == nil:
		saved, err = s.updateStandalone(ctx, t.row, edited)
	case scope == models.ScopeSeries:
		saved, err = s.updateSeries(ctx, t, edited)
	default:
		saved, err = s.updateOccurrence(ctx, t, edited)
	}
	if err != nil {
		return nil, err
	}
	s.afterMutation(ctx, "update", saved.ID, string(scope))
	return saved, nil
}

// fitEnd keeps a dragged event's length when its start moved past the end
// it still carries.
func fitEnd(edited *models.Event, before models.Event) {
	if edited.EndDate == nil || !edited.EndDate.Before(edited.StartDate) {
		return
	}
	end := edited.StartDate.Add(before.Duration())
	edited.EndDate = &end
}

func (s *EventService) updateStandalone(ctx context.Context, row, edited *models.Event) (*models.Event, error) {
	if edited.IsRecurring {
		return nil, appErrors.Clone(appErrors.ErrValidation, "create a new series instead of converting a single event")
	}
	row.Type = edited.Type
	row.Title = edited.Title
	row.StartDate = edited.StartDate
	row.EndDate = edited.EndDate
	row.Notes = edited.Notes
	row.Pets = edited.Pets
	row.IsDone = edited.IsDone
	if err := s.repo.Update(ctx, row); err != nil {
		return nil, s.storeError(err, "failed to update event")
	}
	return row, nil
}

func (s *EventService) updateOccurrence(ctx context.Context, t target, edited *models.Event) (*models.Event, error) {
	if t.row != nil {
		row := t.row
		row.Type = edited.Type
		row.Title = edited.Title
		row.StartDate = edited.StartDate
		row.EndDate = edited.EndDate
		row.Notes = edited.Notes
		row.Pets = edited.Pets
		row.IsDone = edited.IsDone
		if err := s.repo.Update(ctx, row); err != nil {
			return nil, s.storeError(err, "failed to update occurrence")
		}
		return row, nil
	}
	slot := t.slot
	masterID := t.master.ID
	override := &models.Event{
		MasterID:      &masterID,
		Type:          edited.Type,
		Title:         edited.Title,
		StartDate:     edited.StartDate,
		EndDate:       edited.EndDate,
		IsRecurring:   true,
		IsDone:        edited.IsDone,
		Pets:          edited.Pets,
		Notes:         edited.Notes,
		OriginalStart: &slot,
	}
	if err := s.repo.Create(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach occurrence")
	}
	return override, nil
}

// updateSeries shifts the master by the distance the edited occurrence moved
// and adopts its duration. Moving the series or changing its rule
// regenerates every occurrence, dropping overrides and exceptions.
func (s *EventService) updateSeries(ctx context.Context, t target, edited *models.Event) (*models.Event, error) {
	master := t.master
	from := t.occurrence().StartDate
	shift := edited.StartDate.Sub(from)
	newStart := master.StartDate.Add(shift)

	rec := master.Recurrence
	if edited.Recurrence != nil {
		rec = edited.Recurrence
	}
	ruleChanged := !sameRecurrence(master.Recurrence, rec)

	master.Type = edited.Type
	master.Title = edited.Title
	master.Notes = edited.Notes
	master.Pets = edited.Pets
	master.StartDate = newStart
	master.Recurrence = rec
	if edited.EndDate != nil {
		end := newStart.Add(edited.EndDate.Sub(edited.StartDate))
		master.EndDate = &end
	} else {
		master.EndDate = nil
	}

	if shift != 0 || ruleChanged {
		if err := s.repo.ClearDetachments(ctx, master.ID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset series")
		}
	}
	if err := s.repo.Update(ctx, master); err != nil {
		return nil, s.storeError(err, "failed to update series")
	}
	return master, nil
}

// Delete removes the occurrence or series addressed by id.
func (s *EventService) Delete(ctx context.Context, id string, opts models.DeleteOptions) error {
	t, err := s.resolve(ctx, id, opts.Date)
	if err != nil {
		return err
	}
	switch {
	case t.master == nil:
		if opts.Scope == models.ScopeSeries {
			return appErrors.ErrNotRecurring
		}
		err = s.repo.Delete(ctx, t.row.ID)
	case opts.Scope == models.ScopeSeries:
		err = s.repo.Delete(ctx, t.master.ID)
	default:
		err = s.repo.AddException(ctx, t.master.ID, t.slot)
	}
	if err != nil {
		return s.storeError(err, "failed to delete event")
	}
	s.afterMutation(ctx, "delete", id, string(opts.Scope))
	return nil
}

// ChangeDone sets the completion flag of one occurrence. Generated
// occurrences are detached so the flag never spreads to the series.
func (s *EventService) ChangeDone(ctx context.Context, id string, done bool) (*models.Event, error) {
	t, err := s.resolve(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	var ev models.Event
	if t.row != nil {
		if err := s.repo.SetDone(ctx, t.row.ID, done); err != nil {
			return nil, s.storeError(err, "failed to update event status")
		}
		ev = *t.row
		ev.IsDone = done
	} else {
		ev = t.occurrence()
		slot := t.slot
		ev.ID = ""
		ev.Recurrence = nil
		ev.OriginalStart = &slot
		ev.IsDone = done
		if err := s.repo.Create(ctx, &ev); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update event status")
		}
	}
	s.afterMutation(ctx, "done", ev.ID, string(models.ScopeSingle))
	return &ev, nil
}

// InvalidateCache drops every cached window.
func (s *EventService) InvalidateCache(ctx context.Context) error {
	return s.cache.Invalidate(ctx, EventCachePattern)
}

func (s *EventService) afterMutation(ctx context.Context, action, id, scope string) {
	if err := s.InvalidateCache(ctx); err != nil {
		s.logger.Warn("invalidate event cache failed", zap.Error(err))
	}
	s.metrics.RecordMutation(action, scopeLabel(scope))
	if s.publisher != nil {
		s.publisher.Publish(realtime.Notice{Action: action, EventID: id, Scope: scope})
	}
	s.logger.Info("event mutated", zap.String("action", action), zap.String("event_id", id), zap.String("scope", scope))
}

func (s *EventService) storeError(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *EventService) buildEvent(ctx context.Context, req dto.EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	ev := &models.Event{
		Type:        models.EventType(strings.ToLower(req.Type)),
		Title:       strings.TrimSpace(req.Title),
		StartDate:   req.StartDate.In(s.cfg.Location),
		IsRecurring: req.IsRecurring,
		IsDone:      req.IsDone,
		Notes:       req.Notes,
	}
	if req.EndDate != nil {
		end := req.EndDate.In(s.cfg.Location)
		ev.EndDate = &end
	}
	if req.IsRecurring && req.Recurrence != nil {
		days, err := recurrence.NormalizeDays(req.Recurrence.Days)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence days")
		}
		rec := &models.Recurrence{
			FrequencyType: models.Frequency(strings.ToLower(req.Recurrence.FrequencyType)),
			Frequency:     req.Recurrence.Frequency,
			Days:          days,
			EndDate:       req.Recurrence.EndDate,
			Occurrences:   req.Recurrence.Occurrences,
		}
		if rec.Frequency < 1 {
			rec.Frequency = 1
		}
		if rec.EndDate != nil && rec.EndDate.Before(StartOfDayIn(ev.StartDate)) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "recurrence end_date must not precede start_date")
		}
		if _, err := recurrence.Rule(*rec, ev.StartDate); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence")
		}
		ev.Recurrence = rec
	}
	pets, err := s.resolvePets(ctx, req.PetIDs)
	if err != nil {
		return nil, err
	}
	ev.Pets = pets
	return ev, nil
}

func (s *EventService) resolvePets(ctx context.Context, ids []string) ([]models.Pet, error) {
	if len(ids) == 0 || s.pets == nil {
		pets := make([]models.Pet, 0, len(ids))
		for _, id := range ids {
			pets = append(pets, models.Pet{ID: id})
		}
		return pets, nil
	}
	found, err := s.pets.FindByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pets")
	}
	byID := make(map[string]models.Pet, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	pets := make([]models.Pet, 0, len(ids))
	var missing []string
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		pets = append(pets, p)
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown pet ids: "+strings.Join(missing, ", "))
	}
	return pets, nil
}

// StartOfDayIn returns midnight of t's date in t's location.
func StartOfDayIn(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func sameRecurrence(a, b *models.Recurrence) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.FrequencyType != b.FrequencyType || a.Interval() != b.Interval() || strings.Join(a.Days, ",") != strings.Join(b.Days, ",") {
		return false
	}
	if !sameTimePtr(a.EndDate, b.EndDate) {
		return false
	}
	switch {
	case a.Occurrences == nil && b.Occurrences == nil:
		return true
	case a.Occurrences == nil || b.Occurrences == nil:
		return false
	default:
		return *a.Occurrences == *b.Occurrences
	}
}

func sameTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func scopeLabel(scope string) string {
	if scope == "" {
		return "none"
	}
	return scope
}
