package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/petcal-api/internal/models"
)

const eventColumns = `id, master_id, type, title, start_date, end_date, is_recurring, frequency_type, frequency, days,
recurrence_end_date, occurrences, original_start, is_done, notes, created_at, updated_at`

// eventRow is the flat storage shape of models.Event.
type eventRow struct {
	ID                string         `db:"id"`
	MasterID          sql.NullString `db:"master_id"`
	Type              string         `db:"type"`
	Title             string         `db:"title"`
	StartDate         time.Time      `db:"start_date"`
	EndDate           sql.NullTime   `db:"end_date"`
	IsRecurring       bool           `db:"is_recurring"`
	FrequencyType     sql.NullString `db:"frequency_type"`
	Frequency         sql.NullInt64  `db:"frequency"`
	Days              pq.StringArray `db:"days"`
	RecurrenceEndDate sql.NullTime   `db:"recurrence_end_date"`
	Occurrences       sql.NullInt64  `db:"occurrences"`
	OriginalStart     sql.NullTime   `db:"original_start"`
	IsDone            bool           `db:"is_done"`
	Notes             string         `db:"notes"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (r eventRow) toModel() models.Event {
	ev := models.Event{
		ID:          r.ID,
		Type:        models.EventType(r.Type),
		Title:       r.Title,
		StartDate:   r.StartDate,
		IsRecurring: r.IsRecurring,
		IsDone:      r.IsDone,
		Notes:       r.Notes,
		Pets:        []models.Pet{},
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.MasterID.Valid {
		id := r.MasterID.String
		ev.MasterID = &id
	}
	if r.EndDate.Valid {
		end := r.EndDate.Time
		ev.EndDate = &end
	}
	if r.OriginalStart.Valid {
		orig := r.OriginalStart.Time
		ev.OriginalStart = &orig
	}
	if r.FrequencyType.Valid {
		rec := &models.Recurrence{
			FrequencyType: models.Frequency(r.FrequencyType.String),
			Frequency:     int(r.Frequency.Int64),
			Days:          []string(r.Days),
		}
		if r.RecurrenceEndDate.Valid {
			end := r.RecurrenceEndDate.Time
			rec.EndDate = &end
		}
		if r.Occurrences.Valid {
			n := int(r.Occurrences.Int64)
			rec.Occurrences = &n
		}
		ev.Recurrence = rec
	}
	return ev
}

func rowFromModel(ev *models.Event) eventRow {
	row := eventRow{
		ID:          ev.ID,
		Type:        string(ev.Type),
		Title:       ev.Title,
		StartDate:   ev.StartDate,
		IsRecurring: ev.IsRecurring,
		IsDone:      ev.IsDone,
		Notes:       ev.Notes,
		Days:        pq.StringArray{},
		CreatedAt:   ev.CreatedAt,
		UpdatedAt:   ev.UpdatedAt,
	}
	if ev.MasterID != nil {
		row.MasterID = sql.NullString{String: *ev.MasterID, Valid: true}
	}
	if ev.EndDate != nil {
		row.EndDate = sql.NullTime{Time: *ev.EndDate, Valid: true}
	}
	if ev.OriginalStart != nil {
		row.OriginalStart = sql.NullTime{Time: *ev.OriginalStart, Valid: true}
	}
	if rec := ev.Recurrence; rec != nil && ev.OriginalStart == nil {
		row.FrequencyType = sql.NullString{String: string(rec.FrequencyType), Valid: true}
		row.Frequency = sql.NullInt64{Int64: int64(rec.Interval()), Valid: true}
		if len(rec.Days) > 0 {
			row.Days = pq.StringArray(rec.Days)
		}
		if rec.EndDate != nil {
			row.RecurrenceEndDate = sql.NullTime{Time: *rec.EndDate, Valid: true}
		}
		if rec.Occurrences != nil {
			row.Occurrences = sql.NullInt64{Int64: int64(*rec.Occurrences), Valid: true}
		}
	}
	return row
}

// EventRepository persists events, series overrides and exceptions.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an event repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// ListStandalone returns non-recurring events starting inside the window.
func (r *EventRepository) ListStandalone(ctx context.Context, window models.EventWindow) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
WHERE master_id IS NULL AND start_date BETWEEN $1 AND $2 ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list standalone events", query, window.Start, window.End)
}

// ListSeries returns series masters that may produce occurrences before the
// window closes.
func (r *EventRepository) ListSeries(ctx context.Context, window models.EventWindow) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
WHERE master_id = id AND start_date <= $1 AND (recurrence_end_date IS NULL OR recurrence_end_date >= $2)
ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list series", query, window.End, window.Start.AddDate(0, 0, -1))
}

// ListOverrides returns detached occurrences that either start inside the
// window or replace a slot inside it.
func (r *EventRepository) ListOverrides(ctx context.Context, window models.EventWindow) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
WHERE original_start IS NOT NULL AND (start_date BETWEEN $1 AND $2 OR original_start BETWEEN $1 AND $2)
ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list overrides", query, window.Start, window.End)
}

// ListExceptions returns deleted occurrences of the given series inside the window.
func (r *EventRepository) ListExceptions(ctx context.Context, masterIDs []string, window models.EventWindow) ([]models.EventException, error) {
	if len(masterIDs) == 0 {
		return []models.EventException{}, nil
	}
	const query = `SELECT master_id, occurrence_date FROM event_exceptions
WHERE master_id = ANY($1) AND occurrence_date BETWEEN $2 AND $3`
	var exceptions []models.EventException
	if err := r.db.SelectContext(ctx, &exceptions, query, pq.Array(masterIDs), window.Start, window.End); err != nil {
		return nil, fmt.Errorf("list event exceptions: %w", err)
	}
	return exceptions, nil
}

// GetByID fetches one stored row with its pets.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	ev := row.toModel()
	if err := r.loadPets(ctx, []*models.Event{&ev}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// FindOverride returns the detached occurrence replacing slot of masterID.
func (r *EventRepository) FindOverride(ctx context.Context, masterID string, slot time.Time) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE master_id = $1 AND original_start = $2`
	var row eventRow
	if err := r.db.GetContext(ctx, &row, query, masterID, slot); err != nil {
		return nil, err
	}
	ev := row.toModel()
	if err := r.loadPets(ctx, []*models.Event{&ev}); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Create inserts an event and its pet links. Series masters reference
// themselves through master_id.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.IsRecurring && event.OriginalStart == nil && event.MasterID == nil {
		id := event.ID
		event.MasterID = &id
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO events (id, master_id, type, title, start_date, end_date, is_recurring, frequency_type, frequency, days,
recurrence_end_date, occurrences, original_start, is_done, notes, created_at, updated_at)
VALUES (:id, :master_id, :type, :title, :start_date, :end_date, :is_recurring, :frequency_type, :frequency, :days,
:recurrence_end_date, :occurrences, :original_start, :is_done, :notes, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, rowFromModel(event)); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	if err = replacePets(ctx, tx, event.ID, event.PetIDs()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create event: %w", err)
	}
	return nil
}

// Update rewrites an event row and its pet links.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `UPDATE events SET type = :type, title = :title, start_date = :start_date, end_date = :end_date,
is_recurring = :is_recurring, frequency_type = :frequency_type, frequency = :frequency, days = :days,
recurrence_end_date = :recurrence_end_date, occurrences = :occurrences, is_done = :is_done, notes = :notes,
updated_at = :updated_at WHERE id = :id`
	var res sql.Result
	if res, err = tx.NamedExecContext(ctx, query, rowFromModel(event)); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	var affected int64
	if affected, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("update event rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}
	if err = replacePets(ctx, tx, event.ID, event.PetIDs()); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update event: %w", err)
	}
	return nil
}

// Delete removes a row. Deleting a series master cascades to its overrides
// and exceptions.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete event rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AddException records a deleted occurrence and drops any override for it.
func (r *EventRepository) AddException(ctx context.Context, masterID string, slot time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add exception: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `INSERT INTO event_exceptions (master_id, occurrence_date) VALUES ($1, $2)
ON CONFLICT (master_id, occurrence_date) DO NOTHING`, masterID, slot); err != nil {
		return fmt.Errorf("insert event exception: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM events WHERE master_id = $1 AND original_start = $2", masterID, slot); err != nil {
		return fmt.Errorf("delete override: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit add exception: %w", err)
	}
	return nil
}

// ClearDetachments removes every override and exception of a series.
func (r *EventRepository) ClearDetachments(ctx context.Context, masterID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear detachments: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, "DELETE FROM events WHERE master_id = $1 AND original_start IS NOT NULL", masterID); err != nil {
		return fmt.Errorf("delete overrides: %w", err)
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM event_exceptions WHERE master_id = $1", masterID); err != nil {
		return fmt.Errorf("delete exceptions: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear detachments: %w", err)
	}
	return nil
}

// SetDone flips the completion flag of one stored row.
func (r *EventRepository) SetDone(ctx context.Context, id string, done bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE events SET is_done = $1, updated_at = $2 WHERE id = $3", done, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set event done: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set event done rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LoadPets attaches pets to the given events in link order.
func (r *EventRepository) LoadPets(ctx context.Context, events []models.Event) error {
	ptrs := make([]*models.Event, len(events))
	for i := range events {
		ptrs[i] = &events[i]
	}
	return r.loadPets(ctx, ptrs)
}

type eventPetRow struct {
	EventID string `db:"event_id"`
	models.Pet
}

func (r *EventRepository) loadPets(ctx context.Context, events []*models.Event) error {
	if len(events) == 0 {
		return nil
	}
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		if ev.Pets == nil {
			ev.Pets = []models.Pet{}
		}
		ids = append(ids, ev.ID)
	}
	const query = `SELECT ep.event_id, p.id, p.name, p.species, p.created_at
FROM event_pets ep JOIN pets p ON p.id = ep.pet_id
WHERE ep.event_id = ANY($1) ORDER BY ep.event_id, ep.position`
	var rows []eventPetRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return fmt.Errorf("load event pets: %w", err)
	}
	byEvent := make(map[string][]models.Pet, len(rows))
	for _, row := range rows {
		byEvent[row.EventID] = append(byEvent[row.EventID], row.Pet)
	}
	for _, ev := range events {
		if pets, ok := byEvent[ev.ID]; ok {
			ev.Pets = pets
		}
	}
	return nil
}

func (r *EventRepository) selectEvents(ctx context.Context, label, query string, args ...interface{}) ([]models.Event, error) {
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", label, err)
	}
	events := make([]models.Event, len(rows))
	for i, row := range rows {
		events[i] = row.toModel()
	}
	return events, nil
}

func replacePets(ctx context.Context, tx *sqlx.Tx, eventID string, petIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM event_pets WHERE event_id = $1", eventID); err != nil {
		return fmt.Errorf("clear event pets: %w", err)
	}
	for i, petID := range petIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO event_pets (event_id, pet_id, position) VALUES ($1, $2, $3)", eventID, petID, i); err != nil {
			return fmt.Errorf("link pet %s: %w", petID, err)
		}
	}
	return nil
}
