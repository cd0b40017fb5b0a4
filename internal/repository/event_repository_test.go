package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/models"
)

var eventRowColumns = []string{"id", "master_id", "type", "title", "start_date", "end_date", "is_recurring", "frequency_type",
	"frequency", "days", "recurrence_end_date", "occurrences", "original_start", "is_done", "notes", "created_at", "updated_at"}

func newEventRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestEventRepositoryGetByIDMapsRecurrence(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	start := time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(eventRowColumns).
		AddRow("m1", "m1", "feeding", "Breakfast", start, nil, true, "weekly", int64(1), []byte("{MO,TH}"), nil, int64(10), nil, false, "", start, start)
	mock.ExpectQuery("FROM events WHERE id = \\$1").
		WithArgs("m1").
		WillReturnRows(rows)
	mock.ExpectQuery("FROM event_pets ep JOIN pets p").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "id", "name", "species", "created_at"}).
			AddRow("m1", "p1", "Rex", "dog", start).
			AddRow("m1", "p2", "Tom", "cat", start))

	ev, err := repo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	require.NotNil(t, ev.MasterID)
	assert.Equal(t, "m1", *ev.MasterID)
	assert.Nil(t, ev.EndDate)
	require.NotNil(t, ev.Recurrence)
	assert.Equal(t, models.FrequencyWeekly, ev.Recurrence.FrequencyType)
	assert.Equal(t, []string{"MO", "TH"}, ev.Recurrence.Days)
	require.NotNil(t, ev.Recurrence.Occurrences)
	assert.Equal(t, 10, *ev.Recurrence.Occurrences)
	assert.Equal(t, []string{"p1", "p2"}, ev.PetIDs())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryGetByIDNotFound(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	mock.ExpectQuery("FROM events WHERE id = \\$1").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestEventRepositoryCreateSeriesLinksPets(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM event_pets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO event_pets").WithArgs(sqlmock.AnyArg(), "p1", 0).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	ev := &models.Event{
		Type:        models.EventTypeMedical,
		Title:       "Pill",
		StartDate:   time.Date(2024, 3, 11, 8, 0, 0, 0, time.UTC),
		IsRecurring: true,
		Recurrence:  &models.Recurrence{FrequencyType: models.FrequencyDaily, Frequency: 1},
		Pets:        []models.Pet{{ID: "p1"}},
	}
	require.NoError(t, repo.Create(context.Background(), ev))
	assert.NotEmpty(t, ev.ID)
	require.NotNil(t, ev.MasterID)
	assert.Equal(t, ev.ID, *ev.MasterID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryCreateRollsBackOnPetFailure(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM event_pets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO event_pets").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	ev := &models.Event{Type: models.EventTypeOther, Title: "x", StartDate: time.Now(), Pets: []models.Pet{{ID: "ghost"}}}
	require.Error(t, repo.Create(context.Background(), ev))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE events SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &models.Event{ID: "gone", Type: models.EventTypeOther, Title: "x", StartDate: time.Now()})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryAddExceptionDropsOverride(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	slot := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO event_exceptions").WithArgs("m1", slot).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("DELETE FROM events WHERE master_id = \\$1 AND original_start = \\$2").WithArgs("m1", slot).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AddException(context.Background(), "m1", slot))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryClearDetachments(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM events WHERE master_id = \\$1 AND original_start IS NOT NULL").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM event_exceptions").WithArgs("m1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.ClearDetachments(context.Background(), "m1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListExceptionsSkipsEmptyInput(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	exceptions, err := repo.ListExceptions(context.Background(), nil, models.EventWindow{})
	require.NoError(t, err)
	assert.Empty(t, exceptions)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEventRepositoryListOverridesQueriesBothColumns(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	window := models.EventWindow{Start: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), End: time.Date(2024, 3, 17, 23, 59, 59, 0, time.UTC)}
	orig := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)
	moved := orig.Add(2 * time.Hour)

	mock.ExpectQuery("original_start BETWEEN \\$1 AND \\$2").
		WithArgs(window.Start, window.End).
		WillReturnRows(sqlmock.NewRows(eventRowColumns).
			AddRow("ov1", "m1", "feeding", "Late", moved, nil, true, nil, nil, []byte("{}"), nil, nil, orig, true, "", moved, moved))

	overrides, err := repo.ListOverrides(context.Background(), window)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.True(t, overrides[0].IsOverride())
	assert.Nil(t, overrides[0].Recurrence)
	assert.True(t, overrides[0].IsDone)
}

func TestEventRepositorySetDoneMissingRow(t *testing.T) {
	db, mock, cleanup := newEventRepoMock(t)
	defer cleanup()
	repo := NewEventRepository(db)
	mock.ExpectExec("UPDATE events SET is_done").WithArgs(true, sqlmock.AnyArg(), "x").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetDone(context.Background(), "x", true)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}
