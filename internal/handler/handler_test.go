package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/middleware"
	"github.com/noah-isme/petcal-api/internal/models"
	"github.com/noah-isme/petcal-api/internal/service"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
)

type eventServiceMock struct {
	listStart, listEnd time.Time
	listHit            bool
	truncated          []string
	updateID           string
	updateScope        models.Scope
	updateDate         *time.Time
	updateReq          dto.EventRequest
	deleteID           string
	deleteOpts         models.DeleteOptions
	doneID             string
	doneValue          bool
	err                error
}

func (m *eventServiceMock) List(ctx context.Context, start, end time.Time) (*dto.EventList, bool, error) {
	m.listStart, m.listEnd = start, end
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.EventList{Start: start, End: end, Events: []models.Event{{ID: "e1", Title: "Walk"}}, Truncated: m.truncated}, m.listHit, nil
}

func (m *eventServiceMock) Get(ctx context.Context, id string) (*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Event{ID: id}, nil
}

func (m *eventServiceMock) Create(ctx context.Context, req dto.EventRequest) (*models.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Event{ID: "new", Title: req.Title}, nil
}

func (m *eventServiceMock) Update(ctx context.Context, id string, scope models.Scope, date *time.Time, req dto.EventRequest) (*models.Event, error) {
	m.updateID, m.updateScope, m.updateDate, m.updateReq = id, scope, date, req
	if m.err != nil {
		return nil, m.err
	}
	return &models.Event{ID: id, Title: req.Title}, nil
}

func (m *eventServiceMock) Delete(ctx context.Context, id string, opts models.DeleteOptions) error {
	m.deleteID, m.deleteOpts = id, opts
	return m.err
}

func (m *eventServiceMock) ChangeDone(ctx context.Context, id string, done bool) (*models.Event, error) {
	m.doneID, m.doneValue = id, done
	if m.err != nil {
		return nil, m.err
	}
	return &models.Event{ID: id, IsDone: done}, nil
}

type calendarServiceMock struct {
	date, granularity, format string
	token                     string
	err                       error
}

func (m *calendarServiceMock) View(ctx context.Context, rawDate, rawGranularity string) (*dto.CalendarView, bool, error) {
	m.date, m.granularity = rawDate, rawGranularity
	if m.err != nil {
		return nil, false, m.err
	}
	return &dto.CalendarView{Previous: "2024-03-04", Next: "2024-03-18"}, true, nil
}

func (m *calendarServiceMock) Export(ctx context.Context, rawDate, rawGranularity, format string) (*service.ExportFile, error) {
	m.date, m.granularity, m.format = rawDate, rawGranularity, format
	if m.err != nil {
		return nil, m.err
	}
	return &service.ExportFile{Filename: "petcal-week-2024-03-11.ics", ContentType: "text/calendar; charset=utf-8", Body: []byte("BEGIN:VCALENDAR")}, nil
}

func (m *calendarServiceMock) Share(ctx context.Context, rawDate, rawGranularity, format string) (*dto.SharedExport, error) {
	m.date, m.granularity, m.format = rawDate, rawGranularity, format
	if m.err != nil {
		return nil, m.err
	}
	return &dto.SharedExport{Token: "tok123", Filename: "petcal-week-2024-03-11.csv", Format: "csv"}, nil
}

func (m *calendarServiceMock) OpenShared(token string) (*service.ExportFile, error) {
	m.token = token
	if token != "tok123" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shared export not found or expired")
	}
	return &service.ExportFile{Filename: "petcal-week-2024-03-11.csv", ContentType: "text/csv; charset=utf-8", Body: []byte("date,start")}, nil
}

type petServiceMock struct {
	created dto.CreatePetRequest
}

func (m *petServiceMock) List(ctx context.Context) ([]models.Pet, error) {
	return []models.Pet{{ID: "p1", Name: "Rex"}}, nil
}

func (m *petServiceMock) Create(ctx context.Context, req dto.CreatePetRequest) (*models.Pet, error) {
	m.created = req
	return &models.Pet{ID: "p2", Name: req.Name}, nil
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newTestRouter(events *eventServiceMock, cal *calendarServiceMock, pets *petServiceMock, checks map[string]ReadinessCheck) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.WithResponseMeta())
	RegisterRoutes(r, "/api/v1", Handlers{
		Events:   NewEventHandler(events, time.UTC),
		Calendar: NewCalendarHandler(cal),
		Pets:     NewPetHandler(pets),
		Metrics:  NewMetricsHandler(service.NewMetricsService(), checks),
	})
	return r
}

func perform(t *testing.T, r http.Handler, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func TestEventHandlerListRequiresBothBounds(t *testing.T) {
	svc := &eventServiceMock{}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodGet, "/api/v1/events?start_date=2024-03-11", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrMissingBounds.Code, env.Error.Code)
	assert.True(t, svc.listStart.IsZero())
}

func TestEventHandlerListParsesBounds(t *testing.T) {
	svc := &eventServiceMock{listHit: true, truncated: []string{"m1"}}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodGet, "/api/v1/events?start_date=2024-03-11T00:00:00.000%2B07:00&end_date=2024-03-17", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.listStart.Equal(time.Date(2024, 3, 10, 17, 0, 0, 0, time.UTC)))
	assert.True(t, svc.listEnd.Equal(time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, env.Meta, "truncated_series")

	w, _ = perform(t, r, http.MethodGet, "/api/v1/events?start_date=yesterday&end_date=2024-03-17", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerUpdatePassesScopeAndDate(t *testing.T) {
	svc := &eventServiceMock{}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)
	body := dto.EventRequest{Type: "feeding", Title: "Dinner", StartDate: time.Date(2024, 3, 14, 18, 0, 0, 0, time.UTC)}

	w, _ := perform(t, r, http.MethodPut, "/api/v1/events/m1?scope=all&date=2024-03-14T08:00:00Z", body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1", svc.updateID)
	assert.Equal(t, models.ScopeSeries, svc.updateScope)
	require.NotNil(t, svc.updateDate)
	assert.True(t, svc.updateDate.Equal(time.Date(2024, 3, 14, 8, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Dinner", svc.updateReq.Title)

	w, env := perform(t, r, http.MethodPut, "/api/v1/events/m1?scope=everything", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrInvalidScope.Code, env.Error.Code)
}

func TestEventHandlerDeleteDefaultsToSingle(t *testing.T) {
	svc := &eventServiceMock{}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)

	w, _ := perform(t, r, http.MethodDelete, "/api/v1/events/m1_20240313T080000Z", nil)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "m1_20240313T080000Z", svc.deleteID)
	assert.Equal(t, models.ScopeSingle, svc.deleteOpts.Scope)
	assert.Nil(t, svc.deleteOpts.Date)
}

func TestEventHandlerDeleteMapsServiceErrors(t *testing.T) {
	svc := &eventServiceMock{err: appErrors.ErrNotRecurring}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodDelete, "/api/v1/events/s1?scope=series", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, appErrors.ErrNotRecurring.Code, env.Error.Code)
}

func TestEventHandlerDone(t *testing.T) {
	svc := &eventServiceMock{}
	r := newTestRouter(svc, &calendarServiceMock{}, &petServiceMock{}, nil)

	w, _ := perform(t, r, http.MethodPatch, "/api/v1/events/m1_20240312T080000Z/done", dto.DoneRequest{IsDone: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "m1_20240312T080000Z", svc.doneID)
	assert.True(t, svc.doneValue)
}

func TestEventHandlerCreateRejectsMalformedJSON(t *testing.T) {
	r := newTestRouter(&eventServiceMock{}, &calendarServiceMock{}, &petServiceMock{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerViewAndExport(t *testing.T) {
	cal := &calendarServiceMock{}
	r := newTestRouter(&eventServiceMock{}, cal, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodGet, "/api/v1/calendar/view?date=2024-03-14&granularity=month", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-14", cal.date)
	assert.Equal(t, "month", cal.granularity)
	assert.Equal(t, true, env.Meta["cache_hit"])

	w, _ = perform(t, r, http.MethodGet, "/api/v1/calendar/export?format=ics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ics", cal.format)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "petcal-week-2024-03-11.ics")
	assert.Equal(t, "BEGIN:VCALENDAR", w.Body.String())
}

func TestCalendarHandlerShareLinks(t *testing.T) {
	cal := &calendarServiceMock{}
	r := newTestRouter(&eventServiceMock{}, cal, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodPost, "/api/v1/calendar/export/share?format=csv&granularity=week", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	var shared dto.SharedExport
	require.NoError(t, json.Unmarshal(env.Data, &shared))
	assert.Equal(t, "/api/v1/calendar/shared/tok123", shared.URL)
	assert.Equal(t, "csv", cal.format)

	w, _ = perform(t, r, http.MethodGet, shared.URL, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "tok123", cal.token)
	assert.Equal(t, "date,start", w.Body.String())

	w, env = perform(t, r, http.MethodGet, "/api/v1/calendar/shared/forged", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, appErrors.ErrNotFound.Code, env.Error.Code)
}

func TestCalendarHandlerSurfacesValidationErrors(t *testing.T) {
	cal := &calendarServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "granularity must be day, week or month")}
	r := newTestRouter(&eventServiceMock{}, cal, &petServiceMock{}, nil)

	w, env := perform(t, r, http.MethodGet, "/api/v1/calendar/view?granularity=year", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
}

func TestPetHandler(t *testing.T) {
	pets := &petServiceMock{}
	r := newTestRouter(&eventServiceMock{}, &calendarServiceMock{}, pets, nil)

	w, _ := perform(t, r, http.MethodGet, "/api/v1/pets", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = perform(t, r, http.MethodPost, "/api/v1/pets", dto.CreatePetRequest{Name: "Mochi", Species: "cat"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Mochi", pets.created.Name)
}

func TestMetricsHandlerReadiness(t *testing.T) {
	checks := map[string]ReadinessCheck{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("dial tcp: refused") },
	}
	r := newTestRouter(&eventServiceMock{}, &calendarServiceMock{}, &petServiceMock{}, checks)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
