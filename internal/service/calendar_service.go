package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/internal/dto"
	"github.com/noah-isme/petcal-api/internal/models"
	"github.com/noah-isme/petcal-api/internal/recurrence"
	appErrors "github.com/noah-isme/petcal-api/pkg/errors"
	"github.com/noah-isme/petcal-api/pkg/export"
	"github.com/noah-isme/petcal-api/pkg/storage"
)

type eventLister interface {
	List(ctx context.Context, start, end time.Time) (*dto.EventList, bool, error)
}

type agendaRenderer interface {
	Render(agenda export.Agenda) ([]byte, error)
	ContentType() string
	Extension() string
}

type exportStore interface {
	Save(name string, data []byte) error
	Read(name string) ([]byte, error)
}

type linkSigner interface {
	Sign(name string) (string, time.Time, error)
	Verify(token string) (string, time.Time, error)
}

// Export formats accepted by CalendarService.Export.
const (
	FormatCSV = "csv"
	FormatPDF = "pdf"
	FormatICS = "ics"
)

// ExportFile is a rendered agenda ready to be streamed.
type ExportFile struct {
	Filename    string
	ContentType string
	Body        []byte
}

// CalendarService resolves windows and materializes grids and agendas.
type CalendarService struct {
	events    eventLister
	clock     calendar.Clock
	loc       *time.Location
	renderers map[string]agendaRenderer
	store     exportStore
	signer    linkSigner
	logger    *zap.Logger
}

// NewCalendarService constructs the service. clock defaults to the system clock.
func NewCalendarService(events eventLister, clock calendar.Clock, loc *time.Location, logger *zap.Logger) *CalendarService {
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = calendar.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		events: events,
		clock:  calendar.ZonedClock(clock, loc),
		loc:    loc,
		renderers: map[string]agendaRenderer{
			FormatCSV: export.NewCSVExporter(),
			FormatPDF: export.NewPDFExporter(),
			FormatICS: export.NewICSExporter("", ""),
		},
		logger: logger,
	}
}

// Window parses the reference date and granularity of a view request. An
// empty date means today and an empty granularity means week.
func (s *CalendarService) Window(rawDate, rawGranularity string) (calendar.Range, calendar.Granularity, error) {
	g := calendar.GranularityWeek
	if strings.TrimSpace(rawGranularity) != "" {
		parsed, err := calendar.ParseGranularity(rawGranularity)
		if err != nil {
			return calendar.Range{}, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "granularity must be day, week or month")
		}
		g = parsed
	}
	ref := s.clock.Now()
	if strings.TrimSpace(rawDate) != "" {
		parsed, err := calendar.ParseBoundary(rawDate, s.loc)
		if err != nil {
			return calendar.Range{}, "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
		}
		ref = parsed
	}
	return calendar.ResolveRange(ref, g), g, nil
}

// View returns the materialized grid for the window around rawDate. The bool
// reports whether the occurrences came from cache.
func (s *CalendarService) View(ctx context.Context, rawDate, rawGranularity string) (*dto.CalendarView, bool, error) {
	window, g, err := s.Window(rawDate, rawGranularity)
	if err != nil {
		return nil, false, err
	}
	list, hit, err := s.events.List(ctx, window.Start, window.End)
	if err != nil {
		return nil, false, err
	}
	view := &dto.CalendarView{
		Granularity: g,
		Range:       window,
		Previous:    calendar.Step(window.Start, g, -1).Format("2006-01-02"),
		Next:        calendar.Step(window.Start, g, 1).Format("2006-01-02"),
		Grid:        calendar.Materialize(list.Events, window, g, s.clock),
		Styles:      calendar.Palette(),
	}
	return view, hit, nil
}

// Export renders the occurrences of the window as csv, pdf or ics.
func (s *CalendarService) Export(ctx context.Context, rawDate, rawGranularity, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
	window, g, err := s.Window(rawDate, rawGranularity)
	if err != nil {
		return nil, err
	}
	list, _, err := s.events.List(ctx, window.Start, window.End)
	if err != nil {
		return nil, err
	}

	agenda := s.agenda(list.Events, window, g)
	body, err := renderer.Render(agenda)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("calendar exported",
		zap.String("format", format),
		zap.String("granularity", string(g)),
		zap.Int("events", len(agenda.Entries)))
	return &ExportFile{
		Filename:    fmt.Sprintf("petcal-%s-%s.%s", g, window.Start.Format("2006-01-02"), renderer.Extension()),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// WithSharing enables Share and OpenShared.
func (s *CalendarService) WithSharing(store exportStore, signer linkSigner) *CalendarService {
	s.store = store
	s.signer = signer
	return s
}

// Share renders an export, stores the snapshot and returns a signed token
// that grants read access to it until the token expires.
func (s *CalendarService) Share(ctx context.Context, rawDate, rawGranularity, format string) (*dto.SharedExport, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export sharing is not configured")
	}
	file, err := s.Export(ctx, rawDate, rawGranularity, format)
	if err != nil {
		return nil, err
	}
	name := path.Join(uuid.NewString(), file.Filename)
	if err := s.store.Save(name, file.Body); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("calendar export shared", zap.String("file", name), zap.Time("expires_at", expiresAt))
	return &dto.SharedExport{
		Token:     token,
		Filename:  file.Filename,
		Format:    strings.TrimPrefix(path.Ext(file.Filename), "."),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenShared returns the snapshot behind token. Invalid, expired and
// cleaned-up links all read as not found.
func (s *CalendarService) OpenShared(token string) (*ExportFile, error) {
	if s.store == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "export sharing is not configured")
	}
	name, _, err := s.signer.Verify(token)
	if err != nil {
		s.logger.Debug("shared export rejected", zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "shared export not found or expired")
	}
	body, err := s.store.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, storage.ErrInvalidName) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "shared export not found or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read export")
	}
	filename := path.Base(name)
	return &ExportFile{Filename: filename, ContentType: s.contentType(path.Ext(filename)), Body: body}, nil
}

func (s *CalendarService) contentType(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	for _, r := range s.renderers {
		if r.Extension() == ext {
			return r.ContentType()
		}
	}
	return "application/octet-stream"
}

func (s *CalendarService) agenda(events []models.Event, window calendar.Range, g calendar.Granularity) export.Agenda {
	agenda := export.Agenda{
		Title:    fmt.Sprintf("Pet calendar (%s)", g),
		Start:    window.Start,
		End:      window.End,
		Location: s.loc,
		Entries:  make([]export.Entry, 0, len(events)),
	}
	for _, ev := range events {
		style := calendar.StyleFor(ev.Type)
		entry := export.Entry{
			ID:    ev.ID,
			Title: ev.Title,
			Type:  style.Label,
			Color: style.Color,
			Start: ev.StartDate,
			End:   ev.EffectiveEnd(),
			Done:  ev.IsDone,
			Notes: ev.Notes,
		}
		for _, p := range ev.Pets {
			name := p.Name
			if name == "" {
				name = p.ID
			}
			entry.Pets = append(entry.Pets, name)
		}
		if ev.IsRecurring && ev.Recurrence != nil {
			if rule, err := recurrence.RRuleValue(*ev.Recurrence, ev.StartDate); err == nil {
				entry.Recurrence = rule
			}
		}
		agenda.Entries = append(agenda.Entries, entry)
	}
	return agenda
}
