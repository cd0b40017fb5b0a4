package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/petcal-api/internal/calendar"
	"github.com/noah-isme/petcal-api/pkg/jobs"
)

const (
	// JobCacheWarm rebuilds the cached windows around today.
	JobCacheWarm = "calendar.cache_warm"
	// JobExportCleanup removes shared export snapshots whose links expired.
	JobExportCleanup = "calendar.export_cleanup"
)

type jobQueue interface {
	Register(jobType string, handler jobs.Handler)
	Enqueue(job jobs.Job) error
}

type cacheWarmer interface {
	InvalidateCache(ctx context.Context) error
	eventLister
}

type exportJanitor interface {
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// MaintenanceConfig schedules the background jobs. Export cleanup only runs
// when a janitor is attached with WithExportCleanup.
type MaintenanceConfig struct {
	CacheWarmSpec     string
	ExportCleanupSpec string
	ExportRetention   time.Duration
	Granularities     []calendar.Granularity
}

// MaintenanceService schedules cache warming and export cleanup on a cron and
// runs them on the job queue.
type MaintenanceService struct {
	events  cacheWarmer
	exports exportJanitor
	queue   jobQueue
	clock   calendar.Clock
	metrics *MetricsService
	logger  *zap.Logger
	cfg     MaintenanceConfig

	mu   sync.Mutex
	cron *cron.Cron
}

// NewMaintenanceService registers the job handlers on queue.
func NewMaintenanceService(events cacheWarmer, queue jobQueue, clock calendar.Clock, metrics *MetricsService, logger *zap.Logger, cfg MaintenanceConfig) *MaintenanceService {
	if clock == nil {
		clock = calendar.SystemClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Granularities) == 0 {
		cfg.Granularities = []calendar.Granularity{calendar.GranularityWeek, calendar.GranularityMonth}
	}
	if cfg.ExportRetention <= 0 {
		cfg.ExportRetention = 24 * time.Hour
	}
	svc := &MaintenanceService{events: events, queue: queue, clock: clock, metrics: metrics, logger: logger, cfg: cfg}
	queue.Register(JobCacheWarm, svc.handleCacheWarm)
	queue.Register(JobExportCleanup, svc.handleExportCleanup)
	return svc
}

// WithExportCleanup attaches the store whose expired snapshots are removed.
func (s *MaintenanceService) WithExportCleanup(exports exportJanitor) *MaintenanceService {
	s.exports = exports
	return s
}

// Start begins the cron schedule. Jobs without a spec are not scheduled.
func (s *MaintenanceService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}
	schedule := map[string]string{}
	if s.cfg.CacheWarmSpec != "" {
		schedule[JobCacheWarm] = s.cfg.CacheWarmSpec
	}
	if s.cfg.ExportCleanupSpec != "" && s.exports != nil {
		schedule[JobExportCleanup] = s.cfg.ExportCleanupSpec
	}
	if len(schedule) == 0 {
		return nil
	}

	c := cron.New()
	for jobType, spec := range schedule {
		if _, err := c.AddFunc(spec, func() {
			if err := s.queue.Enqueue(jobs.Job{Type: jobType}); err != nil {
				s.logger.Warn("enqueue maintenance job failed", zap.String("job_type", jobType), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule %s %q: %w", jobType, spec, err)
		}
	}
	c.Start()
	s.cron = c
	s.logger.Info("maintenance scheduled",
		zap.String("cache_warm", schedule[JobCacheWarm]),
		zap.String("export_cleanup", schedule[JobExportCleanup]))
	return nil
}

// Stop halts the schedule and waits for a running trigger to return.
func (s *MaintenanceService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

// EnqueueCacheWarm schedules an immediate warm-up.
func (s *MaintenanceService) EnqueueCacheWarm() error {
	return s.queue.Enqueue(jobs.Job{Type: JobCacheWarm})
}

// WarmCache drops every cached window and reloads the windows around today.
func (s *MaintenanceService) WarmCache(ctx context.Context) error {
	if err := s.events.InvalidateCache(ctx); err != nil {
		return fmt.Errorf("invalidate cache: %w", err)
	}
	today := s.clock.Now()
	for _, g := range s.cfg.Granularities {
		window := calendar.ResolveRange(today, g)
		list, _, err := s.events.List(ctx, window.Start, window.End)
		if err != nil {
			return fmt.Errorf("warm %s window: %w", g, err)
		}
		s.logger.Debug("cache warmed",
			zap.String("granularity", string(g)),
			zap.String("start", calendar.FormatBoundary(window.Start)),
			zap.Int("events", len(list.Events)))
	}
	return nil
}

func (s *MaintenanceService) handleCacheWarm(ctx context.Context, job jobs.Job) error {
	err := s.WarmCache(ctx)
	s.metrics.RecordJob(job.Type, err)
	if err != nil {
		s.logger.Error("cache warm failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
	}
	return err
}

// CleanupExports removes snapshots older than the configured retention.
func (s *MaintenanceService) CleanupExports() (int, error) {
	if s.exports == nil {
		return 0, nil
	}
	deleted, err := s.exports.CleanupOlderThan(s.cfg.ExportRetention)
	if err != nil {
		return 0, fmt.Errorf("cleanup exports: %w", err)
	}
	return len(deleted), nil
}

func (s *MaintenanceService) handleExportCleanup(_ context.Context, job jobs.Job) error {
	removed, err := s.CleanupExports()
	s.metrics.RecordJob(job.Type, err)
	if err != nil {
		s.logger.Error("export cleanup failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}
	s.logger.Info("shared exports cleaned up", zap.Int("removed", removed))
	return nil
}
