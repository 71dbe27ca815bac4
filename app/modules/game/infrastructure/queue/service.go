package gamequeue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Metrics records queue operation telemetry.
type Metrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
}

// QueueService schedules and cancels deferred game jobs.
type QueueService interface {
	ScheduleExpiry(ctx context.Context, gameID sharedtypes.GameID, at time.Time) error
	CancelExpiry(ctx context.Context, gameID sharedtypes.GameID) error
	GetScheduledJobs(ctx context.Context, gameID sharedtypes.GameID) ([]JobInfo, error)
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Ensure Service implements QueueService
var _ QueueService = (*Service)(nil)

// Service handles job scheduling for the game module using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	db      *bun.DB
	metrics Metrics
}

// NewService creates a new River-based queue service for game expiry.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, metrics Metrics, canceller Canceller) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_game_queue_service"),
		attr.String("component", "river_queue"),
	)

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", "river")

	ctxLogger.Info("Initializing game queue service")

	// River requires pgx, not database/sql.
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		ctxLogger.Error("Failed to parse DSN for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		ctxLogger.Error("Failed to create pgx pool for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		ctxLogger.Error("Failed to ping database for River", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewGameExpiryWorker(ctxLogger, canceller))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 50},
			"game":             {MaxWorkers: 25},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		ctxLogger.Error("Failed to create River client", attr.Error(err))
		metrics.RecordOperationFailure(ctx, "initialize_service", "river")
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	service := &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		db:      bunDB,
		metrics: metrics,
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", "river")
	metrics.RecordOperationDuration(ctx, "initialize_service", "river", time.Since(start))

	ctxLogger.Info("Game queue service initialized successfully")
	return service, nil
}

// Start starts the River queue service.
func (s *Service) Start(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "start_service", "river")

	s.logger.Info("Starting game queue service")

	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", "river")
		return fmt.Errorf("failed to start River client: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "start_service", "river")
	s.metrics.RecordOperationDuration(ctx, "start_service", "river", time.Since(start))

	s.logger.Info("Game queue service started successfully")
	return nil
}

// Stop stops the River queue service and releases the pgx pool.
func (s *Service) Stop(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "stop_service", "river")

	s.logger.Info("Stopping game queue service")

	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", "river")
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()

	s.metrics.RecordOperationSuccess(ctx, "stop_service", "river")
	s.metrics.RecordOperationDuration(ctx, "stop_service", "river", time.Since(start))

	s.logger.Info("Game queue service stopped successfully")
	return nil
}

// ScheduleExpiry schedules the auto-cancellation of a game at the given time.
func (s *Service) ScheduleExpiry(ctx context.Context, gameID sharedtypes.GameID, at time.Time) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "schedule_expiry", "river")

	ctxLogger := s.logger.With(
		attr.GameID("game_id", gameID),
		attr.Time("expire_at", at),
		attr.String("operation", "schedule_expiry"),
	)

	ctxLogger.Info("Scheduling game expiry job")

	now := time.Now()
	if at.Before(now.Add(5 * time.Second)) {
		at = now.Add(5 * time.Second)
	}

	jobResult, err := s.client.Insert(ctx, GameExpiryJob{GameID: gameID}, &river.InsertOpts{
		Queue:       "game",
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true, // one expiry per game
		},
	})
	if err != nil {
		ctxLogger.Error("Failed to schedule game expiry job", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "schedule_expiry", "river")
		return fmt.Errorf("failed to schedule game expiry job: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "schedule_expiry", "river")
	s.metrics.RecordOperationDuration(ctx, "schedule_expiry", "river", time.Since(start))

	ctxLogger.Info("Game expiry job scheduled successfully",
		attr.Duration("delay", at.Sub(now)),
		attr.Int64("job_id", jobResult.Job.ID))
	return nil
}

// CancelExpiry cancels any pending expiry jobs for the game.
func (s *Service) CancelExpiry(ctx context.Context, gameID sharedtypes.GameID) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "cancel_expiry", "river")

	ctxLogger := s.logger.With(
		attr.GameID("game_id", gameID),
		attr.String("operation", "cancel_expiry"),
	)

	type RiverJobRow struct {
		ID   int64  `bun:"id"`
		Kind string `bun:"kind"`
	}

	var jobs []RiverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind").
		Where("kind = ?", GameExpiryJob{}.Kind()).
		Where("state IN (?, ?)", "available", "scheduled").
		Where("(args->>'game_id')::bigint = ?", int64(gameID)).
		Scan(ctx, &jobs)
	if err != nil {
		ctxLogger.Error("Failed to query jobs for cancellation", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "cancel_expiry", "river")
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	cancelledCount := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			ctxLogger.Warn("Failed to cancel job",
				attr.Int64("job_id", job.ID),
				attr.Error(err))
			continue
		}
		cancelledCount++
	}

	if cancelledCount == len(jobs) {
		s.metrics.RecordOperationSuccess(ctx, "cancel_expiry", "river")
	} else {
		s.metrics.RecordOperationFailure(ctx, "cancel_expiry", "river")
	}
	s.metrics.RecordOperationDuration(ctx, "cancel_expiry", "river", time.Since(start))

	ctxLogger.Info("Expiry cancellation completed",
		attr.Int("total_found", len(jobs)),
		attr.Int("cancelled_count", cancelledCount))
	return nil
}

// GetScheduledJobs returns information about scheduled jobs for a game (for debugging).
func (s *Service) GetScheduledJobs(ctx context.Context, gameID sharedtypes.GameID) ([]JobInfo, error) {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "get_scheduled_jobs", "river")

	type RiverJobRow struct {
		ID          int64      `bun:"id"`
		Kind        string     `bun:"kind"`
		State       string     `bun:"state"`
		ScheduledAt *time.Time `bun:"scheduled_at"`
		CreatedAt   time.Time  `bun:"created_at"`
		Attempt     int16      `bun:"attempt"`
		MaxAttempts int16      `bun:"max_attempts"`
	}

	var jobs []RiverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind", "state", "scheduled_at", "created_at", "attempt", "max_attempts").
		Where("kind = ?", GameExpiryJob{}.Kind()).
		Where("(args->>'game_id')::bigint = ?", int64(gameID)).
		Order("scheduled_at ASC NULLS LAST", "created_at ASC").
		Scan(ctx, &jobs)
	if err != nil {
		s.logger.Error("Failed to query scheduled jobs", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "get_scheduled_jobs", "river")
		return nil, fmt.Errorf("failed to query scheduled jobs: %w", err)
	}

	result := make([]JobInfo, len(jobs))
	for i, job := range jobs {
		scheduledAt := ""
		if job.ScheduledAt != nil {
			scheduledAt = job.ScheduledAt.Format(time.RFC3339)
		}
		result[i] = JobInfo{
			ID:          job.ID,
			Kind:        job.Kind,
			GameID:      strconv.FormatInt(int64(gameID), 10),
			State:       job.State,
			ScheduledAt: scheduledAt,
			CreatedAt:   job.CreatedAt.Format(time.RFC3339),
			Attempt:     int(job.Attempt),
			MaxAttempts: int(job.MaxAttempts),
		}
	}

	s.metrics.RecordOperationSuccess(ctx, "get_scheduled_jobs", "river")
	s.metrics.RecordOperationDuration(ctx, "get_scheduled_jobs", "river", time.Since(start))
	return result, nil
}

// HealthCheck verifies the queue service is healthy.
func (s *Service) HealthCheck(ctx context.Context) error {
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, "health_check", "river")

	if s.client == nil {
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("river client is nil")
	}

	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		s.logger.Error("Queue service health check failed", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "health_check", "river")
		return fmt.Errorf("queue service health check failed: %w", err)
	}

	s.metrics.RecordOperationSuccess(ctx, "health_check", "river")
	s.metrics.RecordOperationDuration(ctx, "health_check", "river", time.Since(start))

	s.logger.Debug("Queue service health check passed", attr.Int("total_jobs", count))
	return nil
}

// GetClient returns the underlying River client for advanced operations.
func (s *Service) GetClient() *river.Client[pgx.Tx] {
	return s.client
}
