package gameservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
)

// GameService implements the Service interface. Every mutating operation
// holds the per-game lock for its full duration, so operations on one game
// are strictly serialized while different games proceed in parallel.
type GameService struct {
	games        gamedb.GameRepository
	participants gamedb.ParticipantRepository
	results      gamedb.ResultRepository
	wallet       WalletPort
	settings     SettingsPort
	publisher    EventPublisher
	scheduler    ExpiryScheduler
	logger       *slog.Logger
	metrics      Metrics
	tracer       trace.Tracer
	db           *bun.DB

	// ExpiryTTL is how long a game may sit in a non-terminal state before the
	// sweeper cancels it. Zero disables scheduling.
	ExpiryTTL time.Duration

	locks gameLocks
}

// NewGameService creates a new GameService.
func NewGameService(
	games gamedb.GameRepository,
	participants gamedb.ParticipantRepository,
	resultRepo gamedb.ResultRepository,
	wallet WalletPort,
	settings SettingsPort,
	publisher EventPublisher,
	scheduler ExpiryScheduler,
	logger *slog.Logger,
	metrics Metrics,
	tracer trace.Tracer,
	db *bun.DB,
) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GameService{
		games:        games,
		participants: participants,
		results:      resultRepo,
		wallet:       wallet,
		settings:     settings,
		publisher:    publisher,
		scheduler:    scheduler,
		logger:       logger,
		metrics:      metrics,
		tracer:       tracer,
		db:           db,
	}
}

// SetExpiryScheduler wires the expiry queue in after construction. The queue
// and the service reference each other, so one side has to attach late.
func (s *GameService) SetExpiryScheduler(scheduler ExpiryScheduler, ttl time.Duration) {
	s.scheduler = scheduler
	s.ExpiryTTL = ttl
}

// gameLocks hands out one mutex per game ID. Entries are reference counted
// and removed once the last holder releases, so the map stays bounded by the
// number of games with in-flight operations.
type gameLocks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func (l *gameLocks) lock(gameID int64) func() {
	l.mu.Lock()
	if l.entries == nil {
		l.entries = make(map[int64]*lockEntry)
	}
	entry, ok := l.entries[gameID]
	if !ok {
		entry = &lockEntry{}
		l.entries[gameID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, gameID)
		}
		l.mu.Unlock()
	}
}

// lockGame serializes all mutations of one game. The returned func releases.
func (s *GameService) lockGame(gameID int64) func() {
	return s.locks.lock(gameID)
}

// publishEvent emits one lifecycle event; failures are logged but never fail
// the operation that already committed.
func (s *GameService) publishEvent(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to marshal event payload",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
		return
	}
	msg := message.NewMessage(uuid.NewString(), body)
	if id := attr.CorrelationIDFromContext(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	}
	if err := s.publisher.Publish(topic, msg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			attr.ExtractCorrelationID(ctx),
			attr.String("topic", topic),
			attr.Error(err),
		)
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any] func(ctx context.Context) (results.OperationResult[S, *gametypes.GameError], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any](
	s *GameService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S],
) (result results.OperationResult[S, *gametypes.GameError], err error) {

	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.ExtractCorrelationID(ctx), attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, *gametypes.GameError]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.String("code", string((*result.Failure).Code)),
		)
	}

	if result.IsSuccess() {
		s.logger.InfoContext(ctx, "Operation completed successfully",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any](
	s *GameService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, *gametypes.GameError], error),
) (results.OperationResult[S, *gametypes.GameError], error) {

	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, *gametypes.GameError]

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}

// unwrapResult collapses the telemetry-layer output into the public surface:
// infrastructure errors come back tagged REPOSITORY_ERROR, domain failures as
// their own *GameError.
func unwrapResult[S any](result results.OperationResult[S, *gametypes.GameError], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, gametypes.NewRepositoryError(err)
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
