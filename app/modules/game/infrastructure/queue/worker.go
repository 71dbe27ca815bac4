package gamequeue

import (
	"context"
	"errors"
	"log/slog"

	"github.com/riverqueue/river"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Canceller is the slice of the game service the expiry worker needs.
type Canceller interface {
	CancelGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.CancelOutcome, error)
}

// GameExpiryWorker cancels stale games when their TTL job fires.
type GameExpiryWorker struct {
	river.WorkerDefaults[GameExpiryJob]
	logger    *slog.Logger
	canceller Canceller
}

// NewGameExpiryWorker creates a worker that expires games via the canceller.
func NewGameExpiryWorker(logger *slog.Logger, canceller Canceller) *GameExpiryWorker {
	return &GameExpiryWorker{logger: logger, canceller: canceller}
}

func (w *GameExpiryWorker) Work(ctx context.Context, job *river.Job[GameExpiryJob]) error {
	w.logger.InfoContext(ctx, "Expiring stale game",
		attr.GameID("game_id", job.Args.GameID),
	)

	outcome, err := w.canceller.CancelGame(ctx, job.Args.GameID)
	if err != nil {
		var ge *gametypes.GameError
		if errors.As(err, &ge) {
			switch ge.Code {
			case gametypes.CodeGameNotFound, gametypes.CodeGameAlreadyFinished:
				// The game resolved on its own before the TTL fired.
				w.logger.InfoContext(ctx, "Expiry job is a no-op",
					attr.GameID("game_id", job.Args.GameID),
					attr.String("code", string(ge.Code)),
				)
				return nil
			}
		}
		w.logger.ErrorContext(ctx, "Failed to expire game",
			attr.GameID("game_id", job.Args.GameID),
			attr.Error(err),
		)
		return err
	}

	w.logger.InfoContext(ctx, "Stale game cancelled",
		attr.GameID("game_id", job.Args.GameID),
		attr.Int("refunded", outcome.RefundedCount),
		attr.Int("participants", outcome.ParticipantCount),
	)
	return nil
}
