package gameservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	gameevents "github.com/guildmint/gamecenter-bot/app/modules/game/domain/events"
	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// CancelGame tears a game down from any non-terminal state and refunds every
// participant what they paid in. The status claim is atomic; the refunds are
// deliberately NOT one transaction. Each participant refunds in its own
// transaction so one poisoned wallet row cannot hold everyone else's money
// hostage, and the outcome reports how many refunds landed so callers can
// reconcile the shortfall.
func (s *GameService) CancelGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.CancelOutcome, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	result, err := withTelemetry(s, ctx, "CancelGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*gametypes.CancelOutcome, *gametypes.GameError], error) {
		return s.cancelGameLogic(ctx, gameID)
	})

	outcome, err := unwrapResult(result, err)
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil {
		if cancelErr := s.scheduler.CancelExpiry(ctx, gameID); cancelErr != nil {
			s.logger.WarnContext(ctx, "Failed to cancel game expiry",
				attr.ExtractCorrelationID(ctx),
				attr.GameID("game_id", gameID),
				attr.Error(cancelErr),
			)
		}
	}

	s.publishEvent(ctx, gameevents.GameCancelled, gameevents.GameCancelledPayload{
		GuildID:          outcome.Game.GuildID,
		GameID:           outcome.Game.ID,
		RefundedCount:    outcome.RefundedCount,
		ParticipantCount: outcome.ParticipantCount,
	})
	return outcome, nil
}

// cancelGameLogic contains the core logic. It intentionally runs outside a
// wrapping transaction; see CancelGame.
func (s *GameService) cancelGameLogic(ctx context.Context, gameID sharedtypes.GameID) (results.OperationResult[*gametypes.CancelOutcome, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*gametypes.CancelOutcome, *gametypes.GameError], error) {
		return results.FailureResult[*gametypes.CancelOutcome, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*gametypes.CancelOutcome, *gametypes.GameError], error) {
		return results.OperationResult[*gametypes.CancelOutcome, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, nil, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status.Terminal() {
		return failure(gametypes.NewGameAlreadyFinished())
	}

	moved, err := s.games.UpdateStatusIf(ctx, nil, gameID, gametypes.StatusCancelled, gametypes.NonTerminalStatuses()...)
	if err != nil {
		return infra(err)
	}
	if !moved {
		return failure(gametypes.NewGameAlreadyFinished())
	}
	now := time.Now()
	game.Status = gametypes.StatusCancelled
	game.FinishedAt = &now

	participants, err := s.participants.ListByGame(ctx, nil, gameID)
	if err != nil {
		return infra(err)
	}

	refunded := 0
	for _, p := range participants {
		if p.Status == gametypes.ParticipantRefunded || p.Status == gametypes.ParticipantRewarded {
			continue
		}
		if err := s.refundParticipant(ctx, game, p, now); err != nil {
			s.logger.ErrorContext(ctx, "Failed to refund participant",
				attr.ExtractCorrelationID(ctx),
				attr.GameID("game_id", gameID),
				attr.UserID("user_id", p.UserID),
				attr.Error(err),
			)
			continue
		}
		refunded++
	}

	return results.SuccessResult[*gametypes.CancelOutcome, *gametypes.GameError](&gametypes.CancelOutcome{
		Game:             game,
		RefundedCount:    refunded,
		ParticipantCount: len(participants),
	}), nil
}

// refundParticipant returns one participant's stake in its own transaction.
func (s *GameService) refundParticipant(ctx context.Context, game *gametypes.Game, p *gametypes.Participant, now time.Time) error {
	refund := func(ctx context.Context, db bun.IDB) error {
		if p.EntryFeePaid > 0 {
			if _, err := s.wallet.AdjustBalance(ctx, db, game.GuildID, p.UserID, p.EntryFeePaid, wallettypes.OperationAdd); err != nil {
				return fmt.Errorf("failed to credit refund: %w", err)
			}
			if err := s.games.AddToPool(ctx, db, game.ID, -p.EntryFeePaid); err != nil {
				return err
			}
			if err := s.wallet.Record(ctx, db, &wallettypes.LedgerEntry{
				GuildID:       game.GuildID,
				UserID:        p.UserID,
				Amount:        p.EntryFeePaid,
				Category:      wallettypes.CategoryGameCancel,
				RelatedGameID: &game.ID,
				Description:   "refund for cancelled " + game.Title,
			}); err != nil {
				return err
			}
		}
		return s.participants.MarkRefunded(ctx, db, p.ID, now)
	}

	if s.db == nil {
		if err := refund(ctx, nil); err != nil {
			return err
		}
	} else if err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		return refund(ctx, tx)
	}); err != nil {
		return err
	}
	p.Status = gametypes.ParticipantRefunded
	p.SettledAt = &now
	return nil
}
