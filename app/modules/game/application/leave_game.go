package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// LeaveGame withdraws the user and refunds exactly what they paid in, which
// may differ from the game's current fee if settings changed since they
// joined. Only open games can be left.
func (s *GameService) LeaveGame(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) error {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	leaveTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[struct{}, *gametypes.GameError], error) {
		return s.leaveGameLogic(ctx, db, gameID, userID)
	}

	result, err := withTelemetry(s, ctx, "LeaveGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[struct{}, *gametypes.GameError], error) {
		return runInTx(s, ctx, leaveTx)
	})
	_, err = unwrapResult(result, err)
	return err
}

// leaveGameLogic contains the core logic.
func (s *GameService) leaveGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (results.OperationResult[struct{}, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[struct{}, *gametypes.GameError], error) {
		return results.FailureResult[struct{}, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[struct{}, *gametypes.GameError], error) {
		return results.OperationResult[struct{}, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status != gametypes.StatusOpen {
		return failure(gametypes.NewGameNotOpen())
	}

	participant, err := s.participants.GetByGameAndUser(ctx, db, gameID, userID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewNotParticipant(userID))
		}
		return infra(err)
	}

	deleted, err := s.participants.Delete(ctx, db, gameID, userID)
	if err != nil {
		return infra(err)
	}
	if !deleted {
		return failure(gametypes.NewNotParticipant(userID))
	}

	if participant.EntryFeePaid > 0 {
		if _, err := s.wallet.AdjustBalance(ctx, db, game.GuildID, userID, participant.EntryFeePaid, wallettypes.OperationAdd); err != nil {
			return infra(fmt.Errorf("failed to refund entry fee: %w", err))
		}
		if err := s.games.AddToPool(ctx, db, gameID, -participant.EntryFeePaid); err != nil {
			return infra(err)
		}
		if err := s.wallet.Record(ctx, db, &wallettypes.LedgerEntry{
			GuildID:       game.GuildID,
			UserID:        userID,
			Amount:        participant.EntryFeePaid,
			Category:      wallettypes.CategoryGameRefund,
			RelatedGameID: &gameID,
			Description:   "left " + game.Title,
		}); err != nil {
			return infra(err)
		}
	}

	return results.SuccessResult[struct{}, *gametypes.GameError](struct{}{}), nil
}
