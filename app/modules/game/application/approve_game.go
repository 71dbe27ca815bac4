package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"

	gameevents "github.com/guildmint/gamecenter-bot/app/modules/game/domain/events"
	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ApproveGame moves a pending game to open. Approving a game that is not
// pending fails with GAME_NOT_OPEN.
func (s *GameService) ApproveGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.Game, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	approveTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return s.approveGameLogic(ctx, db, gameID)
	}

	result, err := withTelemetry(s, ctx, "ApproveGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return runInTx(s, ctx, approveTx)
	})

	game, err := unwrapResult(result, err)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, gameevents.GameApproved, gameevents.GameApprovedPayload{
		GuildID: game.GuildID,
		GameID:  game.ID,
	})
	return game, nil
}

// approveGameLogic contains the core logic.
func (s *GameService) approveGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return results.FailureResult[*gametypes.Game, *gametypes.GameError](gametypes.NewGameNotFound()), nil
		}
		return results.OperationResult[*gametypes.Game, *gametypes.GameError]{}, fmt.Errorf("failed to get game: %w", err)
	}
	if game.Status != gametypes.StatusPendingApproval {
		return results.FailureResult[*gametypes.Game, *gametypes.GameError](gametypes.NewGameNotOpen()), nil
	}

	moved, err := s.games.UpdateStatusIf(ctx, db, gameID, gametypes.StatusOpen, gametypes.StatusPendingApproval)
	if err != nil {
		return results.OperationResult[*gametypes.Game, *gametypes.GameError]{}, err
	}
	if !moved {
		return results.FailureResult[*gametypes.Game, *gametypes.GameError](gametypes.NewGameNotOpen()), nil
	}
	game.Status = gametypes.StatusOpen

	return results.SuccessResult[*gametypes.Game, *gametypes.GameError](game), nil
}
