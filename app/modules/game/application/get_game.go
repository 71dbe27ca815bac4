package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// GetGame returns the full read model of one game: the row itself, its
// participants in join order, and any settlement results.
func (s *GameService) GetGame(ctx context.Context, gameID sharedtypes.GameID) (*GameOverview, error) {
	getTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*GameOverview, *gametypes.GameError], error) {
		return s.getGameLogic(ctx, db, gameID)
	}

	result, err := withTelemetry(s, ctx, "GetGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*GameOverview, *gametypes.GameError], error) {
		return runInTx(s, ctx, getTx)
	})
	return unwrapResult(result, err)
}

// getGameLogic contains the core logic.
func (s *GameService) getGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (results.OperationResult[*GameOverview, *gametypes.GameError], error) {
	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return results.FailureResult[*GameOverview, *gametypes.GameError](gametypes.NewGameNotFound()), nil
		}
		return results.OperationResult[*GameOverview, *gametypes.GameError]{}, fmt.Errorf("failed to get game: %w", err)
	}

	participants, err := s.participants.ListByGame(ctx, db, gameID)
	if err != nil {
		return results.OperationResult[*GameOverview, *gametypes.GameError]{}, err
	}
	settlementRows, err := s.results.ListByGame(ctx, db, gameID)
	if err != nil {
		return results.OperationResult[*GameOverview, *gametypes.GameError]{}, err
	}

	return results.SuccessResult[*GameOverview, *gametypes.GameError](&GameOverview{
		Game:         game,
		Participants: participants,
		Results:      settlementRows,
	}), nil
}
