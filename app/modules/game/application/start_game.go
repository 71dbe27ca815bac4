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

// StartGame locks the roster and begins play. Every participant must be on a
// team; otherwise the operation fails with UNASSIGNED_PARTICIPANTS and the
// count of stragglers.
func (s *GameService) StartGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.Game, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	startTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*startOutcome, *gametypes.GameError], error) {
		return s.startGameLogic(ctx, db, gameID)
	}

	result, err := withTelemetry(s, ctx, "StartGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*startOutcome, *gametypes.GameError], error) {
		return runInTx(s, ctx, startTx)
	})

	outcome, err := unwrapResult(result, err)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, gameevents.GameStarted, gameevents.GameStartedPayload{
		GuildID:      outcome.game.GuildID,
		GameID:       outcome.game.ID,
		Participants: outcome.participantCount,
	})
	return outcome.game, nil
}

type startOutcome struct {
	game             *gametypes.Game
	participantCount int
}

// startGameLogic contains the core logic.
func (s *GameService) startGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (results.OperationResult[*startOutcome, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*startOutcome, *gametypes.GameError], error) {
		return results.FailureResult[*startOutcome, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*startOutcome, *gametypes.GameError], error) {
		return results.OperationResult[*startOutcome, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status.Terminal() {
		return failure(gametypes.NewGameAlreadyFinished())
	}
	if game.Status != gametypes.StatusOpen && game.Status != gametypes.StatusTeamAssign {
		return failure(gametypes.NewGameNotOpen())
	}

	participants, err := s.participants.ListByGame(ctx, db, gameID)
	if err != nil {
		return infra(err)
	}
	unassigned := 0
	for _, p := range participants {
		if !p.Assigned() {
			unassigned++
		}
	}
	if unassigned > 0 {
		return failure(gametypes.NewUnassignedParticipants(unassigned))
	}

	moved, err := s.games.UpdateStatusIf(ctx, db, gameID, gametypes.StatusInProgress, gametypes.StatusOpen, gametypes.StatusTeamAssign)
	if err != nil {
		return infra(err)
	}
	if !moved {
		return failure(gametypes.NewGameNotOpen())
	}
	game.Status = gametypes.StatusInProgress

	if err := s.participants.MarkAllAssigned(ctx, db, gameID); err != nil {
		return infra(err)
	}

	return results.SuccessResult[*startOutcome, *gametypes.GameError](&startOutcome{
		game:             game,
		participantCount: len(participants),
	}), nil
}
