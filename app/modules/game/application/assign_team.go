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

// AssignTeam places a batch of users on a team. The prospective team size is
// existing members plus the deduplicated newcomers; exceeding the cap rejects
// the whole batch with TEAM_FULL before anyone is placed. The first
// assignment moves the game from open to team_assign; no one can join after
// that. Users already on the target team count as members, not newcomers.
func (s *GameService) AssignTeam(ctx context.Context, gameID sharedtypes.GameID, team sharedtypes.TeamNumber, userIDs []sharedtypes.UserID) ([]*gametypes.Participant, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	assignTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[[]*gametypes.Participant, *gametypes.GameError], error) {
		return s.assignTeamLogic(ctx, db, gameID, team, userIDs)
	}

	result, err := withTelemetry(s, ctx, "AssignTeam", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[[]*gametypes.Participant, *gametypes.GameError], error) {
		return runInTx(s, ctx, assignTx)
	})
	return unwrapResult(result, err)
}

// UnassignTeam clears the user's placement. The game stays in team_assign;
// the roster does not reopen.
func (s *GameService) UnassignTeam(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	unassignTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return s.unassignTeamLogic(ctx, db, gameID, userID)
	}

	result, err := withTelemetry(s, ctx, "UnassignTeam", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return runInTx(s, ctx, unassignTx)
	})
	return unwrapResult(result, err)
}

// assignTeamLogic contains the core logic. Every check runs before the first
// write so a rejected batch leaves no participant placed and the status
// untouched.
func (s *GameService) assignTeamLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, team sharedtypes.TeamNumber, userIDs []sharedtypes.UserID) (results.OperationResult[[]*gametypes.Participant, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[[]*gametypes.Participant, *gametypes.GameError], error) {
		return results.FailureResult[[]*gametypes.Participant, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[[]*gametypes.Participant, *gametypes.GameError], error) {
		return results.OperationResult[[]*gametypes.Participant, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status != gametypes.StatusOpen && game.Status != gametypes.StatusTeamAssign {
		return failure(gametypes.NewGameNotOpen())
	}

	if team < 1 || int(team) > game.TeamCount {
		return failure(gametypes.NewInvalidTeamNumber(team))
	}

	seen := make(map[sharedtypes.UserID]bool, len(userIDs))
	batch := make([]sharedtypes.UserID, 0, len(userIDs))
	for _, u := range userIDs {
		if !seen[u] {
			seen[u] = true
			batch = append(batch, u)
		}
	}

	participants := make([]*gametypes.Participant, 0, len(batch))
	newcomers := 0
	for _, u := range batch {
		p, err := s.participants.GetByGameAndUser(ctx, db, gameID, u)
		if err != nil {
			if errors.Is(err, gamedb.ErrNotFound) {
				return failure(gametypes.NewNotParticipant(u))
			}
			return infra(err)
		}
		if p.TeamNumber == nil || *p.TeamNumber != team {
			newcomers++
		}
		participants = append(participants, p)
	}

	if game.MaxPlayersPerTeam != nil && newcomers > 0 {
		current, err := s.participants.CountByTeam(ctx, db, gameID, team)
		if err != nil {
			return infra(err)
		}
		if current+newcomers > *game.MaxPlayersPerTeam {
			return failure(gametypes.NewTeamFull(team, *game.MaxPlayersPerTeam, current))
		}
	}

	if game.Status == gametypes.StatusOpen {
		moved, err := s.games.UpdateStatusIf(ctx, db, gameID, gametypes.StatusTeamAssign, gametypes.StatusOpen)
		if err != nil {
			return infra(err)
		}
		if !moved {
			return infra(fmt.Errorf("game %d changed status during assignment", gameID))
		}
	}

	for _, p := range participants {
		updated, err := s.participants.SetTeam(ctx, db, gameID, p.UserID, &team)
		if err != nil {
			return infra(err)
		}
		if !updated {
			return infra(fmt.Errorf("participant %s vanished during assignment", p.UserID))
		}
		t := team
		p.TeamNumber = &t
	}

	return results.SuccessResult[[]*gametypes.Participant, *gametypes.GameError](participants), nil
}

// unassignTeamLogic contains the core logic.
func (s *GameService) unassignTeamLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return results.FailureResult[*gametypes.Participant, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return results.OperationResult[*gametypes.Participant, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status != gametypes.StatusOpen && game.Status != gametypes.StatusTeamAssign {
		return failure(gametypes.NewGameNotOpen())
	}

	participant, err := s.participants.GetByGameAndUser(ctx, db, gameID, userID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewNotParticipant(userID))
		}
		return infra(err)
	}

	updated, err := s.participants.SetTeam(ctx, db, gameID, userID, nil)
	if err != nil {
		return infra(err)
	}
	if !updated {
		return infra(fmt.Errorf("participant %s vanished during unassignment", userID))
	}
	participant.TeamNumber = nil

	return results.SuccessResult[*gametypes.Participant, *gametypes.GameError](participant), nil
}
