package gameservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	gameevents "github.com/guildmint/gamecenter-bot/app/modules/game/domain/events"
	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// CreateGame opens a new game. Defaults flow category-first: an explicit
// category supplies team shape and reward behavior, guild settings supply the
// entry fee, and per-call overrides beat both. The effective entry fee is
// frozen on the row at creation; the reward table is not (it resolves at
// settlement).
func (s *GameService) CreateGame(ctx context.Context, input CreateGameInput) (*gametypes.Game, error) {
	createTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return s.createGameLogic(ctx, db, input)
	}

	result, err := withTelemetry(s, ctx, "CreateGame", string(input.GuildID), func(ctx context.Context) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return runInTx(s, ctx, createTx)
	})

	game, err := unwrapResult(result, err)
	if err != nil {
		return nil, err
	}

	if s.scheduler != nil && s.ExpiryTTL > 0 {
		if schedErr := s.scheduler.ScheduleExpiry(ctx, game.ID, game.CreatedAt.Add(s.ExpiryTTL)); schedErr != nil {
			s.logger.ErrorContext(ctx, "Failed to schedule game expiry",
				attr.ExtractCorrelationID(ctx),
				attr.GameID("game_id", game.ID),
				attr.Error(schedErr),
			)
		}
	}

	s.publishEvent(ctx, gameevents.GameCreated, gameevents.GameCreatedPayload{
		GuildID:   game.GuildID,
		GameID:    game.ID,
		ChannelID: game.ChannelID,
		Title:     game.Title,
		EntryFee:  game.EntryFee,
		TeamCount: game.TeamCount,
		Status:    game.Status,
		CreatedBy: game.CreatedBy,
	})
	return game, nil
}

// createGameLogic contains the core logic.
func (s *GameService) createGameLogic(ctx context.Context, db bun.IDB, input CreateGameInput) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return results.FailureResult[*gametypes.Game, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*gametypes.Game, *gametypes.GameError], error) {
		return results.OperationResult[*gametypes.Game, *gametypes.GameError]{}, err
	}

	teamCount := input.TeamCount
	maxPerTeam := input.MaxPlayersPerTeam
	rankRewards := input.RankRewards
	winnerTakesAll := input.WinnerTakesAll

	if input.CategoryID != nil {
		category, err := s.settings.GetCategory(ctx, db, *input.CategoryID)
		if err != nil {
			if errors.Is(err, settingsdb.ErrNotFound) {
				return failure(gametypes.NewGameNotFound())
			}
			return infra(fmt.Errorf("failed to load category: %w", err))
		}
		if category.GuildID != input.GuildID || !category.Enabled {
			return failure(gametypes.NewGameNotFound())
		}
		if teamCount == 0 {
			teamCount = category.TeamCount
		}
		if maxPerTeam == nil {
			maxPerTeam = category.MaxPlayersPerTeam
		}
	}
	if teamCount == 0 {
		teamCount = 2
	}
	if teamCount < 2 {
		return failure(gametypes.NewInvalidTeamNumber(sharedtypes.TeamNumber(teamCount)))
	}
	if len(rankRewards) > 0 {
		rankRewards = rankRewards.Clone()
	}

	settings, err := s.settings.GetOrDefault(ctx, db, input.GuildID)
	if err != nil {
		return infra(fmt.Errorf("failed to load guild settings: %w", err))
	}
	entryFee := settings.EntryFee
	if input.EntryFee != nil {
		if *input.EntryFee < 0 {
			return infra(fmt.Errorf("entry fee must be non-negative, got %d", *input.EntryFee))
		}
		entryFee = *input.EntryFee
	}

	status := gametypes.StatusOpen
	if input.RequireApproval {
		status = gametypes.StatusPendingApproval
	}

	game := &gametypes.Game{
		GuildID:              input.GuildID,
		ChannelID:            input.ChannelID,
		CategoryID:           input.CategoryID,
		Title:                input.Title,
		TeamCount:            teamCount,
		EntryFee:             entryFee,
		Status:               status,
		MaxPlayersPerTeam:    maxPerTeam,
		CustomRankRewards:    rankRewards,
		CustomWinnerTakesAll: winnerTakesAll,
		CustomEntryFee:       input.EntryFee,
		CreatedBy:            input.CreatedBy,
		CreatedAt:            time.Now(),
	}
	if err := s.games.Create(ctx, db, game); err != nil {
		return infra(err)
	}

	return results.SuccessResult[*gametypes.Game, *gametypes.GameError](game), nil
}
