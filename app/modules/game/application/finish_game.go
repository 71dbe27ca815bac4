package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	gameevents "github.com/guildmint/gamecenter-bot/app/modules/game/domain/events"
	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// FinishGame settles an in-progress game against the reported ranking. The
// reward table is resolved now, not at creation, so settings edits made while
// the game ran take effect. Team rewards truncate on the per-member split;
// the remainder stays out of circulation. The whole settlement commits in one
// transaction guarded by the finished-status claim, so it runs at most once.
func (s *GameService) FinishGame(ctx context.Context, gameID sharedtypes.GameID, ranking []gametypes.TeamRank) (*gametypes.Settlement, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	finishTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*gametypes.Settlement, *gametypes.GameError], error) {
		return s.finishGameLogic(ctx, db, gameID, ranking)
	}

	result, err := withTelemetry(s, ctx, "FinishGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*gametypes.Settlement, *gametypes.GameError], error) {
		return runInTx(s, ctx, finishTx)
	})

	settlement, err := unwrapResult(result, err)
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

	rewards := make([]gameevents.TeamRewardPayload, 0, len(settlement.Results))
	for _, r := range settlement.Results {
		rewards = append(rewards, gameevents.TeamRewardPayload{
			TeamNumber: r.TeamNumber,
			Rank:       r.Rank,
			Reward:     r.TotalReward,
		})
	}
	finishedAt := time.Now()
	if settlement.Game.FinishedAt != nil {
		finishedAt = *settlement.Game.FinishedAt
	}
	s.publishEvent(ctx, gameevents.GameFinished, gameevents.GameFinishedPayload{
		GuildID:    settlement.Game.GuildID,
		GameID:     settlement.Game.ID,
		TotalPool:  settlement.Game.TotalPool,
		Rewards:    rewards,
		FinishedAt: finishedAt,
	})
	return settlement, nil
}

// finishGameLogic contains the core logic.
func (s *GameService) finishGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, ranking []gametypes.TeamRank) (results.OperationResult[*gametypes.Settlement, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*gametypes.Settlement, *gametypes.GameError], error) {
		return results.FailureResult[*gametypes.Settlement, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*gametypes.Settlement, *gametypes.GameError], error) {
		return results.OperationResult[*gametypes.Settlement, *gametypes.GameError]{}, err
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
	if game.Status != gametypes.StatusInProgress {
		return failure(gametypes.NewGameNotOpen())
	}

	seen := make(map[sharedtypes.TeamNumber]bool, len(ranking))
	for _, tr := range ranking {
		if tr.TeamNumber < 1 || int(tr.TeamNumber) > game.TeamCount || tr.Rank < 1 || seen[tr.TeamNumber] {
			return failure(gametypes.NewInvalidTeamNumber(tr.TeamNumber))
		}
		seen[tr.TeamNumber] = true
	}

	// Claim the terminal status first. Losing the claim means another
	// settlement or a cancellation won the race.
	moved, err := s.games.UpdateStatusIf(ctx, db, gameID, gametypes.StatusFinished, gametypes.StatusInProgress)
	if err != nil {
		return infra(err)
	}
	if !moved {
		return failure(gametypes.NewGameAlreadyFinished())
	}
	now := time.Now()
	game.Status = gametypes.StatusFinished
	game.FinishedAt = &now

	table, err := s.resolveRewardTable(ctx, db, game)
	if err != nil {
		return infra(err)
	}
	payouts := gametypes.ComputePayouts(game.TotalPool, table, ranking)

	participants, err := s.participants.ListByGame(ctx, db, gameID)
	if err != nil {
		return infra(err)
	}
	byTeam := make(map[sharedtypes.TeamNumber][]*gametypes.Participant)
	for _, p := range participants {
		if p.TeamNumber != nil && p.Status != gametypes.ParticipantRefunded {
			byTeam[*p.TeamNumber] = append(byTeam[*p.TeamNumber], p)
		}
	}

	paid := make(map[int64]bool, len(participants))
	settlementRows := make([]*gametypes.Result, 0, len(payouts))
	for _, payout := range payouts {
		members := byTeam[payout.TeamNumber]
		perMember := gametypes.SplitReward(payout.TeamReward, len(members))
		for _, member := range members {
			if perMember > 0 {
				if _, err := s.wallet.AdjustBalance(ctx, db, game.GuildID, member.UserID, perMember, wallettypes.OperationAdd); err != nil {
					return infra(fmt.Errorf("failed to credit reward: %w", err))
				}
				if err := s.wallet.Record(ctx, db, &wallettypes.LedgerEntry{
					GuildID:       game.GuildID,
					UserID:        member.UserID,
					Amount:        perMember,
					Category:      wallettypes.CategoryGameReward,
					RelatedGameID: &gameID,
					Description:   "reward for " + game.Title,
				}); err != nil {
					return infra(err)
				}
			}
			if err := s.participants.MarkRewarded(ctx, db, member.ID, perMember, now); err != nil {
				return infra(err)
			}
			member.Reward = perMember
			member.Status = gametypes.ParticipantRewarded
			paid[member.ID] = true
		}

		row := &gametypes.Result{
			GameID:          gameID,
			TeamNumber:      payout.TeamNumber,
			Rank:            payout.Rank,
			RewardPercentBP: payout.PercentBP,
			TotalReward:     payout.TeamReward,
			CreatedAt:       now,
		}
		if err := s.results.Insert(ctx, db, row); err != nil {
			return infra(err)
		}
		settlementRows = append(settlementRows, row)
	}

	// Stamp the empty-handed participants settled too.
	for _, p := range participants {
		if paid[p.ID] || p.Status == gametypes.ParticipantRefunded {
			continue
		}
		if err := s.participants.MarkRewarded(ctx, db, p.ID, 0, now); err != nil {
			return infra(err)
		}
		p.Status = gametypes.ParticipantRewarded
	}

	return results.SuccessResult[*gametypes.Settlement, *gametypes.GameError](&gametypes.Settlement{
		Game:    game,
		Results: settlementRows,
	}), nil
}

// resolveRewardTable gathers the category and guild inputs and delegates to
// the domain resolution.
func (s *GameService) resolveRewardTable(ctx context.Context, db bun.IDB, game *gametypes.Game) (sharedtypes.RankRewards, error) {
	var category *gametypes.CategoryConfig
	if game.CategoryID != nil {
		cat, err := s.settings.GetCategory(ctx, db, *game.CategoryID)
		if err != nil {
			// A category deleted mid-game falls through to guild defaults.
			if !errors.Is(err, settingsdb.ErrNotFound) {
				return nil, fmt.Errorf("failed to load category: %w", err)
			}
		} else {
			category = &gametypes.CategoryConfig{
				RankRewards:    cat.RankRewards,
				WinnerTakesAll: cat.WinnerTakesAll,
			}
		}
	}

	settings, err := s.settings.GetOrDefault(ctx, db, game.GuildID)
	if err != nil {
		return nil, fmt.Errorf("failed to load guild settings: %w", err)
	}

	return gametypes.ResolveRewardTable(game, category, gametypes.GuildDefaults{
		EntryFee:    settings.EntryFee,
		RankRewards: settings.RankRewards,
	}), nil
}
