package gametypes

import (
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// CategoryConfig is the slice of a game category the reward resolution needs.
type CategoryConfig struct {
	RankRewards    sharedtypes.RankRewards
	WinnerTakesAll *bool // nil means true: categories default to winner-takes-all
}

// GuildDefaults are the guild-wide fallbacks from the guild's game settings.
type GuildDefaults struct {
	EntryFee    sharedtypes.Amount
	RankRewards sharedtypes.RankRewards
}

// ResolveRewardTable picks the effective rank-reward table for a game, in
// strict priority order: per-game table, per-game winner-takes-all flag,
// category table, category winner-takes-all (2-team games only), guild
// defaults. It is evaluated at settlement time, not at creation time, so
// settings edits made while a game is in flight affect its payout.
func ResolveRewardTable(game *Game, category *CategoryConfig, defaults GuildDefaults) sharedtypes.RankRewards {
	if len(game.CustomRankRewards) > 0 {
		return game.CustomRankRewards
	}
	if game.CustomWinnerTakesAll != nil && *game.CustomWinnerTakesAll && game.TeamCount == 2 {
		return sharedtypes.WinnerTakesAll()
	}
	if category != nil {
		if len(category.RankRewards) > 0 {
			return category.RankRewards
		}
		if game.TeamCount == 2 && (category.WinnerTakesAll == nil || *category.WinnerTakesAll) {
			return sharedtypes.WinnerTakesAll()
		}
	}
	return defaults.RankRewards
}

// Payout is the computed settlement for one reported team.
type Payout struct {
	TeamNumber sharedtypes.TeamNumber
	Rank       int
	// PercentBP is the team's normalized share of the pool in basis points
	// (1/100 of a percent), kept for the audit trail.
	PercentBP  int64
	TeamReward sharedtypes.Amount
}

// ComputePayouts normalizes the reward table over the ranks actually
// reported and returns a payout for every team whose rank carries a positive
// share. Only reported ranks participate: their raw percentages are rescaled
// to sum to 100%, preserving their relative ratios, so the pool is paid out
// in full even when fewer ranks are reported than the table defines.
//
// All arithmetic is integer. A team's reward is
// floor(pool * raw[rank] / sum(raw over reported ranks)), which is exact and
// equivalent to applying the normalized percentage.
func ComputePayouts(pool sharedtypes.Amount, table sharedtypes.RankRewards, ranking []TeamRank) []Payout {
	var sum int64
	for _, tr := range ranking {
		sum += table[tr.Rank]
	}
	if sum <= 0 {
		return nil
	}

	payouts := make([]Payout, 0, len(ranking))
	for _, tr := range ranking {
		raw := table[tr.Rank]
		if raw <= 0 {
			continue
		}
		payouts = append(payouts, Payout{
			TeamNumber: tr.TeamNumber,
			Rank:       tr.Rank,
			PercentBP:  raw * 10000 / sum,
			TeamReward: sharedtypes.Amount(int64(pool) * raw / sum),
		})
	}
	return payouts
}

// SplitReward divides a team's reward evenly among its members, truncating
// toward zero. The remainder of the integer division is not redistributed;
// those minor units stay out of circulation permanently. Zero members yields
// zero.
func SplitReward(teamReward sharedtypes.Amount, memberCount int) sharedtypes.Amount {
	if memberCount <= 0 {
		return 0
	}
	return teamReward / sharedtypes.Amount(memberCount)
}
