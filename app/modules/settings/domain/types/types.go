package settingstypes

import (
	"time"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Default guild-wide values applied when a guild has no settings row.
const DefaultEntryFee = sharedtypes.Amount(100)

// DefaultRankRewards is the out-of-the-box reward table.
func DefaultRankRewards() sharedtypes.RankRewards {
	return sharedtypes.RankRewards{1: 50, 2: 30, 3: 15, 4: 5}
}

// Settings are a guild's game-center defaults. Exactly one row per guild;
// absent rows behave as Default(guildID).
type Settings struct {
	GuildID     sharedtypes.GuildID     `json:"guild_id"`
	ChannelID   sharedtypes.ChannelID   `json:"channel_id"`
	MessageID   string                  `json:"message_id"`
	EntryFee    sharedtypes.Amount      `json:"entry_fee"`
	RankRewards sharedtypes.RankRewards `json:"rank_rewards"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Default returns the implicit settings for a guild with no stored row.
func Default(guildID sharedtypes.GuildID) *Settings {
	return &Settings{
		GuildID:     guildID,
		EntryFee:    DefaultEntryFee,
		RankRewards: DefaultRankRewards(),
	}
}

// Category is a guild-defined game template. Read-only to the engine at
// game-creation and settlement time; admin-managed otherwise.
type Category struct {
	ID                sharedtypes.CategoryID  `json:"id"`
	GuildID           sharedtypes.GuildID     `json:"guild_id"`
	Name              string                  `json:"name"`
	TeamCount         int                     `json:"team_count"`
	MaxPlayersPerTeam *int                    `json:"max_players_per_team"`
	RankRewards       sharedtypes.RankRewards `json:"rank_rewards,omitempty"`
	WinnerTakesAll    *bool                   `json:"winner_takes_all,omitempty"`
	Enabled           bool                    `json:"enabled"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
}
