package settingsdb

import (
	"time"

	"github.com/uptrace/bun"

	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// GameSettings is the per-guild defaults row.
type GameSettings struct {
	bun.BaseModel `bun:"table:game_settings,alias:gs"`

	GuildID     string        `bun:"guild_id,pk,notnull,type:varchar(20)"`
	ChannelID   string        `bun:"channel_id,nullzero,type:varchar(20)"`
	MessageID   string        `bun:"message_id,nullzero,type:varchar(20)"`
	EntryFee    int64         `bun:"entry_fee,notnull,default:100"`
	RankRewards map[int]int64 `bun:"rank_rewards,type:jsonb"`
	UpdatedAt   time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// GameCategory is a guild-defined game template row.
type GameCategory struct {
	bun.BaseModel `bun:"table:game_categories,alias:gc"`

	ID                int64         `bun:"id,pk,autoincrement"`
	GuildID           string        `bun:"guild_id,notnull,type:varchar(20)"`
	Name              string        `bun:"name,notnull"`
	TeamCount         int           `bun:"team_count,notnull"`
	MaxPlayersPerTeam *int          `bun:"max_players_per_team,nullzero"`
	RankRewards       map[int]int64 `bun:"rank_rewards,type:jsonb,nullzero"`
	WinnerTakesAll    *bool         `bun:"winner_takes_all,nullzero"`
	Enabled           bool          `bun:"enabled,notnull,default:true"`
	CreatedAt         time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt         time.Time     `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toSettingsDomain(m *GameSettings) *settingstypes.Settings {
	if m == nil {
		return nil
	}
	return &settingstypes.Settings{
		GuildID:     sharedtypes.GuildID(m.GuildID),
		ChannelID:   sharedtypes.ChannelID(m.ChannelID),
		MessageID:   m.MessageID,
		EntryFee:    sharedtypes.Amount(m.EntryFee),
		RankRewards: sharedtypes.RankRewards(m.RankRewards),
		UpdatedAt:   m.UpdatedAt,
	}
}

func toSettingsModel(s *settingstypes.Settings) *GameSettings {
	if s == nil {
		return nil
	}
	return &GameSettings{
		GuildID:     string(s.GuildID),
		ChannelID:   string(s.ChannelID),
		MessageID:   s.MessageID,
		EntryFee:    int64(s.EntryFee),
		RankRewards: map[int]int64(s.RankRewards),
		UpdatedAt:   s.UpdatedAt,
	}
}

func toCategoryDomain(m *GameCategory) *settingstypes.Category {
	if m == nil {
		return nil
	}
	return &settingstypes.Category{
		ID:                sharedtypes.CategoryID(m.ID),
		GuildID:           sharedtypes.GuildID(m.GuildID),
		Name:              m.Name,
		TeamCount:         m.TeamCount,
		MaxPlayersPerTeam: m.MaxPlayersPerTeam,
		RankRewards:       sharedtypes.RankRewards(m.RankRewards),
		WinnerTakesAll:    m.WinnerTakesAll,
		Enabled:           m.Enabled,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

func toCategoryModel(c *settingstypes.Category) *GameCategory {
	if c == nil {
		return nil
	}
	return &GameCategory{
		ID:                int64(c.ID),
		GuildID:           string(c.GuildID),
		Name:              c.Name,
		TeamCount:         c.TeamCount,
		MaxPlayersPerTeam: c.MaxPlayersPerTeam,
		RankRewards:       map[int]int64(c.RankRewards),
		WinnerTakesAll:    c.WinnerTakesAll,
		Enabled:           c.Enabled,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}
