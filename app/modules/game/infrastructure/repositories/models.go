package gamedb

import (
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Game is the match row. total_pool is mutated only through AddToPool and
// always equals the sum of entry_fee_paid over non-refunded participants.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:gm"`

	ID                   int64         `bun:"id,pk,autoincrement"`
	GuildID              string        `bun:"guild_id,notnull,type:varchar(20)"`
	ChannelID            string        `bun:"channel_id,nullzero,type:varchar(20)"`
	CategoryID           *int64        `bun:"category_id,nullzero"`
	Title                string        `bun:"title,notnull"`
	TeamCount            int           `bun:"team_count,notnull"`
	EntryFee             int64         `bun:"entry_fee,notnull"`
	TotalPool            int64         `bun:"total_pool,notnull,default:0"`
	Status               string        `bun:"status,notnull,type:varchar(20)"`
	MaxPlayersPerTeam    *int          `bun:"max_players_per_team,nullzero"`
	CustomRankRewards    map[int]int64 `bun:"custom_rank_rewards,type:jsonb,nullzero"`
	CustomWinnerTakesAll *bool         `bun:"custom_winner_takes_all,nullzero"`
	CustomEntryFee       *int64        `bun:"custom_entry_fee,nullzero"`
	CreatedBy            string        `bun:"created_by,notnull,type:varchar(20)"`
	CreatedAt            time.Time     `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	FinishedAt           *time.Time    `bun:"finished_at,nullzero"`
}

// GameParticipant is one registration row. The (game_id, user_id) pair is
// unique while the row exists; rows are deleted on leave and kept forever
// after settlement.
type GameParticipant struct {
	bun.BaseModel `bun:"table:game_participants,alias:gp"`

	ID           int64      `bun:"id,pk,autoincrement"`
	GameID       int64      `bun:"game_id,notnull"`
	GuildID      string     `bun:"guild_id,notnull,type:varchar(20)"`
	UserID       string     `bun:"user_id,notnull,type:varchar(20)"`
	TeamNumber   *int       `bun:"team_number,nullzero"`
	EntryFeePaid int64      `bun:"entry_fee_paid,notnull"`
	Reward       int64      `bun:"reward,notnull,default:0"`
	Status       string     `bun:"status,notnull,type:varchar(20)"`
	CreatedAt    time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	SettledAt    *time.Time `bun:"settled_at,nullzero"`
}

// GameResult is the append-only settlement audit row.
type GameResult struct {
	bun.BaseModel `bun:"table:game_results,alias:gr"`

	ID              string    `bun:"id,pk,type:uuid"`
	GameID          int64     `bun:"game_id,notnull"`
	TeamNumber      int       `bun:"team_number,notnull"`
	Rank            int       `bun:"rank,notnull"`
	RewardPercentBP int64     `bun:"reward_percent_bp,notnull"`
	TotalReward     int64     `bun:"total_reward,notnull"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func toGameDomain(m *Game) *gametypes.Game {
	if m == nil {
		return nil
	}
	var categoryID *sharedtypes.CategoryID
	if m.CategoryID != nil {
		id := sharedtypes.CategoryID(*m.CategoryID)
		categoryID = &id
	}
	var customFee *sharedtypes.Amount
	if m.CustomEntryFee != nil {
		fee := sharedtypes.Amount(*m.CustomEntryFee)
		customFee = &fee
	}
	return &gametypes.Game{
		ID:                   sharedtypes.GameID(m.ID),
		GuildID:              sharedtypes.GuildID(m.GuildID),
		ChannelID:            sharedtypes.ChannelID(m.ChannelID),
		CategoryID:           categoryID,
		Title:                m.Title,
		TeamCount:            m.TeamCount,
		EntryFee:             sharedtypes.Amount(m.EntryFee),
		TotalPool:            sharedtypes.Amount(m.TotalPool),
		Status:               gametypes.Status(m.Status),
		MaxPlayersPerTeam:    m.MaxPlayersPerTeam,
		CustomRankRewards:    sharedtypes.RankRewards(m.CustomRankRewards),
		CustomWinnerTakesAll: m.CustomWinnerTakesAll,
		CustomEntryFee:       customFee,
		CreatedBy:            sharedtypes.UserID(m.CreatedBy),
		CreatedAt:            m.CreatedAt,
		FinishedAt:           m.FinishedAt,
	}
}

func toGameModel(g *gametypes.Game) *Game {
	if g == nil {
		return nil
	}
	var categoryID *int64
	if g.CategoryID != nil {
		id := int64(*g.CategoryID)
		categoryID = &id
	}
	var customFee *int64
	if g.CustomEntryFee != nil {
		fee := int64(*g.CustomEntryFee)
		customFee = &fee
	}
	return &Game{
		ID:                   int64(g.ID),
		GuildID:              string(g.GuildID),
		ChannelID:            string(g.ChannelID),
		CategoryID:           categoryID,
		Title:                g.Title,
		TeamCount:            g.TeamCount,
		EntryFee:             int64(g.EntryFee),
		TotalPool:            int64(g.TotalPool),
		Status:               string(g.Status),
		MaxPlayersPerTeam:    g.MaxPlayersPerTeam,
		CustomRankRewards:    map[int]int64(g.CustomRankRewards),
		CustomWinnerTakesAll: g.CustomWinnerTakesAll,
		CustomEntryFee:       customFee,
		CreatedBy:            string(g.CreatedBy),
		CreatedAt:            g.CreatedAt,
		FinishedAt:           g.FinishedAt,
	}
}

func toParticipantDomain(m *GameParticipant) *gametypes.Participant {
	if m == nil {
		return nil
	}
	var team *sharedtypes.TeamNumber
	if m.TeamNumber != nil {
		t := sharedtypes.TeamNumber(*m.TeamNumber)
		team = &t
	}
	return &gametypes.Participant{
		ID:           m.ID,
		GameID:       sharedtypes.GameID(m.GameID),
		GuildID:      sharedtypes.GuildID(m.GuildID),
		UserID:       sharedtypes.UserID(m.UserID),
		TeamNumber:   team,
		EntryFeePaid: sharedtypes.Amount(m.EntryFeePaid),
		Reward:       sharedtypes.Amount(m.Reward),
		Status:       gametypes.ParticipantStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		SettledAt:    m.SettledAt,
	}
}

func toParticipantModel(p *gametypes.Participant) *GameParticipant {
	if p == nil {
		return nil
	}
	var team *int
	if p.TeamNumber != nil {
		t := int(*p.TeamNumber)
		team = &t
	}
	return &GameParticipant{
		ID:           p.ID,
		GameID:       int64(p.GameID),
		GuildID:      string(p.GuildID),
		UserID:       string(p.UserID),
		TeamNumber:   team,
		EntryFeePaid: int64(p.EntryFeePaid),
		Reward:       int64(p.Reward),
		Status:       string(p.Status),
		CreatedAt:    p.CreatedAt,
		SettledAt:    p.SettledAt,
	}
}

func toResultDomain(m *GameResult) *gametypes.Result {
	if m == nil {
		return nil
	}
	return &gametypes.Result{
		ID:              m.ID,
		GameID:          sharedtypes.GameID(m.GameID),
		TeamNumber:      sharedtypes.TeamNumber(m.TeamNumber),
		Rank:            m.Rank,
		RewardPercentBP: m.RewardPercentBP,
		TotalReward:     sharedtypes.Amount(m.TotalReward),
		CreatedAt:       m.CreatedAt,
	}
}

func toResultModel(r *gametypes.Result) *GameResult {
	if r == nil {
		return nil
	}
	return &GameResult{
		ID:              r.ID,
		GameID:          int64(r.GameID),
		TeamNumber:      int(r.TeamNumber),
		Rank:            r.Rank,
		RewardPercentBP: r.RewardPercentBP,
		TotalReward:     int64(r.TotalReward),
		CreatedAt:       r.CreatedAt,
	}
}
