package gameevents

import (
	"time"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Stream names
const (
	GameStreamName = "game"
)

// Game lifecycle events published for the bot and dashboard shells.
const (
	GameCreated   = "game.created"
	GameApproved  = "game.approved"
	GameStarted   = "game.started"
	GameFinished  = "game.finished"
	GameCancelled = "game.cancelled"
)

type GameCreatedPayload struct {
	GuildID   sharedtypes.GuildID   `json:"guild_id"`
	GameID    sharedtypes.GameID    `json:"game_id"`
	ChannelID sharedtypes.ChannelID `json:"channel_id"`
	Title     string                `json:"title"`
	EntryFee  sharedtypes.Amount    `json:"entry_fee"`
	TeamCount int                   `json:"team_count"`
	Status    gametypes.Status      `json:"status"`
	CreatedBy sharedtypes.UserID    `json:"created_by"`
}

type GameApprovedPayload struct {
	GuildID sharedtypes.GuildID `json:"guild_id"`
	GameID  sharedtypes.GameID  `json:"game_id"`
}

type GameStartedPayload struct {
	GuildID      sharedtypes.GuildID `json:"guild_id"`
	GameID       sharedtypes.GameID  `json:"game_id"`
	Participants int                 `json:"participants"`
}

type TeamRewardPayload struct {
	TeamNumber sharedtypes.TeamNumber `json:"team_number"`
	Rank       int                    `json:"rank"`
	Reward     sharedtypes.Amount     `json:"reward"`
}

type GameFinishedPayload struct {
	GuildID    sharedtypes.GuildID `json:"guild_id"`
	GameID     sharedtypes.GameID  `json:"game_id"`
	TotalPool  sharedtypes.Amount  `json:"total_pool"`
	Rewards    []TeamRewardPayload `json:"rewards"`
	FinishedAt time.Time           `json:"finished_at"`
}

type GameCancelledPayload struct {
	GuildID          sharedtypes.GuildID `json:"guild_id"`
	GameID           sharedtypes.GameID  `json:"game_id"`
	RefundedCount    int                 `json:"refunded_count"`
	ParticipantCount int                 `json:"participant_count"`
}
