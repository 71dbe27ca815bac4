package gameservice

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Service is the game-center engine surface consumed by the bot and dashboard
// shells. Expected failures come back as *gametypes.GameError; anything else
// is an infrastructure error wrapped in the REPOSITORY_ERROR code.
type Service interface {
	CreateGame(ctx context.Context, input CreateGameInput) (*gametypes.Game, error)
	ApproveGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.Game, error)
	GetGame(ctx context.Context, gameID sharedtypes.GameID) (*GameOverview, error)
	JoinGame(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error)
	LeaveGame(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) error
	AssignTeam(ctx context.Context, gameID sharedtypes.GameID, team sharedtypes.TeamNumber, userIDs []sharedtypes.UserID) ([]*gametypes.Participant, error)
	UnassignTeam(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error)
	StartGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.Game, error)
	FinishGame(ctx context.Context, gameID sharedtypes.GameID, ranking []gametypes.TeamRank) (*gametypes.Settlement, error)
	CancelGame(ctx context.Context, gameID sharedtypes.GameID) (*gametypes.CancelOutcome, error)
}

// CreateGameInput carries everything a shell supplies when opening a game.
// Optional fields left nil inherit from the category (when set) or the
// guild's settings.
type CreateGameInput struct {
	GuildID           sharedtypes.GuildID
	ChannelID         sharedtypes.ChannelID
	CreatedBy         sharedtypes.UserID
	Title             string
	CategoryID        *sharedtypes.CategoryID
	TeamCount         int
	MaxPlayersPerTeam *int
	EntryFee          *sharedtypes.Amount
	RankRewards       sharedtypes.RankRewards
	WinnerTakesAll    *bool
	// RequireApproval parks the game in pending_approval until an admin
	// approves it; otherwise it opens immediately.
	RequireApproval bool
}

// GameOverview is the full read model of one game.
type GameOverview struct {
	Game         *gametypes.Game
	Participants []*gametypes.Participant
	Results      []*gametypes.Result
}

// WalletPort is the slice of the wallet service the engine uses. Adjustments
// are atomic per call and join the caller's transaction via db.
type WalletPort interface {
	FindBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID) (sharedtypes.Amount, error)
	AdjustBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount, op wallettypes.Operation) (sharedtypes.Amount, error)
	Record(ctx context.Context, db bun.IDB, entry *wallettypes.LedgerEntry) error
}

// SettingsPort is the slice of the settings service the engine reads at
// creation and settlement time.
type SettingsPort interface {
	GetOrDefault(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error)
	GetCategory(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) (*settingstypes.Category, error)
}

// EventPublisher emits lifecycle events for the shells. Satisfied by the
// watermill publisher behind the event bus.
type EventPublisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// ExpiryScheduler manages the deferred auto-cancellation of stale games.
type ExpiryScheduler interface {
	ScheduleExpiry(ctx context.Context, gameID sharedtypes.GameID, at time.Time) error
	CancelExpiry(ctx context.Context, gameID sharedtypes.GameID) error
}
