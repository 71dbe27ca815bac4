package settingsdb

import (
	"context"

	"github.com/uptrace/bun"

	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// SettingsUpdateFields are the updateable fields of a guild's game settings.
// Pointer fields distinguish "not provided" (nil) from "set to zero value".
type SettingsUpdateFields struct {
	ChannelID   *sharedtypes.ChannelID
	MessageID   *string
	EntryFee    *sharedtypes.Amount
	RankRewards sharedtypes.RankRewards
}

// IsEmpty reports whether any fields are set for update.
func (u *SettingsUpdateFields) IsEmpty() bool {
	if u == nil {
		return true
	}
	return u.ChannelID == nil && u.MessageID == nil && u.EntryFee == nil && u.RankRewards == nil
}

// CategoryUpdateFields are the updateable fields of a game category.
type CategoryUpdateFields struct {
	Name              *string
	TeamCount         *int
	MaxPlayersPerTeam *int
	RankRewards       sharedtypes.RankRewards
	WinnerTakesAll    *bool
	Enabled           *bool
}

// SettingsRepository persists the one-row-per-guild game settings.
//
// Error semantics:
//   - ErrNotFound: no settings row for the guild (Get)
//   - Other errors: infrastructure failures
type SettingsRepository interface {
	// Get retrieves a guild's settings. Returns ErrNotFound when absent.
	Get(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error)

	// Upsert creates or replaces a guild's settings.
	Upsert(ctx context.Context, db bun.IDB, settings *settingstypes.Settings) error

	// Update applies partial updates. Returns ErrNotFound if no row exists.
	Update(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, updates *SettingsUpdateFields) error
}

// CategoryRepository persists guild-defined game categories.
type CategoryRepository interface {
	// Create inserts a category and fills in its generated ID.
	Create(ctx context.Context, db bun.IDB, category *settingstypes.Category) error

	// GetByID retrieves a category. Returns ErrNotFound when absent.
	GetByID(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) (*settingstypes.Category, error)

	// ListEnabled returns a guild's enabled categories, by name.
	ListEnabled(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) ([]settingstypes.Category, error)

	// Update applies partial updates. Returns ErrNotFound if no row exists.
	Update(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID, updates *CategoryUpdateFields) error
}
