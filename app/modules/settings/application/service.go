package settingsservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Domain errors for settings management.
var (
	ErrInvalidRankTable = errors.New("rank reward table must be non-empty with percentages summing to 100")
	ErrInvalidTeamCount = errors.New("team count must be at least 2")
	ErrEmptyName        = errors.New("category name required")
)

// Service manages per-guild game settings and categories. The game engine
// reads these at creation and settlement time; admin shells write them.
type Service struct {
	settings   settingsdb.SettingsRepository
	categories settingsdb.CategoryRepository
	logger     *slog.Logger
}

// NewService creates a new settings service.
func NewService(settings settingsdb.SettingsRepository, categories settingsdb.CategoryRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{settings: settings, categories: categories, logger: logger}
}

// GetOrDefault returns the guild's settings, falling back to the built-in
// defaults when the guild has no row. Never returns ErrNotFound.
func (s *Service) GetOrDefault(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error) {
	settings, err := s.settings.Get(ctx, db, guildID)
	if err != nil {
		if errors.Is(err, settingsdb.ErrNotFound) {
			return settingstypes.Default(guildID), nil
		}
		return nil, err
	}
	// Partial rows still resolve to usable defaults.
	if settings.EntryFee <= 0 {
		settings.EntryFee = settingstypes.DefaultEntryFee
	}
	if len(settings.RankRewards) == 0 {
		settings.RankRewards = settingstypes.DefaultRankRewards()
	}
	return settings, nil
}

// UpsertSettings validates and stores a guild's settings.
func (s *Service) UpsertSettings(ctx context.Context, db bun.IDB, settings *settingstypes.Settings) error {
	if err := validateRankTable(settings.RankRewards); err != nil {
		return err
	}
	if settings.EntryFee < 0 {
		return fmt.Errorf("entry fee must be non-negative, got %d", settings.EntryFee)
	}
	if err := s.settings.Upsert(ctx, db, settings); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Game settings saved",
		attr.ExtractCorrelationID(ctx),
		attr.GuildID("guild_id", settings.GuildID),
		attr.Amount("entry_fee", settings.EntryFee),
	)
	return nil
}

// UpdateSettings applies partial updates to a guild's settings.
func (s *Service) UpdateSettings(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, updates *settingsdb.SettingsUpdateFields) error {
	if updates.IsEmpty() {
		return nil
	}
	if updates.RankRewards != nil {
		if err := validateRankTable(updates.RankRewards); err != nil {
			return err
		}
	}
	if updates.EntryFee != nil && *updates.EntryFee < 0 {
		return fmt.Errorf("entry fee must be non-negative, got %d", *updates.EntryFee)
	}
	return s.settings.Update(ctx, db, guildID, updates)
}

// CreateCategory validates and stores a new game category template.
func (s *Service) CreateCategory(ctx context.Context, db bun.IDB, category *settingstypes.Category) error {
	if category.Name == "" {
		return ErrEmptyName
	}
	if category.TeamCount < 2 {
		return ErrInvalidTeamCount
	}
	if category.MaxPlayersPerTeam != nil && *category.MaxPlayersPerTeam < 1 {
		return fmt.Errorf("max players per team must be at least 1, got %d", *category.MaxPlayersPerTeam)
	}
	if category.RankRewards != nil {
		if err := validateRankTable(category.RankRewards); err != nil {
			return err
		}
	}
	category.Enabled = true
	if err := s.categories.Create(ctx, db, category); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Game category created",
		attr.ExtractCorrelationID(ctx),
		attr.GuildID("guild_id", category.GuildID),
		attr.String("name", category.Name),
		attr.Int64("category_id", int64(category.ID)),
	)
	return nil
}

// GetCategory retrieves a category by ID.
func (s *Service) GetCategory(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) (*settingstypes.Category, error) {
	return s.categories.GetByID(ctx, db, id)
}

// ListCategories returns a guild's enabled categories.
func (s *Service) ListCategories(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) ([]settingstypes.Category, error) {
	return s.categories.ListEnabled(ctx, db, guildID)
}

// UpdateCategory applies partial updates to a category.
func (s *Service) UpdateCategory(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID, updates *settingsdb.CategoryUpdateFields) error {
	if updates == nil {
		return nil
	}
	if updates.TeamCount != nil && *updates.TeamCount < 2 {
		return ErrInvalidTeamCount
	}
	if updates.RankRewards != nil {
		if err := validateRankTable(updates.RankRewards); err != nil {
			return err
		}
	}
	return s.categories.Update(ctx, db, id, updates)
}

// DisableCategory soft-disables a category; existing games keep referencing it.
func (s *Service) DisableCategory(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) error {
	disabled := false
	return s.categories.Update(ctx, db, id, &settingsdb.CategoryUpdateFields{Enabled: &disabled})
}

func validateRankTable(table sharedtypes.RankRewards) error {
	if len(table) == 0 {
		return ErrInvalidRankTable
	}
	for rank, pct := range table {
		if rank < 1 {
			return fmt.Errorf("rank must be at least 1, got %d", rank)
		}
		if pct < 0 {
			return fmt.Errorf("reward percent for rank %d must be non-negative, got %d", rank, pct)
		}
	}
	if table.Total() != 100 {
		return ErrInvalidRankTable
	}
	return nil
}
