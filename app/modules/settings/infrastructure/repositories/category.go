package settingsdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// CategoryImpl implements CategoryRepository using Bun.
type CategoryImpl struct {
	db bun.IDB
}

// NewCategoryRepository creates a new category repository.
func NewCategoryRepository(db bun.IDB) CategoryRepository {
	return &CategoryImpl{db: db}
}

func (r *CategoryImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts a category and fills in its generated ID.
func (r *CategoryImpl) Create(ctx context.Context, db bun.IDB, category *settingstypes.Category) error {
	db = r.resolveDB(db)
	model := toCategoryModel(category)
	now := time.Now()
	model.CreatedAt = now
	model.UpdatedAt = now
	err := db.NewInsert().
		Model(model).
		ExcludeColumn("id").
		Returning("id").
		Scan(ctx, &model.ID)
	if err != nil {
		return fmt.Errorf("failed to create game category: %w", err)
	}
	category.ID = sharedtypes.CategoryID(model.ID)
	category.CreatedAt = model.CreatedAt
	category.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID retrieves a category.
func (r *CategoryImpl) GetByID(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) (*settingstypes.Category, error) {
	db = r.resolveDB(db)
	model := new(GameCategory)
	err := db.NewSelect().
		Model(model).
		Where("id = ?", int64(id)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game category: %w", err)
	}
	return toCategoryDomain(model), nil
}

// ListEnabled returns a guild's enabled categories, by name.
func (r *CategoryImpl) ListEnabled(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) ([]settingstypes.Category, error) {
	db = r.resolveDB(db)
	var models []GameCategory
	err := db.NewSelect().
		Model(&models).
		Where("guild_id = ?", guildID).
		Where("enabled = TRUE").
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list game categories: %w", err)
	}
	categories := make([]settingstypes.Category, len(models))
	for i := range models {
		categories[i] = *toCategoryDomain(&models[i])
	}
	return categories, nil
}

// Update applies partial updates to a category.
func (r *CategoryImpl) Update(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID, updates *CategoryUpdateFields) error {
	if updates == nil {
		return nil
	}
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*GameCategory)(nil)).
		Where("id = ?", int64(id)).
		Set("updated_at = ?", time.Now())
	if updates.Name != nil {
		q = q.Set("name = ?", *updates.Name)
	}
	if updates.TeamCount != nil {
		q = q.Set("team_count = ?", *updates.TeamCount)
	}
	if updates.MaxPlayersPerTeam != nil {
		q = q.Set("max_players_per_team = ?", *updates.MaxPlayersPerTeam)
	}
	if updates.RankRewards != nil {
		encoded, err := json.Marshal(map[int]int64(updates.RankRewards))
		if err != nil {
			return fmt.Errorf("failed to encode rank rewards: %w", err)
		}
		q = q.Set("rank_rewards = ?::jsonb", string(encoded))
	}
	if updates.WinnerTakesAll != nil {
		q = q.Set("winner_takes_all = ?", *updates.WinnerTakesAll)
	}
	if updates.Enabled != nil {
		q = q.Set("enabled = ?", *updates.Enabled)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update game category: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}
