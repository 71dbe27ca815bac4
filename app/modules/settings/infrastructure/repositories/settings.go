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

// ErrNotFound is returned when a settings or category row does not exist.
var ErrNotFound = errors.New("not found")

// SettingsImpl implements SettingsRepository using Bun.
type SettingsImpl struct {
	db bun.IDB
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(db bun.IDB) SettingsRepository {
	return &SettingsImpl{db: db}
}

func (r *SettingsImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Get retrieves a guild's settings.
func (r *SettingsImpl) Get(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error) {
	db = r.resolveDB(db)
	model := new(GameSettings)
	err := db.NewSelect().
		Model(model).
		Where("guild_id = ?", guildID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game settings: %w", err)
	}
	return toSettingsDomain(model), nil
}

// Upsert creates or replaces a guild's settings.
func (r *SettingsImpl) Upsert(ctx context.Context, db bun.IDB, settings *settingstypes.Settings) error {
	db = r.resolveDB(db)
	model := toSettingsModel(settings)
	model.UpdatedAt = time.Now()
	_, err := db.NewInsert().
		Model(model).
		On("CONFLICT (guild_id) DO UPDATE").
		Set("channel_id = EXCLUDED.channel_id").
		Set("message_id = EXCLUDED.message_id").
		Set("entry_fee = EXCLUDED.entry_fee").
		Set("rank_rewards = EXCLUDED.rank_rewards").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert game settings: %w", err)
	}
	return nil
}

// Update applies partial updates to a guild's settings.
func (r *SettingsImpl) Update(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, updates *SettingsUpdateFields) error {
	if updates.IsEmpty() {
		return nil
	}
	db = r.resolveDB(db)
	q := db.NewUpdate().
		Model((*GameSettings)(nil)).
		Where("guild_id = ?", guildID).
		Set("updated_at = ?", time.Now())
	if updates.ChannelID != nil {
		q = q.Set("channel_id = ?", string(*updates.ChannelID))
	}
	if updates.MessageID != nil {
		q = q.Set("message_id = ?", *updates.MessageID)
	}
	if updates.EntryFee != nil {
		q = q.Set("entry_fee = ?", int64(*updates.EntryFee))
	}
	if updates.RankRewards != nil {
		encoded, err := json.Marshal(map[int]int64(updates.RankRewards))
		if err != nil {
			return fmt.Errorf("failed to encode rank rewards: %w", err)
		}
		q = q.Set("rank_rewards = ?::jsonb", string(encoded))
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update game settings: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return ErrNotFound
	}
	return nil
}
