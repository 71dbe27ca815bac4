package walletdb

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// LedgerImpl implements LedgerRepository using Bun.
type LedgerImpl struct {
	db bun.IDB
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db bun.IDB) LedgerRepository {
	return &LedgerImpl{db: db}
}

func (r *LedgerImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Record appends one ledger entry.
func (r *LedgerImpl) Record(ctx context.Context, db bun.IDB, entry *wallettypes.LedgerEntry) error {
	db = r.resolveDB(db)
	model := toLedgerModel(entry)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}
	_, err := db.NewInsert().Model(model).Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record ledger entry: %w", err)
	}
	entry.ID = model.ID
	entry.CreatedAt = model.CreatedAt
	return nil
}

// ListByGame returns all entries tagged with the given game, oldest first.
func (r *LedgerImpl) ListByGame(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, gameID sharedtypes.GameID) ([]wallettypes.LedgerEntry, error) {
	db = r.resolveDB(db)
	var models []LedgerEntry
	err := db.NewSelect().
		Model(&models).
		Where("guild_id = ?", guildID).
		Where("related_game_id = ?", int64(gameID)).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	entries := make([]wallettypes.LedgerEntry, len(models))
	for i := range models {
		entries[i] = *toLedgerDomain(&models[i])
	}
	return entries, nil
}

func toLedgerModel(e *wallettypes.LedgerEntry) *LedgerEntry {
	var related *int64
	if e.RelatedGameID != nil {
		id := int64(*e.RelatedGameID)
		related = &id
	}
	return &LedgerEntry{
		ID:            e.ID,
		GuildID:       string(e.GuildID),
		UserID:        string(e.UserID),
		Amount:        int64(e.Amount),
		Category:      string(e.Category),
		RelatedGameID: related,
		Description:   e.Description,
		CreatedAt:     e.CreatedAt,
	}
}

func toLedgerDomain(m *LedgerEntry) *wallettypes.LedgerEntry {
	var related *sharedtypes.GameID
	if m.RelatedGameID != nil {
		id := sharedtypes.GameID(*m.RelatedGameID)
		related = &id
	}
	return &wallettypes.LedgerEntry{
		ID:            m.ID,
		GuildID:       sharedtypes.GuildID(m.GuildID),
		UserID:        sharedtypes.UserID(m.UserID),
		Amount:        sharedtypes.Amount(m.Amount),
		Category:      wallettypes.LedgerCategory(m.Category),
		RelatedGameID: related,
		Description:   m.Description,
		CreatedAt:     m.CreatedAt,
	}
}
