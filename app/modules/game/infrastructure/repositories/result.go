package gamedb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ResultImpl implements ResultRepository using Bun.
type ResultImpl struct {
	db bun.IDB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db bun.IDB) ResultRepository {
	return &ResultImpl{db: db}
}

func (r *ResultImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Insert appends an audit row, generating its ID when the caller left it empty.
func (r *ResultImpl) Insert(ctx context.Context, db bun.IDB, result *gametypes.Result) error {
	db = r.resolveDB(db)
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	model := toResultModel(result)
	_, err := db.NewInsert().
		Model(model).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	result.CreatedAt = model.CreatedAt
	return nil
}

// ListByGame returns the settlement rows of the game ordered by rank.
func (r *ResultImpl) ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Result, error) {
	db = r.resolveDB(db)
	var models []*GameResult
	err := db.NewSelect().
		Model(&models).
		Where("game_id = ?", int64(gameID)).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list results for game %d: %w", gameID, err)
	}
	results := make([]*gametypes.Result, len(models))
	for i, m := range models {
		results[i] = toResultDomain(m)
	}
	return results, nil
}
