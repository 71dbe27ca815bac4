package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ErrNotFound is returned when a game or participant row does not exist.
var ErrNotFound = errors.New("not found")

// GameImpl implements GameRepository using Bun.
type GameImpl struct {
	db bun.IDB
}

// NewGameRepository creates a new game repository.
func NewGameRepository(db bun.IDB) GameRepository {
	return &GameImpl{db: db}
}

func (r *GameImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// Create inserts the game and fills in its generated ID and created_at.
func (r *GameImpl) Create(ctx context.Context, db bun.IDB, game *gametypes.Game) error {
	db = r.resolveDB(db)
	model := toGameModel(game)
	_, err := db.NewInsert().
		Model(model).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}
	game.ID = sharedtypes.GameID(model.ID)
	game.CreatedAt = model.CreatedAt
	return nil
}

// GetByID returns the game or ErrNotFound.
func (r *GameImpl) GetByID(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (*gametypes.Game, error) {
	db = r.resolveDB(db)
	model := new(Game)
	err := db.NewSelect().
		Model(model).
		Where("id = ?", int64(gameID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get game %d: %w", gameID, err)
	}
	return toGameDomain(model), nil
}

// UpdateStatusIf performs a guarded status transition. The allowed-from set is
// enforced in SQL so two concurrent settlements cannot both win.
func (r *GameImpl) UpdateStatusIf(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, to gametypes.Status, allowedFrom ...gametypes.Status) (bool, error) {
	db = r.resolveDB(db)
	from := make([]string, len(allowedFrom))
	for i, s := range allowedFrom {
		from[i] = string(s)
	}
	query := db.NewUpdate().
		Model((*Game)(nil)).
		Set("status = ?", string(to)).
		Where("id = ?", int64(gameID)).
		Where("status IN (?)", bun.In(from))
	if to.Terminal() {
		query = query.Set("finished_at = ?", time.Now())
	}
	res, err := query.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update game %d status to %s: %w", gameID, to, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

// AddToPool adjusts total_pool by delta.
func (r *GameImpl) AddToPool(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, delta sharedtypes.Amount) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Game)(nil)).
		Set("total_pool = total_pool + ?", int64(delta)).
		Where("id = ?", int64(gameID)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to adjust pool for game %d: %w", gameID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListExpired returns non-terminal games created before the cutoff, oldest first.
func (r *GameImpl) ListExpired(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*gametypes.Game, error) {
	db = r.resolveDB(db)
	var models []*Game
	statuses := gametypes.NonTerminalStatuses()
	open := make([]string, len(statuses))
	for i, s := range statuses {
		open[i] = string(s)
	}
	err := db.NewSelect().
		Model(&models).
		Where("status IN (?)", bun.In(open)).
		Where("created_at < ?", cutoff).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired games: %w", err)
	}
	games := make([]*gametypes.Game, len(models))
	for i, m := range models {
		games[i] = toGameDomain(m)
	}
	return games, nil
}
