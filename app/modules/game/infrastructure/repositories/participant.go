package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ErrDuplicate is returned when an insert hits the (game_id, user_id) unique
// constraint.
var ErrDuplicate = errors.New("duplicate participant")

// ParticipantImpl implements ParticipantRepository using Bun.
type ParticipantImpl struct {
	db bun.IDB
}

// NewParticipantRepository creates a new participant repository.
func NewParticipantRepository(db bun.IDB) ParticipantRepository {
	return &ParticipantImpl{db: db}
}

func (r *ParticipantImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == "23505"
}

// Insert adds the registration and fills in its generated ID. A second insert
// for the same (game, user) returns ErrDuplicate.
func (r *ParticipantImpl) Insert(ctx context.Context, db bun.IDB, participant *gametypes.Participant) error {
	db = r.resolveDB(db)
	model := toParticipantModel(participant)
	_, err := db.NewInsert().
		Model(model).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert participant: %w", err)
	}
	participant.ID = model.ID
	participant.CreatedAt = model.CreatedAt
	return nil
}

// GetByGameAndUser returns the participant or ErrNotFound.
func (r *ParticipantImpl) GetByGameAndUser(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error) {
	db = r.resolveDB(db)
	model := new(GameParticipant)
	err := db.NewSelect().
		Model(model).
		Where("game_id = ?", int64(gameID)).
		Where("user_id = ?", string(userID)).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return toParticipantDomain(model), nil
}

// ListByGame returns every participant of the game in join order.
func (r *ParticipantImpl) ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Participant, error) {
	db = r.resolveDB(db)
	var models []*GameParticipant
	err := db.NewSelect().
		Model(&models).
		Where("game_id = ?", int64(gameID)).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for game %d: %w", gameID, err)
	}
	participants := make([]*gametypes.Participant, len(models))
	for i, m := range models {
		participants[i] = toParticipantDomain(m)
	}
	return participants, nil
}

// CountByGame returns the number of participants in the game.
func (r *ParticipantImpl) CountByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*GameParticipant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for game %d: %w", gameID, err)
	}
	return count, nil
}

// CountByTeam returns the number of participants already on the given team.
func (r *ParticipantImpl) CountByTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, team sharedtypes.TeamNumber) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*GameParticipant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Where("team_number = ?", int(team)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count team %d for game %d: %w", team, gameID, err)
	}
	return count, nil
}

// SetTeam assigns or clears the user's team placement.
func (r *ParticipantImpl) SetTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID, team *sharedtypes.TeamNumber) (bool, error) {
	db = r.resolveDB(db)
	var value *int
	if team != nil {
		t := int(*team)
		value = &t
	}
	res, err := db.NewUpdate().
		Model((*GameParticipant)(nil)).
		Set("team_number = ?", value).
		Where("game_id = ?", int64(gameID)).
		Where("user_id = ?", string(userID)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to set team for participant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkAllAssigned flips every team-placed registered participant to assigned.
func (r *ParticipantImpl) MarkAllAssigned(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*GameParticipant)(nil)).
		Set("status = ?", string(gametypes.ParticipantAssigned)).
		Where("game_id = ?", int64(gameID)).
		Where("team_number IS NOT NULL").
		Where("status = ?", string(gametypes.ParticipantRegistered)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark participants assigned for game %d: %w", gameID, err)
	}
	return nil
}

// Delete removes the registration and reports whether a row existed.
func (r *ParticipantImpl) Delete(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (bool, error) {
	db = r.resolveDB(db)
	res, err := db.NewDelete().
		Model((*GameParticipant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Where("user_id = ?", string(userID)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to delete participant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return rows > 0, nil
}

// MarkRewarded records the settlement payout on the participant row.
func (r *ParticipantImpl) MarkRewarded(ctx context.Context, db bun.IDB, participantID int64, reward sharedtypes.Amount, settledAt time.Time) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*GameParticipant)(nil)).
		Set("status = ?", string(gametypes.ParticipantRewarded)).
		Set("reward = ?", int64(reward)).
		Set("settled_at = ?", settledAt).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark participant %d rewarded: %w", participantID, err)
	}
	return nil
}

// MarkRefunded records a completed refund on the participant row.
func (r *ParticipantImpl) MarkRefunded(ctx context.Context, db bun.IDB, participantID int64, settledAt time.Time) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*GameParticipant)(nil)).
		Set("status = ?", string(gametypes.ParticipantRefunded)).
		Set("settled_at = ?", settledAt).
		Where("id = ?", participantID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to mark participant %d refunded: %w", participantID, err)
	}
	return nil
}
