package gamedb

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// GameRepository persists game rows. Every method takes an optional bun.IDB so
// callers can pass a transaction; nil falls back to the repository's own handle.
type GameRepository interface {
	// Create inserts the game and fills in its generated ID.
	Create(ctx context.Context, db bun.IDB, game *gametypes.Game) error
	// GetByID returns the game or ErrNotFound.
	GetByID(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (*gametypes.Game, error)
	// UpdateStatusIf moves the game to the target status only when its current
	// status is one of allowedFrom, and reports whether the transition
	// happened. A false return with nil error means another caller got there
	// first; this is the idempotency guard for settlement and cancellation.
	// Transitions into a terminal status also stamp finished_at.
	UpdateStatusIf(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, to gametypes.Status, allowedFrom ...gametypes.Status) (bool, error)
	// AddToPool adjusts total_pool by delta (negative on leave).
	AddToPool(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, delta sharedtypes.Amount) error
	// ListExpired returns non-terminal games created before the cutoff.
	ListExpired(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*gametypes.Game, error)
}

// ParticipantRepository persists registration rows. The (game_id, user_id)
// pair is unique; Insert surfaces a violation as ErrDuplicate.
type ParticipantRepository interface {
	Insert(ctx context.Context, db bun.IDB, participant *gametypes.Participant) error
	// GetByGameAndUser returns the participant or ErrNotFound.
	GetByGameAndUser(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error)
	ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Participant, error)
	CountByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (int, error)
	CountByTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, team sharedtypes.TeamNumber) (int, error)
	// SetTeam assigns or clears (nil) the user's team and reports whether a
	// row was updated.
	SetTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID, team *sharedtypes.TeamNumber) (bool, error)
	// MarkAllAssigned flips every team-placed registered participant to the
	// assigned status.
	MarkAllAssigned(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) error
	// Delete removes the registration and reports whether a row existed.
	Delete(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (bool, error)
	MarkRewarded(ctx context.Context, db bun.IDB, participantID int64, reward sharedtypes.Amount, settledAt time.Time) error
	MarkRefunded(ctx context.Context, db bun.IDB, participantID int64, settledAt time.Time) error
}

// ResultRepository persists the append-only settlement audit rows.
type ResultRepository interface {
	Insert(ctx context.Context, db bun.IDB, result *gametypes.Result) error
	ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Result, error)
}
