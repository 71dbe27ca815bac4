package walletdb

import (
	"context"

	"github.com/uptrace/bun"

	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// WalletRepository is the balance store. Every method takes a bun.IDB so
// callers can thread a transaction through; nil falls back to the default
// connection.
//
// Error semantics:
//   - ErrInsufficientFunds: a subtract would take the balance negative
//   - Other errors: infrastructure failures
type WalletRepository interface {
	// GetBalance returns the user's balance, 0 if no wallet row exists yet.
	GetBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID) (sharedtypes.Amount, error)

	// Add credits the wallet atomically, creating the row on first use, and
	// returns the new balance.
	Add(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error)

	// Subtract debits the wallet atomically with a balance floor of zero and
	// returns the new balance. Returns ErrInsufficientFunds when the balance
	// would go negative (including when no wallet row exists).
	Subtract(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error)
}

// LedgerRepository is the append-only wallet mutation log.
type LedgerRepository interface {
	// Record appends one ledger entry.
	Record(ctx context.Context, db bun.IDB, entry *wallettypes.LedgerEntry) error

	// ListByGame returns all entries tagged with the given game, oldest first.
	ListByGame(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, gameID sharedtypes.GameID) ([]wallettypes.LedgerEntry, error)
}
