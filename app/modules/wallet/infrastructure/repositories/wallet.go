package walletdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ErrInsufficientFunds is returned when a subtract would take a balance negative.
var ErrInsufficientFunds = errors.New("insufficient funds")

// WalletImpl implements WalletRepository using Bun.
type WalletImpl struct {
	db bun.IDB
}

// NewWalletRepository creates a new wallet repository.
func NewWalletRepository(db bun.IDB) WalletRepository {
	return &WalletImpl{db: db}
}

func (r *WalletImpl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetBalance returns the user's balance, 0 if no wallet row exists yet.
func (r *WalletImpl) GetBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID) (sharedtypes.Amount, error) {
	db = r.resolveDB(db)
	wallet := new(Wallet)
	err := db.NewSelect().
		Model(wallet).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return sharedtypes.Amount(wallet.Balance), nil
}

// Add credits the wallet in a single upsert and returns the new balance.
func (r *WalletImpl) Add(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error) {
	db = r.resolveDB(db)
	now := time.Now()
	wallet := &Wallet{
		GuildID:   string(guildID),
		UserID:    string(userID),
		Balance:   int64(amount),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var newBalance int64
	err := db.NewInsert().
		Model(wallet).
		On("CONFLICT (guild_id, user_id) DO UPDATE").
		Set("balance = w.balance + EXCLUDED.balance").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("balance").
		Scan(ctx, &newBalance)
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return sharedtypes.Amount(newBalance), nil
}

// Subtract debits the wallet in a single conditional update. The balance
// floor is enforced in SQL so concurrent debits cannot overdraw.
func (r *WalletImpl) Subtract(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error) {
	db = r.resolveDB(db)
	var newBalance int64
	err := db.NewUpdate().
		Model((*Wallet)(nil)).
		Set("balance = balance - ?", int64(amount)).
		Set("updated_at = ?", time.Now()).
		Where("guild_id = ?", guildID).
		Where("user_id = ?", userID).
		Where("balance >= ?", int64(amount)).
		Returning("balance").
		Scan(ctx, &newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Row missing or balance too low; either way the debit must not happen.
			return 0, ErrInsufficientFunds
		}
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}
	return sharedtypes.Amount(newBalance), nil
}
