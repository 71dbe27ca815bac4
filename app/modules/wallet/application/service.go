package walletservice

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/uptrace/bun"

	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/attr"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Service is the wallet-ledger collaborator consumed by the game center.
// Adjustments are atomic per call; the engine treats this as the only
// balance-mutation primitive and never re-implements balance storage.
type Service struct {
	wallets walletdb.WalletRepository
	ledger  walletdb.LedgerRepository
	logger  *slog.Logger
}

// NewService creates a new wallet service.
func NewService(wallets walletdb.WalletRepository, ledger walletdb.LedgerRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{wallets: wallets, ledger: ledger, logger: logger}
}

// FindBalance returns the user's current balance (0 for unknown users).
func (s *Service) FindBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID) (sharedtypes.Amount, error) {
	return s.wallets.GetBalance(ctx, db, guildID, userID)
}

// AdjustBalance applies a single atomic balance mutation and returns the new
// balance. Subtracting below zero fails with walletdb.ErrInsufficientFunds.
func (s *Service) AdjustBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount, op wallettypes.Operation) (sharedtypes.Amount, error) {
	if amount < 0 {
		return 0, fmt.Errorf("adjustment amount must be non-negative, got %d", amount)
	}

	var (
		newBalance sharedtypes.Amount
		err        error
	)
	switch op {
	case wallettypes.OperationAdd:
		newBalance, err = s.wallets.Add(ctx, db, guildID, userID, amount)
	case wallettypes.OperationSubtract:
		newBalance, err = s.wallets.Subtract(ctx, db, guildID, userID, amount)
	default:
		return 0, fmt.Errorf("unknown wallet operation %q", op)
	}
	if err != nil {
		return 0, err
	}

	s.logger.DebugContext(ctx, "Wallet adjusted",
		attr.ExtractCorrelationID(ctx),
		attr.GuildID("guild_id", guildID),
		attr.UserID("user_id", userID),
		attr.String("op", string(op)),
		attr.Amount("amount", amount),
		attr.Amount("new_balance", newBalance),
	)
	return newBalance, nil
}

// Record appends one entry to the wallet ledger.
func (s *Service) Record(ctx context.Context, db bun.IDB, entry *wallettypes.LedgerEntry) error {
	if err := s.ledger.Record(ctx, db, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record ledger entry",
			attr.ExtractCorrelationID(ctx),
			attr.GuildID("guild_id", entry.GuildID),
			attr.UserID("user_id", entry.UserID),
			attr.Error(err),
		)
		return err
	}
	return nil
}
