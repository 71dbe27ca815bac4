package walletservice

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"

	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// fakeWalletRepo is an in-memory WalletRepository keyed by guild/user.
type fakeWalletRepo struct {
	balances map[string]sharedtypes.Amount
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{balances: map[string]sharedtypes.Amount{}}
}

func key(g sharedtypes.GuildID, u sharedtypes.UserID) string {
	return string(g) + "/" + string(u)
}

func (f *fakeWalletRepo) GetBalance(_ context.Context, _ bun.IDB, g sharedtypes.GuildID, u sharedtypes.UserID) (sharedtypes.Amount, error) {
	return f.balances[key(g, u)], nil
}

func (f *fakeWalletRepo) Add(_ context.Context, _ bun.IDB, g sharedtypes.GuildID, u sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error) {
	f.balances[key(g, u)] += amount
	return f.balances[key(g, u)], nil
}

func (f *fakeWalletRepo) Subtract(_ context.Context, _ bun.IDB, g sharedtypes.GuildID, u sharedtypes.UserID, amount sharedtypes.Amount) (sharedtypes.Amount, error) {
	if f.balances[key(g, u)] < amount {
		return 0, walletdb.ErrInsufficientFunds
	}
	f.balances[key(g, u)] -= amount
	return f.balances[key(g, u)], nil
}

type fakeLedgerRepo struct {
	entries []*wallettypes.LedgerEntry
}

func (f *fakeLedgerRepo) Record(_ context.Context, _ bun.IDB, e *wallettypes.LedgerEntry) error {
	f.entries = append(f.entries, e)
	return nil
}

func (f *fakeLedgerRepo) ListByGame(context.Context, bun.IDB, sharedtypes.GuildID, sharedtypes.GameID) ([]wallettypes.LedgerEntry, error) {
	return nil, nil
}

func TestAdjustBalance(t *testing.T) {
	ctx := context.Background()
	guildID := sharedtypes.GuildID("guild-1")
	userID := sharedtypes.UserID("user-1")

	t.Run("add then subtract round-trips", func(t *testing.T) {
		repo := newFakeWalletRepo()
		svc := NewService(repo, &fakeLedgerRepo{}, nil)

		got, err := svc.AdjustBalance(ctx, nil, guildID, userID, 500, wallettypes.OperationAdd)
		if err != nil {
			t.Fatalf("add: %v", err)
		}
		if got != 500 {
			t.Errorf("balance after add = %d, want 500", got)
		}

		got, err = svc.AdjustBalance(ctx, nil, guildID, userID, 500, wallettypes.OperationSubtract)
		if err != nil {
			t.Fatalf("subtract: %v", err)
		}
		if got != 0 {
			t.Errorf("balance after subtract = %d, want 0", got)
		}
	})

	t.Run("overdraw fails", func(t *testing.T) {
		repo := newFakeWalletRepo()
		svc := NewService(repo, &fakeLedgerRepo{}, nil)

		if _, err := svc.AdjustBalance(ctx, nil, guildID, userID, 1, wallettypes.OperationSubtract); !errors.Is(err, walletdb.ErrInsufficientFunds) {
			t.Errorf("err = %v, want ErrInsufficientFunds", err)
		}
	})

	t.Run("negative amount rejected", func(t *testing.T) {
		svc := NewService(newFakeWalletRepo(), &fakeLedgerRepo{}, nil)
		if _, err := svc.AdjustBalance(ctx, nil, guildID, userID, -10, wallettypes.OperationAdd); err == nil {
			t.Error("expected error for negative amount")
		}
	})

	t.Run("unknown operation rejected", func(t *testing.T) {
		svc := NewService(newFakeWalletRepo(), &fakeLedgerRepo{}, nil)
		if _, err := svc.AdjustBalance(ctx, nil, guildID, userID, 10, wallettypes.Operation("divide")); err == nil {
			t.Error("expected error for unknown operation")
		}
	})
}
