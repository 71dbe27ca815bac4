package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating wallets table...")
			if _, err := db.NewCreateTable().Model((*walletdb.Wallet)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create wallets table: %w", err)
			}

			fmt.Println("Creating ledger_entries table...")
			if _, err := db.NewCreateTable().Model((*walletdb.LedgerEntry)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create ledger_entries table: %w", err)
			}

			if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_ledger_entries_game ON ledger_entries (guild_id, related_game_id);`); err != nil {
				return fmt.Errorf("failed to create ledger game index: %w", err)
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewDropTable().Model((*walletdb.LedgerEntry)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewDropTable().Model((*walletdb.Wallet)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			return nil
		},
	)
}
