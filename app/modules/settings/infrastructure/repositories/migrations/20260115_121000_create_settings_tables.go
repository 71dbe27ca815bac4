package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating game_settings table...")
			if _, err := db.NewCreateTable().Model((*settingsdb.GameSettings)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create game_settings table: %w", err)
			}

			fmt.Println("Creating game_categories table...")
			if _, err := db.NewCreateTable().Model((*settingsdb.GameCategory)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create game_categories table: %w", err)
			}

			if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_game_categories_guild ON game_categories (guild_id, enabled);`); err != nil {
				return fmt.Errorf("failed to create category guild index: %w", err)
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewDropTable().Model((*settingsdb.GameCategory)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewDropTable().Model((*settingsdb.GameSettings)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			return nil
		},
	)
}
