package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			fmt.Println("Creating games table...")
			if _, err := db.NewCreateTable().Model((*gamedb.Game)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create games table: %w", err)
			}

			fmt.Println("Creating game_participants table...")
			if _, err := db.NewCreateTable().Model((*gamedb.GameParticipant)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create game_participants table: %w", err)
			}

			fmt.Println("Creating game_results table...")
			if _, err := db.NewCreateTable().Model((*gamedb.GameResult)(nil)).IfNotExists().Exec(ctx); err != nil {
				return fmt.Errorf("failed to create game_results table: %w", err)
			}

			// One registration per user per game. Join relies on this to stay
			// race-free under concurrent requests.
			if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS idx_game_participants_game_user ON game_participants (game_id, user_id);`); err != nil {
				return fmt.Errorf("failed to create participant unique index: %w", err)
			}
			if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_games_guild_status ON games (guild_id, status);`); err != nil {
				return fmt.Errorf("failed to create game status index: %w", err)
			}
			if _, err := db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_game_results_game ON game_results (game_id);`); err != nil {
				return fmt.Errorf("failed to create result game index: %w", err)
			}
			return nil
		},
		func(ctx context.Context, db *bun.DB) error {
			if _, err := db.NewDropTable().Model((*gamedb.GameResult)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewDropTable().Model((*gamedb.GameParticipant)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			if _, err := db.NewDropTable().Model((*gamedb.Game)(nil)).IfExists().Exec(ctx); err != nil {
				return err
			}
			return nil
		},
	)
}
