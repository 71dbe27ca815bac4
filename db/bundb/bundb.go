package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/config"
)

// DBService bundles the bun connection with the per-module repositories.
type DBService struct {
	GameDB        gamedb.GameRepository
	ParticipantDB gamedb.ParticipantRepository
	ResultDB      gamedb.ResultRepository
	WalletDB      walletdb.WalletRepository
	LedgerDB      walletdb.LedgerRepository
	SettingsDB    settingsdb.SettingsRepository
	CategoryDB    settingsdb.CategoryRepository

	db *bun.DB
}

// GetDB returns the underlying database connection pool.
func (s *DBService) GetDB() *bun.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *DBService) Close() error {
	return s.db.Close()
}

// NewBunDBService initializes a new DBService with the provided Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())

	db.RegisterModel(
		&gamedb.Game{},
		&gamedb.GameParticipant{},
		&gamedb.GameResult{},
		&walletdb.Wallet{},
		&walletdb.LedgerEntry{},
		&settingsdb.GameSettings{},
		&settingsdb.GameCategory{},
	)

	return &DBService{
		GameDB:        gamedb.NewGameRepository(db),
		ParticipantDB: gamedb.NewParticipantRepository(db),
		ResultDB:      gamedb.NewResultRepository(db),
		WalletDB:      walletdb.NewWalletRepository(db),
		LedgerDB:      walletdb.NewLedgerRepository(db),
		SettingsDB:    settingsdb.NewSettingsRepository(db),
		CategoryDB:    settingsdb.NewCategoryRepository(db),
		db:            db,
	}, nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
