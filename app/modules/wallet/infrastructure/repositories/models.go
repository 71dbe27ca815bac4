package walletdb

import (
	"time"

	"github.com/uptrace/bun"
)

// Wallet is one user's balance within a guild. Balances are integer minor
// units and never go negative; the subtract path enforces that in SQL.
type Wallet struct {
	bun.BaseModel `bun:"table:wallets,alias:w"`

	GuildID   string    `bun:"guild_id,pk,notnull,type:varchar(20)"`
	UserID    string    `bun:"user_id,pk,notnull,type:varchar(20)"`
	Balance   int64     `bun:"balance,notnull,default:0"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// LedgerEntry is the append-only wallet mutation log.
type LedgerEntry struct {
	bun.BaseModel `bun:"table:ledger_entries,alias:le"`

	ID            int64     `bun:"id,pk,autoincrement"`
	GuildID       string    `bun:"guild_id,notnull,type:varchar(20)"`
	UserID        string    `bun:"user_id,notnull,type:varchar(20)"`
	Amount        int64     `bun:"amount,notnull"`
	Category      string    `bun:"category,notnull,type:varchar(32)"`
	RelatedGameID *int64    `bun:"related_game_id,nullzero"`
	Description   string    `bun:"description,nullzero"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
