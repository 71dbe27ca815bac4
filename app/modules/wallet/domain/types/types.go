package wallettypes

import (
	"time"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Operation is the direction of a balance adjustment.
type Operation string

const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
)

// LedgerCategory classifies a ledger entry. The game center writes one entry
// per wallet mutation it performs.
type LedgerCategory string

const (
	CategoryGameStake  LedgerCategory = "game_stake"
	CategoryGameRefund LedgerCategory = "game_refund"
	CategoryGameReward LedgerCategory = "game_reward"
	CategoryGameCancel LedgerCategory = "game_cancel"
)

// LedgerEntry is one append-only record of a wallet mutation. Amount is
// signed: negative for debits, positive for credits.
type LedgerEntry struct {
	ID            int64               `json:"id"`
	GuildID       sharedtypes.GuildID `json:"guild_id"`
	UserID        sharedtypes.UserID  `json:"user_id"`
	Amount        sharedtypes.Amount  `json:"amount"`
	Category      LedgerCategory      `json:"category"`
	RelatedGameID *sharedtypes.GameID `json:"related_game_id,omitempty"`
	Description   string              `json:"description"`
	CreatedAt     time.Time           `json:"created_at"`
}
