package gamequeue

import (
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// GameExpiryJob cancels a game that outlived its TTL. The worker goes through
// the regular cancellation path, so a game that finished in the meantime is a
// no-op.
type GameExpiryJob struct {
	GameID sharedtypes.GameID `json:"game_id"`
}

// Kind returns the job type identifier for River.
func (GameExpiryJob) Kind() string { return "game_expiry" }

// JobInfo represents information about a scheduled job (for debugging/monitoring).
type JobInfo struct {
	ID          int64  `json:"id"`
	Kind        string `json:"kind"`
	GameID      string `json:"game_id"`
	State       string `json:"state"`
	ScheduledAt string `json:"scheduled_at"`
	CreatedAt   string `json:"created_at"`
	Attempt     int    `json:"attempt"`
	MaxAttempts int    `json:"max_attempts"`
}
