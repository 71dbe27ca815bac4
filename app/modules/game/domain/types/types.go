package gametypes

import (
	"time"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Status is the lifecycle state of a game.
type Status string

const (
	StatusPendingApproval Status = "pending_approval"
	StatusOpen            Status = "open"
	StatusTeamAssign      Status = "team_assign"
	StatusInProgress      Status = "in_progress"
	StatusFinished        Status = "finished"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether the status is final. Terminal games are never
// mutated again; the transition into a terminal state is the idempotency
// guard for settlement and cancellation.
func (s Status) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// NonTerminalStatuses lists every state a game can be settled or cancelled from.
func NonTerminalStatuses() []Status {
	return []Status{StatusPendingApproval, StatusOpen, StatusTeamAssign, StatusInProgress}
}

// ParticipantStatus tracks a participant's registration and settlement state.
type ParticipantStatus string

const (
	ParticipantRegistered ParticipantStatus = "registered"
	ParticipantAssigned   ParticipantStatus = "assigned"
	ParticipantRewarded   ParticipantStatus = "rewarded"
	ParticipantRefunded   ParticipantStatus = "refunded"
)

// Game is one match instance. Entry fee and overrides are fixed at creation;
// the reward table is resolved lazily at settlement time (see ResolveRewardTable).
type Game struct {
	ID                   sharedtypes.GameID      `json:"id"`
	GuildID              sharedtypes.GuildID     `json:"guild_id"`
	ChannelID            sharedtypes.ChannelID   `json:"channel_id"`
	CategoryID           *sharedtypes.CategoryID `json:"category_id"`
	Title                string                  `json:"title"`
	TeamCount            int                     `json:"team_count"`
	EntryFee             sharedtypes.Amount      `json:"entry_fee"`
	TotalPool            sharedtypes.Amount      `json:"total_pool"`
	Status               Status                  `json:"status"`
	MaxPlayersPerTeam    *int                    `json:"max_players_per_team"`
	CustomRankRewards    sharedtypes.RankRewards `json:"custom_rank_rewards,omitempty"`
	CustomWinnerTakesAll *bool                   `json:"custom_winner_takes_all,omitempty"`
	CustomEntryFee       *sharedtypes.Amount     `json:"custom_entry_fee,omitempty"`
	CreatedBy            sharedtypes.UserID      `json:"created_by"`
	CreatedAt            time.Time               `json:"created_at"`
	FinishedAt           *time.Time              `json:"finished_at,omitempty"`
}

// MaxParticipants returns the total capacity of the game, or 0 when the game
// has no per-team cap (unlimited).
func (g *Game) MaxParticipants() int {
	if g.MaxPlayersPerTeam == nil {
		return 0
	}
	return *g.MaxPlayersPerTeam * g.TeamCount
}

// Participant is one user's registration and settlement record within a game.
// At most one participant exists per (game, user).
type Participant struct {
	ID           int64                   `json:"id"`
	GameID       sharedtypes.GameID      `json:"game_id"`
	GuildID      sharedtypes.GuildID     `json:"guild_id"`
	UserID       sharedtypes.UserID      `json:"user_id"`
	TeamNumber   *sharedtypes.TeamNumber `json:"team_number"`
	EntryFeePaid sharedtypes.Amount      `json:"entry_fee_paid"`
	Reward       sharedtypes.Amount      `json:"reward"`
	Status       ParticipantStatus       `json:"status"`
	CreatedAt    time.Time               `json:"created_at"`
	SettledAt    *time.Time              `json:"settled_at,omitempty"`
}

// Assigned reports whether the participant has been placed on a team.
func (p *Participant) Assigned() bool {
	return p.TeamNumber != nil
}

// Result is the append-only audit record of a team's settlement: its final
// rank, its normalized share of the pool in basis points, and the total
// amount paid to the team.
type Result struct {
	ID              string                 `json:"id"`
	GameID          sharedtypes.GameID     `json:"game_id"`
	TeamNumber      sharedtypes.TeamNumber `json:"team_number"`
	Rank            int                    `json:"rank"`
	RewardPercentBP int64                  `json:"reward_percent_bp"`
	TotalReward     sharedtypes.Amount     `json:"total_reward"`
	CreatedAt       time.Time              `json:"created_at"`
}

// TeamRank is one entry of the final ranking reported at settlement.
type TeamRank struct {
	TeamNumber sharedtypes.TeamNumber `json:"team_number"`
	Rank       int                    `json:"rank"`
}

// Settlement is the outcome of finishing a game.
type Settlement struct {
	Game    *Game     `json:"game"`
	Results []*Result `json:"results"`
}

// CancelOutcome is the outcome of cancelling a game. RefundedCount may be
// lower than the participant total when individual refunds failed; callers
// reconcile the two.
type CancelOutcome struct {
	Game             *Game `json:"game"`
	RefundedCount    int   `json:"refunded_count"`
	ParticipantCount int   `json:"participant_count"`
}
