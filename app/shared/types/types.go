package sharedtypes

// GuildID is a Discord guild (server) snowflake.
type GuildID string

// ChannelID is a Discord channel snowflake.
type ChannelID string

// UserID is a Discord user snowflake.
type UserID string

// GameID identifies a single game-center match.
type GameID int64

// CategoryID identifies a guild-defined game category template.
type CategoryID int64

// TeamNumber is a 1-based team index within a game.
type TeamNumber int

// Amount is a monetary value in integer minor units. Never a float.
type Amount int64

// RankRewards maps a finishing rank (1 = first place) to the percentage of
// the pool awarded to that rank's team. Stored tables sum to 100; tables are
// re-normalized at settlement over the ranks actually reported.
type RankRewards map[int]int64

// Clone returns a copy of the table. A nil receiver yields nil.
func (r RankRewards) Clone() RankRewards {
	if r == nil {
		return nil
	}
	out := make(RankRewards, len(r))
	for rank, pct := range r {
		out[rank] = pct
	}
	return out
}

// Total returns the sum of all percentages in the table.
func (r RankRewards) Total() int64 {
	var sum int64
	for _, pct := range r {
		sum += pct
	}
	return sum
}

// WinnerTakesAll is the 2-team shortcut table: first place takes the pool.
func WinnerTakesAll() RankRewards {
	return RankRewards{1: 100, 2: 0}
}
