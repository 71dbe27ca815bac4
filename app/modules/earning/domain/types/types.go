package earningtypes

import (
	"time"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// Verdict is the outcome of an earning evaluation.
type Verdict string

const (
	VerdictGranted           Verdict = "granted"
	VerdictOnCooldown        Verdict = "on_cooldown"
	VerdictDailyLimitReached Verdict = "daily_limit_reached"
)

// Window is an hour-of-day range during which earnings are boosted. End is
// exclusive; a window with End <= Start wraps past midnight.
type Window struct {
	StartHour int `json:"start_hour"`
	EndHour   int `json:"end_hour"`
}

// Contains reports whether the clock hour of t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	h := t.Hour()
	if w.StartHour < w.EndHour {
		return h >= w.StartHour && h < w.EndHour
	}
	return h >= w.StartHour || h < w.EndHour
}

// Rule parameterizes one earning source. Every earning action a guild offers
// (chat activity, voice time, daily check-in) is the same evaluation with a
// different Rule; nothing else varies between them.
type Rule struct {
	Name       string             `json:"name"`
	BaseAmount sharedtypes.Amount `json:"base_amount"`
	// Cooldown is the minimum gap between grants. Zero disables it.
	Cooldown time.Duration `json:"cooldown"`
	// DailyLimit caps grants per calendar day. Zero means unlimited.
	DailyLimit int `json:"daily_limit"`
	// HotTimes boost the base amount when the grant lands inside a window.
	HotTimes []Window `json:"hot_times,omitempty"`
	// MultiplierPct is the hot-time boost in percent (200 doubles). Values
	// at or below 100 leave the base amount unchanged.
	MultiplierPct int64 `json:"multiplier_pct"`
}

// Evaluator applies earning rules. Stateless; callers supply the user's
// earning history and persist the grant themselves.
type Evaluator struct{}

// Evaluate decides whether a grant happens now and for how much. earnedToday
// counts prior grants on now's calendar day.
func (Evaluator) Evaluate(rule Rule, now time.Time, lastEarnedAt *time.Time, earnedToday int) (sharedtypes.Amount, Verdict) {
	if rule.DailyLimit > 0 && earnedToday >= rule.DailyLimit {
		return 0, VerdictDailyLimitReached
	}
	if rule.Cooldown > 0 && lastEarnedAt != nil && now.Sub(*lastEarnedAt) < rule.Cooldown {
		return 0, VerdictOnCooldown
	}

	amount := rule.BaseAmount
	if rule.MultiplierPct > 100 {
		for _, w := range rule.HotTimes {
			if w.Contains(now) {
				amount = sharedtypes.Amount(int64(amount) * rule.MultiplierPct / 100)
				break
			}
		}
	}
	return amount, VerdictGranted
}
