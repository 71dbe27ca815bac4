package gameservice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/observability"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ------------------------
// Fake Game Repo
// ------------------------

// FakeGameRepo is an in-memory GameRepository. State-backed by default; each
// Func field overrides one method for error injection.
type FakeGameRepo struct {
	games  map[sharedtypes.GameID]*gametypes.Game
	nextID int64

	GetByIDFunc        func(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (*gametypes.Game, error)
	UpdateStatusIfFunc func(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, to gametypes.Status, allowedFrom ...gametypes.Status) (bool, error)
	AddToPoolFunc      func(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, delta sharedtypes.Amount) error
}

func NewFakeGameRepo() *FakeGameRepo {
	return &FakeGameRepo{games: map[sharedtypes.GameID]*gametypes.Game{}}
}

func (f *FakeGameRepo) Create(ctx context.Context, db bun.IDB, game *gametypes.Game) error {
	f.nextID++
	game.ID = sharedtypes.GameID(f.nextID)
	stored := *game
	f.games[game.ID] = &stored
	return nil
}

func (f *FakeGameRepo) GetByID(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (*gametypes.Game, error) {
	if f.GetByIDFunc != nil {
		return f.GetByIDFunc(ctx, db, gameID)
	}
	stored, ok := f.games[gameID]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	copied := *stored
	return &copied, nil
}

func (f *FakeGameRepo) UpdateStatusIf(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, to gametypes.Status, allowedFrom ...gametypes.Status) (bool, error) {
	if f.UpdateStatusIfFunc != nil {
		return f.UpdateStatusIfFunc(ctx, db, gameID, to, allowedFrom...)
	}
	stored, ok := f.games[gameID]
	if !ok {
		return false, nil
	}
	for _, from := range allowedFrom {
		if stored.Status == from {
			stored.Status = to
			if to.Terminal() {
				now := time.Now()
				stored.FinishedAt = &now
			}
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeGameRepo) AddToPool(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, delta sharedtypes.Amount) error {
	if f.AddToPoolFunc != nil {
		return f.AddToPoolFunc(ctx, db, gameID, delta)
	}
	stored, ok := f.games[gameID]
	if !ok {
		return gamedb.ErrNotFound
	}
	stored.TotalPool += delta
	return nil
}

func (f *FakeGameRepo) ListExpired(ctx context.Context, db bun.IDB, cutoff time.Time) ([]*gametypes.Game, error) {
	var out []*gametypes.Game
	for _, g := range f.games {
		if !g.Status.Terminal() && g.CreatedAt.Before(cutoff) {
			copied := *g
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Stored returns the canonical state of a game, bypassing copies.
func (f *FakeGameRepo) Stored(gameID sharedtypes.GameID) *gametypes.Game {
	return f.games[gameID]
}

var _ gamedb.GameRepository = (*FakeGameRepo)(nil)

// ------------------------
// Fake Participant Repo
// ------------------------

type FakeParticipantRepo struct {
	rows   []*gametypes.Participant
	nextID int64

	InsertFunc       func(ctx context.Context, db bun.IDB, participant *gametypes.Participant) error
	MarkRewardedFunc func(ctx context.Context, db bun.IDB, participantID int64, reward sharedtypes.Amount, settledAt time.Time) error
	MarkRefundedFunc func(ctx context.Context, db bun.IDB, participantID int64, settledAt time.Time) error
}

func NewFakeParticipantRepo() *FakeParticipantRepo {
	return &FakeParticipantRepo{}
}

func (f *FakeParticipantRepo) find(gameID sharedtypes.GameID, userID sharedtypes.UserID) *gametypes.Participant {
	for _, p := range f.rows {
		if p.GameID == gameID && p.UserID == userID {
			return p
		}
	}
	return nil
}

func (f *FakeParticipantRepo) Insert(ctx context.Context, db bun.IDB, participant *gametypes.Participant) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, db, participant)
	}
	if f.find(participant.GameID, participant.UserID) != nil {
		return gamedb.ErrDuplicate
	}
	f.nextID++
	participant.ID = f.nextID
	stored := *participant
	f.rows = append(f.rows, &stored)
	return nil
}

func (f *FakeParticipantRepo) GetByGameAndUser(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error) {
	if p := f.find(gameID, userID); p != nil {
		copied := *p
		return &copied, nil
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeParticipantRepo) ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Participant, error) {
	var out []*gametypes.Participant
	for _, p := range f.rows {
		if p.GameID == gameID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (f *FakeParticipantRepo) CountByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) (int, error) {
	count := 0
	for _, p := range f.rows {
		if p.GameID == gameID {
			count++
		}
	}
	return count, nil
}

func (f *FakeParticipantRepo) CountByTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, team sharedtypes.TeamNumber) (int, error) {
	count := 0
	for _, p := range f.rows {
		if p.GameID == gameID && p.TeamNumber != nil && *p.TeamNumber == team {
			count++
		}
	}
	return count, nil
}

func (f *FakeParticipantRepo) SetTeam(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID, team *sharedtypes.TeamNumber) (bool, error) {
	p := f.find(gameID, userID)
	if p == nil {
		return false, nil
	}
	if team == nil {
		p.TeamNumber = nil
	} else {
		t := *team
		p.TeamNumber = &t
	}
	return true, nil
}

func (f *FakeParticipantRepo) MarkAllAssigned(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) error {
	for _, p := range f.rows {
		if p.GameID == gameID && p.TeamNumber != nil && p.Status == gametypes.ParticipantRegistered {
			p.Status = gametypes.ParticipantAssigned
		}
	}
	return nil
}

func (f *FakeParticipantRepo) Delete(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (bool, error) {
	for i, p := range f.rows {
		if p.GameID == gameID && p.UserID == userID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeParticipantRepo) MarkRewarded(ctx context.Context, db bun.IDB, participantID int64, reward sharedtypes.Amount, settledAt time.Time) error {
	if f.MarkRewardedFunc != nil {
		return f.MarkRewardedFunc(ctx, db, participantID, reward, settledAt)
	}
	for _, p := range f.rows {
		if p.ID == participantID {
			p.Status = gametypes.ParticipantRewarded
			p.Reward = reward
			at := settledAt
			p.SettledAt = &at
		}
	}
	return nil
}

func (f *FakeParticipantRepo) MarkRefunded(ctx context.Context, db bun.IDB, participantID int64, settledAt time.Time) error {
	if f.MarkRefundedFunc != nil {
		return f.MarkRefundedFunc(ctx, db, participantID, settledAt)
	}
	for _, p := range f.rows {
		if p.ID == participantID {
			p.Status = gametypes.ParticipantRefunded
			at := settledAt
			p.SettledAt = &at
		}
	}
	return nil
}

// Stored returns the canonical row for assertions.
func (f *FakeParticipantRepo) Stored(gameID sharedtypes.GameID, userID sharedtypes.UserID) *gametypes.Participant {
	return f.find(gameID, userID)
}

var _ gamedb.ParticipantRepository = (*FakeParticipantRepo)(nil)

// ------------------------
// Fake Result Repo
// ------------------------

type FakeResultRepo struct {
	rows []*gametypes.Result

	InsertFunc func(ctx context.Context, db bun.IDB, result *gametypes.Result) error
}

func NewFakeResultRepo() *FakeResultRepo {
	return &FakeResultRepo{}
}

func (f *FakeResultRepo) Insert(ctx context.Context, db bun.IDB, result *gametypes.Result) error {
	if f.InsertFunc != nil {
		return f.InsertFunc(ctx, db, result)
	}
	stored := *result
	f.rows = append(f.rows, &stored)
	return nil
}

func (f *FakeResultRepo) ListByGame(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID) ([]*gametypes.Result, error) {
	var out []*gametypes.Result
	for _, r := range f.rows {
		if r.GameID == gameID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

var _ gamedb.ResultRepository = (*FakeResultRepo)(nil)

// ------------------------
// Fake Wallet
// ------------------------

type FakeWallet struct {
	balances map[string]sharedtypes.Amount
	entries  []*wallettypes.LedgerEntry

	AdjustBalanceFunc func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount, op wallettypes.Operation) (sharedtypes.Amount, error)
}

func NewFakeWallet() *FakeWallet {
	return &FakeWallet{balances: map[string]sharedtypes.Amount{}}
}

func walletKey(guildID sharedtypes.GuildID, userID sharedtypes.UserID) string {
	return string(guildID) + "/" + string(userID)
}

// SetBalance seeds a wallet before the scenario runs.
func (f *FakeWallet) SetBalance(guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount) {
	f.balances[walletKey(guildID, userID)] = amount
}

// Balance reads a wallet for assertions.
func (f *FakeWallet) Balance(guildID sharedtypes.GuildID, userID sharedtypes.UserID) sharedtypes.Amount {
	return f.balances[walletKey(guildID, userID)]
}

func (f *FakeWallet) FindBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID) (sharedtypes.Amount, error) {
	return f.balances[walletKey(guildID, userID)], nil
}

func (f *FakeWallet) AdjustBalance(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, userID sharedtypes.UserID, amount sharedtypes.Amount, op wallettypes.Operation) (sharedtypes.Amount, error) {
	if f.AdjustBalanceFunc != nil {
		return f.AdjustBalanceFunc(ctx, db, guildID, userID, amount, op)
	}
	key := walletKey(guildID, userID)
	switch op {
	case wallettypes.OperationAdd:
		f.balances[key] += amount
	case wallettypes.OperationSubtract:
		if f.balances[key] < amount {
			return 0, walletdb.ErrInsufficientFunds
		}
		f.balances[key] -= amount
	}
	return f.balances[key], nil
}

func (f *FakeWallet) Record(ctx context.Context, db bun.IDB, entry *wallettypes.LedgerEntry) error {
	stored := *entry
	f.entries = append(f.entries, &stored)
	return nil
}

// Entries returns the recorded ledger for assertions.
func (f *FakeWallet) Entries() []*wallettypes.LedgerEntry {
	return f.entries
}

var _ WalletPort = (*FakeWallet)(nil)

// ------------------------
// Fake Settings
// ------------------------

type FakeSettings struct {
	settings   map[sharedtypes.GuildID]*settingstypes.Settings
	categories map[sharedtypes.CategoryID]*settingstypes.Category
}

func NewFakeSettings() *FakeSettings {
	return &FakeSettings{
		settings:   map[sharedtypes.GuildID]*settingstypes.Settings{},
		categories: map[sharedtypes.CategoryID]*settingstypes.Category{},
	}
}

func (f *FakeSettings) SetSettings(s *settingstypes.Settings) {
	f.settings[s.GuildID] = s
}

func (f *FakeSettings) SetCategory(c *settingstypes.Category) {
	f.categories[c.ID] = c
}

func (f *FakeSettings) GetOrDefault(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error) {
	if s, ok := f.settings[guildID]; ok {
		return s, nil
	}
	return settingstypes.Default(guildID), nil
}

func (f *FakeSettings) GetCategory(ctx context.Context, db bun.IDB, id sharedtypes.CategoryID) (*settingstypes.Category, error) {
	if c, ok := f.categories[id]; ok {
		return c, nil
	}
	return nil, settingsdb.ErrNotFound
}

var _ SettingsPort = (*FakeSettings)(nil)

// ------------------------
// Fake Publisher / Scheduler
// ------------------------

type FakePublisher struct {
	topics []string
}

func (f *FakePublisher) Publish(topic string, messages ...*message.Message) error {
	f.topics = append(f.topics, topic)
	return nil
}

func (f *FakePublisher) Topics() []string { return f.topics }

var _ EventPublisher = (*FakePublisher)(nil)

type FakeScheduler struct {
	scheduled []sharedtypes.GameID
	cancelled []sharedtypes.GameID
}

func (f *FakeScheduler) ScheduleExpiry(ctx context.Context, gameID sharedtypes.GameID, at time.Time) error {
	f.scheduled = append(f.scheduled, gameID)
	return nil
}

func (f *FakeScheduler) CancelExpiry(ctx context.Context, gameID sharedtypes.GameID) error {
	f.cancelled = append(f.cancelled, gameID)
	return nil
}

var _ ExpiryScheduler = (*FakeScheduler)(nil)

// ------------------------
// Test environment
// ------------------------

type testEnv struct {
	games        *FakeGameRepo
	participants *FakeParticipantRepo
	results      *FakeResultRepo
	wallet       *FakeWallet
	settings     *FakeSettings
	publisher    *FakePublisher
	scheduler    *FakeScheduler
	svc          *GameService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		games:        NewFakeGameRepo(),
		participants: NewFakeParticipantRepo(),
		results:      NewFakeResultRepo(),
		wallet:       NewFakeWallet(),
		settings:     NewFakeSettings(),
		publisher:    &FakePublisher{},
		scheduler:    &FakeScheduler{},
	}
	env.svc = NewGameService(
		env.games,
		env.participants,
		env.results,
		env.wallet,
		env.settings,
		env.publisher,
		env.scheduler,
		slog.New(slog.DiscardHandler),
		observability.NoOpMetrics{},
		nil,
		nil,
	)
	return env
}
