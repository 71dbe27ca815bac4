package settingsservice

import (
	"context"
	"errors"
	"testing"

	"github.com/uptrace/bun"

	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	settingsdb "github.com/guildmint/gamecenter-bot/app/modules/settings/infrastructure/repositories"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// fakeSettingsRepo is a programmable stub for SettingsRepository.
type fakeSettingsRepo struct {
	GetFunc    func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error)
	UpsertFunc func(ctx context.Context, db bun.IDB, settings *settingstypes.Settings) error
	UpdateFunc func(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, updates *settingsdb.SettingsUpdateFields) error
}

func (f *fakeSettingsRepo) Get(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID) (*settingstypes.Settings, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, db, guildID)
	}
	return nil, settingsdb.ErrNotFound
}

func (f *fakeSettingsRepo) Upsert(ctx context.Context, db bun.IDB, settings *settingstypes.Settings) error {
	if f.UpsertFunc != nil {
		return f.UpsertFunc(ctx, db, settings)
	}
	return nil
}

func (f *fakeSettingsRepo) Update(ctx context.Context, db bun.IDB, guildID sharedtypes.GuildID, updates *settingsdb.SettingsUpdateFields) error {
	if f.UpdateFunc != nil {
		return f.UpdateFunc(ctx, db, guildID, updates)
	}
	return nil
}

type fakeCategoryRepo struct {
	CreateFunc func(ctx context.Context, db bun.IDB, category *settingstypes.Category) error
}

func (f *fakeCategoryRepo) Create(ctx context.Context, db bun.IDB, category *settingstypes.Category) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, category)
	}
	category.ID = 1
	return nil
}

func (f *fakeCategoryRepo) GetByID(context.Context, bun.IDB, sharedtypes.CategoryID) (*settingstypes.Category, error) {
	return nil, settingsdb.ErrNotFound
}

func (f *fakeCategoryRepo) ListEnabled(context.Context, bun.IDB, sharedtypes.GuildID) ([]settingstypes.Category, error) {
	return nil, nil
}

func (f *fakeCategoryRepo) Update(context.Context, bun.IDB, sharedtypes.CategoryID, *settingsdb.CategoryUpdateFields) error {
	return nil
}

func TestGetOrDefault(t *testing.T) {
	ctx := context.Background()
	guildID := sharedtypes.GuildID("guild-1")

	t.Run("missing row yields defaults", func(t *testing.T) {
		svc := NewService(&fakeSettingsRepo{}, &fakeCategoryRepo{}, nil)
		got, err := svc.GetOrDefault(ctx, nil, guildID)
		if err != nil {
			t.Fatalf("GetOrDefault: %v", err)
		}
		if got.EntryFee != settingstypes.DefaultEntryFee {
			t.Errorf("entry fee = %d, want %d", got.EntryFee, settingstypes.DefaultEntryFee)
		}
		if got.RankRewards.Total() != 100 {
			t.Errorf("default table sums to %d, want 100", got.RankRewards.Total())
		}
	})

	t.Run("partial row is backfilled", func(t *testing.T) {
		repo := &fakeSettingsRepo{
			GetFunc: func(context.Context, bun.IDB, sharedtypes.GuildID) (*settingstypes.Settings, error) {
				return &settingstypes.Settings{GuildID: guildID, EntryFee: 250}, nil
			},
		}
		svc := NewService(repo, &fakeCategoryRepo{}, nil)
		got, err := svc.GetOrDefault(ctx, nil, guildID)
		if err != nil {
			t.Fatalf("GetOrDefault: %v", err)
		}
		if got.EntryFee != 250 {
			t.Errorf("entry fee = %d, want 250", got.EntryFee)
		}
		if len(got.RankRewards) == 0 {
			t.Error("rank rewards not backfilled")
		}
	})

	t.Run("infrastructure errors pass through", func(t *testing.T) {
		boom := errors.New("connection refused")
		repo := &fakeSettingsRepo{
			GetFunc: func(context.Context, bun.IDB, sharedtypes.GuildID) (*settingstypes.Settings, error) {
				return nil, boom
			},
		}
		svc := NewService(repo, &fakeCategoryRepo{}, nil)
		if _, err := svc.GetOrDefault(ctx, nil, guildID); !errors.Is(err, boom) {
			t.Errorf("err = %v, want %v", err, boom)
		}
	})
}

func TestUpsertSettingsValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeSettingsRepo{}, &fakeCategoryRepo{}, nil)

	tests := []struct {
		name     string
		settings *settingstypes.Settings
		wantErr  bool
	}{
		{
			name: "valid table",
			settings: &settingstypes.Settings{
				GuildID:     "guild-1",
				EntryFee:    100,
				RankRewards: sharedtypes.RankRewards{1: 60, 2: 40},
			},
		},
		{
			name: "table not summing to 100",
			settings: &settingstypes.Settings{
				GuildID:     "guild-1",
				EntryFee:    100,
				RankRewards: sharedtypes.RankRewards{1: 60, 2: 30},
			},
			wantErr: true,
		},
		{
			name: "empty table",
			settings: &settingstypes.Settings{
				GuildID:  "guild-1",
				EntryFee: 100,
			},
			wantErr: true,
		},
		{
			name: "negative entry fee",
			settings: &settingstypes.Settings{
				GuildID:     "guild-1",
				EntryFee:    -1,
				RankRewards: sharedtypes.RankRewards{1: 100},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.UpsertSettings(ctx, nil, tt.settings)
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateCategoryValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeSettingsRepo{}, &fakeCategoryRepo{}, nil)

	one := 1
	zero := 0

	tests := []struct {
		name     string
		category *settingstypes.Category
		wantErr  error
	}{
		{
			name:     "valid",
			category: &settingstypes.Category{GuildID: "g", Name: "1v1 duels", TeamCount: 2, MaxPlayersPerTeam: &one},
		},
		{
			name:     "missing name",
			category: &settingstypes.Category{GuildID: "g", TeamCount: 2},
			wantErr:  ErrEmptyName,
		},
		{
			name:     "too few teams",
			category: &settingstypes.Category{GuildID: "g", Name: "solo", TeamCount: 1},
			wantErr:  ErrInvalidTeamCount,
		},
		{
			name:     "zero cap",
			category: &settingstypes.Category{GuildID: "g", Name: "x", TeamCount: 2, MaxPlayersPerTeam: &zero},
			wantErr:  errors.New("any"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CreateCategory(ctx, nil, tt.category)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("CreateCategory: %v", err)
				}
				if !tt.category.Enabled {
					t.Error("category not enabled on create")
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
