package gameservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	settingstypes "github.com/guildmint/gamecenter-bot/app/modules/settings/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

func amountPtr(a sharedtypes.Amount) *sharedtypes.Amount { return &a }

func intPtr(i int) *int { return &i }

func boolPtr(b bool) *bool { return &b }

func TestCreateGame(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults from guild settings", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:   "guild-1",
			ChannelID: "chan-1",
			CreatedBy: "alice",
			Title:     "Friday showdown",
		})
		require.NoError(t, err)
		assert.Equal(t, gametypes.StatusOpen, game.Status)
		assert.Equal(t, 2, game.TeamCount)
		assert.Equal(t, settingstypes.DefaultEntryFee, game.EntryFee)
		assert.Nil(t, game.CustomEntryFee)
		assert.Equal(t, sharedtypes.Amount(0), game.TotalPool)
	})

	t.Run("entry fee override is frozen on the row", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:   "guild-1",
			CreatedBy: "alice",
			Title:     "High stakes",
			EntryFee:  amountPtr(500),
		})
		require.NoError(t, err)
		assert.Equal(t, sharedtypes.Amount(500), game.EntryFee)
		require.NotNil(t, game.CustomEntryFee)
		assert.Equal(t, sharedtypes.Amount(500), *game.CustomEntryFee)
	})

	t.Run("approval flow parks the game", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:         "guild-1",
			CreatedBy:       "alice",
			Title:           "Needs a nod",
			RequireApproval: true,
		})
		require.NoError(t, err)
		assert.Equal(t, gametypes.StatusPendingApproval, game.Status)

		_, err = env.svc.JoinGame(ctx, game.ID, "bob")
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotOpen, ge.Code)

		approved, err := env.svc.ApproveGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, gametypes.StatusOpen, approved.Status)

		_, err = env.svc.ApproveGame(ctx, game.ID)
		ge, ok = gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotOpen, ge.Code)
	})

	t.Run("category supplies team shape", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings.SetCategory(&settingstypes.Category{
			ID:                7,
			GuildID:           "guild-1",
			Name:              "4v4v4",
			TeamCount:         3,
			MaxPlayersPerTeam: intPtr(4),
			Enabled:           true,
		})
		catID := sharedtypes.CategoryID(7)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:    "guild-1",
			CreatedBy:  "alice",
			Title:      "Triple threat",
			CategoryID: &catID,
		})
		require.NoError(t, err)
		assert.Equal(t, 3, game.TeamCount)
		require.NotNil(t, game.MaxPlayersPerTeam)
		assert.Equal(t, 4, *game.MaxPlayersPerTeam)
	})

	t.Run("unknown or foreign category is rejected", func(t *testing.T) {
		env := newTestEnv(t)
		env.settings.SetCategory(&settingstypes.Category{
			ID:        9,
			GuildID:   "other-guild",
			Name:      "foreign",
			TeamCount: 2,
			Enabled:   true,
		})
		for _, id := range []sharedtypes.CategoryID{9, 42} {
			catID := id
			_, err := env.svc.CreateGame(ctx, CreateGameInput{
				GuildID:    "guild-1",
				CreatedBy:  "alice",
				Title:      "nope",
				CategoryID: &catID,
			})
			ge, ok := gametypes.AsGameError(err)
			require.True(t, ok)
			assert.Equal(t, gametypes.CodeGameNotFound, ge.Code)
		}
	})

	t.Run("expiry scheduled when a TTL is set", func(t *testing.T) {
		env := newTestEnv(t)
		env.svc.ExpiryTTL = 2 * time.Hour
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:   "guild-1",
			CreatedBy: "alice",
			Title:     "sweepable",
		})
		require.NoError(t, err)
		require.Len(t, env.scheduler.scheduled, 1)
		assert.Equal(t, game.ID, env.scheduler.scheduled[0])
	})
}
