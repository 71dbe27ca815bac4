package gameservice

import (
	"context"
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

func TestGetGame(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the full read model", func(t *testing.T) {
		env := newTestEnv(t)
		faker := gofakeit.New(42)

		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:   "guild-1",
			ChannelID: "chan-1",
			CreatedBy: "alice",
			Title:     faker.Sentence(4),
		})
		require.NoError(t, err)

		users := make([]sharedtypes.UserID, 3)
		for i := range users {
			users[i] = sharedtypes.UserID(fmt.Sprintf("%s-%d", faker.Username(), i))
			env.wallet.SetBalance(game.GuildID, users[i], 100)
			_, err := env.svc.JoinGame(ctx, game.ID, users[i])
			require.NoError(t, err)
		}

		overview, err := env.svc.GetGame(ctx, game.ID)
		require.NoError(t, err)
		require.NotNil(t, overview.Game)
		assert.Equal(t, game.ID, overview.Game.ID)
		assert.Equal(t, sharedtypes.Amount(300), overview.Game.TotalPool)
		assert.Empty(t, overview.Results)

		want := make([]*gametypes.Participant, len(users))
		for i, u := range users {
			want[i] = &gametypes.Participant{
				GameID:       game.ID,
				GuildID:      game.GuildID,
				UserID:       u,
				EntryFeePaid: 100,
				Status:       gametypes.ParticipantRegistered,
			}
		}
		diff := cmp.Diff(want, overview.Participants,
			cmpopts.IgnoreFields(gametypes.Participant{}, "ID", "CreatedAt"))
		assert.Empty(t, diff, "participants should come back in join order")
	})

	t.Run("includes settlement rows after finish", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedRunningGame(t, env, CreateGameInput{
			GuildID:   "guild-1",
			ChannelID: "chan-1",
			CreatedBy: "alice",
			Title:     "settled game",
		}, map[sharedtypes.UserID]sharedtypes.TeamNumber{
			"bob": 1, "carol": 2,
		})

		_, err := env.svc.FinishGame(ctx, game.ID, []gametypes.TeamRank{
			{TeamNumber: 1, Rank: 1},
			{TeamNumber: 2, Rank: 2},
		})
		require.NoError(t, err)

		overview, err := env.svc.GetGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, gametypes.StatusFinished, overview.Game.Status)
		require.Len(t, overview.Results, 2)
		assert.Equal(t, sharedtypes.TeamNumber(1), overview.Results[0].TeamNumber)
		assert.Equal(t, 1, overview.Results[0].Rank)
	})

	t.Run("unknown game", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.GetGame(ctx, 9999)
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotFound, ge.Code)
	})
}
