package gameservice

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

func TestAssignTeam(t *testing.T) {
	ctx := context.Background()

	join := func(t *testing.T, env *testEnv, game *gametypes.Game, users ...sharedtypes.UserID) {
		t.Helper()
		for _, u := range users {
			env.wallet.SetBalance(game.GuildID, u, 100)
			_, err := env.svc.JoinGame(ctx, game.ID, u)
			require.NoError(t, err)
		}
	}

	t.Run("first assignment closes the roster", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		join(t, env, game, "bob", "carol")

		ps, err := env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"bob"})
		require.NoError(t, err)
		require.Len(t, ps, 1)
		require.NotNil(t, ps[0].TeamNumber)
		assert.Equal(t, sharedtypes.TeamNumber(1), *ps[0].TeamNumber)
		assert.Equal(t, gametypes.StatusTeamAssign, env.games.Stored(game.ID).Status)

		env.wallet.SetBalance(game.GuildID, "dave", 100)
		_, err = env.svc.JoinGame(ctx, game.ID, "dave")
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotOpen, ge.Code)
	})

	t.Run("batch places the whole group at once", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		join(t, env, game, "bob", "carol", "dave")

		ps, err := env.svc.AssignTeam(ctx, game.ID, 2, []sharedtypes.UserID{"bob", "carol", "dave"})
		require.NoError(t, err)
		require.Len(t, ps, 3)
		for _, p := range ps {
			require.NotNil(t, p.TeamNumber)
			assert.Equal(t, sharedtypes.TeamNumber(2), *p.TeamNumber)
		}
	})

	t.Run("team number bounds", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		join(t, env, game, "bob")

		for _, team := range []sharedtypes.TeamNumber{0, 3, -1} {
			_, err := env.svc.AssignTeam(ctx, game.ID, team, []sharedtypes.UserID{"bob"})
			ge, ok := gametypes.AsGameError(err)
			require.True(t, ok)
			assert.Equal(t, gametypes.CodeInvalidTeamNumber, ge.Code)
			assert.Equal(t, team, ge.TeamNumber)
		}
	})

	t.Run("team capacity counts prospective size", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:           "guild-1",
			CreatedBy:         "alice",
			Title:             "1v1",
			MaxPlayersPerTeam: intPtr(1),
		})
		require.NoError(t, err)
		join(t, env, game, "bob", "carol")

		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"bob"})
		require.NoError(t, err)

		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"carol"})
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeTeamFull, ge.Code)
		assert.Equal(t, sharedtypes.TeamNumber(1), ge.TeamNumber)
		assert.Equal(t, 1, ge.Max)
		assert.Equal(t, 1, ge.Current)

		// Re-assigning to your own team is a no-op, never TEAM_FULL.
		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"bob"})
		require.NoError(t, err)
	})

	t.Run("oversized batch is rejected whole", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:           "guild-1",
			CreatedBy:         "alice",
			Title:             "2v2",
			MaxPlayersPerTeam: intPtr(2),
		})
		require.NoError(t, err)
		join(t, env, game, "a", "b", "c")

		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"a"})
		require.NoError(t, err)

		// One seat left, two newcomers: nobody is placed.
		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"b", "c"})
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeTeamFull, ge.Code)
		assert.Equal(t, 2, ge.Max)
		assert.Equal(t, 1, ge.Current)
		assert.Nil(t, env.participants.Stored(game.ID, "b").TeamNumber)
		assert.Nil(t, env.participants.Stored(game.ID, "c").TeamNumber)
	})

	t.Run("duplicate user ids count once", func(t *testing.T) {
		env := newTestEnv(t)
		game, err := env.svc.CreateGame(ctx, CreateGameInput{
			GuildID:           "guild-1",
			CreatedBy:         "alice",
			Title:             "1v1",
			MaxPlayersPerTeam: intPtr(1),
		})
		require.NoError(t, err)
		join(t, env, game, "bob")

		ps, err := env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"bob", "bob"})
		require.NoError(t, err)
		assert.Len(t, ps, 1)
	})

	t.Run("unknown user rejects the batch before placing anyone", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		join(t, env, game, "bob")

		_, err := env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"bob", "ghost"})
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeNotParticipant, ge.Code)
		assert.Equal(t, sharedtypes.UserID("ghost"), ge.UserID)
		assert.Nil(t, env.participants.Stored(game.ID, "bob").TeamNumber)
		assert.Equal(t, gametypes.StatusOpen, env.games.Stored(game.ID).Status)
	})

	t.Run("unassign clears a placement", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		join(t, env, game, "bob")

		_, err := env.svc.AssignTeam(ctx, game.ID, 2, []sharedtypes.UserID{"bob"})
		require.NoError(t, err)
		p, err := env.svc.UnassignTeam(ctx, game.ID, "bob")
		require.NoError(t, err)
		assert.Nil(t, p.TeamNumber)
		// The roster stays closed.
		assert.Equal(t, gametypes.StatusTeamAssign, env.games.Stored(game.ID).Status)
	})

	t.Run("unassign for a non-participant", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)

		_, err := env.svc.UnassignTeam(ctx, game.ID, "ghost")
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeNotParticipant, ge.Code)
	})
}

func TestStartGame(t *testing.T) {
	ctx := context.Background()

	t.Run("unassigned participants block the start", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		for _, u := range []sharedtypes.UserID{"a", "b", "c"} {
			env.wallet.SetBalance(game.GuildID, u, 100)
			_, err := env.svc.JoinGame(ctx, game.ID, u)
			require.NoError(t, err)
		}
		_, err := env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"a"})
		require.NoError(t, err)

		_, err = env.svc.StartGame(ctx, game.ID)
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeUnassignedParticipants, ge.Code)
		assert.Equal(t, 2, ge.Count)
	})

	t.Run("start locks everyone in", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		for _, u := range []sharedtypes.UserID{"a", "b"} {
			env.wallet.SetBalance(game.GuildID, u, 100)
			_, err := env.svc.JoinGame(ctx, game.ID, u)
			require.NoError(t, err)
		}
		for i, u := range []sharedtypes.UserID{"a", "b"} {
			_, err := env.svc.AssignTeam(ctx, game.ID, sharedtypes.TeamNumber(i+1), []sharedtypes.UserID{u})
			require.NoError(t, err)
		}

		started, err := env.svc.StartGame(ctx, game.ID)
		require.NoError(t, err)
		assert.Equal(t, gametypes.StatusInProgress, started.Status)
		assert.Equal(t, gametypes.ParticipantAssigned, env.participants.Stored(game.ID, "a").Status)

		_, err = env.svc.AssignTeam(ctx, game.ID, 2, []sharedtypes.UserID{"a"})
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotOpen, ge.Code)
	})

	t.Run("lost status claim marks nobody assigned", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		env.wallet.SetBalance(game.GuildID, "a", 100)
		_, err := env.svc.JoinGame(ctx, game.ID, "a")
		require.NoError(t, err)
		_, err = env.svc.AssignTeam(ctx, game.ID, 1, []sharedtypes.UserID{"a"})
		require.NoError(t, err)

		env.games.UpdateStatusIfFunc = func(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, to gametypes.Status, allowedFrom ...gametypes.Status) (bool, error) {
			return false, nil
		}
		_, err = env.svc.StartGame(ctx, game.ID)
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameNotOpen, ge.Code)
		assert.Equal(t, gametypes.ParticipantRegistered, env.participants.Stored(game.ID, "a").Status)
	})

	t.Run("starting a finished game", func(t *testing.T) {
		env := newTestEnv(t)
		game := seedOpenGame(t, env)
		_, err := env.svc.CancelGame(ctx, game.ID)
		require.NoError(t, err)

		_, err = env.svc.StartGame(ctx, game.ID)
		ge, ok := gametypes.AsGameError(err)
		require.True(t, ok)
		assert.Equal(t, gametypes.CodeGameAlreadyFinished, ge.Code)
	})
}
