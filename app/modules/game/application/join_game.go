package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/guildmint/gamecenter-bot/app/modules/game/domain/types"
	gamedb "github.com/guildmint/gamecenter-bot/app/modules/game/infrastructure/repositories"
	wallettypes "github.com/guildmint/gamecenter-bot/app/modules/wallet/domain/types"
	walletdb "github.com/guildmint/gamecenter-bot/app/modules/wallet/infrastructure/repositories"
	"github.com/guildmint/gamecenter-bot/app/shared/results"
	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// JoinGame registers the user and escrows the entry fee into the pool. The
// registration row, the debit, the pool increment, and the ledger entry
// commit in one transaction; every rejection happens before the first write,
// so a failed join leaves the balance untouched.
func (s *GameService) JoinGame(ctx context.Context, gameID sharedtypes.GameID, userID sharedtypes.UserID) (*gametypes.Participant, error) {
	unlock := s.lockGame(int64(gameID))
	defer unlock()

	joinTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return s.joinGameLogic(ctx, db, gameID, userID)
	}

	result, err := withTelemetry(s, ctx, "JoinGame", strconv.FormatInt(int64(gameID), 10), func(ctx context.Context) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return runInTx(s, ctx, joinTx)
	})
	return unwrapResult(result, err)
}

// joinGameLogic contains the core logic.
func (s *GameService) joinGameLogic(ctx context.Context, db bun.IDB, gameID sharedtypes.GameID, userID sharedtypes.UserID) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
	failure := func(ge *gametypes.GameError) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return results.FailureResult[*gametypes.Participant, *gametypes.GameError](ge), nil
	}
	infra := func(err error) (results.OperationResult[*gametypes.Participant, *gametypes.GameError], error) {
		return results.OperationResult[*gametypes.Participant, *gametypes.GameError]{}, err
	}

	game, err := s.games.GetByID(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return failure(gametypes.NewGameNotFound())
		}
		return infra(fmt.Errorf("failed to get game: %w", err))
	}
	if game.Status != gametypes.StatusOpen {
		return failure(gametypes.NewGameNotOpen())
	}

	if _, err := s.participants.GetByGameAndUser(ctx, db, gameID, userID); err == nil {
		return failure(gametypes.NewAlreadyJoined())
	} else if !errors.Is(err, gamedb.ErrNotFound) {
		return infra(err)
	}

	count, err := s.participants.CountByGame(ctx, db, gameID)
	if err != nil {
		return infra(err)
	}
	if max := game.MaxParticipants(); max > 0 && count >= max {
		return failure(gametypes.NewGameFull(max, count))
	}

	if game.EntryFee > 0 {
		available, err := s.wallet.FindBalance(ctx, db, game.GuildID, userID)
		if err != nil {
			return infra(err)
		}
		if available < game.EntryFee {
			return failure(gametypes.NewInsufficientBalance(game.EntryFee, available))
		}
	}

	// Checks are done; the registration row goes in before the debit so the
	// unique constraint fires before any money moves. Errors past this point
	// abort the transaction.
	participant := &gametypes.Participant{
		GameID:       gameID,
		GuildID:      game.GuildID,
		UserID:       userID,
		EntryFeePaid: game.EntryFee,
		Status:       gametypes.ParticipantRegistered,
		CreatedAt:    time.Now(),
	}
	if err := s.participants.Insert(ctx, db, participant); err != nil {
		if errors.Is(err, gamedb.ErrDuplicate) {
			return failure(gametypes.NewAlreadyJoined())
		}
		return infra(err)
	}

	if game.EntryFee > 0 {
		if _, err := s.wallet.AdjustBalance(ctx, db, game.GuildID, userID, game.EntryFee, wallettypes.OperationSubtract); err != nil {
			if errors.Is(err, walletdb.ErrInsufficientFunds) {
				return infra(fmt.Errorf("balance changed while joining game %d: %w", gameID, err))
			}
			return infra(fmt.Errorf("failed to debit entry fee: %w", err))
		}
		if err := s.games.AddToPool(ctx, db, gameID, game.EntryFee); err != nil {
			return infra(err)
		}
		if err := s.wallet.Record(ctx, db, &wallettypes.LedgerEntry{
			GuildID:       game.GuildID,
			UserID:        userID,
			Amount:        -game.EntryFee,
			Category:      wallettypes.CategoryGameStake,
			RelatedGameID: &gameID,
			Description:   "entry fee for " + game.Title,
		}); err != nil {
			return infra(err)
		}
	}

	return results.SuccessResult[*gametypes.Participant, *gametypes.GameError](participant), nil
}
