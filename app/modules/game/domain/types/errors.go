package gametypes

import (
	"errors"
	"fmt"

	sharedtypes "github.com/guildmint/gamecenter-bot/app/shared/types"
)

// ErrorCode tags every expected failure of a game-center operation. The bot
// and dashboard shells translate codes into user-facing messages; the engine
// never formats user copy.
type ErrorCode string

const (
	CodeGameNotFound           ErrorCode = "GAME_NOT_FOUND"
	CodeGameNotOpen            ErrorCode = "GAME_NOT_OPEN"
	CodeAlreadyJoined          ErrorCode = "ALREADY_JOINED"
	CodeGameFull               ErrorCode = "GAME_FULL"
	CodeInsufficientBalance    ErrorCode = "INSUFFICIENT_BALANCE"
	CodeNotParticipant         ErrorCode = "NOT_PARTICIPANT"
	CodeInvalidTeamNumber      ErrorCode = "INVALID_TEAM_NUMBER"
	CodeTeamFull               ErrorCode = "TEAM_FULL"
	CodeUnassignedParticipants ErrorCode = "UNASSIGNED_PARTICIPANTS"
	CodeGameAlreadyFinished    ErrorCode = "GAME_ALREADY_FINISHED"
	CodeRepositoryError        ErrorCode = "REPOSITORY_ERROR"
)

// GameError is the tagged failure union for all game-center operations.
// Only the fields relevant to the code are populated.
type GameError struct {
	Code ErrorCode

	TeamNumber sharedtypes.TeamNumber
	Max        int
	Current    int
	Required   sharedtypes.Amount
	Available  sharedtypes.Amount
	UserID     sharedtypes.UserID
	Count      int

	// Cause carries the underlying storage error for CodeRepositoryError.
	Cause error
}

func (e *GameError) Error() string {
	switch e.Code {
	case CodeGameFull:
		return fmt.Sprintf("%s: game is at capacity (max %d, current %d)", e.Code, e.Max, e.Current)
	case CodeInsufficientBalance:
		return fmt.Sprintf("%s: entry fee %d exceeds balance %d", e.Code, e.Required, e.Available)
	case CodeNotParticipant:
		if e.UserID != "" {
			return fmt.Sprintf("%s: user %s is not a participant", e.Code, e.UserID)
		}
		return string(e.Code)
	case CodeTeamFull:
		return fmt.Sprintf("%s: team %d is at capacity (max %d, current %d)", e.Code, e.TeamNumber, e.Max, e.Current)
	case CodeUnassignedParticipants:
		return fmt.Sprintf("%s: %d participants without a team", e.Code, e.Count)
	case CodeRepositoryError:
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	default:
		return string(e.Code)
	}
}

func (e *GameError) Unwrap() error { return e.Cause }

// Is allows errors.Is comparisons against another *GameError by code.
func (e *GameError) Is(target error) bool {
	var other *GameError
	if !errors.As(target, &other) {
		return false
	}
	return e.Code == other.Code
}

func NewGameNotFound() *GameError { return &GameError{Code: CodeGameNotFound} }

func NewGameNotOpen() *GameError { return &GameError{Code: CodeGameNotOpen} }

func NewAlreadyJoined() *GameError { return &GameError{Code: CodeAlreadyJoined} }

func NewGameFull(max, current int) *GameError {
	return &GameError{Code: CodeGameFull, Max: max, Current: current}
}

func NewInsufficientBalance(required, available sharedtypes.Amount) *GameError {
	return &GameError{Code: CodeInsufficientBalance, Required: required, Available: available}
}

func NewNotParticipant(userID sharedtypes.UserID) *GameError {
	return &GameError{Code: CodeNotParticipant, UserID: userID}
}

func NewInvalidTeamNumber(team sharedtypes.TeamNumber) *GameError {
	return &GameError{Code: CodeInvalidTeamNumber, TeamNumber: team}
}

func NewTeamFull(team sharedtypes.TeamNumber, max, current int) *GameError {
	return &GameError{Code: CodeTeamFull, TeamNumber: team, Max: max, Current: current}
}

func NewUnassignedParticipants(count int) *GameError {
	return &GameError{Code: CodeUnassignedParticipants, Count: count}
}

func NewGameAlreadyFinished() *GameError { return &GameError{Code: CodeGameAlreadyFinished} }

func NewRepositoryError(cause error) *GameError {
	return &GameError{Code: CodeRepositoryError, Cause: cause}
}

// AsGameError unwraps err into a *GameError if one is in the chain.
func AsGameError(err error) (*GameError, bool) {
	var ge *GameError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
