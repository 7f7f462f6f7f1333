package errors

import "errors"

var (
	ErrForbidden          = errors.New("participant role does not permit this action")
	ErrInvalidValue       = errors.New("value is not part of the room card scale")
	ErrInvalidStoryInput  = errors.New("invalid story input")
	ErrInvalidStoryState  = errors.New("story is not in a state that permits this transition")
	ErrRoundClosed        = errors.New("voting round is closed")
	ErrAlreadyRevealed    = errors.New("voting round is already revealed")
	ErrRoundActive        = errors.New("story already has an active voting round")
	ErrNoActiveRound      = errors.New("story has no active voting round")
	ErrRoundMismatch      = errors.New("round does not match the story's active round")
	ErrRoomNotFound       = errors.New("room not found")
	ErrRoomNotActive      = errors.New("room is not active")
	ErrStoryNotFound      = errors.New("story not found")
	ErrRoundNotFound      = errors.New("voting round not found")
	ErrVoteNotFound       = errors.New("vote not found")
	ErrConflict           = errors.New("conflicting write")
	ErrPersistenceFailure = errors.New("persistence failure, state unchanged")
)
