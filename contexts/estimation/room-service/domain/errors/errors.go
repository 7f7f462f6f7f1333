package errors

import "errors"

var (
	ErrInvalidRoomInput       = errors.New("invalid room input")
	ErrUnknownScale           = errors.New("card scale is not supported")
	ErrRoomNotFound           = errors.New("room not found")
	ErrRoomClosed             = errors.New("room is closed")
	ErrForbidden              = errors.New("participant role does not permit this action")
	ErrParticipantNotFound    = errors.New("participant not found")
	ErrLastFacilitator        = errors.New("room must keep at least one facilitator")
	ErrCodeExhausted          = errors.New("could not allocate an unused room code")
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	ErrIdempotencyKeyConflict = errors.New("idempotency key reused with a different request")
	ErrConflict               = errors.New("conflicting write")
	ErrPersistenceFailure     = errors.New("persistence failure, state unchanged")
)
