package domain

import "errors"

var (
	ErrInvalidPost     = errors.New("invalid post")
	ErrInvalidWindow   = errors.New("invalid availability window")
	ErrInvalidSlot     = errors.New("slot is not available for this post")
	ErrSelfRequest     = errors.New("cannot request a swap on your own post")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyResolved = errors.New("swap request already resolved")
	ErrAlreadyEnded    = errors.New("session already ended")
	ErrNotYetStarted   = errors.New("session has not started yet")
	ErrNotInProgress   = errors.New("session is not in progress")
	ErrNotCancellable  = errors.New("session in progress cannot be cancelled")

	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")

	ErrRoomFull          = errors.New("room is full")
	ErrNotAParticipant   = errors.New("not a participant of this session")
	ErrNotInRoom         = errors.New("connection has not joined this session")
	ErrSessionNotActive  = errors.New("session is not open for signaling")
	ErrTargetUnavailable = errors.New("target is not connected")
	ErrUnsupportedSignal = errors.New("unsupported signal type")
)
