package authsession

import "errors"

var (
	// ErrConfirmationKeyIncorrect is an exported constant or variable used by the session registry.
	ErrConfirmationKeyIncorrect = errors.New("Confirmation key incorrect")
	// ErrConfirmationRateLimited is an exported constant or variable used by the session registry.
	ErrConfirmationRateLimited = errors.New("confirmation attempts rate limited")
	// ErrConfirmationUnavailable is an exported constant or variable used by the session registry.
	ErrConfirmationUnavailable = errors.New("confirmation backend unavailable")
	// ErrAlreadyConfirmed is an exported constant or variable used by the session registry.
	ErrAlreadyConfirmed = errors.New("session already confirmed")
	// ErrSessionNotFound is an exported constant or variable used by the session registry.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMaskOccupied is an exported constant or variable used by the session registry.
	ErrMaskOccupied = errors.New("mask already registered to another session")
	// ErrInvalidMask is an exported constant or variable used by the session registry.
	ErrInvalidMask = errors.New("invalid mask")
)
