package services

import "errors"

var (
	// ErrInvalidTransition is returned when an operation is not legal in the
	// call's current status. The record is left untouched.
	ErrInvalidTransition = errors.New("call status does not allow this operation")
	// ErrValidation covers malformed input that passed the transport layer.
	ErrValidation = errors.New("invalid request")
	// ErrProvider wraps failures of the remote room provider.
	ErrProvider = errors.New("room provider request failed")
)
