package domain

import "errors"

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNoDemand                = errors.New("no demand to plan")
	ErrMissingFinalDestination = errors.New("non-returning vehicle has no final destination")
	ErrUnknownFinalDestination = errors.New("final destination is not a task location")
	ErrIncompatibleItem        = errors.New("item fits no selected vehicle")
)
