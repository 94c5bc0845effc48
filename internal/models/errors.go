package models

import "errors"

// Custom errors
var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicateKey          = errors.New("duplicate key violation")
	ErrInvalidID             = errors.New("invalid ID format")
	ErrNoActiveModel         = errors.New("no active model artifact for type")
	ErrTrainingInProgress    = errors.New("training already in progress for model type")
	ErrInsufficientData      = errors.New("insufficient match data")
	ErrNonPositiveLikelihood = errors.New("non-positive likelihood term")
	ErrConvergenceNotReached = errors.New("convergence not reached")
	ErrTrainingFailed        = errors.New("training run failed")
	ErrInvalidProbability    = errors.New("invalid probability set")
	ErrMissingOdds           = errors.New("closing odds missing or invalid")
)
