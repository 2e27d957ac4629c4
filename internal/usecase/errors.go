package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrRunInProgress         = errors.New("sync run already in progress")
	ErrWriteRejected         = errors.New("ledger write rejected")
)
