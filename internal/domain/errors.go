package domain

import "errors"

var (
	// ErrInsufficientData means a product has too few sales days to forecast.
	ErrInsufficientData = errors.New("insufficient data for forecasting")
	ErrNotFound         = errors.New("not found")
	// ErrUnauthorized means the caller does not own the target record.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrInvalidTransition = errors.New("invalid status transition")
)
