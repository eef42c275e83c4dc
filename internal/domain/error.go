package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("storage operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Promo code redemption errors
	ErrPromoInactive     = errors.New("promo code is inactive")
	ErrPromoExpired      = errors.New("promo code has expired")
	ErrPromoExhausted    = errors.New("promo code has no uses left")
	ErrPromoNotForCaller = errors.New("promo code is not valid for this user or listing")
)
