package repository

import (
	"context"

	"quokka-directory/internal/domain/model"
)

// PromoCodeRepository owns discount codes. Redeem MUST be a single atomic
// conditional increment at the storage layer; a separate check-then-increment
// would oversell capped codes under concurrency.
type PromoCodeRepository interface {
	Create(ctx context.Context, tx Tx, c *model.PromoCode) error
	FindByCode(ctx context.Context, tx Tx, code string) (*model.PromoCode, error)
	// Redeem increments uses_count by one iff the code is active, unexpired
	// and under its cap. Returns false (no error) when the guarded update
	// matched no row; the caller classifies the refusal.
	Redeem(ctx context.Context, tx Tx, code string) (bool, error)
	SetActive(ctx context.Context, tx Tx, code string, isActive bool) error
	List(ctx context.Context, tx Tx) ([]*model.PromoCode, error)
	// DeactivateExpired flips is_active off for codes past their expiry and
	// returns how many rows changed.
	DeactivateExpired(ctx context.Context, tx Tx) (int, error)
}
