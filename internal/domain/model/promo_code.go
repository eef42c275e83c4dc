package model

import (
	"time"

	"quokka-directory/internal/domain"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// PromoCode is a limited-use discount code. Codes may be scoped to a single
// user and/or listing, capped by MaxUses, and time-limited by ExpiresAt.
// UsesCount only ever increases, by exactly one per successful redemption.
type PromoCode struct {
	ID            string // UUID
	Code          string // unique, case-sensitive
	IsActive      bool
	DiscountType  DiscountType
	DiscountValue int64
	// Optional scoping: when set, only the designated user/listing may redeem.
	TargetUserID    *string
	TargetListingID *string
	MaxUses         *int
	UsesCount       int
	ExpiresAt       *time.Time
	CreatedAt       time.Time
}

// Validate checks redeemability for the given caller at the given instant.
// The checks run in a fixed order so callers get stable error classification.
func (c *PromoCode) Validate(userID, listingID string, now time.Time) error {
	if !c.IsActive {
		return domain.ErrPromoInactive
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return domain.ErrPromoExpired
	}
	if c.MaxUses != nil && c.UsesCount >= *c.MaxUses {
		return domain.ErrPromoExhausted
	}
	if c.TargetUserID != nil && *c.TargetUserID != userID {
		return domain.ErrPromoNotForCaller
	}
	if c.TargetListingID != nil && *c.TargetListingID != listingID {
		return domain.ErrPromoNotForCaller
	}
	return nil
}

// Discount describes a validated discount, detached from the code's mutable
// redemption state.
type Discount struct {
	Code  string
	Type  DiscountType
	Value int64
}

// Discount returns the descriptor for a validated code.
func (c *PromoCode) Discount() Discount {
	return Discount{Code: c.Code, Type: c.DiscountType, Value: c.DiscountValue}
}

// Apply computes the discounted amount in cents, floored at zero.
func (d Discount) Apply(baseCents int64) int64 {
	var out int64
	switch d.Type {
	case DiscountPercent:
		out = baseCents - baseCents*d.Value/100
	case DiscountFixed:
		out = baseCents - d.Value
	default:
		out = baseCents
	}
	if out < 0 {
		return 0
	}
	return out
}
