package model

import (
	"strings"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"   // checkout started, awaiting confirmation
	PaymentStatusCompleted PaymentStatus = "completed" // confirmed paid (or gifted)
)

// PaymentOrigin distinguishes real purchases from administrative grants.
type PaymentOrigin string

const (
	OriginPurchased PaymentOrigin = "purchased"
	OriginGifted    PaymentOrigin = "gifted"
)

// Payment records one checkout attempt. Identity is the externally supplied
// checkout session id; creation and completion are idempotent on it.
type Payment struct {
	ID                string // UUID
	CheckoutSessionID string // unique, provider-supplied (or synthesized for gifts)
	PaymentIntentID   *string
	UserID            string
	ListingID         string
	Tier              Tier
	AmountCents       int64
	Status            PaymentStatus
	Origin            PaymentOrigin
	PlannedStartDate  *time.Time
	DurationDays      *int
	DurationHours     *int
	// Promotion window overrides recorded after completion; display-only,
	// they never rewrite an already materialized subscription.
	PromotionStartDate *time.Time
	PromotionEndDate   *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Promo is nil when no code was applied or when the promo-metadata
	// extension is not provisioned in this deployment.
	Promo *PromoMeta
}

// PromoMeta is the optional side record describing the discount applied at
// checkout. Keyed by checkout session id, 0-or-1 per payment.
type PromoMeta struct {
	BaseAmountCents int64
	PromoCode       *string
	DiscountType    *DiscountType
	DiscountValue   *int64
}

// EntitlementParams are the fields the caller needs to materialize a
// subscription after the first successful completion.
type EntitlementParams struct {
	ListingID        string
	Tier             Tier
	PlannedStartDate *time.Time
	DurationDays     *int
	DurationHours    *int
}

// EffectiveWindow derives the display window for a payment, preferring
// explicit promotion overrides over computed defaults. Day-granular tiers
// anchor the computed end on the planned start; hour-granular tiers anchor it
// on the promotion start. Either way the fallback anchor is CreatedAt and the
// default duration is one unit.
func (p *Payment) EffectiveWindow() Window {
	start := p.CreatedAt
	if p.PromotionStartDate != nil {
		start = *p.PromotionStartDate
	} else if p.PlannedStartDate != nil {
		start = *p.PlannedStartDate
	}

	if p.PromotionEndDate != nil {
		return Window{Start: start, End: *p.PromotionEndDate}
	}

	anchor := p.CreatedAt
	var n int
	if p.Tier.DurationUnit() == UnitDay {
		if p.PlannedStartDate != nil {
			anchor = *p.PlannedStartDate
		}
		n = 1
		if p.DurationDays != nil {
			n = *p.DurationDays
		}
	} else {
		if p.PromotionStartDate != nil {
			anchor = *p.PromotionStartDate
		}
		n = 1
		if p.DurationHours != nil {
			n = *p.DurationHours
		}
	}
	return Window{Start: start, End: anchor.Add(time.Duration(n) * time.Duration(p.Tier.DurationUnit()))}
}

// OrderReference is the short human-facing reference shown on invoices and in
// support conversations. Derived from the payment id, never stored.
func (p *Payment) OrderReference() string {
	compact := strings.ToUpper(strings.ReplaceAll(p.ID, "-", ""))
	if len(compact) > 10 {
		compact = compact[len(compact)-10:]
	}
	return "QK-" + compact
}
