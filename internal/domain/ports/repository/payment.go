package repository

import (
	"context"
	"time"

	"quokka-directory/internal/domain/model"
)

// PaymentRepository owns payment rows and the optional promo-metadata
// extension. All writes are single-statement atomic; reads that enrich with
// promo metadata degrade to the plain row set when the extension's relation is
// not provisioned.
type PaymentRepository interface {
	// CreatePending inserts a pending payment; a duplicate checkout session id
	// is a silent no-op.
	CreatePending(ctx context.Context, tx Tx, p *model.Payment) error
	// CreateCompleted inserts a payment directly in completed state (gifts).
	CreateCompleted(ctx context.Context, tx Tx, p *model.Payment) error
	// Complete atomically flips status to completed if it is not already, and
	// returns the entitlement parameters of the transition. Returns (nil, nil)
	// when the session is unknown or already completed.
	Complete(ctx context.Context, tx Tx, checkoutSessionID string, paymentIntentID *string) (*model.EntitlementParams, error)
	// SetPromotionWindow overrides the display window for a session.
	SetPromotionWindow(ctx context.Context, tx Tx, checkoutSessionID string, start, end time.Time) error
	// AttachPromoMeta upserts the optional promo side record. When the
	// extension is not provisioned the write is silently skipped.
	AttachPromoMeta(ctx context.Context, tx Tx, checkoutSessionID string, meta *model.PromoMeta) error

	ListForUser(ctx context.Context, tx Tx, userID string) ([]*model.Payment, error)
	GetByID(ctx context.Context, tx Tx, id, userID string) (*model.Payment, error)
	GetByCheckoutSession(ctx context.Context, tx Tx, checkoutSessionID string) (*model.Payment, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Payment, error)
	// Delete permanently removes a payment row (administrative action only).
	Delete(ctx context.Context, tx Tx, id string) error
}
