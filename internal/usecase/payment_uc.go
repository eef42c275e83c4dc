// File: internal/usecase/payment_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
	"quokka-directory/internal/infra/metrics"
)

// Compile-time check
var _ PaymentUseCase = (*paymentUC)(nil)

// CreatePendingInput carries everything known at checkout creation time.
type CreatePendingInput struct {
	CheckoutSessionID string
	PaymentIntentID   *string
	UserID            string
	ListingID         string
	Tier              model.Tier
	AmountCents       int64
	PlannedStartDate  *time.Time
	DurationDays      *int
	DurationHours     *int
}

type PaymentUseCase interface {
	// CreatePending records a checkout attempt. Replays of the same checkout
	// session id succeed without effect.
	CreatePending(ctx context.Context, in CreatePendingInput) error
	// Complete confirms a payment and, on the first confirmation only,
	// materializes the entitlement window as a subscription. Duplicate or
	// unknown sessions return (nil, nil).
	Complete(ctx context.Context, checkoutSessionID string, paymentIntentID *string) (*model.EntitlementParams, error)
	// SetPromotionWindow overrides the effective display window after the fact.
	SetPromotionWindow(ctx context.Context, checkoutSessionID string, start, end time.Time) error
	// AttachPromoMeta records discount metadata against the session; silently
	// skipped when the promo-metadata extension is not provisioned.
	AttachPromoMeta(ctx context.Context, checkoutSessionID string, meta *model.PromoMeta) error

	ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error)
	GetPayment(ctx context.Context, id, userID string) (*model.Payment, error)
	GetByCheckoutSession(ctx context.Context, checkoutSessionID string) (*model.Payment, error)
	// GetEntitlementWindow derives the effective [start, end] for a session.
	GetEntitlementWindow(ctx context.Context, checkoutSessionID string) (model.Window, error)

	// Administrative surface.
	ListAllPayments(ctx context.Context) ([]*model.Payment, error)
	DeletePayment(ctx context.Context, id string) error
}

type paymentUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	listings repository.ListingRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewPaymentUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *paymentUC {
	l := logger.With().Str("component", "PaymentUC").Logger()
	return &paymentUC{payments: payments, subs: subs, listings: listings, tm: tm, log: &l}
}

func (u *paymentUC) CreatePending(ctx context.Context, in CreatePendingInput) error {
	if in.CheckoutSessionID == "" || in.UserID == "" || in.ListingID == "" {
		return domain.ErrInvalidArgument
	}
	if !in.Tier.Valid() || in.AmountCents < 0 {
		return domain.ErrInvalidArgument
	}
	if exists, err := u.listings.Exists(ctx, repository.NoTX, in.ListingID); err != nil {
		return err
	} else if !exists {
		return domain.ErrNotFound
	}

	now := time.Now()
	p := &model.Payment{
		ID:                uuid.NewString(),
		CheckoutSessionID: in.CheckoutSessionID,
		PaymentIntentID:   in.PaymentIntentID,
		UserID:            in.UserID,
		ListingID:         in.ListingID,
		Tier:              in.Tier,
		AmountCents:       in.AmountCents,
		Status:            model.PaymentStatusPending,
		Origin:            model.OriginPurchased,
		PlannedStartDate:  in.PlannedStartDate,
		DurationDays:      in.DurationDays,
		DurationHours:     in.DurationHours,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := u.payments.CreatePending(ctx, repository.NoTX, p); err != nil {
		return err
	}
	metrics.IncPaymentCreated()
	return nil
}

// Complete runs the confirmation and the subscription insert in one
// transaction: either both land or neither does. Confirmations are delivered
// at least once, so the zero-rows path is a normal outcome, not an error.
func (u *paymentUC) Complete(ctx context.Context, checkoutSessionID string, paymentIntentID *string) (*model.EntitlementParams, error) {
	if checkoutSessionID == "" {
		return nil, domain.ErrInvalidArgument
	}

	var params *model.EntitlementParams
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		p, err := u.payments.Complete(ctx, tx, checkoutSessionID, paymentIntentID)
		if err != nil {
			return err
		}
		if p == nil {
			// duplicate confirmation or unknown session
			return nil
		}

		w := model.EntitlementWindow(p.Tier, p.DurationDays, p.DurationHours, time.Now())
		sub, err := model.NewSubscription(uuid.NewString(), p.ListingID, p.Tier, w, nil)
		if err != nil {
			return err
		}
		if err := u.subs.Create(ctx, tx, sub); err != nil {
			return err
		}
		params = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	if params != nil {
		metrics.IncPaymentCompleted()
		u.log.Info().Str("checkout_session", checkoutSessionID).
			Str("listing_id", params.ListingID).Str("tier", string(params.Tier)).
			Msg("payment completed, entitlement materialized")
	} else {
		u.log.Debug().Str("checkout_session", checkoutSessionID).Msg("completion replay ignored")
	}
	return params, nil
}

func (u *paymentUC) SetPromotionWindow(ctx context.Context, checkoutSessionID string, start, end time.Time) error {
	if checkoutSessionID == "" || !end.After(start) {
		return domain.ErrInvalidArgument
	}
	return u.payments.SetPromotionWindow(ctx, repository.NoTX, checkoutSessionID, start, end)
}

func (u *paymentUC) AttachPromoMeta(ctx context.Context, checkoutSessionID string, meta *model.PromoMeta) error {
	if checkoutSessionID == "" || meta == nil || meta.BaseAmountCents < 0 {
		return domain.ErrInvalidArgument
	}
	return u.payments.AttachPromoMeta(ctx, repository.NoTX, checkoutSessionID, meta)
}

func (u *paymentUC) ListUserPayments(ctx context.Context, userID string) ([]*model.Payment, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.ListForUser(ctx, repository.NoTX, userID)
}

func (u *paymentUC) GetPayment(ctx context.Context, id, userID string) (*model.Payment, error) {
	if id == "" || userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.GetByID(ctx, repository.NoTX, id, userID)
}

func (u *paymentUC) GetByCheckoutSession(ctx context.Context, checkoutSessionID string) (*model.Payment, error) {
	if checkoutSessionID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.payments.GetByCheckoutSession(ctx, repository.NoTX, checkoutSessionID)
}

func (u *paymentUC) GetEntitlementWindow(ctx context.Context, checkoutSessionID string) (model.Window, error) {
	p, err := u.GetByCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return model.Window{}, err
	}
	return p.EffectiveWindow(), nil
}

func (u *paymentUC) ListAllPayments(ctx context.Context) ([]*model.Payment, error) {
	return u.payments.ListAll(ctx, repository.NoTX)
}

func (u *paymentUC) DeletePayment(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return u.payments.Delete(ctx, repository.NoTX, id)
}
