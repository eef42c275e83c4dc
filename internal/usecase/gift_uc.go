// File: internal/usecase/gift_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
	"quokka-directory/internal/infra/metrics"
)

var _ GiftUseCase = (*giftUC)(nil)

// GiftInput describes an administrative grant. The promotion window is the
// exact entitlement window; no fallback arithmetic is applied.
type GiftInput struct {
	UserID             string
	ListingID          string
	Tier               model.Tier
	PromotionStartDate time.Time
	PromotionEndDate   time.Time
	DurationDays       *int
	DurationHours      *int
	PremiumSlot        *string
}

// GiftResult identifies the synthesized payment.
type GiftResult struct {
	CheckoutSessionID string
	PaymentID         string
}

type GiftUseCase interface {
	// IssueGift inserts a zero-cost, already-completed payment and its
	// subscription in one transaction. There is no pending phase because no
	// real payment event exists.
	IssueGift(ctx context.Context, in GiftInput) (*GiftResult, error)
}

type giftUC struct {
	payments repository.PaymentRepository
	subs     repository.SubscriptionRepository
	listings repository.ListingRepository
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewGiftUseCase(
	payments repository.PaymentRepository,
	subs repository.SubscriptionRepository,
	listings repository.ListingRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *giftUC {
	l := logger.With().Str("component", "GiftUC").Logger()
	return &giftUC{payments: payments, subs: subs, listings: listings, tm: tm, log: &l}
}

func (u *giftUC) IssueGift(ctx context.Context, in GiftInput) (*GiftResult, error) {
	if in.UserID == "" || in.ListingID == "" || !in.Tier.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if !in.PromotionEndDate.After(in.PromotionStartDate) {
		return nil, domain.ErrInvalidArgument
	}
	if exists, err := u.listings.Exists(ctx, repository.NoTX, in.ListingID); err != nil {
		return nil, err
	} else if !exists {
		return nil, domain.ErrNotFound
	}

	// The gift_ prefix is kept for external consumers that flag "offered, not
	// purchased" from the session id; the engine itself reads only Origin.
	sessionID := "gift_" + uuid.NewString()
	paymentID := ulid.Make().String()
	now := time.Now()

	p := &model.Payment{
		ID:                 paymentID,
		CheckoutSessionID:  sessionID,
		UserID:             in.UserID,
		ListingID:          in.ListingID,
		Tier:               in.Tier,
		AmountCents:        0,
		Status:             model.PaymentStatusCompleted,
		Origin:             model.OriginGifted,
		PlannedStartDate:   &in.PromotionStartDate,
		DurationDays:       in.DurationDays,
		DurationHours:      in.DurationHours,
		PromotionStartDate: &in.PromotionStartDate,
		PromotionEndDate:   &in.PromotionEndDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	sub, err := model.NewSubscription(uuid.NewString(), in.ListingID, in.Tier,
		model.Window{Start: in.PromotionStartDate, End: in.PromotionEndDate}, in.PremiumSlot)
	if err != nil {
		return nil, err
	}

	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.payments.CreateCompleted(ctx, tx, p); err != nil {
			return err
		}
		return u.subs.Create(ctx, tx, sub)
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPaymentGifted()
	u.log.Info().Str("listing_id", in.ListingID).Str("tier", string(in.Tier)).
		Time("start", in.PromotionStartDate).Time("end", in.PromotionEndDate).
		Msg("gift entitlement issued")
	return &GiftResult{CheckoutSessionID: sessionID, PaymentID: paymentID}, nil
}
