// File: internal/usecase/promo_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
	"quokka-directory/internal/infra/metrics"
)

var _ PromoUseCase = (*promoUC)(nil)

// CreatePromoInput describes a new discount code.
type CreatePromoInput struct {
	Code            string
	IsActive        bool
	DiscountType    model.DiscountType
	DiscountValue   int64
	TargetUserID    *string
	TargetListingID *string
	MaxUses         *int
	ExpiresAt       *time.Time
}

type PromoUseCase interface {
	// Validate checks a code for the given caller without consuming a use.
	Validate(ctx context.Context, code, userID, listingID string) (*model.Discount, error)
	// Redeem consumes exactly one use. Safe under concurrent callers: the
	// storage layer performs a single guarded increment.
	Redeem(ctx context.Context, code string) error
	SetActive(ctx context.Context, code string, isActive bool) error
	Create(ctx context.Context, in CreatePromoInput) (*model.PromoCode, error)
	List(ctx context.Context) ([]*model.PromoCode, error)
	// DeactivateExpired is called by the expiry worker.
	DeactivateExpired(ctx context.Context) (int, error)
}

type promoUC struct {
	codes repository.PromoCodeRepository
	log   *zerolog.Logger
}

func NewPromoUseCase(codes repository.PromoCodeRepository, logger *zerolog.Logger) *promoUC {
	l := logger.With().Str("component", "PromoUC").Logger()
	return &promoUC{codes: codes, log: &l}
}

func (u *promoUC) Validate(ctx context.Context, code, userID, listingID string) (*model.Discount, error) {
	if code == "" {
		return nil, domain.ErrInvalidArgument
	}
	c, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(userID, listingID, time.Now()); err != nil {
		metrics.IncPromoDenied(promoDenialLabel(err))
		return nil, err
	}
	d := c.Discount()
	return &d, nil
}

// Redeem delegates the cap check to the guarded UPDATE and only re-reads the
// code to classify a refusal. The re-read never turns a refusal into success.
func (u *promoUC) Redeem(ctx context.Context, code string) error {
	if code == "" {
		return domain.ErrInvalidArgument
	}
	ok, err := u.codes.Redeem(ctx, repository.NoTX, code)
	if err != nil {
		return err
	}
	if ok {
		metrics.IncPromoRedeemed()
		u.log.Info().Str("code", code).Msg("promo code redeemed")
		return nil
	}

	c, err := u.codes.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		return err
	}
	reason := classifyRefusal(c, time.Now())
	metrics.IncPromoDenied(promoDenialLabel(reason))
	return reason
}

func promoDenialLabel(err error) string {
	switch err {
	case domain.ErrPromoInactive:
		return "inactive"
	case domain.ErrPromoExpired:
		return "expired"
	case domain.ErrPromoExhausted:
		return "exhausted"
	case domain.ErrPromoNotForCaller:
		return "not_for_caller"
	default:
		return "other"
	}
}

// classifyRefusal names why the guarded increment matched no row. Scope checks
// are deliberately absent: the guard does not consider them.
func classifyRefusal(c *model.PromoCode, now time.Time) error {
	switch {
	case !c.IsActive:
		return domain.ErrPromoInactive
	case c.ExpiresAt != nil && !now.Before(*c.ExpiresAt):
		return domain.ErrPromoExpired
	default:
		return domain.ErrPromoExhausted
	}
}

func (u *promoUC) SetActive(ctx context.Context, code string, isActive bool) error {
	if code == "" {
		return domain.ErrInvalidArgument
	}
	return u.codes.SetActive(ctx, repository.NoTX, code, isActive)
}

func (u *promoUC) Create(ctx context.Context, in CreatePromoInput) (*model.PromoCode, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" || in.DiscountValue <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	if in.DiscountType != model.DiscountPercent && in.DiscountType != model.DiscountFixed {
		return nil, domain.ErrInvalidArgument
	}
	if in.DiscountType == model.DiscountPercent && in.DiscountValue > 100 {
		return nil, domain.ErrInvalidArgument
	}
	if in.MaxUses != nil && *in.MaxUses < 1 {
		return nil, domain.ErrInvalidArgument
	}

	c := &model.PromoCode{
		ID:              uuid.NewString(),
		Code:            code,
		IsActive:        in.IsActive,
		DiscountType:    in.DiscountType,
		DiscountValue:   in.DiscountValue,
		TargetUserID:    in.TargetUserID,
		TargetListingID: in.TargetListingID,
		MaxUses:         in.MaxUses,
		UsesCount:       0,
		ExpiresAt:       in.ExpiresAt,
		CreatedAt:       time.Now(),
	}
	if err := u.codes.Create(ctx, repository.NoTX, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (u *promoUC) List(ctx context.Context) ([]*model.PromoCode, error) {
	return u.codes.List(ctx, repository.NoTX)
}

func (u *promoUC) DeactivateExpired(ctx context.Context) (int, error) {
	return u.codes.DeactivateExpired(ctx, repository.NoTX)
}
