// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
)

var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase exposes entitlement history and the administrative
// escape hatches. The normal creation paths are payment completion and gift
// issuance; these operations never run as part of a purchase.
type SubscriptionUseCase interface {
	ListForListing(ctx context.Context, listingID string) ([]*model.Subscription, error)
	// ListForOwner returns history across every listing the user owns.
	ListForOwner(ctx context.Context, userID string) ([]*model.Subscription, error)
	ListAll(ctx context.Context) ([]*model.Subscription, error)
	// CreateRange inserts an explicit entitlement window directly.
	CreateRange(ctx context.Context, listingID string, tier model.Tier, start, end time.Time) error
	// Revoke deletes a subscription row (administrative revocation).
	Revoke(ctx context.Context, id string) error
}

type subscriptionUC struct {
	subs repository.SubscriptionRepository
	log  *zerolog.Logger
}

func NewSubscriptionUseCase(subs repository.SubscriptionRepository, logger *zerolog.Logger) *subscriptionUC {
	l := logger.With().Str("component", "SubscriptionUC").Logger()
	return &subscriptionUC{subs: subs, log: &l}
}

func (u *subscriptionUC) ListForListing(ctx context.Context, listingID string) ([]*model.Subscription, error) {
	if listingID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.subs.ListForListing(ctx, repository.NoTX, listingID)
}

func (u *subscriptionUC) ListForOwner(ctx context.Context, userID string) ([]*model.Subscription, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.subs.ListForOwner(ctx, repository.NoTX, userID)
}

func (u *subscriptionUC) ListAll(ctx context.Context) ([]*model.Subscription, error) {
	return u.subs.ListAll(ctx, repository.NoTX)
}

func (u *subscriptionUC) CreateRange(ctx context.Context, listingID string, tier model.Tier, start, end time.Time) error {
	sub, err := model.NewSubscription(uuid.NewString(), listingID, tier, model.Window{Start: start, End: end}, nil)
	if err != nil {
		return err
	}
	if err := u.subs.Create(ctx, repository.NoTX, sub); err != nil {
		return err
	}
	u.log.Info().Str("listing_id", listingID).Str("tier", string(tier)).Msg("subscription range created")
	return nil
}

func (u *subscriptionUC) Revoke(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return u.subs.Delete(ctx, repository.NoTX, id)
}
