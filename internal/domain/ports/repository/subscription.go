package repository

import (
	"context"

	"quokka-directory/internal/domain/model"
)

// SubscriptionRepository owns materialized entitlement windows. Rows are
// insert-only; deletion is reserved for administrative revocation.
type SubscriptionRepository interface {
	Create(ctx context.Context, tx Tx, s *model.Subscription) error
	// ListForListing returns a listing's full entitlement history, newest
	// end date first.
	ListForListing(ctx context.Context, tx Tx, listingID string) ([]*model.Subscription, error)
	// ListForOwner returns history across all listings owned by the user.
	ListForOwner(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	ListAll(ctx context.Context, tx Tx) ([]*model.Subscription, error)
	Delete(ctx context.Context, tx Tx, id string) error
}
