package repository

import (
	"context"

	"quokka-directory/internal/domain/model"
)

// ListingRepository reads directory rows and maintains the peripheral listing
// and stats surface the ranker depends on. Engagement counters only increase.
type ListingRepository interface {
	Create(ctx context.Context, tx Tx, l *model.Listing) error
	GetByID(ctx context.Context, tx Tx, id string) (*model.RankedListing, error)
	Exists(ctx context.Context, tx Tx, id string) (bool, error)
	SetVisible(ctx context.Context, tx Tx, id string, visible bool) error

	// ListRanked returns visible listings in deterministic priority order:
	// tier rank, then likes, views, visits, creation time, id.
	ListRanked(ctx context.Context, tx Tx, filter model.DirectoryFilter) ([]*model.RankedListing, error)

	IncrementView(ctx context.Context, tx Tx, id string) error
	IncrementVisit(ctx context.Context, tx Tx, id string) error
	IncrementClick(ctx context.Context, tx Tx, id string) error
	IncrementLike(ctx context.Context, tx Tx, id string) error
}
