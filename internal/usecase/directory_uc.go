// File: internal/usecase/directory_uc.go
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

var _ DirectoryUseCase = (*directoryUC)(nil)

// CreateListingInput is the minimal surface needed to get a listing into the
// directory; richer profile fields live with the profile service.
type CreateListingInput struct {
	UserID      string
	Name        string
	Description string
	InviteLink  *string
	IsPublic    bool
}

type DirectoryUseCase interface {
	// ListRanked returns visible listings in entitlement priority order. The
	// order is a total order: reruns over unchanged data yield the identical
	// sequence.
	ListRanked(ctx context.Context, filter model.DirectoryFilter) ([]*model.RankedListing, error)
	GetListing(ctx context.Context, id string) (*model.RankedListing, error)
	CreateListing(ctx context.Context, in CreateListingInput) (*model.Listing, error)
	SetVisible(ctx context.Context, id string, visible bool) error

	// Engagement counters, written on behalf of the tracking collaborator.
	// RecordView counts at most once per known user.
	RecordView(ctx context.Context, listingID, userID string) error
	RecordVisit(ctx context.Context, listingID string) error
	RecordClick(ctx context.Context, listingID string) error
	RecordLike(ctx context.Context, listingID string) error
}

type directoryUC struct {
	listings repository.ListingRepository
	dedup    repository.ViewDeduper
	log      *zerolog.Logger
}

func NewDirectoryUseCase(listings repository.ListingRepository, dedup repository.ViewDeduper, logger *zerolog.Logger) *directoryUC {
	l := logger.With().Str("component", "DirectoryUC").Logger()
	return &directoryUC{listings: listings, dedup: dedup, log: &l}
}

func (u *directoryUC) ListRanked(ctx context.Context, filter model.DirectoryFilter) ([]*model.RankedListing, error) {
	filter.NameContains = strings.TrimSpace(filter.NameContains)
	out, err := u.listings.ListRanked(ctx, repository.NoTX, filter)
	if err != nil {
		return nil, err
	}
	metrics.IncDirectoryQuery(filter.NameContains != "")
	return out, nil
}

func (u *directoryUC) GetListing(ctx context.Context, id string) (*model.RankedListing, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	return u.listings.GetByID(ctx, repository.NoTX, id)
}

func (u *directoryUC) CreateListing(ctx context.Context, in CreateListingInput) (*model.Listing, error) {
	if in.UserID == "" || strings.TrimSpace(in.Name) == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	l := &model.Listing{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		InviteLink:  in.InviteLink,
		IsPublic:    in.IsPublic,
		IsVisible:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := u.listings.Create(ctx, repository.NoTX, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (u *directoryUC) SetVisible(ctx context.Context, id string, visible bool) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	return u.listings.SetVisible(ctx, repository.NoTX, id, visible)
}

// RecordView counts anonymous views unconditionally; known users count once.
func (u *directoryUC) RecordView(ctx context.Context, listingID, userID string) error {
	if listingID == "" {
		return domain.ErrInvalidArgument
	}
	if userID != "" {
		first, err := u.dedup.FirstView(ctx, listingID, userID)
		if err != nil {
			// Dedup store being down should not lose the view; log and count.
			u.log.Warn().Err(err).Str("listing_id", listingID).Msg("view dedup unavailable")
		} else if !first {
			return nil
		}
	}
	return u.listings.IncrementView(ctx, repository.NoTX, listingID)
}

func (u *directoryUC) RecordVisit(ctx context.Context, listingID string) error {
	if listingID == "" {
		return domain.ErrInvalidArgument
	}
	return u.listings.IncrementVisit(ctx, repository.NoTX, listingID)
}

func (u *directoryUC) RecordClick(ctx context.Context, listingID string) error {
	if listingID == "" {
		return domain.ErrInvalidArgument
	}
	return u.listings.IncrementClick(ctx, repository.NoTX, listingID)
}

func (u *directoryUC) RecordLike(ctx context.Context, listingID string) error {
	if listingID == "" {
		return domain.ErrInvalidArgument
	}
	return u.listings.IncrementLike(ctx, repository.NoTX, listingID)
}
