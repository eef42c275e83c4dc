//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
)

func TestSubscriptionUseCase(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*memSubscriptionRepo, *memListingRepo, SubscriptionUseCase) {
		subs := newMemSubscriptionRepo()
		listings := newMemListingRepo(subs)
		uc := NewSubscriptionUseCase(subs, newTestLogger())
		err := listings.Create(ctx, nil, &model.Listing{
			ID: "listing-1", UserID: "owner-1", Name: "srv", IsPublic: true, IsVisible: true,
			CreatedAt: time.Now(), UpdatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("seed listing: %v", err)
		}
		return subs, listings, uc
	}

	t.Run("create range validates the window", func(t *testing.T) {
		_, _, uc := setup(t)
		now := time.Now()

		if err := uc.CreateRange(ctx, "listing-1", model.TierEssentiel, now, now.Add(24*time.Hour)); err != nil {
			t.Fatalf("CreateRange failed: %v", err)
		}
		if err := uc.CreateRange(ctx, "listing-1", model.TierEssentiel, now, now); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("zero-length window should be rejected, got %v", err)
		}
		if err := uc.CreateRange(ctx, "listing-1", model.TierNone, now, now.Add(time.Hour)); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("tier none should be rejected, got %v", err)
		}
	})

	t.Run("history queries", func(t *testing.T) {
		subs, _, uc := setup(t)
		now := time.Now()
		uc.CreateRange(ctx, "listing-1", model.TierEssentiel, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
		uc.CreateRange(ctx, "listing-1", model.TierQuokkaPlus, now, now.Add(time.Hour))

		history, err := uc.ListForListing(ctx, "listing-1")
		if err != nil {
			t.Fatalf("ListForListing failed: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 rows, got %d", len(history))
		}
		if history[0].Tier != model.TierQuokkaPlus {
			t.Error("history should be newest end first")
		}

		owned, err := uc.ListForOwner(ctx, "owner-1")
		if err != nil {
			t.Fatalf("ListForOwner failed: %v", err)
		}
		if len(owned) != 2 {
			t.Errorf("expected 2 rows for owner, got %d", len(owned))
		}

		all, _ := subs.ListAll(ctx, nil)
		if len(all) != 2 {
			t.Errorf("expected 2 rows total, got %d", len(all))
		}
	})

	t.Run("revoke removes the entitlement", func(t *testing.T) {
		subs, _, uc := setup(t)
		now := time.Now()
		uc.CreateRange(ctx, "listing-1", model.TierEssentiel, now, now.Add(time.Hour))

		rows, _ := subs.ListAll(ctx, nil)
		if err := uc.Revoke(ctx, rows[0].ID); err != nil {
			t.Fatalf("Revoke failed: %v", err)
		}
		if err := uc.Revoke(ctx, rows[0].ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound on double revoke, got %v", err)
		}
	})
}
