//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
)

type giftUCTestDeps struct {
	payments *memPaymentRepo
	subs     *memSubscriptionRepo
	listings *memListingRepo
	uc       GiftUseCase
}

func newGiftUCDeps(t *testing.T) *giftUCTestDeps {
	t.Helper()
	subs := newMemSubscriptionRepo()
	deps := &giftUCTestDeps{
		payments: newMemPaymentRepo(),
		subs:     subs,
		listings: newMemListingRepo(subs),
	}
	deps.uc = NewGiftUseCase(deps.payments, deps.subs, deps.listings, &memTxManager{}, newTestLogger())

	err := deps.listings.Create(context.Background(), nil, &model.Listing{
		ID: "listing-1", UserID: "owner", Name: "srv", IsPublic: true, IsVisible: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return deps
}

func TestGiftUseCase_IssueGift(t *testing.T) {
	ctx := context.Background()
	start := time.Now().Truncate(time.Second)
	end := start.Add(72 * time.Hour)

	t.Run("gift is completed immediately with the exact window", func(t *testing.T) {
		deps := newGiftUCDeps(t)

		result, err := deps.uc.IssueGift(ctx, GiftInput{
			UserID:             "recipient",
			ListingID:          "listing-1",
			Tier:               model.TierEssentiel,
			PromotionStartDate: start,
			PromotionEndDate:   end,
		})
		if err != nil {
			t.Fatalf("IssueGift failed: %v", err)
		}
		if !strings.HasPrefix(result.CheckoutSessionID, "gift_") {
			t.Errorf("session id %q should carry the gift_ prefix", result.CheckoutSessionID)
		}

		p, err := deps.payments.GetByCheckoutSession(ctx, nil, result.CheckoutSessionID)
		if err != nil {
			t.Fatalf("gift payment not found: %v", err)
		}
		if p.Status != model.PaymentStatusCompleted {
			t.Error("gift payment must be completed, never pending")
		}
		if p.Origin != model.OriginGifted {
			t.Errorf("origin = %s, want gifted", p.Origin)
		}
		if p.AmountCents != 0 {
			t.Errorf("gift amount = %d, want 0", p.AmountCents)
		}

		subs, _ := deps.subs.ListForListing(ctx, nil, "listing-1")
		if len(subs) != 1 {
			t.Fatalf("expected 1 subscription, got %d", len(subs))
		}
		if !subs[0].StartDate.Equal(start) || !subs[0].EndDate.Equal(end) {
			t.Errorf("window [%v, %v], want exactly [%v, %v]", subs[0].StartDate, subs[0].EndDate, start, end)
		}
	})

	t.Run("invalid input issues nothing", func(t *testing.T) {
		deps := newGiftUCDeps(t)

		cases := []GiftInput{
			{UserID: "", ListingID: "listing-1", Tier: model.TierEssentiel, PromotionStartDate: start, PromotionEndDate: end},
			{UserID: "u", ListingID: "listing-1", Tier: model.TierNone, PromotionStartDate: start, PromotionEndDate: end},
			{UserID: "u", ListingID: "listing-1", Tier: model.TierEssentiel, PromotionStartDate: end, PromotionEndDate: start},
		}
		for i, in := range cases {
			if _, err := deps.uc.IssueGift(ctx, in); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("case %d: expected ErrInvalidArgument, got %v", i, err)
			}
		}

		if _, err := deps.uc.IssueGift(ctx, GiftInput{
			UserID: "u", ListingID: "ghost", Tier: model.TierEssentiel,
			PromotionStartDate: start, PromotionEndDate: end,
		}); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown listing, got %v", err)
		}

		subs, _ := deps.subs.ListAll(ctx, nil)
		if len(subs) != 0 {
			t.Errorf("no subscriptions should exist, got %d", len(subs))
		}
	})

	t.Run("failed payment insert leaves no subscription", func(t *testing.T) {
		deps := newGiftUCDeps(t)
		deps.payments.createErr = errors.New("insert failed")

		if _, err := deps.uc.IssueGift(ctx, GiftInput{
			UserID: "u", ListingID: "listing-1", Tier: model.TierQuokkaPlus,
			PromotionStartDate: start, PromotionEndDate: end,
		}); err == nil {
			t.Fatal("expected error")
		}

		subs, _ := deps.subs.ListAll(ctx, nil)
		if len(subs) != 0 {
			t.Errorf("expected no subscriptions after failed insert, got %d", len(subs))
		}
	})
}
