// File: cmd/seed/main.go
// Seeds a development database with a few listings, entitlements and promo
// codes so the ranked directory has something to show.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/rs/zerolog"

	"quokka-directory/internal/config"
	pg "quokka-directory/internal/infra/db/postgres"
	"quokka-directory/internal/usecase"

	"quokka-directory/internal/domain/model"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	logger := zerolog.Nop()
	txManager := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	promoRepo := pg.NewPromoCodeRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)
	listingRepo := pg.NewListingRepo(pool)

	directoryUC := usecase.NewDirectoryUseCase(listingRepo, noopDeduper{}, &logger)
	giftUC := usecase.NewGiftUseCase(paymentRepo, subRepo, listingRepo, txManager, &logger)
	promoUC := usecase.NewPromoUseCase(promoRepo, &logger)

	names := []string{"Quokka Lounge", "Night Owls", "Study Hall", "Pixel Arcade", "The Garden"}
	var ids []string
	for i, name := range names {
		l, err := directoryUC.CreateListing(ctx, usecase.CreateListingInput{
			UserID:   "seed-owner",
			Name:     name,
			IsPublic: true,
		})
		if err != nil {
			log.Fatalf("listing %q: %v", name, err)
		}
		ids = append(ids, l.ID)
		for j := 0; j <= i; j++ {
			directoryUC.RecordLike(ctx, l.ID)
		}
	}

	// One premium slot and one essentiel run so both ranks show up.
	now := time.Now()
	if _, err := giftUC.IssueGift(ctx, usecase.GiftInput{
		UserID:             "seed-owner",
		ListingID:          ids[0],
		Tier:               model.TierQuokkaPlus,
		PromotionStartDate: now,
		PromotionEndDate:   now.Add(12 * time.Hour),
	}); err != nil {
		log.Fatalf("gift quokka_plus: %v", err)
	}
	if _, err := giftUC.IssueGift(ctx, usecase.GiftInput{
		UserID:             "seed-owner",
		ListingID:          ids[1],
		Tier:               model.TierEssentiel,
		PromotionStartDate: now,
		PromotionEndDate:   now.Add(7 * 24 * time.Hour),
	}); err != nil {
		log.Fatalf("gift essentiel: %v", err)
	}

	expiry := now.Add(30 * 24 * time.Hour)
	maxUses := 50
	if _, err := promoUC.Create(ctx, usecase.CreatePromoInput{
		Code:          "WELCOME10",
		IsActive:      true,
		DiscountType:  model.DiscountPercent,
		DiscountValue: 10,
		MaxUses:       &maxUses,
		ExpiresAt:     &expiry,
	}); err != nil {
		log.Fatalf("promo: %v", err)
	}

	log.Printf("seeded %d listings, 2 entitlements, 1 promo code", len(ids))
}

// noopDeduper lets every view through; the seeder has no Redis.
type noopDeduper struct{}

func (noopDeduper) FirstView(ctx context.Context, listingID, userID string) (bool, error) {
	return true, nil
}
