//go:build integration

package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"

	"github.com/google/uuid"
)

func TestPromoCodeRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPromoCodeRepo(testPool)

	newCode := func(code string, maxUses *int, expiresAt *time.Time) *model.PromoCode {
		return &model.PromoCode{
			ID:            uuid.NewString(),
			Code:          code,
			IsActive:      true,
			DiscountType:  model.DiscountPercent,
			DiscountValue: 10,
			MaxUses:       maxUses,
			ExpiresAt:     expiresAt,
			CreatedAt:     time.Now(),
		}
	}

	t.Run("create and find", func(t *testing.T) {
		cleanup(t)

		c := newCode("WELCOME10", nil, nil)
		if err := repo.Create(ctx, nil, c); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if err := repo.Create(ctx, nil, newCode("WELCOME10", nil, nil)); !errors.Is(err, domain.ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists on duplicate code, got %v", err)
		}

		found, err := repo.FindByCode(ctx, nil, "WELCOME10")
		if err != nil {
			t.Fatalf("FindByCode failed: %v", err)
		}
		if found.ID != c.ID || found.DiscountValue != 10 {
			t.Errorf("unexpected code row: %+v", found)
		}

		if _, err := repo.FindByCode(ctx, nil, "NOPE"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("redeem honors cap, expiry and active flag", func(t *testing.T) {
		cleanup(t)

		one := 1
		repo.Create(ctx, nil, newCode("CAPPED", &one, nil))

		ok, err := repo.Redeem(ctx, nil, "CAPPED")
		if err != nil || !ok {
			t.Fatalf("first redeem should succeed, got ok=%v err=%v", ok, err)
		}
		ok, err = repo.Redeem(ctx, nil, "CAPPED")
		if err != nil {
			t.Fatalf("second redeem errored: %v", err)
		}
		if ok {
			t.Error("second redeem should be refused at the cap")
		}

		past := time.Now().Add(-time.Hour)
		repo.Create(ctx, nil, newCode("EXPIRED", nil, &past))
		if ok, _ := repo.Redeem(ctx, nil, "EXPIRED"); ok {
			t.Error("expired code must not redeem")
		}

		repo.Create(ctx, nil, newCode("PAUSED", nil, nil))
		if err := repo.SetActive(ctx, nil, "PAUSED", false); err != nil {
			t.Fatalf("SetActive failed: %v", err)
		}
		if ok, _ := repo.Redeem(ctx, nil, "PAUSED"); ok {
			t.Error("inactive code must not redeem")
		}
	})

	t.Run("concurrent redemptions never oversell", func(t *testing.T) {
		cleanup(t)

		cap := 5
		repo.Create(ctx, nil, newCode("RACE5", &cap, nil))

		const attempts = 20
		var wg sync.WaitGroup
		granted := make(chan struct{}, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, err := repo.Redeem(ctx, nil, "RACE5"); err == nil && ok {
					granted <- struct{}{}
				}
			}()
		}
		wg.Wait()
		close(granted)

		var n int
		for range granted {
			n++
		}
		if n != cap {
			t.Errorf("expected exactly %d grants, got %d", cap, n)
		}

		final, _ := repo.FindByCode(ctx, nil, "RACE5")
		if final.UsesCount != cap {
			t.Errorf("uses_count = %d, want %d", final.UsesCount, cap)
		}
	})

	t.Run("deactivate expired sweeps only stale active codes", func(t *testing.T) {
		cleanup(t)

		past := time.Now().Add(-time.Hour)
		future := time.Now().Add(time.Hour)
		repo.Create(ctx, nil, newCode("STALE", nil, &past))
		repo.Create(ctx, nil, newCode("FRESH", nil, &future))
		repo.Create(ctx, nil, newCode("FOREVER", nil, nil))

		n, err := repo.DeactivateExpired(ctx, nil)
		if err != nil {
			t.Fatalf("DeactivateExpired failed: %v", err)
		}
		if n != 1 {
			t.Errorf("expected 1 deactivation, got %d", n)
		}

		// A second sweep is a no-op.
		n, _ = repo.DeactivateExpired(ctx, nil)
		if n != 0 {
			t.Errorf("expected idempotent sweep, got %d", n)
		}

		all, err := repo.List(ctx, nil)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, c := range all {
			wantActive := c.Code != "STALE"
			if c.IsActive != wantActive {
				t.Errorf("code %s active=%v, want %v", c.Code, c.IsActive, wantActive)
			}
		}
	})
}
