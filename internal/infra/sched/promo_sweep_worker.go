package sched

import (
	"context"
	"time"

	"quokka-directory/internal/infra/metrics"
	"quokka-directory/internal/usecase"

	"github.com/rs/zerolog"
)

// PromoSweepWorker periodically deactivates promo codes past their expiry so
// redemption refusals stay classified as "expired" rather than racing NOW().
type PromoSweepWorker struct {
	interval time.Duration
	promoUC  usecase.PromoUseCase
	log      *zerolog.Logger
}

func NewPromoSweepWorker(interval time.Duration, promoUC usecase.PromoUseCase, logger *zerolog.Logger) *PromoSweepWorker {
	sweepLog := logger.With().Str("component", "PromoSweepWorker").Logger()
	return &PromoSweepWorker{
		interval: interval,
		promoUC:  promoUC,
		log:      &sweepLog,
	}
}

func (w *PromoSweepWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting promo sweep worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping promo sweep worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.promoUC.DeactivateExpired(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("promo sweep error")
			}
			if n > 0 {
				metrics.AddPromoExpiredSwept(n)
				w.log.Info().Int("count", n).Msg("expired promo codes deactivated")
			}
		}
	}
}
