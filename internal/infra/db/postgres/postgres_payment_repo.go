package postgres

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
	"quokka-directory/internal/infra/metrics"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

// paymentRepo owns the payments table and the optional payment_promos
// extension. The extension may not be provisioned in a given deployment;
// its absence is probed once per process and reads/writes degrade to the
// promo-less path from then on.
type paymentRepo struct {
	pool *pgxpool.Pool
	// promoMetaAbsent latches after the first undefined-relation error.
	// Only confirmed absence is cached; transient failures never set it.
	promoMetaAbsent atomic.Bool
}

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

// isMissingRelation reports the Postgres undefined_table condition.
func isMissingRelation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

const paymentCols = `p.id, p.checkout_session_id, p.payment_intent_id, p.user_id, p.listing_id, p.tier, p.amount_cents, p.status, p.origin, p.planned_start_date, p.duration_days, p.duration_hours, p.promotion_start_date, p.promotion_end_date, p.created_at, p.updated_at`

const promoMetaCols = `m.base_amount_cents, m.promo_code, m.discount_type, m.discount_value`

func (r *paymentRepo) CreatePending(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, checkout_session_id, payment_intent_id, user_id, listing_id, tier, amount_cents, status, origin,
  planned_start_date, duration_days, duration_hours, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,'pending','purchased',$8,$9,$10,$11,$12)
ON CONFLICT (checkout_session_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.CheckoutSessionID, p.PaymentIntentID, p.UserID, p.ListingID, string(p.Tier), p.AmountCents,
		p.PlannedStartDate, p.DurationDays, p.DurationHours, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) CreateCompleted(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	const q = `
INSERT INTO payments (
  id, checkout_session_id, payment_intent_id, user_id, listing_id, tier, amount_cents, status, origin,
  planned_start_date, duration_days, duration_hours, promotion_start_date, promotion_end_date, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,'completed',$8,$9,$10,$11,$12,$13,$14,$15)
ON CONFLICT (checkout_session_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.CheckoutSessionID, p.PaymentIntentID, p.UserID, p.ListingID, string(p.Tier), p.AmountCents, string(p.Origin),
		p.PlannedStartDate, p.DurationDays, p.DurationHours, p.PromotionStartDate, p.PromotionEndDate, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// Complete flips status in one guarded statement. RETURNING only fires on the
// transition that actually occurred, which is what distinguishes the first
// confirmation from a replay.
func (r *paymentRepo) Complete(ctx context.Context, tx repository.Tx, checkoutSessionID string, paymentIntentID *string) (*model.EntitlementParams, error) {
	const q = `
UPDATE payments
   SET status = 'completed',
       payment_intent_id = COALESCE($2, payment_intent_id),
       updated_at = NOW()
 WHERE checkout_session_id = $1
   AND status <> 'completed'
RETURNING listing_id, tier, planned_start_date, duration_days, duration_hours;`

	row, err := pickRow(ctx, r.pool, tx, q, checkoutSessionID, paymentIntentID)
	if err != nil {
		return nil, err
	}

	var (
		out  model.EntitlementParams
		tier string
	)
	if err := row.Scan(&out.ListingID, &tier, &out.PlannedStartDate, &out.DurationDays, &out.DurationHours); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// already completed or unknown session: a no-op, not an error
			return nil, nil
		}
		return nil, domain.ErrReadDatabaseRow
	}
	out.Tier = model.Tier(tier)
	return &out, nil
}

func (r *paymentRepo) SetPromotionWindow(ctx context.Context, tx repository.Tx, checkoutSessionID string, start, end time.Time) error {
	const q = `
UPDATE payments
   SET promotion_start_date = $2,
       promotion_end_date = $3,
       updated_at = NOW()
 WHERE checkout_session_id = $1;`

	cmd, err := execSQL(ctx, r.pool, tx, q, checkoutSessionID, start, end)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AttachPromoMeta writes the optional side record. A missing relation means
// the extension is not provisioned: the write is skipped, not failed.
func (r *paymentRepo) AttachPromoMeta(ctx context.Context, tx repository.Tx, checkoutSessionID string, meta *model.PromoMeta) error {
	if r.promoMetaAbsent.Load() {
		return nil
	}
	const q = `
INSERT INTO payment_promos (checkout_session_id, base_amount_cents, promo_code, discount_type, discount_value)
VALUES ($1,$2,$3,$4,$5)
ON CONFLICT (checkout_session_id) DO UPDATE SET
  base_amount_cents = EXCLUDED.base_amount_cents,
  promo_code = EXCLUDED.promo_code,
  discount_type = EXCLUDED.discount_type,
  discount_value = EXCLUDED.discount_value;`

	_, err := execSQL(ctx, r.pool, tx, q,
		checkoutSessionID, meta.BaseAmountCents, meta.PromoCode, meta.DiscountType, meta.DiscountValue)
	if err != nil {
		if isMissingRelation(err) {
			r.promoMetaAbsent.Store(true)
			return nil
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *paymentRepo) ListForUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Payment, error) {
	richQ := `
SELECT ` + paymentCols + `, ` + promoMetaCols + `
  FROM payments p
  LEFT JOIN payment_promos m ON m.checkout_session_id = p.checkout_session_id
 WHERE p.user_id = $1
 ORDER BY p.created_at DESC;`
	plainQ := `
SELECT ` + paymentCols + `
  FROM payments p
 WHERE p.user_id = $1
 ORDER BY p.created_at DESC;`

	return r.queryMany(ctx, tx, richQ, plainQ, userID)
}

func (r *paymentRepo) GetByID(ctx context.Context, tx repository.Tx, id, userID string) (*model.Payment, error) {
	richQ := `
SELECT ` + paymentCols + `, ` + promoMetaCols + `
  FROM payments p
  LEFT JOIN payment_promos m ON m.checkout_session_id = p.checkout_session_id
 WHERE p.id = $1 AND p.user_id = $2
 LIMIT 1;`
	plainQ := `
SELECT ` + paymentCols + `
  FROM payments p
 WHERE p.id = $1 AND p.user_id = $2
 LIMIT 1;`

	return r.queryOne(ctx, tx, richQ, plainQ, id, userID)
}

func (r *paymentRepo) GetByCheckoutSession(ctx context.Context, tx repository.Tx, checkoutSessionID string) (*model.Payment, error) {
	richQ := `
SELECT ` + paymentCols + `, ` + promoMetaCols + `
  FROM payments p
  LEFT JOIN payment_promos m ON m.checkout_session_id = p.checkout_session_id
 WHERE p.checkout_session_id = $1
 LIMIT 1;`
	plainQ := `
SELECT ` + paymentCols + `
  FROM payments p
 WHERE p.checkout_session_id = $1
 LIMIT 1;`

	return r.queryOne(ctx, tx, richQ, plainQ, checkoutSessionID)
}

func (r *paymentRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Payment, error) {
	q := `
SELECT ` + paymentCols + `
  FROM payments p
 ORDER BY p.created_at DESC;`
	return r.queryMany(ctx, tx, "", q)
}

func (r *paymentRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM payments WHERE id = $1;`, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// queryOne runs the enriched query first and falls back to the plain one on a
// missing payment_promos relation. The fallback is attempted at most once per
// call, and the absence is latched so later calls skip the probe entirely.
func (r *paymentRepo) queryOne(ctx context.Context, tx repository.Tx, richQ, plainQ string, args ...interface{}) (*model.Payment, error) {
	rich := richQ != "" && !r.promoMetaAbsent.Load()
	q := plainQ
	if rich {
		q = richQ
	}

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err == nil {
		defer rows.Close()
		p, scanErr := scanOnePayment(rows, rich)
		if scanErr == nil || !rich || !isMissingRelation(scanErr) {
			return p, scanErr
		}
		// pgx surfaces statement errors on scan for some paths; fall through
		err = scanErr
		rows.Close()
	}
	if rich && isMissingRelation(err) {
		r.promoMetaAbsent.Store(true)
		metrics.IncPromoMetaFallback()
		rows, err = queryRows(ctx, r.pool, tx, plainQ, args...)
		if err == nil {
			defer rows.Close()
			return scanOnePayment(rows, false)
		}
	}
	if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
		return nil, err
	}
	return nil, domain.ErrOperationFailed
}

func (r *paymentRepo) queryMany(ctx context.Context, tx repository.Tx, richQ, plainQ string, args ...interface{}) ([]*model.Payment, error) {
	rich := richQ != "" && !r.promoMetaAbsent.Load()
	q := plainQ
	if rich {
		q = richQ
	}

	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err == nil {
		out, scanErr := scanPayments(rows, rich)
		if scanErr == nil || !rich || !isMissingRelation(scanErr) {
			return out, scanErr
		}
		err = scanErr
	}
	if rich && isMissingRelation(err) {
		r.promoMetaAbsent.Store(true)
		metrics.IncPromoMetaFallback()
		rows, err = queryRows(ctx, r.pool, tx, plainQ, args...)
		if err == nil {
			return scanPayments(rows, false)
		}
	}
	if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
		return nil, err
	}
	return nil, domain.ErrOperationFailed
}

func scanOnePayment(rows pgx.Rows, rich bool) (*model.Payment, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotFound
	}
	p, err := scanPaymentRow(rows, rich)
	if err != nil {
		return nil, err
	}
	return p, rows.Err()
}

func scanPayments(rows pgx.Rows, rich bool) ([]*model.Payment, error) {
	defer rows.Close()
	var out []*model.Payment
	for rows.Next() {
		p, err := scanPaymentRow(rows, rich)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanPaymentRow(rows pgx.Rows, rich bool) (*model.Payment, error) {
	p := &model.Payment{}
	var tier, status, origin string
	dest := []interface{}{
		&p.ID, &p.CheckoutSessionID, &p.PaymentIntentID, &p.UserID, &p.ListingID, &tier, &p.AmountCents,
		&status, &origin, &p.PlannedStartDate, &p.DurationDays, &p.DurationHours,
		&p.PromotionStartDate, &p.PromotionEndDate, &p.CreatedAt, &p.UpdatedAt,
	}
	var (
		baseCents     *int64
		promoCode     *string
		discountType  *string
		discountValue *int64
	)
	if rich {
		dest = append(dest, &baseCents, &promoCode, &discountType, &discountValue)
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	p.Tier = model.Tier(tier)
	p.Status = model.PaymentStatus(status)
	p.Origin = model.PaymentOrigin(origin)
	if rich && baseCents != nil {
		meta := &model.PromoMeta{BaseAmountCents: *baseCents, PromoCode: promoCode, DiscountValue: discountValue}
		if discountType != nil {
			dt := model.DiscountType(*discountType)
			meta.DiscountType = &dt
		}
		p.Promo = meta
	}
	return p, nil
}
