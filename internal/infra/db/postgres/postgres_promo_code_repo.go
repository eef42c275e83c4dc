package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
)

var _ repository.PromoCodeRepository = (*promoCodeRepo)(nil)

type promoCodeRepo struct {
	pool *pgxpool.Pool
}

func NewPromoCodeRepo(pool *pgxpool.Pool) *promoCodeRepo {
	return &promoCodeRepo{pool: pool}
}

const promoCols = `id, code, is_active, discount_type, discount_value, target_user_id, target_listing_id, max_uses, uses_count, expires_at, created_at`

func (r *promoCodeRepo) Create(ctx context.Context, tx repository.Tx, c *model.PromoCode) error {
	const q = `
INSERT INTO promo_codes (` + promoCols + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	_, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.Code, c.IsActive, string(c.DiscountType), c.DiscountValue,
		c.TargetUserID, c.TargetListingID, c.MaxUses, c.UsesCount, c.ExpiresAt, c.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrAlreadyExists
		}
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *promoCodeRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.PromoCode, error) {
	const q = `SELECT ` + promoCols + ` FROM promo_codes WHERE code = $1 LIMIT 1;`

	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanPromoCode(row)
}

// Redeem is the only path that mutates uses_count. Every precondition lives
// in the WHERE clause so concurrent redemptions of a nearly-exhausted code
// race on the row lock, not on a stale read.
func (r *promoCodeRepo) Redeem(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	const q = `
UPDATE promo_codes
   SET uses_count = uses_count + 1
 WHERE code = $1
   AND is_active
   AND (max_uses IS NULL OR uses_count < max_uses)
   AND (expires_at IS NULL OR expires_at > NOW());`

	cmd, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *promoCodeRepo) SetActive(ctx context.Context, tx repository.Tx, code string, isActive bool) error {
	cmd, err := execSQL(ctx, r.pool, tx, `UPDATE promo_codes SET is_active = $2 WHERE code = $1;`, code, isActive)
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

func (r *promoCodeRepo) List(ctx context.Context, tx repository.Tx) ([]*model.PromoCode, error) {
	const q = `SELECT ` + promoCols + ` FROM promo_codes ORDER BY created_at DESC;`

	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PromoCode
	for rows.Next() {
		c, err := scanPromoCode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *promoCodeRepo) DeactivateExpired(ctx context.Context, tx repository.Tx) (int, error) {
	const q = `
UPDATE promo_codes
   SET is_active = FALSE
 WHERE is_active
   AND expires_at IS NOT NULL
   AND expires_at <= NOW();`

	cmd, err := execSQL(ctx, r.pool, tx, q)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return int(cmd.RowsAffected()), nil
}

func scanPromoCode(row pgx.Row) (*model.PromoCode, error) {
	c := &model.PromoCode{}
	var discountType string
	err := row.Scan(
		&c.ID, &c.Code, &c.IsActive, &discountType, &c.DiscountValue,
		&c.TargetUserID, &c.TargetListingID, &c.MaxUses, &c.UsesCount, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.DiscountType = model.DiscountType(discountType)
	return c, nil
}
