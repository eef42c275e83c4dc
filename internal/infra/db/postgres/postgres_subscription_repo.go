package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
)

var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionCols = `s.id, s.listing_id, s.tier, s.start_date, s.end_date, s.premium_slot, s.created_at`

func (r *subscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	const q = `
INSERT INTO subscriptions (id, listing_id, tier, start_date, end_date, premium_slot, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7);`

	_, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.ListingID, string(s.Tier), s.StartDate, s.EndDate, s.PremiumSlot, s.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *subscriptionRepo) ListForListing(ctx context.Context, tx repository.Tx, listingID string) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions s
 WHERE s.listing_id = $1
 ORDER BY s.end_date DESC;`
	return r.list(ctx, tx, q, listingID)
}

func (r *subscriptionRepo) ListForOwner(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions s
  JOIN listings l ON l.id = s.listing_id
 WHERE l.user_id = $1
 ORDER BY s.end_date DESC;`
	return r.list(ctx, tx, q, userID)
}

func (r *subscriptionRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Subscription, error) {
	const q = `
SELECT ` + subscriptionCols + `
  FROM subscriptions s
 ORDER BY s.end_date DESC;`
	return r.list(ctx, tx, q)
}

func (r *subscriptionRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM subscriptions WHERE id = $1;`, id)
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

func (r *subscriptionRepo) list(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	var tier string
	err := row.Scan(&s.ID, &s.ListingID, &tier, &s.StartDate, &s.EndDate, &s.PremiumSlot, &s.CreatedAt)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	s.Tier = model.Tier(tier)
	return s, nil
}
