package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
)

var _ repository.ListingRepository = (*listingRepo)(nil)

type listingRepo struct {
	pool *pgxpool.Pool
}

func NewListingRepo(pool *pgxpool.Pool) *listingRepo {
	return &listingRepo{pool: pool}
}

// rankedSelect joins each listing with its engagement counters and the active
// entitlement holding the latest end date. The LATERAL subquery picks one row
// per listing so overlapping grants never duplicate directory entries.
const rankedSelect = `
SELECT l.id, l.user_id, l.name, l.description, l.invite_link, l.is_public, l.is_visible, l.created_at, l.updated_at,
       COALESCE(sub.tier, 'none') AS current_tier,
       sub.end_date AS tier_end_date,
       COALESCE(st.likes, 0), COALESCE(st.views, 0), COALESCE(st.visits, 0), COALESCE(st.clicks, 0)
  FROM listings l
  LEFT JOIN listing_stats st ON st.listing_id = l.id
  LEFT JOIN LATERAL (
        SELECT s.tier, s.end_date
          FROM subscriptions s
         WHERE s.listing_id = l.id
           AND s.end_date > NOW()
         ORDER BY s.end_date DESC
         LIMIT 1
  ) sub ON TRUE`

// rankedOrder is the deterministic directory order. Tier outranks every
// engagement signal; id is the final total-order tie break.
const rankedOrder = `
 ORDER BY CASE COALESCE(sub.tier, 'none')
            WHEN 'quokka_plus' THEN 1
            WHEN 'essentiel' THEN 2
            ELSE 3
          END ASC,
          COALESCE(st.likes, 0) DESC,
          COALESCE(st.views, 0) DESC,
          COALESCE(st.visits, 0) DESC,
          l.created_at DESC,
          l.id ASC;`

func (r *listingRepo) Create(ctx context.Context, tx repository.Tx, l *model.Listing) error {
	const q = `
INSERT INTO listings (id, user_id, name, description, invite_link, is_public, is_visible, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9);`

	_, err := execSQL(ctx, r.pool, tx, q,
		l.ID, l.UserID, l.Name, l.Description, l.InviteLink, l.IsPublic, l.IsVisible, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	// stats row is created eagerly so increments are plain updates
	_, err = execSQL(ctx, r.pool, tx,
		`INSERT INTO listing_stats (listing_id) VALUES ($1) ON CONFLICT (listing_id) DO NOTHING;`, l.ID)
	if err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *listingRepo) GetByID(ctx context.Context, tx repository.Tx, id string) (*model.RankedListing, error) {
	q := rankedSelect + `
 WHERE l.id = $1
 LIMIT 1;`

	rows, err := queryRows(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, domain.ErrOperationFailed
		}
		return nil, domain.ErrNotFound
	}
	return scanRankedListing(rows)
}

func (r *listingRepo) Exists(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT EXISTS (SELECT 1 FROM listings WHERE id = $1);`, id)
	if err != nil {
		return false, err
	}
	var ok bool
	if err := row.Scan(&ok); err != nil {
		return false, domain.ErrReadDatabaseRow
	}
	return ok, nil
}

func (r *listingRepo) SetVisible(ctx context.Context, tx repository.Tx, id string, visible bool) error {
	cmd, err := execSQL(ctx, r.pool, tx,
		`UPDATE listings SET is_visible = $2, updated_at = NOW() WHERE id = $1;`, id, visible)
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

func (r *listingRepo) ListRanked(ctx context.Context, tx repository.Tx, filter model.DirectoryFilter) ([]*model.RankedListing, error) {
	where := ` WHERE l.is_visible AND l.is_public`
	var args []interface{}
	if filter.NameContains != "" {
		args = append(args, "%"+filter.NameContains+"%")
		where += fmt.Sprintf(` AND l.name ILIKE $%d`, len(args))
	}
	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		where += fmt.Sprintf(` AND l.user_id = $%d`, len(args))
	}

	rows, err := queryRows(ctx, r.pool, tx, rankedSelect+where+rankedOrder, args...)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []*model.RankedListing
	for rows.Next() {
		rl, err := scanRankedListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rl)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *listingRepo) IncrementView(ctx context.Context, tx repository.Tx, id string) error {
	return r.increment(ctx, tx, "views", id)
}

func (r *listingRepo) IncrementVisit(ctx context.Context, tx repository.Tx, id string) error {
	return r.increment(ctx, tx, "visits", id)
}

func (r *listingRepo) IncrementClick(ctx context.Context, tx repository.Tx, id string) error {
	return r.increment(ctx, tx, "clicks", id)
}

func (r *listingRepo) IncrementLike(ctx context.Context, tx repository.Tx, id string) error {
	return r.increment(ctx, tx, "likes", id)
}

// increment upserts so a counter bump never depends on the stats row already
// existing. col is one of the four fixed counter names, never user input.
func (r *listingRepo) increment(ctx context.Context, tx repository.Tx, col, id string) error {
	q := fmt.Sprintf(`
INSERT INTO listing_stats (listing_id, %[1]s, updated_at)
VALUES ($1, 1, NOW())
ON CONFLICT (listing_id) DO UPDATE SET %[1]s = listing_stats.%[1]s + 1, updated_at = NOW();`, col)

	_, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func scanRankedListing(row pgx.Row) (*model.RankedListing, error) {
	rl := &model.RankedListing{}
	var tier string
	err := row.Scan(
		&rl.ID, &rl.UserID, &rl.Name, &rl.Description, &rl.InviteLink, &rl.IsPublic, &rl.IsVisible,
		&rl.CreatedAt, &rl.UpdatedAt,
		&tier, &rl.TierEndDate,
		&rl.Stats.Likes, &rl.Stats.Views, &rl.Stats.Visits, &rl.Stats.Clicks,
	)
	if err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	rl.CurrentTier = model.Tier(tier)
	rl.Stats.ListingID = rl.ID
	return rl, nil
}
