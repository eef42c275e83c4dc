package redis

import (
	"context"
	"fmt"
	"time"

	"quokka-directory/internal/domain/ports/repository"
)

var _ repository.ViewDeduper = (*ViewDeduper)(nil)

// ViewDeduper collapses repeat views of a listing by the same user within the
// TTL into a single counted view. The marker key is written with SETNX so two
// concurrent first views still count once.
type ViewDeduper struct {
	client RedisClient
	ttl    time.Duration
}

func NewViewDeduper(client RedisClient, ttl time.Duration) *ViewDeduper {
	return &ViewDeduper{client: client, ttl: ttl}
}

// FirstView reports whether this is the user's first view of the listing
// within the dedup window, claiming the marker as a side effect.
func (d *ViewDeduper) FirstView(ctx context.Context, listingID, userID string) (bool, error) {
	key := fmt.Sprintf("view_dedup:%s:%s", listingID, userID)
	return d.client.SetNX(ctx, key, 1, d.ttl)
}
