package repository

import "context"

// ViewDeduper remembers which users already viewed which listing so a view is
// counted at most once per user. Backed by redis in production; an in-memory
// map in tests.
type ViewDeduper interface {
	// FirstView records the pair and reports whether it was unseen before.
	FirstView(ctx context.Context, listingID, userID string) (bool, error)
}
