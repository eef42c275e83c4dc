package model

import "time"

// Listing is a community server entry in the directory. Descriptive fields are
// mutable; identity and ownership are not.
type Listing struct {
	ID          string // UUID
	UserID      string // owner
	Name        string
	Description string
	InviteLink  *string
	IsPublic    bool
	IsVisible   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Stats holds per-listing engagement counters. They are monotonically
// non-decreasing and written by the engagement tracker; the ranker only reads
// them.
type Stats struct {
	ListingID string
	Likes     int64
	Views     int64
	Visits    int64
	Clicks    int64
	UpdatedAt time.Time
}

// RankedListing is a directory row: the listing joined with its current
// entitlement tier and engagement counters, as consumed by renderers.
type RankedListing struct {
	Listing
	// CurrentTier is TierNone when no subscription window covers now.
	CurrentTier Tier
	// TierEndDate is nil when CurrentTier is TierNone.
	TierEndDate *time.Time
	Stats       Stats
}

// DirectoryFilter narrows a ranked directory query. Zero value means "all
// visible listings".
type DirectoryFilter struct {
	// NameContains is a case-insensitive substring match on the name.
	NameContains string
	// OwnerID restricts results to one owner's listings.
	OwnerID string
}
