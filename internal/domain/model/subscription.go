package model

import (
	"time"

	"quokka-directory/internal/domain"
)

// Tier is the entitlement class a listing can hold. It determines both the
// directory ranking priority and the granularity of purchased durations.
type Tier string

const (
	TierQuokkaPlus Tier = "quokka_plus"
	TierEssentiel  Tier = "essentiel"
	TierNone       Tier = "none"
)

// DurationUnit is the time granularity a tier is sold in.
type DurationUnit time.Duration

const (
	UnitDay  DurationUnit = DurationUnit(24 * time.Hour)
	UnitHour DurationUnit = DurationUnit(time.Hour)
)

// tierUnits maps each purchasable tier to its duration unit. Tiers absent from
// the map (and any future tier) default to hours.
var tierUnits = map[Tier]DurationUnit{
	TierEssentiel:  UnitDay,
	TierQuokkaPlus: UnitHour,
}

// DurationUnit returns the unit this tier's durations are expressed in.
func (t Tier) DurationUnit() DurationUnit {
	if u, ok := tierUnits[t]; ok {
		return u
	}
	return UnitHour
}

// Rank returns the directory sort priority; lower sorts first.
func (t Tier) Rank() int {
	switch t {
	case TierQuokkaPlus:
		return 1
	case TierEssentiel:
		return 2
	default:
		return 3
	}
}

// Valid reports whether t is a purchasable tier.
func (t Tier) Valid() bool {
	return t == TierQuokkaPlus || t == TierEssentiel
}

// Subscription is a materialized entitlement window for a listing. Rows are
// immutable after creation; history is kept by inserting new rows. The current
// entitlement is the row with the latest EndDate still in the future.
type Subscription struct {
	ID          string // UUID
	ListingID   string // UUID
	Tier        Tier
	StartDate   time.Time
	EndDate     time.Time
	PremiumSlot *string // disambiguates concurrent same-tier grants on one listing
	CreatedAt   time.Time
}

// NewSubscription materializes an entitlement from a computed window.
func NewSubscription(id, listingID string, tier Tier, w Window, premiumSlot *string) (*Subscription, error) {
	if id == "" || listingID == "" || !tier.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	if !w.End.After(w.Start) {
		return nil, domain.ErrInvalidArgument
	}
	return &Subscription{
		ID:          id,
		ListingID:   listingID,
		Tier:        tier,
		StartDate:   w.Start,
		EndDate:     w.End,
		PremiumSlot: premiumSlot,
		CreatedAt:   time.Now(),
	}, nil
}

// ActiveAt reports whether the subscription covers the given instant.
func (s *Subscription) ActiveAt(now time.Time) bool {
	return !now.Before(s.StartDate) && now.Before(s.EndDate)
}
