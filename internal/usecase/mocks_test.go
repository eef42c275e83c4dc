// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"quokka-directory/internal/domain"
	"quokka-directory/internal/domain/model"
	"quokka-directory/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxManager runs the callback without a real transaction. Good enough for
// unit tests: the in-memory repos are individually atomic.
type memTxManager struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// memPaymentRepo is a small in-memory implementation used by unit tests.
type memPaymentRepo struct {
	mu        sync.RWMutex
	bySession map[string]*model.Payment
	createErr error // used by tests to simulate insert failures
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{bySession: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) CreatePending(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[p.CheckoutSessionID]; ok {
		return nil // ON CONFLICT DO NOTHING
	}
	cp := *p
	m.bySession[p.CheckoutSessionID] = &cp
	return nil
}

func (m *memPaymentRepo) CreateCompleted(ctx context.Context, _ repository.Tx, p *model.Payment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bySession[p.CheckoutSessionID]; ok {
		return nil
	}
	cp := *p
	m.bySession[p.CheckoutSessionID] = &cp
	return nil
}

func (m *memPaymentRepo) Complete(ctx context.Context, _ repository.Tx, sessionID string, intentID *string) (*model.EntitlementParams, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySession[sessionID]
	if !ok || p.Status == model.PaymentStatusCompleted {
		return nil, nil
	}
	p.Status = model.PaymentStatusCompleted
	if intentID != nil {
		p.PaymentIntentID = intentID
	}
	p.UpdatedAt = time.Now()
	return &model.EntitlementParams{
		ListingID:        p.ListingID,
		Tier:             p.Tier,
		PlannedStartDate: p.PlannedStartDate,
		DurationDays:     p.DurationDays,
		DurationHours:    p.DurationHours,
	}, nil
}

func (m *memPaymentRepo) SetPromotionWindow(ctx context.Context, _ repository.Tx, sessionID string, start, end time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySession[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	p.PromotionStartDate = &start
	p.PromotionEndDate = &end
	return nil
}

func (m *memPaymentRepo) AttachPromoMeta(ctx context.Context, _ repository.Tx, sessionID string, meta *model.PromoMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.bySession[sessionID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *meta
	p.Promo = &cp
	return nil
}

func (m *memPaymentRepo) ListForUser(ctx context.Context, _ repository.Tx, userID string) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.bySession {
		if p.UserID == userID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) GetByID(ctx context.Context, _ repository.Tx, id, userID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.bySession {
		if p.ID == id && p.UserID == userID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) GetByCheckoutSession(ctx context.Context, _ repository.Tx, sessionID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.bySession[sessionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.bySession {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPaymentRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for sid, p := range m.bySession {
		if p.ID == id {
			delete(m.bySession, sid)
			return nil
		}
	}
	return domain.ErrNotFound
}

// memSubscriptionRepo stores entitlement windows keyed by id.
type memSubscriptionRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.Subscription
	owners    map[string]string // listingID -> ownerID
	createErr error
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{
		store:  make(map[string]*model.Subscription),
		owners: make(map[string]string),
	}
}

func (m *memSubscriptionRepo) Create(ctx context.Context, _ repository.Tx, s *model.Subscription) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.store[s.ID] = &cp
	return nil
}

func (m *memSubscriptionRepo) ListForListing(ctx context.Context, _ repository.Tx, listingID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if s.ListingID == listingID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.After(out[j].EndDate) })
	return out, nil
}

func (m *memSubscriptionRepo) ListForOwner(ctx context.Context, _ repository.Tx, userID string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		if m.owners[s.ListingID] == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubscriptionRepo) ListAll(ctx context.Context, _ repository.Tx) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.store {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memSubscriptionRepo) Delete(ctx context.Context, _ repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, id)
	return nil
}

// memListingRepo backs the directory use case in unit tests. Ranking happens
// in ListRanked the same way the SQL does, so ordering tests run without a
// database.
type memListingRepo struct {
	mu       sync.RWMutex
	listings map[string]*model.Listing
	stats    map[string]*model.Stats
	subs     *memSubscriptionRepo // shared so tiers influence ranking
}

func newMemListingRepo(subs *memSubscriptionRepo) *memListingRepo {
	return &memListingRepo{
		listings: make(map[string]*model.Listing),
		stats:    make(map[string]*model.Stats),
		subs:     subs,
	}
}

func (m *memListingRepo) Create(ctx context.Context, _ repository.Tx, l *model.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *l
	m.listings[l.ID] = &cp
	m.stats[l.ID] = &model.Stats{ListingID: l.ID}
	if m.subs != nil {
		m.subs.owners[l.ID] = l.UserID
	}
	return nil
}

func (m *memListingRepo) GetByID(ctx context.Context, _ repository.Tx, id string) (*model.RankedListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m.ranked(l), nil
}

func (m *memListingRepo) Exists(ctx context.Context, _ repository.Tx, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.listings[id]
	return ok, nil
}

func (m *memListingRepo) SetVisible(ctx context.Context, _ repository.Tx, id string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return domain.ErrNotFound
	}
	l.IsVisible = visible
	return nil
}

func (m *memListingRepo) ListRanked(ctx context.Context, _ repository.Tx, filter model.DirectoryFilter) ([]*model.RankedListing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.RankedListing
	for _, l := range m.listings {
		if !l.IsVisible || !l.IsPublic {
			continue
		}
		if filter.NameContains != "" && !strings.Contains(strings.ToLower(l.Name), strings.ToLower(filter.NameContains)) {
			continue
		}
		if filter.OwnerID != "" && l.UserID != filter.OwnerID {
			continue
		}
		out = append(out, m.ranked(l))
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if ra, rb := a.CurrentTier.Rank(), b.CurrentTier.Rank(); ra != rb {
			return ra < rb
		}
		if a.Stats.Likes != b.Stats.Likes {
			return a.Stats.Likes > b.Stats.Likes
		}
		if a.Stats.Views != b.Stats.Views {
			return a.Stats.Views > b.Stats.Views
		}
		if a.Stats.Visits != b.Stats.Visits {
			return a.Stats.Visits > b.Stats.Visits
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return out, nil
}

// ranked resolves the active subscription with the latest end date.
func (m *memListingRepo) ranked(l *model.Listing) *model.RankedListing {
	rl := &model.RankedListing{Listing: *l, CurrentTier: model.TierNone}
	if st, ok := m.stats[l.ID]; ok {
		rl.Stats = *st
	}
	if m.subs == nil {
		return rl
	}
	now := time.Now()
	m.subs.mu.RLock()
	defer m.subs.mu.RUnlock()
	for _, s := range m.subs.store {
		if s.ListingID != l.ID || !s.EndDate.After(now) {
			continue
		}
		if rl.TierEndDate == nil || s.EndDate.After(*rl.TierEndDate) {
			end := s.EndDate
			rl.CurrentTier = s.Tier
			rl.TierEndDate = &end
		}
	}
	return rl
}

func (m *memListingRepo) IncrementView(ctx context.Context, _ repository.Tx, id string) error {
	return m.bump(id, func(s *model.Stats) { s.Views++ })
}

func (m *memListingRepo) IncrementVisit(ctx context.Context, _ repository.Tx, id string) error {
	return m.bump(id, func(s *model.Stats) { s.Visits++ })
}

func (m *memListingRepo) IncrementClick(ctx context.Context, _ repository.Tx, id string) error {
	return m.bump(id, func(s *model.Stats) { s.Clicks++ })
}

func (m *memListingRepo) IncrementLike(ctx context.Context, _ repository.Tx, id string) error {
	return m.bump(id, func(s *model.Stats) { s.Likes++ })
}

func (m *memListingRepo) bump(id string, f func(*model.Stats)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.stats[id]
	if !ok {
		st = &model.Stats{ListingID: id}
		m.stats[id] = st
	}
	f(st)
	return nil
}

// memPromoRepo mirrors the guarded-increment semantics of the SQL repo.
type memPromoRepo struct {
	mu    sync.Mutex
	store map[string]*model.PromoCode
}

func newMemPromoRepo() *memPromoRepo {
	return &memPromoRepo{store: make(map[string]*model.PromoCode)}
}

func (m *memPromoRepo) Create(ctx context.Context, _ repository.Tx, c *model.PromoCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[c.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *memPromoRepo) FindByCode(ctx context.Context, _ repository.Tx, code string) (*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memPromoRepo) Redeem(ctx context.Context, _ repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return false, nil
	}
	if !c.IsActive {
		return false, nil
	}
	if c.ExpiresAt != nil && !time.Now().Before(*c.ExpiresAt) {
		return false, nil
	}
	if c.MaxUses != nil && c.UsesCount >= *c.MaxUses {
		return false, nil
	}
	c.UsesCount++
	return true, nil
}

func (m *memPromoRepo) SetActive(ctx context.Context, _ repository.Tx, code string, isActive bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	c.IsActive = isActive
	return nil
}

func (m *memPromoRepo) List(ctx context.Context, _ repository.Tx) ([]*model.PromoCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PromoCode
	for _, c := range m.store {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPromoRepo) DeactivateExpired(ctx context.Context, _ repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	n := 0
	for _, c := range m.store {
		if c.IsActive && c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
			c.IsActive = false
			n++
		}
	}
	return n, nil
}

// memViewDeduper marks listing/user pairs seen.
type memViewDeduper struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newMemViewDeduper() *memViewDeduper {
	return &memViewDeduper{seen: make(map[string]bool)}
}

func (m *memViewDeduper) FirstView(ctx context.Context, listingID, userID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := listingID + ":" + userID
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}
