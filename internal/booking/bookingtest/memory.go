// Package bookingtest provides an in-memory booking store for tests.
package bookingtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/inventory"
)

// Tracker is state that joins Store transactions. Snapshot is called when a
// transaction begins; the returned func restores that state on rollback.
type Tracker interface {
	Snapshot() (restore func())
}

type product struct {
	stock  int
	active bool
}

// Store implements booking.Repository, booking.Inventory and db.Transactor.
// Transactions are serialized by a single mutex and rolled back by restoring
// a snapshot taken when they began.
type Store struct {
	mu       sync.Mutex
	bookings map[string]*booking.Booking
	order    []string
	products map[string]*product
	counters map[string]int
	trackers []Tracker

	readFailures int
	readErr      error
}

func NewStore() *Store {
	return &Store{
		bookings: make(map[string]*booking.Booking),
		products: make(map[string]*product),
		counters: make(map[string]int),
	}
}

type txKey struct{}

// Track makes t roll back together with Store transactions.
func (s *Store) Track(t Tracker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trackers = append(s.trackers, t)
}

func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	restore := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		restore()
		return err
	}
	return nil
}

func (s *Store) snapshot() func() {
	bookings := make(map[string]*booking.Booking, len(s.bookings))
	for id, b := range s.bookings {
		bookings[id] = clone(b)
	}
	order := append([]string(nil), s.order...)
	products := make(map[string]*product, len(s.products))
	for id, p := range s.products {
		cp := *p
		products[id] = &cp
	}
	counters := make(map[string]int, len(s.counters))
	for k, v := range s.counters {
		counters[k] = v
	}
	restores := make([]func(), 0, len(s.trackers))
	for _, t := range s.trackers {
		restores = append(restores, t.Snapshot())
	}

	return func() {
		s.bookings, s.order, s.products, s.counters = bookings, order, products, counters
		for _, r := range restores {
			r()
		}
	}
}

// lock takes the store mutex unless ctx is inside a transaction, which
// already holds it.
func (s *Store) lock(ctx context.Context) func() {
	if ctx.Value(txKey{}) != nil {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func clone(b *booking.Booking) *booking.Booking {
	cp := *b
	return &cp
}

// AddProduct registers an active product with the given stock.
func (s *Store) AddProduct(id string, stock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = &product{stock: stock, active: true}
}

func (s *Store) DeactivateProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		p.active = false
	}
}

// Seed stores b as is, bypassing the sequence counter and slot checks.
func (s *Store) Seed(b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.bookings[b.ID] = clone(b)
	s.order = append(s.order, b.ID)
}

// FailReads makes the next n non-transactional GetByNumber calls return err.
func (s *Store) FailReads(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readFailures, s.readErr = n, err
}

// All returns every stored booking, including deleted ones.
func (s *Store) All() []*booking.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*booking.Booking, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.bookings[id]))
	}
	return out
}

func (s *Store) LockSlot(context.Context, string) error {
	return nil
}

func (s *Store) NextSequence(ctx context.Context, day time.Time) (int, error) {
	defer s.lock(ctx)()
	key := booking.FormatDate(day)
	s.counters[key]++
	return s.counters[key], nil
}

func occupies(b *booking.Booking, productID string, date time.Time, slot string) bool {
	if !b.Status.IsActive() || !b.Date.Equal(date) || b.TimeSlot != slot {
		return false
	}
	if productID == "" {
		return b.Type == booking.TypeTimeSlotOnly
	}
	return b.Type == booking.TypeStandard && b.ProductID == productID
}

func (s *Store) CountActive(ctx context.Context, productID string, date time.Time, slot string, excludeID string) (int, error) {
	defer s.lock(ctx)()
	n := 0
	for _, b := range s.bookings {
		if b.ID != excludeID && occupies(b, productID, date, slot) {
			n++
		}
	}
	return n, nil
}

func (s *Store) OccupiedSlots(ctx context.Context, productID string, date time.Time) (map[string]int, error) {
	defer s.lock(ctx)()
	occupied := make(map[string]int)
	for _, b := range s.bookings {
		if occupies(b, productID, date, b.TimeSlot) {
			occupied[b.TimeSlot]++
		}
	}
	return occupied, nil
}

func (s *Store) Create(ctx context.Context, b *booking.Booking) error {
	defer s.lock(ctx)()

	if b.ProductID != "" {
		if _, ok := s.products[b.ProductID]; !ok {
			return inventory.ErrProductNotFound
		}
	}
	for _, existing := range s.bookings {
		if existing.BookingNumber == b.BookingNumber {
			return booking.ErrNumberTaken
		}
		if b.Type == booking.TypeStandard && occupies(existing, b.ProductID, b.Date, b.TimeSlot) {
			return booking.ErrSlotConflict
		}
	}

	now := time.Now()
	b.ID = uuid.NewString()
	b.CreatedAt, b.UpdatedAt = now, now
	s.bookings[b.ID] = clone(b)
	s.order = append(s.order, b.ID)
	return nil
}

func (s *Store) find(number string) (*booking.Booking, error) {
	for _, b := range s.bookings {
		if b.BookingNumber == number {
			b := clone(b)
			if p, ok := s.products[b.ProductID]; ok && p != nil {
				b.ProductName = "product " + b.ProductID
			}
			return b, nil
		}
	}
	return nil, booking.ErrNotFound
}

func (s *Store) GetByNumber(ctx context.Context, number string) (*booking.Booking, error) {
	defer s.lock(ctx)()
	if ctx.Value(txKey{}) == nil && s.readFailures > 0 {
		s.readFailures--
		return nil, s.readErr
	}
	return s.find(number)
}

func (s *Store) GetByNumberForUpdate(ctx context.Context, number string) (*booking.Booking, error) {
	defer s.lock(ctx)()
	return s.find(number)
}

func (s *Store) Update(ctx context.Context, b *booking.Booking) error {
	defer s.lock(ctx)()
	if _, ok := s.bookings[b.ID]; !ok {
		return booking.ErrNotFound
	}
	if b.Type == booking.TypeStandard && b.Status.IsActive() {
		for _, existing := range s.bookings {
			if existing.ID != b.ID && occupies(existing, b.ProductID, b.Date, b.TimeSlot) {
				return booking.ErrSlotConflict
			}
		}
	}
	s.bookings[b.ID] = clone(b)
	return nil
}

func contains(field, sub string) bool {
	return strings.Contains(strings.ToLower(field), strings.ToLower(sub))
}

func matches(b *booking.Booking, f booking.Filter) bool {
	switch {
	case b.Status == booking.StatusDeleted:
		return false
	case f.Status != "" && b.Status != f.Status:
		return false
	case f.Type != "" && b.Type != f.Type:
		return false
	case f.ProductID != "" && b.ProductID != f.ProductID:
		return false
	case f.StartDate != nil && b.Date.Before(*f.StartDate):
		return false
	case f.EndDate != nil && b.Date.After(*f.EndDate):
		return false
	case f.CustomerName != "" && !contains(b.CustomerName, f.CustomerName):
		return false
	case f.CustomerEmail != "" && !contains(b.CustomerEmail, f.CustomerEmail):
		return false
	case f.Query != "" && !contains(b.BookingNumber, f.Query) &&
		!contains(b.CustomerName, f.Query) && !contains(b.CustomerEmail, f.Query):
		return false
	}
	return true
}

func (s *Store) List(ctx context.Context, f booking.Filter) ([]*booking.Booking, int, error) {
	defer s.lock(ctx)()

	var all []*booking.Booking
	for _, id := range s.order {
		if b := s.bookings[id]; matches(b, f) {
			all = append(all, clone(b))
		}
	}
	if !strings.EqualFold(f.SortOrder, "ASC") {
		for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
			all[i], all[j] = all[j], all[i]
		}
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	start := (f.Page - 1) * f.PageSize
	if start > len(all) {
		start = len(all)
	}
	end := min(start+f.PageSize, len(all))
	return all[start:end], len(all), nil
}

func (s *Store) ListDaily(ctx context.Context, date time.Time, productID string) ([]*booking.Booking, error) {
	defer s.lock(ctx)()
	var out []*booking.Booking
	for _, id := range s.order {
		b := s.bookings[id]
		if !b.Status.IsActive() && b.Status != booking.StatusCompleted {
			continue
		}
		if !b.Date.Equal(date) || (productID != "" && b.ProductID != productID) {
			continue
		}
		out = append(out, clone(b))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TimeSlot < out[j].TimeSlot
	})
	return out, nil
}

func (s *Store) ListPendingUntil(ctx context.Context, date time.Time, limit int) ([]*booking.Booking, error) {
	defer s.lock(ctx)()
	var out []*booking.Booking
	for _, id := range s.order {
		b := s.bookings[id]
		if b.Status == booking.StatusPending && !b.Date.After(date) {
			out = append(out, clone(b))
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) Stats(ctx context.Context) (*booking.Stats, error) {
	defer s.lock(ctx)()
	var stats booking.Stats
	for _, b := range s.bookings {
		if b.Status != booking.StatusDeleted {
			stats.Add(b.Status, 1)
		}
	}
	return &stats, nil
}

func (s *Store) Reserve(ctx context.Context, productID string) error {
	defer s.lock(ctx)()
	p, ok := s.products[productID]
	if !ok || !p.active {
		return inventory.ErrProductNotFound
	}
	if p.stock <= 0 {
		return inventory.ErrInsufficientStock
	}
	p.stock--
	return nil
}

func (s *Store) Release(ctx context.Context, productID string) error {
	defer s.lock(ctx)()
	p, ok := s.products[productID]
	if !ok {
		return inventory.ErrProductNotFound
	}
	p.stock++
	return nil
}

func (s *Store) Stock(ctx context.Context, productID string) (int, error) {
	defer s.lock(ctx)()
	p, ok := s.products[productID]
	if !ok || !p.active {
		return 0, inventory.ErrProductNotFound
	}
	return p.stock, nil
}
