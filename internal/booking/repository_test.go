package booking_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/inventory"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping postgres-backed test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.EnsureSchema(ctx, pool))
	return pool
}

func createProduct(t *testing.T, pool *pgxpool.Pool, stock int) string {
	t.Helper()
	var id string
	err := pool.QueryRow(context.Background(),
		`INSERT INTO public.products (name, stock_quantity, is_active) VALUES ('test gown', $1, true) RETURNING id`,
		stock,
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func newPgxService(t *testing.T, pool *pgxpool.Pool) booking.Service {
	t.Helper()
	catalog, err := booking.NewSlotCatalog(slotLabels)
	require.NoError(t, err)

	repo := booking.NewPgxRepository(pool)
	return booking.NewService(booking.Config{Location: time.UTC}, booking.Deps{
		Repo:      repo,
		Tx:        db.NewTransactor(pool),
		Inventory: inventory.NewLedger(pool),
		Checker:   booking.NewChecker(catalog, repo, 0),
		Numbers:   booking.NewNumberGenerator("IR", time.UTC, repo),
		Catalog:   catalog,
	})
}

// futureDate keeps the bookings clear of the no-show sweep and past-date checks.
func futureDate() string {
	return time.Now().UTC().AddDate(0, 1, 0).Format("2006-01-02")
}

func TestPgxConcurrentCreateSameSlot(t *testing.T) {
	pool := setupPool(t)
	svc := newPgxService(t, pool)
	productID := createProduct(t, pool, 20)
	date := futureDate()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, conflicts := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Create(context.Background(), standardRequest(productID, date, "10:00 - 11:30"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, booking.ErrSlotConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, conflicts)

	left, err := inventory.NewLedger(pool).Stock(context.Background(), productID)
	require.NoError(t, err)
	assert.Equal(t, 19, left)
}

func TestPgxConcurrentCreateUniqueNumbers(t *testing.T) {
	pool := setupPool(t)
	svc := newPgxService(t, pool)
	date := futureDate()

	const n = 12
	products := make([]string, n)
	for i := range products {
		products[i] = createProduct(t, pool, 1)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	numbers := make(map[string]int)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := svc.Create(context.Background(), standardRequest(products[i], date, slotLabels[i%len(slotLabels)]))
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			numbers[b.Booking.BookingNumber]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Len(t, numbers, n)
	for number, count := range numbers {
		assert.Equal(t, 1, count, number)
		assert.True(t, booking.ValidNumber(number), number)
	}
}
