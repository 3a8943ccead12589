package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/inventory"
)

const (
	numberConstraint     = "bookings_booking_number_key"
	activeSlotConstraint = "bookings_active_slot_idx"
)

type Repository interface {
	OccupancyReader
	Sequencer

	Create(ctx context.Context, b *Booking) error
	// GetByNumber returns the booking including soft-deleted rows.
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	// GetByNumberForUpdate row-locks the booking until the transaction ends.
	GetByNumberForUpdate(ctx context.Context, number string) (*Booking, error)
	Update(ctx context.Context, b *Booking) error
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	// ListDaily returns bookings on date that are still expected to show up.
	ListDaily(ctx context.Context, date time.Time, productID string) ([]*Booking, error)
	// ListPendingUntil returns pending bookings dated on or before date.
	ListPendingUntil(ctx context.Context, date time.Time, limit int) ([]*Booking, error)
	Stats(ctx context.Context) (*Stats, error)

	// LockSlot takes a transaction-scoped lock on key.
	LockSlot(ctx context.Context, key string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var selectColumns = []string{
	"b.id", "b.booking_number", "b.booking_type", "b.product_id", "COALESCE(p.name, '')", "b.user_id",
	"b.booking_date", "b.booking_time", "b.time_slot",
	"b.customer_fullname", "b.customer_email", "b.customer_phone", "b.participants",
	"b.emergency_contact", "b.notes", "b.total_amount_cents", "b.status", "b.inventory_held",
	"b.created_at", "b.updated_at", "b.cancelled_at", "b.deleted_at",
}

func selectBookings(extra ...string) squirrel.SelectBuilder {
	return psql.Select(append(append([]string{}, selectColumns...), extra...)...).
		From("public.bookings b").
		LeftJoin("public.products p ON b.product_id = p.id")
}

func scanBooking(row pgx.Row, extra ...any) (*Booking, error) {
	var (
		b                 Booking
		productID, userID *string
		clock             *string
	)
	dest := []any{
		&b.ID, &b.BookingNumber, &b.Type, &productID, &b.ProductName, &userID,
		&b.Date, &clock, &b.TimeSlot,
		&b.CustomerName, &b.CustomerEmail, &b.CustomerPhone, &b.Participants,
		&b.EmergencyContact, &b.Notes, &b.TotalAmountCents, &b.Status, &b.InventoryHeld,
		&b.CreatedAt, &b.UpdatedAt, &b.CancelledAt, &b.DeletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if productID != nil {
		b.ProductID = *productID
	}
	if userID != nil {
		b.UserID = *userID
	}
	if clock != nil {
		b.Time = *clock
	}
	return &b, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	query, args, err := psql.Insert("public.bookings").
		Columns(
			"booking_number", "booking_type", "product_id", "user_id", "booking_date", "booking_time", "time_slot",
			"customer_fullname", "customer_email", "customer_phone", "participants",
			"emergency_contact", "notes", "total_amount_cents", "status", "inventory_held",
		).
		Values(
			b.BookingNumber, b.Type, nullable(b.ProductID), nullable(b.UserID), b.Date, nullable(b.Time), b.TimeSlot,
			b.CustomerName, b.CustomerEmail, b.CustomerPhone, b.Participants,
			b.EmergencyContact, b.Notes, b.TotalAmountCents, b.Status, b.InventoryHeld,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	err = db.Conn(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case db.IsUniqueViolation(err, numberConstraint):
		return ErrNumberTaken
	case db.IsUniqueViolation(err, activeSlotConstraint):
		return ErrSlotConflict
	case db.IsForeignKeyViolation(err):
		return inventory.ErrProductNotFound
	default:
		return fmt.Errorf("create booking failed: %w", err)
	}
}

func (r *pgxRepository) getByNumber(ctx context.Context, number string, forUpdate bool) (*Booking, error) {
	q := selectBookings().Where(squirrel.Eq{"b.booking_number": number})
	if forUpdate {
		q = q.Suffix("FOR UPDATE OF b")
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	b, err := scanBooking(db.Conn(ctx, r.pool).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return b, nil
}

func (r *pgxRepository) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	return r.getByNumber(ctx, number, false)
}

func (r *pgxRepository) GetByNumberForUpdate(ctx context.Context, number string) (*Booking, error) {
	return r.getByNumber(ctx, number, true)
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	query, args, err := psql.Update("public.bookings").
		Set("booking_date", b.Date).
		Set("booking_time", nullable(b.Time)).
		Set("time_slot", b.TimeSlot).
		Set("customer_fullname", b.CustomerName).
		Set("customer_email", b.CustomerEmail).
		Set("customer_phone", b.CustomerPhone).
		Set("participants", b.Participants).
		Set("emergency_contact", b.EmergencyContact).
		Set("notes", b.Notes).
		Set("total_amount_cents", b.TotalAmountCents).
		Set("status", b.Status).
		Set("inventory_held", b.InventoryHeld).
		Set("cancelled_at", b.CancelledAt).
		Set("deleted_at", b.DeletedAt).
		Set("updated_at", b.UpdatedAt).
		Where(squirrel.Eq{"id": b.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking query failed: %w", err)
	}

	ct, err := db.Conn(ctx, r.pool).Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err, activeSlotConstraint) {
			return ErrSlotConflict
		}
		return fmt.Errorf("update booking failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := selectBookings("count(*) OVER() as total_count")

	query = query.Where(squirrel.NotEq{"b.status": StatusDeleted})
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}
	if filter.Type != "" {
		query = query.Where(squirrel.Eq{"b.booking_type": filter.Type})
	}
	if filter.ProductID != "" {
		query = query.Where(squirrel.Eq{"b.product_id": filter.ProductID})
	}
	if filter.StartDate != nil {
		query = query.Where(squirrel.GtOrEq{"b.booking_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		query = query.Where(squirrel.LtOrEq{"b.booking_date": *filter.EndDate})
	}
	if filter.CustomerName != "" {
		query = query.Where(squirrel.ILike{"b.customer_fullname": "%" + filter.CustomerName + "%"})
	}
	if filter.CustomerEmail != "" {
		query = query.Where(squirrel.ILike{"b.customer_email": "%" + filter.CustomerEmail + "%"})
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		query = query.Where(squirrel.Or{
			squirrel.ILike{"b.booking_number": like},
			squirrel.ILike{"b.customer_fullname": like},
			squirrel.ILike{"b.customer_email": like},
		})
	}

	orderDir := "DESC"
	if strings.EqualFold(filter.SortOrder, "ASC") {
		orderDir = "ASC"
	}
	query = query.OrderBy("b.created_at " + orderDir)

	// Pagination
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		b, err := scanBooking(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) ListDaily(ctx context.Context, date time.Time, productID string) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.booking_date": date}).
		Where(squirrel.NotEq{"b.status": []string{string(StatusCancelled), string(StatusNoShow), string(StatusDeleted)}}).
		OrderBy("b.booking_time ASC NULLS LAST", "b.time_slot ASC")
	if productID != "" {
		query = query.Where(squirrel.Eq{"b.product_id": productID})
	}
	return r.collect(ctx, query)
}

func (r *pgxRepository) ListPendingUntil(ctx context.Context, date time.Time, limit int) ([]*Booking, error) {
	query := selectBookings().
		Where(squirrel.Eq{"b.status": StatusPending}).
		Where(squirrel.LtOrEq{"b.booking_date": date}).
		OrderBy("b.booking_date ASC", "b.time_slot ASC").
		Limit(uint64(limit))
	return r.collect(ctx, query)
}

func (r *pgxRepository) collect(ctx context.Context, query squirrel.SelectBuilder) ([]*Booking, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build bookings query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *pgxRepository) Stats(ctx context.Context) (*Stats, error) {
	const query = `
		SELECT status, count(*)
		FROM public.bookings
		WHERE status <> 'deleted'
		GROUP BY status
	`
	rows, err := db.Conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("booking stats failed: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan booking stats failed: %w", err)
		}
		stats.Add(status, n)
	}
	return &stats, rows.Err()
}

// Add folds n bookings of status into the totals.
func (s *Stats) Add(status Status, n int) {
	s.Total += n
	switch status {
	case StatusPending:
		s.Pending += n
	case StatusConfirmed:
		s.Confirmed += n
	case StatusCompleted:
		s.Completed += n
	case StatusCancelled:
		s.Cancelled += n
	case StatusNoShow:
		s.NoShow += n
	}
}

func occupancyScope(q squirrel.SelectBuilder, productID string) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"status": []string{string(StatusPending), string(StatusConfirmed)}})
	if productID != "" {
		return q.Where(squirrel.Eq{"product_id": productID, "booking_type": TypeStandard})
	}
	return q.Where(squirrel.Eq{"booking_type": TypeTimeSlotOnly})
}

func (r *pgxRepository) CountActive(ctx context.Context, productID string, date time.Time, slot string, excludeID string) (int, error) {
	q := occupancyScope(psql.Select("count(*)").From("public.bookings"), productID).
		Where(squirrel.Eq{"booking_date": date, "time_slot": slot})
	if excludeID != "" {
		q = q.Where(squirrel.NotEq{"id": excludeID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count active query failed: %w", err)
	}

	var n int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) OccupiedSlots(ctx context.Context, productID string, date time.Time) (map[string]int, error) {
	q := occupancyScope(psql.Select("time_slot", "count(*)").From("public.bookings"), productID).
		Where(squirrel.Eq{"booking_date": date}).
		GroupBy("time_slot")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build occupied slots query failed: %w", err)
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("occupied slots failed: %w", err)
	}
	defer rows.Close()

	occupied := make(map[string]int)
	for rows.Next() {
		var slot string
		var n int
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, fmt.Errorf("scan occupied slot failed: %w", err)
		}
		occupied[slot] = n
	}
	return occupied, rows.Err()
}

func (r *pgxRepository) LockSlot(ctx context.Context, key string) error {
	if _, ok := db.TxFrom(ctx); !ok {
		return fmt.Errorf("lock slot %q: no transaction in context", key)
	}
	if _, err := db.Conn(ctx, r.pool).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return fmt.Errorf("lock slot failed: %w", err)
	}
	return nil
}

// NextSequence bumps the per-day counter row. The row lock is held until the
// surrounding transaction ends, so concurrent creators on one day queue here.
func (r *pgxRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	const query = `
		INSERT INTO public.booking_counters (day, last_seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_seq = public.booking_counters.last_seq + 1
		RETURNING last_seq
	`
	var seq int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, query, day).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next booking sequence failed: %w", err)
	}
	return seq, nil
}
