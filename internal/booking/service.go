package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/customer"
	"github.com/nekogravitycat/rental-booking-backend/internal/db"
	"github.com/nekogravitycat/rental-booking-backend/internal/metrics"
	"github.com/nekogravitycat/rental-booking-backend/internal/pkg/apperror"
	"github.com/nekogravitycat/rental-booking-backend/internal/tracing"
)

const (
	createAttempts    = 3
	readBackoff       = 50 * time.Millisecond
	noShowSweepBatch  = 100
	defaultNotifyWait = 5 * time.Second
)

var ErrQueryRequired = apperror.Validation("search query is required")

type CreateRequest struct {
	UserID           string // authenticated caller, empty for guests
	Type             Type
	ProductID        string
	Date             string
	Time             string
	TimeSlot         string
	CustomerName     string
	CustomerEmail    string
	CustomerPhone    *string
	Participants     int
	EmergencyContact *string
	Notes            *string
	TotalAmountCents int64
}

type CreateResult struct {
	Booking *Booking
	Payment *PaymentIntent
}

// UpdateRequest carries optional field changes. Status and product are not
// editable here; status moves only through the lifecycle operations.
type UpdateRequest struct {
	Date             *string
	Time             *string
	TimeSlot         *string
	CustomerName     *string
	CustomerEmail    *string
	CustomerPhone    *string
	Participants     *int
	EmergencyContact *string
	Notes            *string
	TotalAmountCents *int64
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*CreateResult, error)
	GetByNumber(ctx context.Context, number string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Search(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, number string, req UpdateRequest) (*Booking, error)

	Cancel(ctx context.Context, number string) (*Booking, error)
	Remove(ctx context.Context, number string) error
	Confirm(ctx context.Context, number string) (*Booking, error)
	Complete(ctx context.Context, number string) (*Booking, error)
	MarkNoShow(ctx context.Context, number string) (*Booking, error)

	// ConfirmPayment confirms a pending booking once its payment succeeded.
	// An already confirmed booking is returned unchanged.
	ConfirmPayment(ctx context.Context, number string) (*Booking, error)
	// CancelUnpaid cancels a pending booking whose payment will never arrive.
	// An already cancelled booking is returned unchanged.
	CancelUnpaid(ctx context.Context, number string) (*Booking, error)

	AvailableSlots(ctx context.Context, productID string, date string) ([]TimeSlot, error)
	DailyBookings(ctx context.Context, date string, productID string) ([]*Booking, error)
	Stats(ctx context.Context) (*Stats, error)

	// SweepNoShows marks pending bookings that started at or before cutoff as no_show.
	SweepNoShows(ctx context.Context, cutoff time.Time) (int, error)
}

type Config struct {
	Location      *time.Location
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	ReadAttempts  int
}

type Deps struct {
	Repo      Repository
	Tx        db.Transactor
	Inventory Inventory
	Checker   *Checker
	Numbers   *NumberGenerator
	Catalog   *SlotCatalog
	Customers customer.Directory
	Payments  PaymentInitiator
	Notifier  Notifier
	Events    EventPublisher
	Cache     AvailabilityCache
	Logger    *zap.Logger
	Clock     func() time.Time
}

type service struct {
	cfg Config
	Deps
}

func NewService(cfg Config, deps Deps) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyWait
	}
	if cfg.ReadAttempts <= 0 {
		cfg.ReadAttempts = 3
	}
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Events == nil {
		deps.Events = nopPublisher{}
	}
	if deps.Cache == nil {
		deps.Cache = nopCache{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	return &service{cfg: cfg, Deps: deps}
}

func (s *service) today() time.Time {
	now := s.Clock().In(s.cfg.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.StoreTimeout)
}

// storeErr turns infrastructure failures into dependency errors. Domain
// errors pass through untouched.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if db.IsUnavailable(err) {
		return apperror.Dependency(err, "booking store unavailable")
	}
	return err
}

// read runs an idempotent query, retrying while the store is unavailable.
func (s *service) read(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt < s.cfg.ReadAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return storeErr(ctx.Err())
			case <-time.After(readBackoff * time.Duration(attempt)):
			}
		}

		sctx, cancel := s.storeCtx(ctx)
		err = fn(sctx)
		cancel()
		if err == nil || !db.IsUnavailable(err) {
			break
		}
		s.Logger.Warn("booking store read failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return storeErr(err)
}

func (s *service) write(ctx context.Context, fn func(ctx context.Context) error) error {
	sctx, cancel := s.storeCtx(ctx)
	defer cancel()
	return storeErr(s.Tx.InTx(sctx, fn))
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Create")
	defer span.End()
	start := time.Now()

	b, slot, err := s.newBooking(ctx, req)
	if err != nil {
		metrics.BookingsFailedTotal.WithLabelValues("validation").Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String("booking.type", string(b.Type)),
		attribute.String("booking.slot", b.TimeSlot),
	)

	for attempt := 1; ; attempt++ {
		err = s.write(ctx, func(ctx context.Context) error {
			return s.insert(ctx, b, slot)
		})
		if !errors.Is(err, ErrNumberTaken) {
			break
		}
		if attempt == createAttempts {
			err = ErrNumberExhausted
			break
		}
		s.Logger.Warn("booking number collision, retrying", zap.String("number", b.BookingNumber))
	}
	metrics.ObserveSince(metrics.BookingCreateLatency, start)
	if err != nil {
		metrics.BookingsFailedTotal.WithLabelValues(failureReason(err)).Inc()
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.BookingsCreatedTotal.WithLabelValues(string(b.Type)).Inc()
	span.SetAttributes(attribute.String("booking.number", b.BookingNumber))
	s.Cache.Invalidate(ctx, b.ProductID, b.Date)
	s.publish(ctx, EventCreated, b, "")

	result := &CreateResult{Booking: b}
	if s.Payments == nil {
		return result, nil
	}

	intent, err := s.Payments.CreateIntent(ctx, b)
	if err != nil {
		s.Logger.Error("payment intent failed, cancelling booking",
			zap.String("number", b.BookingNumber), zap.Error(err))
		metrics.BookingsFailedTotal.WithLabelValues("payment").Inc()
		span.SetStatus(codes.Error, err.Error())
		if _, cerr := s.CancelUnpaid(context.WithoutCancel(ctx), b.BookingNumber); cerr != nil {
			s.Logger.Error("cancel unpaid booking failed",
				zap.String("number", b.BookingNumber), zap.Error(cerr))
		}
		return nil, apperror.Dependency(err, "payment provider unavailable, booking was not kept")
	}
	result.Payment = intent
	return result, nil
}

// insert claims the slot and one unit of stock, then stores the booking. It
// runs inside the create transaction, so any failure undoes all of it.
func (s *service) insert(ctx context.Context, b *Booking, slot TimeSlot) error {
	b.InventoryHeld = false

	if err := s.Repo.LockSlot(ctx, slotLockKey(b.ProductID, b.Date, slot)); err != nil {
		return err
	}
	conflict, err := s.Checker.HasConflict(ctx, b.ProductID, b.Date, slot, "")
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotConflict
	}

	if b.Type == TypeStandard {
		if err := s.Inventory.Reserve(ctx, b.ProductID); err != nil {
			return err
		}
		b.InventoryHeld = true
	}

	// A rollback also rewinds the day counter, so numbers already taken by
	// rows written outside the counter are skipped here rather than retried.
	for attempt := 1; ; attempt++ {
		number, err := s.Numbers.Generate(ctx, s.Clock())
		if err != nil {
			return err
		}
		_, err = s.Repo.GetByNumber(ctx, number)
		if errors.Is(err, ErrNotFound) {
			b.BookingNumber = number
			break
		}
		if err != nil {
			return err
		}
		if attempt == createAttempts {
			return ErrNumberExhausted
		}
	}
	return s.Repo.Create(ctx, b)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, ErrNumberExhausted):
		return "number_exhausted"
	}
	return string(apperror.KindOf(err))
}

func (s *service) newBooking(ctx context.Context, req CreateRequest) (*Booking, TimeSlot, error) {
	typ := req.Type
	if typ == "" {
		typ = TypeStandard
	}
	if !typ.Valid() {
		return nil, TimeSlot{}, ErrInvalidType
	}

	productID := strings.TrimSpace(req.ProductID)
	switch typ {
	case TypeStandard:
		if productID == "" {
			return nil, TimeSlot{}, ErrProductRequired
		}
	case TypeTimeSlotOnly:
		productID = ""
	}

	date, err := ParseDate(req.Date)
	if err != nil {
		return nil, TimeSlot{}, err
	}
	if date.Before(s.today()) {
		return nil, TimeSlot{}, ErrDateInPast
	}

	slot, err := s.Catalog.Normalize(req.TimeSlot)
	if err != nil {
		return nil, TimeSlot{}, err
	}

	var clock string
	if req.Time != "" {
		if clock, err = parseClock(req.Time); err != nil {
			return nil, TimeSlot{}, err
		}
	}

	b := &Booking{
		Type:             typ,
		ProductID:        productID,
		Date:             date,
		Time:             clock,
		TimeSlot:         slot.Label(),
		CustomerName:     strings.TrimSpace(req.CustomerName),
		CustomerEmail:    strings.TrimSpace(req.CustomerEmail),
		CustomerPhone:    req.CustomerPhone,
		Participants:     req.Participants,
		EmergencyContact: req.EmergencyContact,
		Notes:            req.Notes,
		TotalAmountCents: req.TotalAmountCents,
		Status:           StatusPending,
	}

	switch {
	case req.UserID == "":
	case s.Customers == nil:
		b.UserID = req.UserID
	default:
		if err := s.linkCustomer(ctx, b, req.UserID); err != nil {
			return nil, TimeSlot{}, err
		}
	}

	if b.CustomerName == "" || b.CustomerEmail == "" {
		return nil, TimeSlot{}, ErrCustomerRequired
	}
	if b.Participants < 1 {
		return nil, TimeSlot{}, ErrInvalidParticipants
	}
	if b.TotalAmountCents < 0 {
		return nil, TimeSlot{}, ErrInvalidAmount
	}
	return b, slot, nil
}

// linkCustomer attaches the caller's account and fills contact fields the
// request left blank. Unknown accounts book as guests.
func (s *service) linkCustomer(ctx context.Context, b *Booking, userID string) error {
	var ref *customer.Ref
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		ref, err = s.Customers.Lookup(ctx, userID)
		return err
	})
	if errors.Is(err, customer.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	b.UserID = ref.ID
	if b.CustomerName == "" {
		b.CustomerName = ref.DisplayName
	}
	if b.CustomerEmail == "" {
		b.CustomerEmail = ref.Email
	}
	return nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*Booking, error) {
	if !ValidNumber(number) {
		return nil, ErrNotFound
	}

	var b *Booking
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Repo.GetByNumber(ctx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	if b.Status == StatusDeleted {
		return nil, ErrNotFound
	}
	return b, nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, apperror.Validation("invalid booking status")
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, 0, ErrInvalidType
	}

	var (
		bookings []*Booking
		total    int
	)
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		bookings, total, err = s.Repo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (s *service) Search(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	filter.Query = strings.TrimSpace(filter.Query)
	if filter.Query == "" {
		return nil, 0, ErrQueryRequired
	}
	return s.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, number string, req UpdateRequest) (*Booking, error) {
	if !ValidNumber(number) {
		return nil, ErrNotFound
	}

	var (
		updated *Booking
		oldDate time.Time
	)
	err := s.write(ctx, func(ctx context.Context) error {
		b, err := s.Repo.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}
		if b.Status == StatusDeleted {
			return ErrNotFound
		}
		if b.Status.IsTerminal() {
			return ErrTerminal
		}
		oldDate = b.Date

		reschedule, slot, err := s.applyUpdate(b, req)
		if err != nil {
			return err
		}
		if reschedule {
			if err := s.Repo.LockSlot(ctx, slotLockKey(b.ProductID, b.Date, slot)); err != nil {
				return err
			}
			conflict, err := s.Checker.HasConflict(ctx, b.ProductID, b.Date, slot, b.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrSlotConflict
			}
		}

		b.UpdatedAt = s.Clock()
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Cache.Invalidate(ctx, updated.ProductID, oldDate)
	if !oldDate.Equal(updated.Date) {
		s.Cache.Invalidate(ctx, updated.ProductID, updated.Date)
	}
	s.publish(ctx, EventUpdated, updated, "")
	return updated, nil
}

// applyUpdate merges req into b and reports whether the booking moved to a
// different date or slot.
func (s *service) applyUpdate(b *Booking, req UpdateRequest) (bool, TimeSlot, error) {
	reschedule := false

	if req.Date != nil {
		date, err := ParseDate(*req.Date)
		if err != nil {
			return false, TimeSlot{}, err
		}
		if !date.Equal(b.Date) {
			if date.Before(s.today()) {
				return false, TimeSlot{}, ErrDateInPast
			}
			b.Date = date
			reschedule = true
		}
	}

	slot, err := s.Catalog.Normalize(b.TimeSlot)
	if req.TimeSlot != nil {
		slot, err = s.Catalog.Normalize(*req.TimeSlot)
		if err != nil {
			return false, TimeSlot{}, err
		}
		if slot.Label() != b.TimeSlot {
			b.TimeSlot = slot.Label()
			reschedule = true
		}
	} else if reschedule && err != nil {
		return false, TimeSlot{}, err
	}

	if req.Time != nil {
		b.Time = ""
		if *req.Time != "" {
			clock, err := parseClock(*req.Time)
			if err != nil {
				return false, TimeSlot{}, err
			}
			b.Time = clock
		}
	}

	if req.CustomerName != nil {
		b.CustomerName = strings.TrimSpace(*req.CustomerName)
	}
	if req.CustomerEmail != nil {
		b.CustomerEmail = strings.TrimSpace(*req.CustomerEmail)
	}
	if b.CustomerName == "" || b.CustomerEmail == "" {
		return false, TimeSlot{}, ErrCustomerRequired
	}
	if req.CustomerPhone != nil {
		b.CustomerPhone = req.CustomerPhone
	}
	if req.Participants != nil {
		if *req.Participants < 1 {
			return false, TimeSlot{}, ErrInvalidParticipants
		}
		b.Participants = *req.Participants
	}
	if req.EmergencyContact != nil {
		b.EmergencyContact = req.EmergencyContact
	}
	if req.Notes != nil {
		b.Notes = req.Notes
	}
	if req.TotalAmountCents != nil {
		if *req.TotalAmountCents < 0 {
			return false, TimeSlot{}, ErrInvalidAmount
		}
		b.TotalAmountCents = *req.TotalAmountCents
	}
	return reschedule, slot, nil
}

type transitionOpts struct {
	// from restricts the transition to bookings currently in this status.
	from Status
	// allowSame makes a booking already in the target status a no-op.
	allowSame bool
}

// transition locks the booking, applies the state machine and releases
// inventory in one transaction. Notifications and events follow the commit.
func (s *service) transition(ctx context.Context, number string, to Status, opts transitionOpts) (*Booking, error) {
	if !ValidNumber(number) {
		return nil, ErrNotFound
	}

	var (
		b   *Booking
		eff Effects
	)
	changed := false
	err := s.write(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Repo.GetByNumberForUpdate(ctx, number)
		if err != nil {
			return err
		}

		switch {
		case b.Status == to && (opts.allowSame || to == StatusDeleted):
			return nil
		case b.Status == StatusDeleted:
			return ErrNotFound
		case opts.from != "" && b.Status != opts.from:
			return ErrInvalidTransition
		}

		eff, err = Transition(b, to, s.Clock(), s.cfg.Location)
		if err != nil {
			return err
		}
		if eff.ReleaseInventory && b.ProductID != "" {
			if err := s.Inventory.Release(ctx, b.ProductID); err != nil {
				return err
			}
		}
		if err := s.Repo.Update(ctx, b); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !changed {
		return b, nil
	}

	metrics.BookingTransitionsTotal.WithLabelValues(string(eff.From), string(eff.To)).Inc()
	s.Logger.Info("booking status changed",
		zap.String("number", b.BookingNumber),
		zap.String("from", string(eff.From)),
		zap.String("to", string(eff.To)),
	)
	if !to.IsActive() {
		s.Cache.Invalidate(ctx, b.ProductID, b.Date)
	}
	s.publish(ctx, EventTransitions, b, eff.From)
	switch {
	case eff.NotifyConfirmation:
		s.notify(ctx, b, s.Notifier.SendBookingConfirmation)
	case eff.NotifyCancellation:
		s.notify(ctx, b, s.Notifier.SendBookingCancellation)
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, number string) (*Booking, error) {
	b, err := s.transition(ctx, number, StatusCancelled, transitionOpts{})
	if errors.Is(err, ErrInvalidTransition) {
		return nil, ErrNotCancellable
	}
	return b, err
}

func (s *service) Remove(ctx context.Context, number string) error {
	_, err := s.transition(ctx, number, StatusDeleted, transitionOpts{})
	return err
}

func (s *service) Confirm(ctx context.Context, number string) (*Booking, error) {
	return s.transition(ctx, number, StatusConfirmed, transitionOpts{})
}

func (s *service) Complete(ctx context.Context, number string) (*Booking, error) {
	return s.transition(ctx, number, StatusCompleted, transitionOpts{})
}

func (s *service) MarkNoShow(ctx context.Context, number string) (*Booking, error) {
	return s.transition(ctx, number, StatusNoShow, transitionOpts{})
}

func (s *service) ConfirmPayment(ctx context.Context, number string) (*Booking, error) {
	return s.transition(ctx, number, StatusConfirmed, transitionOpts{from: StatusPending, allowSame: true})
}

func (s *service) CancelUnpaid(ctx context.Context, number string) (*Booking, error) {
	return s.transition(ctx, number, StatusCancelled, transitionOpts{from: StatusPending, allowSame: true})
}

func (s *service) AvailableSlots(ctx context.Context, productID string, date string) ([]TimeSlot, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	if day.Before(s.today()) {
		return []TimeSlot{}, nil
	}

	cached, gen, ok := s.Cache.GetSlots(ctx, productID, day)
	if ok {
		return cached, nil
	}

	var slots []TimeSlot
	err = s.read(ctx, func(ctx context.Context) error {
		if productID != "" {
			if _, err := s.Inventory.Stock(ctx, productID); err != nil {
				return err
			}
		}
		var err error
		slots, err = s.Checker.ListAvailableSlots(ctx, productID, day)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Cache.SetSlots(ctx, productID, day, gen, slots)
	return slots, nil
}

func (s *service) DailyBookings(ctx context.Context, date string, productID string) ([]*Booking, error) {
	day, err := ParseDate(date)
	if err != nil {
		return nil, err
	}

	var bookings []*Booking
	err = s.read(ctx, func(ctx context.Context) error {
		var err error
		bookings, err = s.Repo.ListDaily(ctx, day, productID)
		return err
	})
	return bookings, err
}

func (s *service) Stats(ctx context.Context) (*Stats, error) {
	var stats *Stats
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		stats, err = s.Repo.Stats(ctx)
		return err
	})
	return stats, err
}

func (s *service) SweepNoShows(ctx context.Context, cutoff time.Time) (int, error) {
	local := cutoff.In(s.cfg.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	var due []*Booking
	err := s.read(ctx, func(ctx context.Context) error {
		var err error
		due, err = s.Repo.ListPendingUntil(ctx, day, noShowSweepBatch)
		return err
	})
	if err != nil {
		return 0, err
	}

	marked := 0
	for _, b := range due {
		start, err := b.StartsAt(s.cfg.Location)
		if err != nil || start.After(cutoff) {
			continue
		}
		if _, err := s.MarkNoShow(ctx, b.BookingNumber); err != nil {
			s.Logger.Warn("mark no-show failed", zap.String("number", b.BookingNumber), zap.Error(err))
			continue
		}
		marked++
	}
	return marked, nil
}

func (s *service) publish(ctx context.Context, typ string, b *Booking, prev Status) {
	e := LifecycleEvent{
		Type:          typ,
		BookingID:     b.ID,
		BookingNumber: b.BookingNumber,
		BookingType:   b.Type,
		ProductID:     b.ProductID,
		BookingDate:   FormatDate(b.Date),
		TimeSlot:      b.TimeSlot,
		Status:        b.Status,
		PreviousState: prev,
		OccurredAt:    s.Clock(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()
		if err := s.Events.Publish(ctx, e); err != nil {
			s.Logger.Warn("publish booking event failed",
				zap.String("type", typ), zap.String("number", e.BookingNumber), zap.Error(err))
		}
	}()
}

func (s *service) notify(ctx context.Context, b *Booking, send func(context.Context, *Booking) error) {
	snapshot := *b
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.NotifyTimeout)
		defer cancel()
		if err := send(ctx, &snapshot); err != nil {
			metrics.NotificationsFailedTotal.Inc()
			s.Logger.Error("booking notification failed",
				zap.String("number", snapshot.BookingNumber), zap.Error(err))
		}
	}()
}

type nopNotifier struct{}

func (nopNotifier) SendBookingConfirmation(context.Context, *Booking) error { return nil }
func (nopNotifier) SendBookingCancellation(context.Context, *Booking) error { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, LifecycleEvent) error { return nil }

type nopCache struct{}

func (nopCache) GetSlots(context.Context, string, time.Time) ([]TimeSlot, int64, bool) {
	return nil, 0, false
}
func (nopCache) SetSlots(context.Context, string, time.Time, int64, []TimeSlot) {}
func (nopCache) Invalidate(context.Context, string, time.Time)                  {}
