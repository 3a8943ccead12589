package booking

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TimeSlot is a half-open [Start, End) interval label from the slot catalog.
type TimeSlot struct {
	Start string // HH:MM
	End   string // HH:MM
}

// Label is the canonical storage form, e.g. "10:00 - 11:30".
func (s TimeSlot) Label() string {
	return s.Start + " - " + s.End
}

func (s TimeSlot) String() string {
	return s.Label()
}

var dashReplacer = strings.NewReplacer("–", "-", "—", "-")

// ParseTimeSlot accepts "10:00 - 11:30", "10:00-11:30" and en/em dash variants.
func ParseTimeSlot(label string) (TimeSlot, error) {
	parts := strings.Split(dashReplacer.Replace(label), "-")
	if len(parts) != 2 {
		return TimeSlot{}, ErrInvalidSlot
	}

	start, err := parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeSlot{}, ErrInvalidSlot
	}
	end, err := parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeSlot{}, ErrInvalidSlot
	}
	// Zero-padded HH:MM compares correctly as a string.
	if start >= end {
		return TimeSlot{}, ErrInvalidSlot
	}
	return TimeSlot{Start: start, End: end}, nil
}

// SlotCatalog is the fixed daily set of bookable slots.
type SlotCatalog struct {
	slots []TimeSlot
	index map[string]TimeSlot
}

// NewSlotCatalog builds a catalog from slot labels. Slots must not overlap.
func NewSlotCatalog(labels []string) (*SlotCatalog, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("slot catalog is empty")
	}

	c := &SlotCatalog{index: make(map[string]TimeSlot, len(labels))}
	for _, l := range labels {
		slot, err := ParseTimeSlot(l)
		if err != nil {
			return nil, fmt.Errorf("invalid catalog slot %q: %w", l, err)
		}
		for _, existing := range c.slots {
			if slot.Start < existing.End && existing.Start < slot.End {
				return nil, fmt.Errorf("catalog slot %q overlaps %q", slot.Label(), existing.Label())
			}
		}
		c.slots = append(c.slots, slot)
		c.index[slot.Label()] = slot
	}
	return c, nil
}

// Normalize maps any accepted spelling of a slot to its catalog entry.
func (c *SlotCatalog) Normalize(label string) (TimeSlot, error) {
	slot, err := ParseTimeSlot(label)
	if err != nil {
		return TimeSlot{}, err
	}
	if _, ok := c.index[slot.Label()]; !ok {
		return TimeSlot{}, ErrInvalidSlot
	}
	return slot, nil
}

// Slots returns the catalog in declaration order.
func (c *SlotCatalog) Slots() []TimeSlot {
	out := make([]TimeSlot, len(c.slots))
	copy(out, c.slots)
	return out
}

// OccupancyReader counts active bookings per slot. An empty productID
// addresses the shared pool used by time_slot_only bookings.
type OccupancyReader interface {
	CountActive(ctx context.Context, productID string, date time.Time, slot string, excludeID string) (int, error)
	OccupiedSlots(ctx context.Context, productID string, date time.Time) (map[string]int, error)
}

// Checker decides slot availability against active bookings.
type Checker struct {
	catalog       *SlotCatalog
	store         OccupancyReader
	venueCapacity int
}

// NewChecker creates a Checker. venueCapacity bounds concurrent
// time_slot_only bookings per slot; 0 means unlimited.
func NewChecker(catalog *SlotCatalog, store OccupancyReader, venueCapacity int) *Checker {
	return &Checker{catalog: catalog, store: store, venueCapacity: venueCapacity}
}

func (c *Checker) capacity(productID string) int {
	if productID != "" {
		return 1
	}
	return c.venueCapacity
}

// HasConflict reports whether slot is already full for the resource on date.
// excludeID skips one booking, used when rescheduling it.
func (c *Checker) HasConflict(ctx context.Context, productID string, date time.Time, slot TimeSlot, excludeID string) (bool, error) {
	capacity := c.capacity(productID)
	if capacity <= 0 {
		return false, nil
	}

	n, err := c.store.CountActive(ctx, productID, date, slot.Label(), excludeID)
	if err != nil {
		return false, err
	}
	return n >= capacity, nil
}

// ListAvailableSlots returns the catalog minus full slots, in catalog order.
func (c *Checker) ListAvailableSlots(ctx context.Context, productID string, date time.Time) ([]TimeSlot, error) {
	capacity := c.capacity(productID)
	if capacity <= 0 {
		return c.catalog.Slots(), nil
	}

	occupied, err := c.store.OccupiedSlots(ctx, productID, date)
	if err != nil {
		return nil, err
	}

	available := make([]TimeSlot, 0, len(c.catalog.slots))
	for _, slot := range c.catalog.slots {
		if occupied[slot.Label()] < capacity {
			available = append(available, slot)
		}
	}
	return available, nil
}

// slotLockKey identifies the advisory lock serializing writers of one slot.
func slotLockKey(productID string, date time.Time, slot TimeSlot) string {
	resource := productID
	if resource == "" {
		resource = "venue"
	}
	return "slot:" + resource + ":" + FormatDate(date) + ":" + slot.Label()
}
