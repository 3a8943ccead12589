package booking

import "time"

// transitions lists, per status, the statuses it may move to.
// Terminal statuses have no entry.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow, StatusDeleted},
	StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow, StatusDeleted},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to Status) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// releasesInventory reports whether entering to returns a held unit to stock.
// A completed rental keeps its unit.
func releasesInventory(to Status) bool {
	return to == StatusCancelled || to == StatusNoShow || to == StatusDeleted
}

// Effects are the side effects a caller must carry out after a transition.
type Effects struct {
	From               Status
	To                 Status
	ReleaseInventory   bool
	NotifyConfirmation bool
	NotifyCancellation bool
}

// Transition moves b to status to at time now, stamping lifecycle fields.
// no_show is only accepted once the booking has started in loc.
// InventoryHeld is cleared when the returned effects ask for a release, so a
// booking can never release its unit twice.
func Transition(b *Booking, to Status, now time.Time, loc *time.Location) (Effects, error) {
	from := b.Status
	if !CanTransition(from, to) {
		return Effects{}, ErrInvalidTransition
	}

	if to == StatusNoShow {
		start, err := b.StartsAt(loc)
		if err != nil {
			return Effects{}, err
		}
		if now.Before(start) {
			return Effects{}, ErrNoShowTooEarly
		}
	}

	eff := Effects{From: from, To: to}
	if releasesInventory(to) && b.InventoryHeld {
		eff.ReleaseInventory = true
		b.InventoryHeld = false
	}

	switch to {
	case StatusConfirmed:
		eff.NotifyConfirmation = from == StatusPending
	case StatusCancelled:
		eff.NotifyCancellation = true
		if b.CancelledAt == nil {
			b.CancelledAt = &now
		}
	case StatusDeleted:
		if b.DeletedAt == nil {
			b.DeletedAt = &now
		}
	}

	b.Status = to
	b.UpdatedAt = now
	return eff, nil
}
