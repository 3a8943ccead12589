package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:   {StatusConfirmed, StatusCancelled, StatusNoShow, StatusDeleted},
		StatusConfirmed: {StatusCompleted, StatusCancelled, StatusNoShow, StatusDeleted},
	}

	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatesAreClosed(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	for _, from := range AllStatuses {
		if !from.IsTerminal() {
			continue
		}
		for _, to := range AllStatuses {
			b := &Booking{Status: from, Date: now, TimeSlot: "10:00 - 11:30"}
			_, err := Transition(b, to, now, time.UTC)
			assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			assert.Equal(t, from, b.Status)
		}
	}
}

func TestTransitionEffects(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	after := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		from        Status
		to          Status
		held        bool
		wantRelease bool
		wantConfirm bool
		wantCancel  bool
		wantHeld    bool
	}{
		{"confirm pending", StatusPending, StatusConfirmed, true, false, true, false, true},
		{"complete confirmed", StatusConfirmed, StatusCompleted, true, false, false, false, true},
		{"cancel pending", StatusPending, StatusCancelled, true, true, false, true, false},
		{"cancel confirmed", StatusConfirmed, StatusCancelled, true, true, false, true, false},
		{"no show", StatusConfirmed, StatusNoShow, true, true, false, false, false},
		{"delete pending", StatusPending, StatusDeleted, true, true, false, false, false},
		{"delete confirmed", StatusConfirmed, StatusDeleted, true, true, false, false, false},
		{"cancel slot only", StatusPending, StatusCancelled, false, false, false, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Booking{Status: tt.from, InventoryHeld: tt.held, Date: day, TimeSlot: "10:00 - 11:30"}
			eff, err := Transition(b, tt.to, after, time.UTC)
			require.NoError(t, err)

			assert.Equal(t, tt.wantRelease, eff.ReleaseInventory)
			assert.Equal(t, tt.wantConfirm, eff.NotifyConfirmation)
			assert.Equal(t, tt.wantCancel, eff.NotifyCancellation)
			assert.Equal(t, tt.to, b.Status)
			assert.Equal(t, tt.wantHeld, b.InventoryHeld)
			assert.Equal(t, after, b.UpdatedAt)
		})
	}
}

func TestTransitionStampsOnce(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	first := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	b := &Booking{Status: StatusPending, Date: day, TimeSlot: "10:00 - 11:30"}
	_, err := Transition(b, StatusCancelled, first, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, b.CancelledAt)
	assert.Equal(t, first, *b.CancelledAt)
	assert.Nil(t, b.DeletedAt)

	d := &Booking{Status: StatusConfirmed, Date: day, TimeSlot: "10:00 - 11:30"}
	_, err = Transition(d, StatusDeleted, first, time.UTC)
	require.NoError(t, err)
	require.NotNil(t, d.DeletedAt)
	assert.Nil(t, d.CancelledAt)
}

func TestNoShowRequiresStart(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Taipei")
	require.NoError(t, err)
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	// Slot starts 10:00 Taipei = 02:00 UTC.
	before := time.Date(2024, 3, 15, 1, 59, 0, 0, time.UTC)
	b := &Booking{Status: StatusPending, Date: day, TimeSlot: "10:00 - 11:30", InventoryHeld: true}
	_, err = Transition(b, StatusNoShow, before, loc)
	assert.ErrorIs(t, err, ErrNoShowTooEarly)
	assert.Equal(t, StatusPending, b.Status)
	assert.True(t, b.InventoryHeld)

	atStart := time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC)
	eff, err := Transition(b, StatusNoShow, atStart, loc)
	require.NoError(t, err)
	assert.True(t, eff.ReleaseInventory)

	// An explicit booking time wins over the slot start.
	c := &Booking{Status: StatusPending, Date: day, Time: "11:00", TimeSlot: "10:00 - 11:30"}
	_, err = Transition(c, StatusNoShow, atStart, loc)
	assert.ErrorIs(t, err, ErrNoShowTooEarly)
}
