package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubTx satisfies pgx.Tx for context plumbing tests only.
type stubTx struct {
	pgx.Tx
}

func TestConnPrefersContextTransaction(t *testing.T) {
	tx := &stubTx{}
	ctx := WithTx(context.Background(), tx)

	got, ok := TxFrom(ctx)
	require.True(t, ok)
	assert.Same(t, tx, got)
	assert.Same(t, tx, Conn(ctx, nil))

	_, ok = TxFrom(context.Background())
	assert.False(t, ok)
}

func TestInTxJoinsOuterTransaction(t *testing.T) {
	ctx := WithTx(context.Background(), &stubTx{})
	tr := &pgxTransactor{}

	called := false
	err := tr.InTx(ctx, func(inner context.Context) error {
		called = true
		_, ok := TxFrom(inner)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestIsUniqueViolation(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "bookings_booking_number_key",
	})

	assert.True(t, IsUniqueViolation(err, ""))
	assert.True(t, IsUniqueViolation(err, "bookings_booking_number_key"))
	assert.False(t, IsUniqueViolation(err, "bookings_active_slot_idx"))
	assert.False(t, IsUniqueViolation(errors.New("plain"), ""))
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.True(t, IsUnavailable(&pgconn.PgError{Code: pgerrcode.QueryCanceled}))
	assert.False(t, IsUnavailable(&pgconn.PgError{Code: pgerrcode.UniqueViolation}))
	assert.False(t, IsUnavailable(pgx.ErrNoRows))
	assert.False(t, IsUnavailable(nil))
}

func TestSchemaDeclaresGuards(t *testing.T) {
	s := Schema()
	for _, fragment := range []string{
		"bookings_booking_number_key",
		"bookings_active_slot_idx",
		"public.booking_counters",
		"public.payment_events",
		"CHECK (stock_quantity >= 0)",
	} {
		assert.Contains(t, s, fragment)
	}
}
