package booking

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

// Sequencer hands out per-day sequence numbers starting at 1. It must run on
// the transaction that inserts the booking so a rollback returns the number.
type Sequencer interface {
	NextSequence(ctx context.Context, day time.Time) (int, error)
}

// NumberGenerator mints booking numbers of the form PREFIX-YYYYMMDD-NNN.
// The sequence is zero padded to three digits and widens past 999.
type NumberGenerator struct {
	prefix string
	loc    *time.Location
	seq    Sequencer
}

func NewNumberGenerator(prefix string, loc *time.Location, seq Sequencer) *NumberGenerator {
	if loc == nil {
		loc = time.UTC
	}
	return &NumberGenerator{prefix: prefix, loc: loc, seq: seq}
}

// Generate returns the next number for the business day containing now.
func (g *NumberGenerator) Generate(ctx context.Context, now time.Time) (string, error) {
	local := now.In(g.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	n, err := g.seq.NextSequence(ctx, day)
	if err != nil {
		return "", fmt.Errorf("next booking sequence: %w", err)
	}
	return FormatNumber(g.prefix, day, n), nil
}

func FormatNumber(prefix string, day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%03d", prefix, day.Format("20060102"), seq)
}

var numberPattern = regexp.MustCompile(`^[A-Z0-9]+-\d{8}-\d{3,}$`)

// ValidNumber reports whether s is shaped like a booking number.
func ValidNumber(s string) bool {
	return numberPattern.MatchString(s)
}
