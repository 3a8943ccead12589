package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/rental-booking-backend/internal/booking"
)

const (
	venueKey   = "venue"
	defaultTTL = 30 * time.Second
	// genTTL outlives every listing entry.
	genTTL = 24 * time.Hour
)

// setIfGen stores a listing only while the generation still matches.
var setIfGen = redis.NewScript(`
local gen = tonumber(redis.call('GET', KEYS[2]) or '0')
if gen ~= tonumber(ARGV[1]) then
  return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// SlotCache is a short-lived read cache for available slot listings.
// Redis failures degrade to cache misses.
type SlotCache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

func NewSlotCache(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *SlotCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &SlotCache{rdb: rdb, ttl: ttl, logger: logger}
}

func slotsKey(productID string, date time.Time) string {
	if productID == "" {
		productID = venueKey
	}
	return "slots:" + productID + ":" + booking.FormatDate(date)
}

func genKey(productID string, date time.Time) string {
	return slotsKey(productID, date) + ":gen"
}

func parseGen(v interface{}) int64 {
	raw, ok := v.(string)
	if !ok {
		return 0
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func encodeSlots(slots []booking.TimeSlot) ([]byte, error) {
	labels := make([]string, len(slots))
	for i, s := range slots {
		labels[i] = s.Label()
	}
	return json.Marshal(labels)
}

func decodeSlots(raw []byte) ([]booking.TimeSlot, error) {
	var labels []string
	if err := json.Unmarshal(raw, &labels); err != nil {
		return nil, err
	}
	slots := make([]booking.TimeSlot, 0, len(labels))
	for _, l := range labels {
		s, err := booking.ParseTimeSlot(l)
		if err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, nil
}

// GetSlots returns the cached listing, or on a miss the generation a
// following SetSlots must present.
func (c *SlotCache) GetSlots(ctx context.Context, productID string, date time.Time) ([]booking.TimeSlot, int64, bool) {
	key := slotsKey(productID, date)
	vals, err := c.rdb.MGet(ctx, key, genKey(productID, date)).Result()
	if err != nil {
		c.logger.Warn("slot cache read failed", zap.String("key", key), zap.Error(err))
		return nil, 0, false
	}

	gen := parseGen(vals[1])
	raw, ok := vals[0].(string)
	if !ok {
		return nil, gen, false
	}
	slots, err := decodeSlots([]byte(raw))
	if err != nil {
		c.logger.Warn("slot cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, gen, false
	}
	return slots, gen, true
}

func (c *SlotCache) SetSlots(ctx context.Context, productID string, date time.Time, gen int64, slots []booking.TimeSlot) {
	key := slotsKey(productID, date)
	raw, err := encodeSlots(slots)
	if err != nil {
		return
	}
	keys := []string{key, genKey(productID, date)}
	stored, err := setIfGen.Run(ctx, c.rdb, keys, gen, raw, c.ttl.Milliseconds()).Int()
	if err != nil {
		c.logger.Warn("slot cache write failed", zap.String("key", key), zap.Error(err))
		return
	}
	if stored == 0 {
		c.logger.Debug("slot cache write skipped after invalidation", zap.String("key", key))
	}
}

// Invalidate drops the listing and bumps the generation so an in-flight
// SetSlots carrying the old one is discarded.
func (c *SlotCache) Invalidate(ctx context.Context, productID string, date time.Time) {
	key := slotsKey(productID, date)
	gk := genKey(productID, date)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gk)
		pipe.Expire(ctx, gk, genTTL)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		c.logger.Warn("slot cache invalidate failed", zap.String("key", key), zap.Error(err))
	}
}
