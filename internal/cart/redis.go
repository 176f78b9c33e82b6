// Package cart keeps the booking cart of each viewer in Redis.  A cart is
// a hash keyed "<prefix>:<venue>:<owner>" mapping seat ID to the
// msgpack-encoded domain seat, so checkout code can price a cart without
// reloading the venue.  Every write refreshes the key TTL; an abandoned
// cart simply expires.
package cart

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iliyamo/venue-seatmap/internal/seatmap"
)

// Store hands out per-owner carts that share one Redis client.
type Store struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore returns a cart store.  ttl <= 0 disables expiry.
func NewStore(rdb *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "cart"
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: ttl}
}

// Cart returns the cart of owner for venueID.
func (s *Store) Cart(venueID, owner string) *RedisCart {
	return &RedisCart{store: s, key: fmt.Sprintf("%s:%s:%s", s.prefix, venueID, owner)}
}

// RedisCart implements seatmap.Cart.
type RedisCart struct {
	store *Store
	key   string
}

var _ seatmap.Cart = (*RedisCart)(nil)

// Key returns the Redis key backing the cart.
func (c *RedisCart) Key() string { return c.key }

// Add stores seat and refreshes the TTL.
func (c *RedisCart) Add(ctx context.Context, seat seatmap.DomainSeat) error {
	b, err := msgpack.Marshal(seat)
	if err != nil {
		return fmt.Errorf("encode seat: %w", err)
	}
	_, err = c.store.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, c.key, seat.SeatID, b)
		c.touch(ctx, p)
		return nil
	})
	return err
}

// Remove drops seat and refreshes the TTL.
func (c *RedisCart) Remove(ctx context.Context, seat seatmap.DomainSeat) error {
	_, err := c.store.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HDel(ctx, c.key, seat.SeatID)
		c.touch(ctx, p)
		return nil
	})
	return err
}

func (c *RedisCart) touch(ctx context.Context, p redis.Pipeliner) {
	if c.store.ttl > 0 {
		p.Expire(ctx, c.key, c.store.ttl)
	}
}

// SeatIDs returns the IDs in the cart, sorted.
func (c *RedisCart) SeatIDs(ctx context.Context) ([]string, error) {
	ids, err := c.store.rdb.HKeys(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Seats decodes the stored domain seats, ordered by seat ID.
func (c *RedisCart) Seats(ctx context.Context) ([]seatmap.DomainSeat, error) {
	raw, err := c.store.rdb.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, err
	}
	out := make([]seatmap.DomainSeat, 0, len(raw))
	for id, v := range raw {
		var ds seatmap.DomainSeat
		if err := msgpack.Unmarshal([]byte(v), &ds); err != nil {
			return nil, fmt.Errorf("decode seat %s: %w", id, err)
		}
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SeatID < out[j].SeatID })
	return out, nil
}

// Clear deletes the cart.
func (c *RedisCart) Clear(ctx context.Context) error {
	return c.store.rdb.Del(ctx, c.key).Err()
}
