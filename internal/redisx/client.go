package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/redis/go-redis/v9"
	"strconv"
	"time"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// ClaimOnce sets key if nobody has yet. It reports whether this caller won.
func ClaimOnce(ctx context.Context, rdb *redis.Client, key string, ttl time.Duration) (bool, error) {
	return rdb.SetNX(ctx, key, "1", ttl).Result()
}

// ErrInFlight means another request holds the idempotency key and has not
// finished creating its order.
var ErrInFlight = errors.New("idempotency key in flight")

const idemInFlight = "in-flight"

// ClaimOrderKey reserves idemKey for the caller about to create an order.
// Only one caller wins; the claim lapses after TTLIdemInFlight unless
// RememberOrder replaces it.
func ClaimOrderKey(ctx context.Context, rdb *redis.Client, idemKey string) (bool, error) {
	key := fmt.Sprintf(KeyIdemOrderCreate, idemKey)
	return rdb.SetNX(ctx, key, idemInFlight, TTLIdemInFlight).Result()
}

// ReleaseOrderKey drops a claim whose order was not created, so the client
// may retry with the same key.
func ReleaseOrderKey(ctx context.Context, rdb *redis.Client, idemKey string) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyIdemOrderCreate, idemKey)).Err()
}

// RememberOrder binds an idempotency key to the order it created.
func RememberOrder(ctx context.Context, rdb *redis.Client, idemKey string, orderID int64) error {
	key := fmt.Sprintf(KeyIdemOrderCreate, idemKey)
	return rdb.Set(ctx, key, orderID, TTLIdempotency).Err()
}

// LookupOrder returns the order already created for idemKey, if any, and
// ErrInFlight while the claiming request is still running.
func LookupOrder(ctx context.Context, rdb *redis.Client, idemKey string) (int64, bool, error) {
	key := fmt.Sprintf(KeyIdemOrderCreate, idemKey)
	s, err := rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if s == idemInFlight {
		return 0, false, ErrInFlight
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency key %s: %w", idemKey, err)
	}
	return id, true, nil
}

type StatusEntry struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CacheStatus(ctx context.Context, rdb *redis.Client, orderID int64, e StatusEntry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, fmt.Sprintf(KeyOrderStatus, orderID), b, TTLStatusCache).Err()
}

// CachedStatus reports ok=false on a miss.
func CachedStatus(ctx context.Context, rdb *redis.Client, orderID int64) (StatusEntry, bool, error) {
	var e StatusEntry
	b, err := rdb.Get(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return e, false, nil
	}
	if err != nil {
		return e, false, err
	}
	if err := json.Unmarshal(b, &e); err != nil {
		return e, false, err
	}
	return e, true, nil
}

func ForgetStatus(ctx context.Context, rdb *redis.Client, orderID int64) error {
	return rdb.Del(ctx, fmt.Sprintf(KeyOrderStatus, orderID)).Err()
}
