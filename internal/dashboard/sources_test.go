package dashboard

import (
	"context"
	"errors"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakeAcker struct {
	acked, nacked, requeued bool
}

func (a *fakeAcker) Ack(multiple bool) error {
	a.acked = true
	return nil
}

func (a *fakeAcker) Nack(multiple, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func TestSettle(t *testing.T) {
	ok := &fakeAcker{}
	settle(context.Background(), ok, []byte("x"), func(ctx context.Context, raw []byte) error { return nil }, slog.Default())
	assert.True(t, ok.acked)
	assert.False(t, ok.nacked)

	bad := &fakeAcker{}
	settle(context.Background(), bad, []byte("x"), func(ctx context.Context, raw []byte) error { return errors.New("nope") }, slog.Default())
	assert.False(t, bad.acked)
	assert.True(t, bad.nacked)
	assert.False(t, bad.requeued)
}

func TestRedisSource_DeliversMessages(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	var mu sync.Mutex
	var got []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	src := &RedisSource{Redis: rdb, Channel: "orders-channel"}
	go func() {
		done <- src.Run(ctx, func(ctx context.Context, raw []byte) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, string(raw))
			return nil
		})
	}()

	require.Eventually(t, func() bool {
		return len(mr.PubSubChannels("orders-channel")) == 1
	}, time.Second, 5*time.Millisecond)
	require.NoError(t, rdb.Publish(context.Background(), "orders-channel", "hello").Err())

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, []string{"hello"}, got)
}
