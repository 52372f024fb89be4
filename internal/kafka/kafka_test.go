package kafka

import (
	"context"
	"errors"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"sync"
	"testing"
	"time"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	closed  bool
	release chan struct{}
	fail    error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.release != nil {
		<-w.release
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return w.fail
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestProducer_FlushesOnClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, nil)
	p.Start()

	require.NoError(t, p.Publish([]byte("1"), []byte("a"), kafka.Header{Key: "x-event-type", Value: []byte("new-order")}))
	require.NoError(t, p.Publish([]byte("2"), []byte("b")))
	p.Close()
	p.WaitClosed()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 2)
	assert.Equal(t, "a", string(w.msgs[0].Value))
	assert.Equal(t, "x-event-type", w.msgs[0].Headers[0].Key)
	assert.True(t, w.closed)

	assert.ErrorIs(t, p.Publish(nil, []byte("late")), ErrClosed)
	p.Close()
}

func TestProducer_DropsWhenFull(t *testing.T) {
	w := &fakeWriter{release: make(chan struct{})}
	p := newProducer(w, 1, nil)
	p.Start()

	// first message is held by the writer, second fills the buffer
	require.NoError(t, p.Publish(nil, []byte("1")))
	require.Eventually(t, func() bool { return len(p.inbox) == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, p.Publish(nil, []byte("2")))
	assert.ErrorIs(t, p.Publish(nil, []byte("3")), ErrBufferFull)

	close(w.release)
	p.Close()
	p.WaitClosed()
	assert.Len(t, w.msgs, 2)
}

func TestProducer_WriteErrorsAreNotFatal(t *testing.T) {
	w := &fakeWriter{fail: errors.New("broker down")}
	p := newProducer(w, 4, nil)
	p.Start()
	require.NoError(t, p.Publish(nil, []byte("x")))
	require.NoError(t, p.Publish(nil, []byte("y")))
	p.Close()
	p.WaitClosed()
	assert.Len(t, w.msgs, 2)
}

type fakeReader struct {
	mu        sync.Mutex
	queue     chan kafka.Message
	committed []int64
	closed    bool
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.queue:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func TestConsumer_CommitsOnlyHandled(t *testing.T) {
	r := &fakeReader{queue: make(chan kafka.Message, 4)}
	r.queue <- kafka.Message{Offset: 1, Value: []byte("ok")}
	r.queue <- kafka.Message{Offset: 2, Value: []byte("bad")}
	r.queue <- kafka.Message{Offset: 3, Value: []byte("ok")}

	var seen sync.WaitGroup
	seen.Add(3)
	h := func(ctx context.Context, m kafka.Message) error {
		defer seen.Done()
		if string(m.Value) == "bad" {
			return errors.New("cannot handle")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newConsumer(r, 2, nil).Start(ctx, h) }()

	seen.Wait()
	require.Eventually(t, func() bool {
		r.mu.Lock()
		defer r.mu.Unlock()
		return len(r.committed) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	r.mu.Lock()
	defer r.mu.Unlock()
	assert.ElementsMatch(t, []int64{1, 3}, r.committed)
	assert.True(t, r.closed)
}
