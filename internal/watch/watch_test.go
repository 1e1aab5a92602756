package watch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const waitFor = time.Second

// store is a tiny in-memory table that notifies the hub after each write.
type store struct {
	mu    sync.Mutex
	hub   *Hub
	rows  []string
	reads atomic.Int32
}

func (s *store) add(row string) {
	s.mu.Lock()
	s.rows = append(s.rows, row)
	s.mu.Unlock()
	s.hub.Notify("rows")
}

func (s *store) list(context.Context) ([]string, error) {
	s.reads.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func next[T any](t *testing.T, s *Stream[T]) T {
	t.Helper()
	select {
	case v, ok := <-s.Updates():
		require.True(t, ok, "stream closed unexpectedly")
		return v
	case <-time.After(waitFor):
		t.Fatal("timed out waiting for stream update")
	}
	var zero T
	return zero
}

func expectQuiet[T any](t *testing.T, s *Stream[T]) {
	t.Helper()
	select {
	case v := <-s.Updates():
		t.Fatalf("unexpected update: %v", v)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQuery_EmitsCurrentStateImmediately(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub, rows: []string{"a"}}

	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	defer stream.Close()

	assert.Equal(t, []string{"a"}, next(t, stream))
}

func TestQuery_EmitsOncePerChange(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub}

	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	defer stream.Close()

	assert.Empty(t, next(t, stream))

	st.add("a")
	assert.Equal(t, []string{"a"}, next(t, stream))

	st.add("b")
	assert.Equal(t, []string{"a", "b"}, next(t, stream))

	expectQuiet(t, stream)
}

func TestQuery_SkipsUnchangedResults(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub, rows: []string{"a"}}

	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	defer stream.Close()
	next(t, stream)

	hub.Notify("rows")
	expectQuiet(t, stream)
	assert.GreaterOrEqual(t, st.reads.Load(), int32(2))
}

func TestQuery_IgnoresOtherTables(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub}

	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	defer stream.Close()
	next(t, stream)

	hub.Notify("other")
	expectQuiet(t, stream)
	assert.Equal(t, int32(1), st.reads.Load())
}

func TestQuery_ContextCancelUnsubscribes(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub}
	ctx, cancel := context.WithCancel(context.Background())

	stream := Query(ctx, hub, []string{"rows"}, st.list)
	next(t, stream)
	assert.Equal(t, 1, hub.Subscribers())

	cancel()
	select {
	case <-stream.Done():
	case <-time.After(waitFor):
		t.Fatal("stream did not stop")
	}

	_, ok := <-stream.Updates()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.Subscribers())
	assert.NoError(t, stream.Err())
}

func TestQuery_CloseWithoutReading(t *testing.T) {
	hub := NewHub()
	st := &store{hub: hub}

	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	stream.Close()

	assert.Equal(t, 0, hub.Subscribers())
}

func TestQuery_FetchErrorEndsStream(t *testing.T) {
	hub := NewHub()
	boom := errors.New("boom")
	calls := 0

	stream := Query(context.Background(), hub, []string{"rows"}, func(context.Context) (int, error) {
		calls++
		if calls > 1 {
			return 0, boom
		}
		return calls, nil
	})

	assert.Equal(t, 1, next(t, stream))
	hub.Notify("rows")

	select {
	case <-stream.Done():
	case <-time.After(waitFor):
		t.Fatal("stream did not stop")
	}
	assert.ErrorIs(t, stream.Err(), boom)
	assert.Equal(t, 0, hub.Subscribers())
}

type countingObserver struct {
	mu           sync.Mutex
	subscribed   int
	unsubscribed int
	notified     map[string]int
}

func (o *countingObserver) Subscribed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.subscribed++
}

func (o *countingObserver) Unsubscribed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.unsubscribed++
}

func (o *countingObserver) Notified(table string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notified[table]++
}

func TestHub_Observer(t *testing.T) {
	hub := NewHub()
	obs := &countingObserver{notified: map[string]int{}}
	hub.SetObserver(obs)

	st := &store{hub: hub}
	stream := Query(context.Background(), hub, []string{"rows"}, st.list)
	next(t, stream)
	st.add("x")
	next(t, stream)
	stream.Close()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.subscribed)
	assert.Equal(t, 1, obs.unsubscribed)
	assert.Equal(t, 1, obs.notified["rows"])
}

func TestHub_NilIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() { hub.Notify("rows") })
}
