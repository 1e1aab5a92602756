package watch

import (
	"context"
	"reflect"
	"sync"
)

// FetchFunc loads the current result of a query.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Stream is a live query result. The first value is the state at
// subscription time; later values follow committed writes to the tables
// the stream depends on. Consecutive equal results are emitted once.
type Stream[T any] struct {
	updates chan T
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// Query starts a stream over fetch. The stream ends when ctx is cancelled,
// Close is called, or fetch fails; Updates is closed in every case.
func Query[T any](ctx context.Context, hub *Hub, tables []string, fetch FetchFunc[T]) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	s := &Stream[T]{
		updates: make(chan T),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Subscribe before the first fetch so a write landing in between still
	// triggers a re-query.
	id, signal := hub.subscribe(tables)
	go s.run(ctx, fetch, signal, func() { hub.unsubscribe(id) })

	return s
}

// Updates delivers query results until the stream ends.
func (s *Stream[T]) Updates() <-chan T {
	return s.updates
}

// Close stops the stream and waits for its goroutine to exit.
func (s *Stream[T]) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the stream has stopped.
func (s *Stream[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the fetch error that ended the stream, if any.
func (s *Stream[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Stream[T]) run(ctx context.Context, fetch FetchFunc[T], signal <-chan struct{}, unsubscribe func()) {
	defer close(s.done)
	defer close(s.updates)
	defer unsubscribe()

	current, err := fetch(ctx)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	if !s.emit(ctx, current) {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-signal:
		}

		next, err := fetch(ctx)
		if err != nil {
			s.fail(ctx, err)
			return
		}
		if reflect.DeepEqual(current, next) {
			continue
		}
		current = next
		if !s.emit(ctx, current) {
			return
		}
	}
}

func (s *Stream[T]) emit(ctx context.Context, v T) bool {
	select {
	case s.updates <- v:
		return true
	case <-ctx.Done():
		return false
	}
}

func (s *Stream[T]) fail(ctx context.Context, err error) {
	// A cancelled query is a normal shutdown, not a failure.
	if ctx.Err() != nil {
		return
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
