// Package watch turns one-shot repository queries into live streams.
//
// Repositories call Hub.Notify with the tables a committed write touched.
// Every Stream whose query depends on one of those tables re-runs its query
// and emits the new result if it differs from the previous one.
//
// # Usage
//
//	hub := watch.NewHub()
//	stream := watch.Query(ctx, hub, []string{"exercises"}, repo.ListEnabled)
//	defer stream.Close()
//	for exercises := range stream.Updates() {
//	    render(exercises)
//	}
package watch

import (
	"sync"
)

// Observer receives hub activity, typically for metrics.
type Observer interface {
	Subscribed()
	Unsubscribed()
	Notified(table string)
}

type subscriber struct {
	tables map[string]struct{}
	signal chan struct{}
}

// Hub fans out table change notifications to active streams.
type Hub struct {
	mu       sync.Mutex
	nextID   uint64
	subs     map[uint64]*subscriber
	observer Observer
}

func NewHub() *Hub {
	return &Hub{subs: make(map[uint64]*subscriber)}
}

// SetObserver installs o. Pass nil to remove it.
func (h *Hub) SetObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = o
}

// Notify wakes every subscriber depending on any of tables. It never
// blocks: pending wake-ups for one subscriber coalesce into one re-query.
// A nil hub ignores notifications.
func (h *Hub) Notify(tables ...string) {
	if h == nil || len(tables) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.observer != nil {
		for _, table := range tables {
			h.observer.Notified(table)
		}
	}

	for _, sub := range h.subs {
		if !sub.dependsOn(tables) {
			continue
		}
		select {
		case sub.signal <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Hub) subscribe(tables []string) (uint64, <-chan struct{}) {
	sub := &subscriber{
		tables: make(map[string]struct{}, len(tables)),
		signal: make(chan struct{}, 1),
	}
	for _, table := range tables {
		sub.tables[table] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	h.subs[id] = sub
	if h.observer != nil {
		h.observer.Subscribed()
	}
	return id, sub.signal
}

func (h *Hub) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[id]; !ok {
		return
	}
	delete(h.subs, id)
	if h.observer != nil {
		h.observer.Unsubscribed()
	}
}

func (s *subscriber) dependsOn(tables []string) bool {
	for _, table := range tables {
		if _, ok := s.tables[table]; ok {
			return true
		}
	}
	return false
}
