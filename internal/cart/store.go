// Package cart holds the shopper's cart: an ordered list of products with one
// unit per entry, mirrored to a durable record after every mutation.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"storefront-service/internal/domain"
	"storefront-service/internal/store"
)

// DefaultKey is the well-known record key the cart is persisted under.
const DefaultKey = "cart"

// Store is the single owner of the cart. Every consumer (catalog add-to-cart,
// cart page remove, checkout) goes through the same instance; the mutex
// serializes mutations together with their durable write.
type Store struct {
	mu      sync.Mutex
	records store.RecordStorer
	key     string
	items   []domain.Product
	logger  *log.Logger

	subMu       sync.Mutex
	subscribers map[int]func([]domain.Product)
	nextSubID   int
}

// NewStore creates an empty cart backed by records. Call Hydrate to load the
// persisted cart.
func NewStore(records store.RecordStorer, key string, logger *log.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		records:     records,
		key:         key,
		items:       []domain.Product{},
		logger:      logger,
		subscribers: make(map[int]func([]domain.Product)),
	}
}

// Hydrate replaces the in-memory cart with the persisted record. An absent or
// unparsable record yields an empty cart. The returned error only reports a
// failure to reach the backend; the cart is left empty and usable either way.
func (s *Store) Hydrate(ctx context.Context) error {
	raw, err := s.records.GetRecord(ctx, s.key)

	s.mu.Lock()
	s.items = []domain.Product{}
	switch {
	case errors.Is(err, store.ErrRecordNotFound):
		s.logger.Printf("INFO: No persisted cart under %q, starting empty", s.key)
	case err != nil:
		s.logger.Printf("ERROR: Failed to read persisted cart %q: %v", s.key, err)
	default:
		var items []domain.Product
		if jsonErr := json.Unmarshal(raw, &items); jsonErr != nil {
			s.logger.Printf("WARN: Persisted cart %q is malformed, starting empty: %v", s.key, jsonErr)
		} else if items != nil {
			s.items = items
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return fmt.Errorf("cart: hydrate: %w", err)
	}
	return nil
}

// Add appends p unconditionally. Repeated adds of the same product are
// separate units. The cart is durable when Add returns; on a write failure
// the in-memory cart is rolled back.
func (s *Store) Add(ctx context.Context, p domain.Product) error {
	s.mu.Lock()
	prev := s.items
	next := make([]domain.Product, len(prev), len(prev)+1)
	copy(next, prev)
	next = append(next, p)

	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return nil
}

// Remove drops the first entry whose ID is productID, leaving later
// duplicates in place. It reports whether an entry was removed; no match is a
// no-op and nothing is written.
func (s *Store) Remove(ctx context.Context, productID string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, p := range s.items {
		if p.ID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	next := make([]domain.Product, 0, len(s.items)-1)
	next = append(next, s.items[:idx]...)
	next = append(next, s.items[idx+1:]...)

	if err := s.persistLocked(ctx, next); err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.items = next
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snapshot)
	return true, nil
}

// Clear empties the cart, e.g. after a completed payment.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	if err := s.persistLocked(ctx, []domain.Product{}); err != nil {
		s.mu.Unlock()
		return err
	}
	s.items = []domain.Product{}
	s.mu.Unlock()

	s.notify([]domain.Product{})
	return nil
}

// Items returns a copy of the cart in insertion order.
func (s *Store) Items() []domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Subscribe registers fn to receive the cart after every change. fn runs on
// the mutating goroutine and must not block. The returned func unsubscribes.
func (s *Store) Subscribe(fn func([]domain.Product)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) persistLocked(ctx context.Context, items []domain.Product) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cart: encoding cart: %w", err)
	}
	if err := s.records.PutRecord(ctx, s.key, raw); err != nil {
		s.logger.Printf("ERROR: Failed to persist cart %q: %v", s.key, err)
		return fmt.Errorf("cart: persisting cart: %w", err)
	}
	return nil
}

func (s *Store) snapshotLocked() []domain.Product {
	out := make([]domain.Product, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) notify(items []domain.Product) {
	s.subMu.Lock()
	fns := make([]func([]domain.Product), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(items)
	}
}
