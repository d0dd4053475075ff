// Package store provides the offer store: a mapping from offer name to offer,
// with upsert-by-name and delete-by-name semantics.
package store

import (
	"errors"
	"sync"

	"github.com/iwvelando/loan-compare/internal/config"
)

// ErrNotFound is returned when no offer exists under the requested name.
var ErrNotFound = errors.New("offer not found")

// OfferStore maps offer names to offers. Put overwrites any existing offer of
// the same name; List preserves insertion order for display.
type OfferStore interface {
	Put(offer config.Offer) error
	Get(name string) (config.Offer, error)
	Delete(name string) error
	List() ([]config.Offer, error)
}

// MemoryStore is a mutex-guarded in-memory OfferStore.
type MemoryStore struct {
	mu     sync.RWMutex
	offers map[string]config.Offer
	order  []string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{offers: make(map[string]config.Offer)}
}

// Put upserts an offer by name.
func (s *MemoryStore) Put(offer config.Offer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[offer.Name]; !ok {
		s.order = append(s.order, offer.Name)
	}
	s.offers[offer.Name] = offer
	return nil
}

// Get returns the offer stored under name.
func (s *MemoryStore) Get(name string) (config.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offer, ok := s.offers[name]
	if !ok {
		return config.Offer{}, ErrNotFound
	}
	return offer, nil
}

// Delete removes the offer stored under name.
func (s *MemoryStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.offers[name]; !ok {
		return ErrNotFound
	}
	delete(s.offers, name)
	for i, existing := range s.order {
		if existing == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all offers in insertion order.
func (s *MemoryStore) List() ([]config.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	offers := make([]config.Offer, 0, len(s.order))
	for _, name := range s.order {
		offers = append(offers, s.offers[name])
	}
	return offers, nil
}
