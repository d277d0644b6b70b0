package registry

import (
	"context"
	"fmt"
	"sync"

	"domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemory keeps apartment records in process memory. It favors clarity
// over performance and is the store used by unit tests and by deployments
// without a configured database.
//
// The index map has its own RWMutex; every record carries its own mutex so
// Execute serializes operations per apartment without a global lock.
type InMemory struct {
	mu         sync.RWMutex
	apartments map[domain.ApartmentNumber]*memoryEntry
}

type memoryEntry struct {
	mu        sync.Mutex
	apartment Apartment
}

func NewInMemory() *InMemory {
	return &InMemory{apartments: make(map[domain.ApartmentNumber]*memoryEntry)}
}

func (s *InMemory) Create(_ context.Context, apartment *Apartment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apartments[apartment.Number]; exists {
		return fmt.Errorf("apartment %s: %w", apartment.Number, sentinel.ErrConflict)
	}
	s.apartments[apartment.Number] = &memoryEntry{apartment: *apartment.Clone()}
	return nil
}

func (s *InMemory) FindByNumber(_ context.Context, number domain.ApartmentNumber) (*Apartment, error) {
	s.mu.RLock()
	entry, ok := s.apartments[number]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("apartment %s: %w", number, sentinel.ErrNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.apartment.Clone(), nil
}

func (s *InMemory) Execute(
	_ context.Context,
	number domain.ApartmentNumber,
	validate func(*Apartment) error,
	mutate func(*Apartment),
) (*Apartment, error) {
	s.mu.RLock()
	entry, ok := s.apartments[number]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("apartment %s: %w", number, sentinel.ErrNotFound)
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	// Work on a copy so a failed validate or invariant check leaves the
	// stored record byte-for-byte unchanged.
	working := entry.apartment.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	if err := working.CheckInvariants(); err != nil {
		return nil, err
	}

	entry.apartment = *working
	return working.Clone(), nil
}
