package notify

import (
	"context"
	"log/slog"
	"sync"

	"domus/pkg/domain"
)

//go:generate mockgen -source=publisher.go -destination=mocks/mocks.go -package=mocks

// Publisher delivers events toward observers.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store is an event sink that also serves reads, used for the per-apartment
// notification history endpoint and by tests.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByApartment(ctx context.Context, number domain.ApartmentNumber) ([]Event, error)
}

// MemoryStore keeps events per apartment in process memory, append-only.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[domain.ApartmentNumber][]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[domain.ApartmentNumber][]Event)}
}

func (s *MemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Apartment] = append(s.events[event.Apartment], event)
	return nil
}

func (s *MemoryStore) ListByApartment(_ context.Context, number domain.ApartmentNumber) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[number]...), nil
}

// Emit makes the store usable directly as a Publisher.
func (s *MemoryStore) Emit(ctx context.Context, event Event) error {
	return s.Append(ctx, event)
}

// Fanout delivers each event to every sink. Sink errors are logged and
// swallowed; the triggering operation has already committed by the time
// notifications go out.
type Fanout struct {
	sinks  []Publisher
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger, sinks ...Publisher) *Fanout {
	return &Fanout{sinks: sinks, logger: logger}
}

func (f *Fanout) Emit(ctx context.Context, event Event) error {
	for _, sink := range f.sinks {
		if err := sink.Emit(ctx, event); err != nil {
			f.logger.WarnContext(ctx, "notification sink failed",
				"kind", event.Kind,
				"apartment", event.Apartment,
				"error", err.Error(),
			)
		}
	}
	return nil
}

// Noop discards events. The lifecycle service defaults to it when no
// publisher is wired, keeping emission unconditional in the service code.
type Noop struct{}

func (Noop) Emit(context.Context, Event) error { return nil }
