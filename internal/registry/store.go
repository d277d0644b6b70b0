package registry

import (
	"context"

	"domus/pkg/domain"
)

// Store is the keyed set of apartment records. It guarantees apartment
// number uniqueness and gives the lifecycle service atomic
// validate-then-mutate access to a single record.
//
// Implementations return pkg/platform/sentinel errors for infrastructure
// facts (ErrNotFound, ErrConflict); coded domain errors from validate
// callbacks pass through Execute untouched.
type Store interface {
	// Create inserts a new record. Returns sentinel.ErrConflict when the
	// apartment number is already registered.
	Create(ctx context.Context, apartment *Apartment) error

	// FindByNumber returns a copy of the record or sentinel.ErrNotFound.
	FindByNumber(ctx context.Context, number domain.ApartmentNumber) (*Apartment, error)

	// Execute runs validate then mutate against the record identified by
	// number, holding that record's lock (mutex or FOR UPDATE) for the whole
	// call so no other operation interleaves. If validate returns an error
	// the record is left untouched and the error is returned as-is. The
	// returned record reflects the state after mutation.
	//
	// Locking is per apartment, never global, so operations on distinct
	// apartments proceed concurrently.
	Execute(
		ctx context.Context,
		number domain.ApartmentNumber,
		validate func(*Apartment) error,
		mutate func(*Apartment),
	) (*Apartment, error)
}
