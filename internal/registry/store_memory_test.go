package registry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemory
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) create(number int64) *Apartment {
	apartment, err := NewApartment(domain.ApartmentNumber(number), owner, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(context.Background(), apartment))
	return apartment
}

func (s *MemoryStoreSuite) TestCreate() {
	s.Run("stores and retrieves a record", func() {
		s.create(1)
		found, err := s.store.FindByNumber(context.Background(), 1)
		s.Require().NoError(err)
		s.Equal(domain.ApartmentNumber(1), found.Number)
		s.Equal(owner, found.Owner)
	})

	s.Run("returns ErrConflict on a duplicate number", func() {
		s.create(2)
		duplicate, err := NewApartment(2, other, now)
		s.Require().NoError(err)
		err = s.store.Create(context.Background(), duplicate)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("stores a copy, not the caller's pointer", func() {
		apartment := s.create(3)
		apartment.Owner = other

		found, err := s.store.FindByNumber(context.Background(), 3)
		s.Require().NoError(err)
		s.Equal(owner, found.Owner)
	})
}

func (s *MemoryStoreSuite) TestFindByNumber() {
	s.Run("returns ErrNotFound for an unknown number", func() {
		_, err := s.store.FindByNumber(context.Background(), 99)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned record does not alias store state", func() {
		s.create(4)
		found, err := s.store.FindByNumber(context.Background(), 4)
		s.Require().NoError(err)
		found.ForRent = true

		again, err := s.store.FindByNumber(context.Background(), 4)
		s.Require().NoError(err)
		s.False(again.ForRent)
	})
}

func (s *MemoryStoreSuite) TestExecute() {
	s.Run("applies validate then mutate and returns the committed record", func() {
		s.create(5)
		updated, err := s.store.Execute(context.Background(), 5,
			func(a *Apartment) error { return a.CanListForRent() },
			func(a *Apartment) { a.ApplyRentListing(100, now) },
		)
		s.Require().NoError(err)
		s.True(updated.ForRent)

		found, err := s.store.FindByNumber(context.Background(), 5)
		s.Require().NoError(err)
		s.True(found.ForRent)
	})

	s.Run("a failed validate leaves the record untouched", func() {
		s.create(6)
		_, err := s.store.Execute(context.Background(), 6,
			func(a *Apartment) error { return dErrors.New(dErrors.CodeInvalidState, "nope") },
			func(a *Apartment) { a.ForRent = true },
		)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvalidState))

		found, err := s.store.FindByNumber(context.Background(), 6)
		s.Require().NoError(err)
		s.False(found.ForRent)
	})

	s.Run("a mutation that breaks invariants is rolled back", func() {
		s.create(7)
		_, err := s.store.Execute(context.Background(), 7,
			func(a *Apartment) error { return nil },
			func(a *Apartment) {
				a.ForRent = true
				a.ForSale = true
			},
		)
		s.Require().True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

		found, err := s.store.FindByNumber(context.Background(), 7)
		s.Require().NoError(err)
		s.False(found.ForRent)
		s.False(found.ForSale)
	})

	s.Run("returns ErrNotFound for an unknown number", func() {
		_, err := s.store.Execute(context.Background(), 99,
			func(a *Apartment) error { return nil },
			func(a *Apartment) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent payments on one apartment all land", func() {
		s.create(8)
		_, err := s.store.Execute(context.Background(), 8,
			func(a *Apartment) error { return nil },
			func(a *Apartment) {
				a.ApplyRentListing(10, now)
				a.ApplyRental(tenant, 10, now)
			},
		)
		s.Require().NoError(err)

		const workers = 25
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				_, err := s.store.Execute(context.Background(), 8,
					func(a *Apartment) error { return a.CanPayRent(10) },
					func(a *Apartment) { a.ApplyRentPayment(10, now) },
				)
				s.NoError(err)
			}()
		}
		wg.Wait()

		found, err := s.store.FindByNumber(context.Background(), 8)
		s.Require().NoError(err)
		s.Equal(domain.Amount(10+workers*10), found.Agreement.Balance)
	})
}
