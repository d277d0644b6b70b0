package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

var (
	owner  = domain.AccountID("acct-owner")
	tenant = domain.AccountID("acct-tenant")
	other  = domain.AccountID("acct-other")
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newTestApartment(t *testing.T) *Apartment {
	t.Helper()
	apartment, err := NewApartment(42, owner, now)
	require.NoError(t, err)
	return apartment
}

func TestNewApartment(t *testing.T) {
	t.Run("starts vacant and unlisted", func(t *testing.T) {
		apartment := newTestApartment(t)
		assert.False(t, apartment.ForRent)
		assert.False(t, apartment.ForSale)
		assert.False(t, apartment.Occupied())
		assert.Nil(t, apartment.Agreement)
		assert.NoError(t, apartment.CheckInvariants())
	})

	t.Run("rejects non-positive numbers", func(t *testing.T) {
		_, err := NewApartment(0, owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		_, err = NewApartment(-3, owner, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects a missing owner", func(t *testing.T) {
		_, err := NewApartment(42, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestListingTransitions(t *testing.T) {
	t.Run("rent and sale listings are mutually exclusive", func(t *testing.T) {
		apartment := newTestApartment(t)
		require.NoError(t, apartment.CanListForRent())
		apartment.ApplyRentListing(100, now)

		err := apartment.CanListForSale()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))

		apartment.ApplyRentUnlisting(now)
		require.NoError(t, apartment.CanListForSale())
		apartment.ApplySaleListing(500, now)

		err = apartment.CanListForRent()
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
	})

	t.Run("unlisting resets the price", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.ApplyRentListing(100, now)
		apartment.ApplyRentUnlisting(now)
		assert.Equal(t, domain.Amount(0), apartment.RentPrice)

		apartment.ApplySaleListing(500, now)
		apartment.ApplySaleUnlisting(now)
		assert.Equal(t, domain.Amount(0), apartment.SalePrice)
	})

	t.Run("double listing is rejected", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.ApplyRentListing(100, now)
		assert.True(t, dErrors.HasCode(apartment.CanListForRent(), dErrors.CodeInvalidState))
	})
}

func TestRentalTransitions(t *testing.T) {
	listed := func(t *testing.T) *Apartment {
		apartment := newTestApartment(t)
		apartment.ApplyRentListing(100, now)
		return apartment
	}

	t.Run("rental keeps the full attached amount as the opening balance", func(t *testing.T) {
		apartment := listed(t)
		require.NoError(t, apartment.CanRent(150))
		apartment.ApplyRental(tenant, 150, now)

		assert.Equal(t, tenant, apartment.Tenant)
		assert.False(t, apartment.ForRent)
		require.NotNil(t, apartment.Agreement)
		assert.Equal(t, domain.Amount(150), apartment.Agreement.Balance)
		assert.NoError(t, apartment.CheckInvariants())
	})

	t.Run("payment below the rent price is rejected", func(t *testing.T) {
		apartment := listed(t)
		assert.True(t, dErrors.HasCode(apartment.CanRent(99), dErrors.CodeInsufficientPayment))
	})

	t.Run("rent payments accumulate", func(t *testing.T) {
		apartment := listed(t)
		apartment.ApplyRental(tenant, 100, now)
		require.NoError(t, apartment.CanPayRent(100))
		apartment.ApplyRentPayment(100, now)
		assert.Equal(t, domain.Amount(200), apartment.Agreement.Balance)
	})

	t.Run("termination clears tenant, listing, price, and agreement", func(t *testing.T) {
		apartment := listed(t)
		apartment.ApplyRental(tenant, 100, now)
		require.NoError(t, apartment.CanTerminate())
		apartment.ApplyTermination(now)

		assert.False(t, apartment.Occupied())
		assert.False(t, apartment.ForRent)
		assert.Equal(t, domain.Amount(0), apartment.RentPrice)
		assert.Nil(t, apartment.Agreement)
		assert.NoError(t, apartment.CheckInvariants())
	})

	t.Run("withdrawal zeroes the balance", func(t *testing.T) {
		apartment := listed(t)
		apartment.ApplyRental(tenant, 150, now)
		assert.Equal(t, domain.Amount(150), apartment.WithdrawableBalance())
		require.NoError(t, apartment.CanWithdraw())
		apartment.ApplyWithdrawal(now)
		assert.Equal(t, domain.Amount(0), apartment.WithdrawableBalance())
		assert.True(t, dErrors.HasCode(apartment.CanWithdraw(), dErrors.CodeNoFunds))
	})
}

func TestSaleTransitions(t *testing.T) {
	t.Run("sale reassigns ownership and clears the listing", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.ApplySaleListing(500, now)
		require.NoError(t, apartment.CanBuy(500))
		apartment.ApplySale(other, now)

		assert.Equal(t, other, apartment.Owner)
		assert.False(t, apartment.ForSale)
		assert.Equal(t, domain.Amount(0), apartment.SalePrice)
		assert.NoError(t, apartment.CheckInvariants())
	})

	t.Run("payment below the sale price is rejected", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.ApplySaleListing(500, now)
		assert.True(t, dErrors.HasCode(apartment.CanBuy(499), dErrors.CodeInsufficientPayment))
	})

	t.Run("cannot buy an unlisted unit", func(t *testing.T) {
		apartment := newTestApartment(t)
		assert.True(t, dErrors.HasCode(apartment.CanBuy(1000), dErrors.CodeInvalidState))
	})
}

func TestMayOpenDoor(t *testing.T) {
	apartment := newTestApartment(t)
	assert.True(t, apartment.MayOpenDoor(owner))
	assert.False(t, apartment.MayOpenDoor(tenant))
	assert.False(t, apartment.MayOpenDoor(""))

	apartment.ApplyRentListing(100, now)
	apartment.ApplyRental(tenant, 100, now)
	assert.True(t, apartment.MayOpenDoor(tenant))
	assert.False(t, apartment.MayOpenDoor(owner))

	apartment.ApplyTermination(now)
	assert.True(t, apartment.MayOpenDoor(owner))
	assert.False(t, apartment.MayOpenDoor(tenant))
}

func TestClone(t *testing.T) {
	apartment := newTestApartment(t)
	apartment.ApplyRentListing(100, now)
	apartment.ApplyRental(tenant, 100, now)

	clone := apartment.Clone()
	clone.Agreement.Balance = 999
	clone.Tenant = other

	assert.Equal(t, domain.Amount(100), apartment.Agreement.Balance)
	assert.Equal(t, tenant, apartment.Tenant)
}

func TestCheckInvariants(t *testing.T) {
	t.Run("detects simultaneous listings", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.ForRent = true
		apartment.ForSale = true
		assert.True(t, dErrors.HasCode(apartment.CheckInvariants(), dErrors.CodeInvariantViolation))
	})

	t.Run("detects a listed occupied unit", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.Tenant = tenant
		apartment.Agreement = &RentalAgreement{Tenant: tenant, StartedAt: now}
		apartment.ForRent = true
		assert.True(t, dErrors.HasCode(apartment.CheckInvariants(), dErrors.CodeInvariantViolation))
	})

	t.Run("detects a tenant without an agreement", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.Tenant = tenant
		assert.True(t, dErrors.HasCode(apartment.CheckInvariants(), dErrors.CodeInvariantViolation))
	})

	t.Run("detects an agreement tenant mismatch", func(t *testing.T) {
		apartment := newTestApartment(t)
		apartment.Tenant = tenant
		apartment.Agreement = &RentalAgreement{Tenant: other, StartedAt: now}
		assert.True(t, dErrors.HasCode(apartment.CheckInvariants(), dErrors.CodeInvariantViolation))
	})
}
