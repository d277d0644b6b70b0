package registry

import (
	"time"

	"domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
)

// Apartment is the aggregate root for one building unit.
//
// Invariants:
//   - Number is positive and immutable after registration
//   - ForRent and ForSale are never both true
//   - Tenant set implies ForRent and ForSale are both false
//   - Agreement exists if and only if Tenant is set
//   - Owner changes only through a completed sale
//
// Transitions are expressed as Can*/Apply* pairs so stores can run the check
// and the mutation inside one critical section (Execute callback pattern).
// Authorization (who may call which transition) is enforced at the service
// layer; the model only guards state.
type Apartment struct {
	Number    domain.ApartmentNumber `json:"number"`
	Owner     domain.AccountID       `json:"owner"`
	ForRent   bool                   `json:"for_rent"`
	ForSale   bool                   `json:"for_sale"`
	RentPrice domain.Amount          `json:"rent_price"`
	SalePrice domain.Amount          `json:"sale_price"`
	Tenant    domain.AccountID       `json:"tenant,omitempty"`
	Agreement *RentalAgreement       `json:"agreement,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// RentalAgreement is the per-tenancy accounting record. It exists only while
// the apartment has a tenant and is owned exclusively by that apartment.
type RentalAgreement struct {
	Tenant    domain.AccountID `json:"tenant"`
	Balance   domain.Amount    `json:"balance"`
	StartedAt time.Time        `json:"started_at"`
}

// NewApartment registers a fresh unit owned by the registrant: no listings,
// zero prices, vacant.
func NewApartment(number domain.ApartmentNumber, owner domain.AccountID, now time.Time) (*Apartment, error) {
	if !number.Valid() {
		return nil, dErrors.New(dErrors.CodeValidation, "apartment number must be positive")
	}
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeValidation, "apartment owner is required")
	}
	return &Apartment{
		Number:    number,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Occupied reports whether the unit currently has a tenant.
func (a *Apartment) Occupied() bool {
	return !a.Tenant.IsZero()
}

// OwnedBy reports whether the account is the current owner.
func (a *Apartment) OwnedBy(account domain.AccountID) bool {
	return !account.IsZero() && a.Owner == account
}

// RentedBy reports whether the account is the current tenant.
func (a *Apartment) RentedBy(account domain.AccountID) bool {
	return !account.IsZero() && a.Tenant == account
}

// CanListForRent checks that the unit is idle: not listed either way and
// vacant. The opposite-flag check is what enforces the rent/sale mutual
// exclusion invariant.
func (a *Apartment) CanListForRent() error {
	if a.ForRent {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is already listed for rent")
	}
	if a.ForSale {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is listed for sale")
	}
	if a.Occupied() {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is occupied")
	}
	return nil
}

// ApplyRentListing marks the unit available for rent at the given price.
func (a *Apartment) ApplyRentListing(price domain.Amount, now time.Time) {
	a.ForRent = true
	a.RentPrice = price
	a.UpdatedAt = now
}

// CanUnlistForRent checks the unit is currently listed for rent.
func (a *Apartment) CanUnlistForRent() error {
	if !a.ForRent {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is not listed for rent")
	}
	return nil
}

// ApplyRentUnlisting clears the rent listing and resets the price, returning
// the record to its pre-listing field values.
func (a *Apartment) ApplyRentUnlisting(now time.Time) {
	a.ForRent = false
	a.RentPrice = 0
	a.UpdatedAt = now
}

// CanRent checks that the unit is listed for rent, vacant, and that the
// attached payment covers the asking price.
func (a *Apartment) CanRent(attached domain.Amount) error {
	if !a.ForRent {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is not listed for rent")
	}
	if a.Occupied() {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is occupied")
	}
	if attached < a.RentPrice {
		return dErrors.New(dErrors.CodeInsufficientPayment, "attached amount is below the rent price")
	}
	return nil
}

// ApplyRental installs the tenant and opens the agreement with the full
// attached amount as the initial escrowed balance. Overpayment is retained,
// not refunded.
func (a *Apartment) ApplyRental(tenant domain.AccountID, attached domain.Amount, now time.Time) {
	a.Tenant = tenant
	a.ForRent = false
	a.Agreement = &RentalAgreement{
		Tenant:    tenant,
		Balance:   attached,
		StartedAt: now,
	}
	a.UpdatedAt = now
}

// CanPayRent checks an agreement exists and the payment covers the rent
// price.
func (a *Apartment) CanPayRent(attached domain.Amount) error {
	if a.Agreement == nil {
		return dErrors.New(dErrors.CodeInvalidState, "apartment has no active rental")
	}
	if attached < a.RentPrice {
		return dErrors.New(dErrors.CodeInsufficientPayment, "attached amount is below the rent price")
	}
	return nil
}

// ApplyRentPayment accumulates the full attached amount into the escrowed
// balance.
func (a *Apartment) ApplyRentPayment(attached domain.Amount, now time.Time) {
	a.Agreement.Balance += attached
	a.UpdatedAt = now
}

// CanTerminate checks the unit has an active rental to terminate.
func (a *Apartment) CanTerminate() error {
	if !a.Occupied() {
		return dErrors.New(dErrors.CodeInvalidState, "apartment has no current tenant")
	}
	return nil
}

// ApplyTermination clears the tenancy entirely: tenant, rent listing, rent
// price, and the agreement. Any unwithdrawn balance is forfeited with the
// agreement, so callers withdraw first if they care.
func (a *Apartment) ApplyTermination(now time.Time) {
	a.Tenant = domain.AccountID("")
	a.ForRent = false
	a.RentPrice = 0
	a.Agreement = nil
	a.UpdatedAt = now
}

// WithdrawableBalance returns the escrowed rent available to the owner.
func (a *Apartment) WithdrawableBalance() domain.Amount {
	if a.Agreement == nil {
		return 0
	}
	return a.Agreement.Balance
}

// CanWithdraw checks there are escrowed funds to pay out.
func (a *Apartment) CanWithdraw() error {
	if a.WithdrawableBalance() == 0 {
		return dErrors.New(dErrors.CodeNoFunds, "no rent funds available to withdraw")
	}
	return nil
}

// ApplyWithdrawal zeroes the escrowed balance. Call after the ledger
// transfer succeeds so a failed payout leaves the balance intact.
func (a *Apartment) ApplyWithdrawal(now time.Time) {
	a.Agreement.Balance = 0
	a.UpdatedAt = now
}

// CanListForSale mirrors CanListForRent with the flags swapped.
func (a *Apartment) CanListForSale() error {
	if a.ForSale {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is already listed for sale")
	}
	if a.ForRent {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is listed for rent")
	}
	if a.Occupied() {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is occupied")
	}
	return nil
}

// ApplySaleListing marks the unit available for sale at the given price.
func (a *Apartment) ApplySaleListing(price domain.Amount, now time.Time) {
	a.ForSale = true
	a.SalePrice = price
	a.UpdatedAt = now
}

// CanUnlistForSale checks the unit is currently listed for sale.
func (a *Apartment) CanUnlistForSale() error {
	if !a.ForSale {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is not listed for sale")
	}
	return nil
}

// ApplySaleUnlisting clears the sale listing and resets the price.
func (a *Apartment) ApplySaleUnlisting(now time.Time) {
	a.ForSale = false
	a.SalePrice = 0
	a.UpdatedAt = now
}

// CanBuy checks the unit is listed for sale and the attached payment covers
// the asking price. Occupancy needs no check here: a listed unit is vacant
// by invariant.
func (a *Apartment) CanBuy(attached domain.Amount) error {
	if !a.ForSale {
		return dErrors.New(dErrors.CodeInvalidState, "apartment is not listed for sale")
	}
	if attached < a.SalePrice {
		return dErrors.New(dErrors.CodeInsufficientPayment, "attached amount is below the sale price")
	}
	return nil
}

// ApplySale reassigns ownership to the buyer and clears the sale listing.
// Call after the payout to the previous owner succeeds.
func (a *Apartment) ApplySale(buyer domain.AccountID, now time.Time) {
	a.Owner = buyer
	a.ForSale = false
	a.SalePrice = 0
	a.UpdatedAt = now
}

// MayOpenDoor reports whether the account currently holds physical access:
// the tenant while the unit is rented, otherwise the owner.
func (a *Apartment) MayOpenDoor(account domain.AccountID) bool {
	if a.RentedBy(account) {
		return true
	}
	return a.OwnedBy(account) && !a.Occupied()
}

// Clone returns a deep copy so stores can hand out records without aliasing
// their internal state.
func (a *Apartment) Clone() *Apartment {
	clone := *a
	if a.Agreement != nil {
		agreement := *a.Agreement
		clone.Agreement = &agreement
	}
	return &clone
}

// CheckInvariants verifies the structural invariants above. Stores run it
// after every mutation; a violation means a bug in a transition, not bad
// caller input.
func (a *Apartment) CheckInvariants() error {
	if !a.Number.Valid() {
		return dErrors.New(dErrors.CodeInvariantViolation, "apartment number must be positive")
	}
	if a.Owner.IsZero() {
		return dErrors.New(dErrors.CodeInvariantViolation, "apartment must have an owner")
	}
	if a.ForRent && a.ForSale {
		return dErrors.New(dErrors.CodeInvariantViolation, "apartment cannot be listed for rent and for sale")
	}
	if a.Occupied() && (a.ForRent || a.ForSale) {
		return dErrors.New(dErrors.CodeInvariantViolation, "occupied apartment cannot be listed")
	}
	if a.Occupied() != (a.Agreement != nil) {
		return dErrors.New(dErrors.CodeInvariantViolation, "rental agreement must exist exactly while a tenant is set")
	}
	if a.Agreement != nil && a.Agreement.Tenant != a.Tenant {
		return dErrors.New(dErrors.CodeInvariantViolation, "rental agreement tenant must match the apartment tenant")
	}
	return nil
}
