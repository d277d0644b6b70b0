// Package notify carries state-change notifications to external observers.
// Events are emitted from domain logic after a successful transition and
// fan out to sinks (in-process store, Kafka, Redis stream). Delivery to
// external sinks is fire-and-forget: a sink failure is logged, never
// surfaced to the caller whose operation already committed.
package notify

import (
	"time"

	"domus/pkg/domain"
)

// Kind names one state change. One kind per lifecycle transition.
type Kind string

const (
	KindApartmentRegistered    Kind = "apartment_registered"
	KindApartmentListedForRent Kind = "apartment_listed_for_rent"
	KindRentListingRemoved     Kind = "rent_listing_removed"
	KindApartmentRented        Kind = "apartment_rented"
	KindRentPaid               Kind = "rent_paid"
	KindRentalTerminated       Kind = "rental_terminated"
	KindFundsWithdrawn         Kind = "funds_withdrawn"
	KindApartmentListedForSale Kind = "apartment_listed_for_sale"
	KindSaleListingRemoved     Kind = "sale_listing_removed"
	KindApartmentSold          Kind = "apartment_sold"
)

// Event is one state-change notification. Keep it transport-agnostic so
// stores and sinks can fan out without conversion.
type Event struct {
	ID        string                 `json:"id"`
	Kind      Kind                   `json:"kind"`
	Apartment domain.ApartmentNumber `json:"apartment"`
	// Actor is the identity that triggered the transition.
	Actor domain.AccountID `json:"actor,omitempty"`
	// Counterparty is the other identity involved, when there is one: the
	// previous owner on a sale, the payout recipient on a withdrawal.
	Counterparty domain.AccountID `json:"counterparty,omitempty"`
	// Amount is the payment or payout the transition carried, zero for
	// transitions without one.
	Amount    domain.Amount `json:"amount,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
