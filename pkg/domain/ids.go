// Package domain holds the identifier and amount types shared across the
// module. Keeping them in one small package lets stores, services, and
// transport agree on types without importing each other.
package domain

import "strconv"

// ApartmentNumber identifies one building unit. It is chosen by the
// registrant at registration time, must be positive, and is immutable for
// the lifetime of the record.
type ApartmentNumber int64

// Valid reports whether the number is usable as a registry key.
func (n ApartmentNumber) Valid() bool {
	return n > 0
}

func (n ApartmentNumber) String() string {
	return strconv.FormatInt(int64(n), 10)
}

// AccountID is the opaque caller identity supplied by the external identity
// substrate. It doubles as the payout destination for ledger transfers. The
// zero value means "no account" (for example, a vacant unit's tenant).
type AccountID string

// IsZero reports whether the account is unset.
func (a AccountID) IsZero() bool {
	return a == ""
}

func (a AccountID) String() string {
	return string(a)
}

// Amount is a quantity of the single supported currency's smallest unit.
// The type is unsigned so negative balances are unrepresentable.
type Amount uint64
