// Package ledger abstracts the value-transfer primitive the lifecycle
// service settles against. The real money movement (chain, bank, PSP) lives
// outside this module; the service only needs "move amount to account" and
// "retain amount in the general balance", both of which may fail and must
// abort the triggering operation when they do.
package ledger

import (
	"context"

	"domus/pkg/domain"
)

//go:generate mockgen -source=ledger.go -destination=mocks/mocks.go -package=mocks

// Ledger is the outbound settlement port.
type Ledger interface {
	// Transfer delivers amount to the account. An error means nothing was
	// delivered; the caller must roll back the operation that triggered it.
	Transfer(ctx context.Context, to domain.AccountID, amount domain.Amount) error

	// Retain credits amount to the system's general balance. Used for
	// payments attached to unrouted calls, which are accepted but not
	// attributable to any apartment.
	Retain(ctx context.Context, amount domain.Amount) error
}
