package ledger

import (
	"context"
	"fmt"
	"sync"

	"domus/pkg/domain"
	"domus/pkg/platform/sentinel"
)

// InMemory tracks per-account balances in process memory. Deployments wire
// a real settlement adapter here; tests and the default configuration use
// this one and read balances back through Balance.
type InMemory struct {
	mu       sync.RWMutex
	balances map[domain.AccountID]domain.Amount
	general  domain.Amount

	// rejected marks accounts whose transfers fail, simulating an
	// undeliverable payout.
	rejected map[domain.AccountID]bool
}

func NewInMemory() *InMemory {
	return &InMemory{
		balances: make(map[domain.AccountID]domain.Amount),
		rejected: make(map[domain.AccountID]bool),
	}
}

func (l *InMemory) Transfer(_ context.Context, to domain.AccountID, amount domain.Amount) error {
	if to.IsZero() {
		return fmt.Errorf("transfer destination is required: %w", sentinel.ErrInvalidState)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.rejected[to] {
		return fmt.Errorf("account %s rejects transfers: %w", to, sentinel.ErrUnavailable)
	}
	l.balances[to] += amount
	return nil
}

func (l *InMemory) Retain(_ context.Context, amount domain.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.general += amount
	return nil
}

// Balance returns the delivered total for an account.
func (l *InMemory) Balance(account domain.AccountID) domain.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[account]
}

// GeneralBalance returns the total retained from unrouted calls.
func (l *InMemory) GeneralBalance() domain.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.general
}

// RejectTransfersTo makes future transfers to the account fail. Tests use
// this to exercise rollback on settlement failure.
func (l *InMemory) RejectTransfersTo(account domain.AccountID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected[account] = true
}
