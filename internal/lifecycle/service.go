// Package lifecycle implements the apartment lifecycle state machine: the
// listing, rental, sale, termination, and withdrawal operations over
// registry records, with the authorization and monetary checks gating each
// transition.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"domus/internal/ledger"
	"domus/internal/notify"
	"domus/internal/platform/metrics"
	"domus/internal/registry"
	"domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/platform/sentinel"
	"domus/pkg/requestcontext"
)

// Service orchestrates every state transition. Each operation resolves the
// apartment, re-checks authorization against the caller identity from the
// context (never cached), applies the ordered preconditions, mutates
// atomically through the store's Execute, and emits a notification only on
// success.
type Service struct {
	apartments registry.Store
	funds      ledger.Ledger
	notifier   notify.Publisher
	events     notify.Store
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNotifier(publisher notify.Publisher) Option {
	return func(s *Service) {
		s.notifier = publisher
	}
}

// WithEventStore wires the sink that serves per-apartment notification
// history reads.
func WithEventStore(store notify.Store) Option {
	return func(s *Service) {
		s.events = store
	}
}

// New constructs a Service.
func New(apartments registry.Store, funds ledger.Ledger, opts ...Option) *Service {
	s := &Service{
		apartments: apartments,
		funds:      funds,
		notifier:   notify.Noop{},
		tracer:     otel.Tracer("domus/internal/lifecycle"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates the apartment record owned by the caller. Fails with
// CodeConflict when the number is already taken, leaving the existing
// record untouched.
func (s *Service) Register(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Register")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	apartment, err := registry.NewApartment(number, caller, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.apartments.Create(ctx, apartment); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "apartment number already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register apartment")
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindApartmentRegistered,
		Apartment: number,
		Actor:     caller,
	})
	if s.metrics != nil {
		s.metrics.ApartmentsRegistered.Inc()
	}
	return apartment, nil
}

// Get returns the apartment record.
func (s *Service) Get(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	apartment, err := s.apartments.FindByNumber(ctx, number)
	if err != nil {
		return nil, s.translate(err)
	}
	return apartment, nil
}

// ListForRent offers the unit for rent at the given price. Owner only; the
// unit must be idle.
func (s *Service) ListForRent(ctx context.Context, number domain.ApartmentNumber, price domain.Amount) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.ListForRent")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.OwnedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may list for rent")
			}
			return a.CanListForRent()
		},
		func(a *registry.Apartment) {
			a.ApplyRentListing(price, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindApartmentListedForRent,
		Apartment: number,
		Actor:     caller,
		Amount:    price,
	})
	return apartment, nil
}

// UnlistForRent withdraws the rent offer and resets the price.
func (s *Service) UnlistForRent(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.UnlistForRent")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.OwnedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may remove the rent listing")
			}
			return a.CanUnlistForRent()
		},
		func(a *registry.Apartment) {
			a.ApplyRentUnlisting(now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindRentListingRemoved,
		Apartment: number,
		Actor:     caller,
	})
	return apartment, nil
}

// Rent starts a tenancy for the caller. Any caller may rent a listed unit;
// the full attached amount, overpayment included, opens the escrowed
// agreement balance.
func (s *Service) Rent(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Rent")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			return a.CanRent(attached)
		},
		func(a *registry.Apartment) {
			a.ApplyRental(caller, attached, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindApartmentRented,
		Apartment: number,
		Actor:     caller,
		Amount:    attached,
	})
	if s.metrics != nil {
		s.metrics.RentalsStarted.Inc()
	}
	return apartment, nil
}

// PayRent accumulates the attached amount into the agreement balance.
// Tenant only.
func (s *Service) PayRent(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.PayRent")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.RentedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the current tenant may pay rent")
			}
			return a.CanPayRent(attached)
		},
		func(a *registry.Apartment) {
			a.ApplyRentPayment(attached, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindRentPaid,
		Apartment: number,
		Actor:     caller,
		Amount:    attached,
	})
	if s.metrics != nil {
		s.metrics.RentPayments.Inc()
	}
	return apartment, nil
}

// TerminateByOwner ends the tenancy at the owner's initiative. Any
// unwithdrawn agreement balance is forfeited with the agreement.
func (s *Service) TerminateByOwner(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.TerminateByOwner")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	return s.terminate(ctx, number, caller, func(a *registry.Apartment) error {
		if !a.OwnedBy(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the owner may terminate the rental")
		}
		return a.CanTerminate()
	})
}

// TerminateByTenant ends the tenancy at the tenant's initiative.
func (s *Service) TerminateByTenant(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.TerminateByTenant")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	return s.terminate(ctx, number, caller, func(a *registry.Apartment) error {
		if !a.RentedBy(caller) {
			return dErrors.New(dErrors.CodeUnauthorized, "only the current tenant may terminate the rental")
		}
		return nil
	})
}

func (s *Service) terminate(
	ctx context.Context,
	number domain.ApartmentNumber,
	caller domain.AccountID,
	authorize func(*registry.Apartment) error,
) (*registry.Apartment, error) {
	now := requestcontext.Now(ctx)
	apartment, err := s.apartments.Execute(ctx, number, authorize,
		func(a *registry.Apartment) {
			a.ApplyTermination(now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindRentalTerminated,
		Apartment: number,
		Actor:     caller,
	})
	if s.metrics != nil {
		s.metrics.RentalsTerminated.Inc()
	}
	return apartment, nil
}

// WithdrawRentFunds pays the full escrowed balance out to the owner. The
// ledger transfer runs inside the apartment's critical section, before the
// balance is zeroed, so a failed payout leaves the balance intact.
func (s *Service) WithdrawRentFunds(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.WithdrawRentFunds")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var withdrawn domain.Amount
	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.OwnedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may withdraw rent funds")
			}
			if err := a.CanWithdraw(); err != nil {
				return err
			}
			withdrawn = a.WithdrawableBalance()
			if err := s.funds.Transfer(ctx, caller, withdrawn); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTransferFailed, "rent payout failed")
			}
			return nil
		},
		func(a *registry.Apartment) {
			a.ApplyWithdrawal(now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:         notify.KindFundsWithdrawn,
		Apartment:    number,
		Actor:        caller,
		Counterparty: caller,
		Amount:       withdrawn,
	})
	if s.metrics != nil {
		s.metrics.FundsWithdrawals.Inc()
	}
	return apartment, nil
}

// ListForSale offers the unit for sale at the given price. Owner only; the
// unit must be idle.
func (s *Service) ListForSale(ctx context.Context, number domain.ApartmentNumber, price domain.Amount) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.ListForSale")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.OwnedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may list for sale")
			}
			return a.CanListForSale()
		},
		func(a *registry.Apartment) {
			a.ApplySaleListing(price, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindApartmentListedForSale,
		Apartment: number,
		Actor:     caller,
		Amount:    price,
	})
	return apartment, nil
}

// UnlistForSale withdraws the sale offer and resets the price.
func (s *Service) UnlistForSale(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.UnlistForSale")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if !a.OwnedBy(caller) {
				return dErrors.New(dErrors.CodeUnauthorized, "only the owner may remove the sale listing")
			}
			return a.CanUnlistForSale()
		},
		func(a *registry.Apartment) {
			a.ApplySaleUnlisting(now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:      notify.KindSaleListingRemoved,
		Apartment: number,
		Actor:     caller,
	})
	return apartment, nil
}

// Buy settles the sale and reassigns ownership to the caller. The full
// attached amount is delivered to the previous owner inside the critical
// section; if that settlement fails the sale does not happen and ownership
// is unchanged.
func (s *Service) Buy(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error) {
	ctx, span := s.tracer.Start(ctx, "lifecycle.Buy")
	defer span.End()

	caller, err := s.requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)

	var previousOwner domain.AccountID
	apartment, err := s.apartments.Execute(ctx, number,
		func(a *registry.Apartment) error {
			if err := a.CanBuy(attached); err != nil {
				return err
			}
			previousOwner = a.Owner
			if err := s.funds.Transfer(ctx, previousOwner, attached); err != nil {
				return dErrors.Wrap(err, dErrors.CodeTransferFailed, "sale settlement failed")
			}
			return nil
		},
		func(a *registry.Apartment) {
			a.ApplySale(caller, now)
		},
	)
	if err != nil {
		return nil, s.translate(err)
	}

	s.emit(ctx, notify.Event{
		Kind:         notify.KindApartmentSold,
		Apartment:    number,
		Actor:        caller,
		Counterparty: previousOwner,
		Amount:       attached,
	})
	if s.metrics != nil {
		s.metrics.SalesCompleted.Inc()
	}
	return apartment, nil
}

// CanOpenDoor reports whether the caller currently holds physical access to
// the unit. Pure query: no state change, no notification. The decision is
// computed fresh on every call so a terminated tenant loses access
// immediately.
func (s *Service) CanOpenDoor(ctx context.Context, number domain.ApartmentNumber) (bool, error) {
	caller, err := s.requireCaller(ctx)
	if err != nil {
		return false, err
	}
	apartment, err := s.apartments.FindByNumber(ctx, number)
	if err != nil {
		return false, s.translate(err)
	}
	return apartment.MayOpenDoor(caller), nil
}

// Events returns the notification history for one apartment.
func (s *Service) Events(ctx context.Context, number domain.ApartmentNumber) ([]notify.Event, error) {
	if _, err := s.apartments.FindByNumber(ctx, number); err != nil {
		return nil, s.translate(err)
	}
	if s.events == nil {
		return []notify.Event{}, nil
	}
	events, err := s.events.ListByApartment(ctx, number)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load events")
	}
	return events, nil
}

// RetainUnroutedPayment credits a payment attached to an unrecognized call
// to the system's general balance. Such calls are accepted without effect;
// the retained funds are not currently recoverable, which is a documented
// design concern rather than a feature.
func (s *Service) RetainUnroutedPayment(ctx context.Context, amount domain.Amount) error {
	if amount == 0 {
		return nil
	}
	if err := s.funds.Retain(ctx, amount); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to retain payment")
	}
	if s.logger != nil {
		s.logger.WarnContext(ctx, "payment retained on unrouted call",
			"amount", uint64(amount),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.UnroutedCalls.Inc()
	}
	return nil
}

func (s *Service) requireCaller(ctx context.Context) (domain.AccountID, error) {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() {
		return "", dErrors.New(dErrors.CodeUnauthorized, "caller identity required")
	}
	return caller, nil
}

// translate maps store sentinels to coded errors; coded errors from
// validate callbacks pass through untouched.
func (s *Service) translate(err error) error {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "apartment not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "apartment store failure")
}

// emit records the event in the history store, publishes the notification,
// and writes the audit log line. Called only after the operation committed;
// failures here never undo it. The history append is synchronous so reads
// see the event as soon as the operation returns; only external sinks sit
// behind the async publisher.
func (s *Service) emit(ctx context.Context, event notify.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = requestcontext.Now(ctx)
	if s.events != nil {
		if err := s.events.Append(ctx, event); err != nil && s.logger != nil {
			s.logger.WarnContext(ctx, "event history append failed",
				"kind", string(event.Kind),
				"apartment", event.Apartment.String(),
				"error", err.Error(),
			)
		}
	}
	_ = s.notifier.Emit(ctx, event)

	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event.Kind),
			"log_type", "audit",
			"event", string(event.Kind),
			"apartment", event.Apartment.String(),
			"actor", event.Actor.String(),
			"amount", uint64(event.Amount),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}
