// Package httptransport exposes the lifecycle operations over HTTP. Caller
// identity arrives as a bearer token resolved by the auth middleware;
// attached payments arrive as an amount field in the request body.
package httptransport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"domus/internal/notify"
	"domus/internal/registry"
	"domus/pkg/domain"
	dErrors "domus/pkg/domain-errors"
	"domus/pkg/requestcontext"
)

// Service defines the lifecycle operations the handler dispatches to.
type Service interface {
	Register(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	Get(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	ListForRent(ctx context.Context, number domain.ApartmentNumber, price domain.Amount) (*registry.Apartment, error)
	UnlistForRent(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	Rent(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error)
	PayRent(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error)
	TerminateByOwner(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	TerminateByTenant(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	WithdrawRentFunds(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	ListForSale(ctx context.Context, number domain.ApartmentNumber, price domain.Amount) (*registry.Apartment, error)
	UnlistForSale(ctx context.Context, number domain.ApartmentNumber) (*registry.Apartment, error)
	Buy(ctx context.Context, number domain.ApartmentNumber, attached domain.Amount) (*registry.Apartment, error)
	CanOpenDoor(ctx context.Context, number domain.ApartmentNumber) (bool, error)
	Events(ctx context.Context, number domain.ApartmentNumber) ([]notify.Event, error)
	RetainUnroutedPayment(ctx context.Context, amount domain.Amount) error
}

// Handler handles apartment lifecycle endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register registers the apartment routes. The caller is expected to have
// wrapped the router in the auth middleware already.
func (h *Handler) Register(r chi.Router) {
	r.Post("/apartments", h.handleRegister)
	r.Get("/apartments/{number}", h.handleGet)
	r.Post("/apartments/{number}/rent-listing", h.handleListForRent)
	r.Delete("/apartments/{number}/rent-listing", h.handleUnlistForRent)
	r.Post("/apartments/{number}/rental", h.handleRent)
	r.Post("/apartments/{number}/rental/payments", h.handlePayRent)
	r.Delete("/apartments/{number}/rental", h.handleTerminate)
	r.Post("/apartments/{number}/rental/withdrawal", h.handleWithdraw)
	r.Post("/apartments/{number}/sale-listing", h.handleListForSale)
	r.Delete("/apartments/{number}/sale-listing", h.handleUnlistForSale)
	r.Post("/apartments/{number}/purchase", h.handleBuy)
	r.Get("/apartments/{number}/door-access", h.handleDoorAccess)
	r.Get("/apartments/{number}/events", h.handleEvents)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	apartment, err := h.service.Register(r.Context(), domain.ApartmentNumber(req.ApartmentNumber))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toApartmentResponse(apartment))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apartment, err := h.service.Get(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toApartmentResponse(apartment))
}

func (h *Handler) handleListForRent(w http.ResponseWriter, r *http.Request) {
	h.priceOperation(w, r, h.service.ListForRent)
}

func (h *Handler) handleUnlistForRent(w http.ResponseWriter, r *http.Request) {
	h.plainOperation(w, r, h.service.UnlistForRent)
}

func (h *Handler) handleRent(w http.ResponseWriter, r *http.Request) {
	h.paymentOperation(w, r, h.service.Rent)
}

func (h *Handler) handlePayRent(w http.ResponseWriter, r *http.Request) {
	h.paymentOperation(w, r, h.service.PayRent)
}

// handleTerminate dispatches to the owner or tenant termination path based
// on who the caller is. Authorization is re-checked inside the service
// either way.
func (h *Handler) handleTerminate(w http.ResponseWriter, r *http.Request) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	current, err := h.service.Get(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	terminate := h.service.TerminateByTenant
	if current.OwnedBy(requestcontext.Caller(r.Context())) {
		terminate = h.service.TerminateByOwner
	}
	apartment, err := terminate(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toApartmentResponse(apartment))
}

func (h *Handler) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	h.plainOperation(w, r, h.service.WithdrawRentFunds)
}

func (h *Handler) handleListForSale(w http.ResponseWriter, r *http.Request) {
	h.priceOperation(w, r, h.service.ListForSale)
}

func (h *Handler) handleUnlistForSale(w http.ResponseWriter, r *http.Request) {
	h.plainOperation(w, r, h.service.UnlistForSale)
}

func (h *Handler) handleBuy(w http.ResponseWriter, r *http.Request) {
	h.paymentOperation(w, r, h.service.Buy)
}

func (h *Handler) handleDoorAccess(w http.ResponseWriter, r *http.Request) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	allowed, err := h.service.CanOpenDoor(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, doorAccessResponse{Allowed: allowed})
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	events, err := h.service.Events(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, eventsResponse{Events: events})
}

// HandleUnknown is the permissive fallback for unrouted calls: accept
// without effect, retaining any attached payment in the general balance.
func (h *Handler) HandleUnknown(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	// A missing or malformed body means no payment was attached.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if err := h.service.RetainUnroutedPayment(r.Context(), domain.Amount(req.Amount)); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// priceOperation handles owner listing endpoints taking a price body.
func (h *Handler) priceOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, domain.ApartmentNumber, domain.Amount) (*registry.Apartment, error),
) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req priceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	apartment, err := op(r.Context(), number, domain.Amount(req.Price))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toApartmentResponse(apartment))
}

// paymentOperation handles endpoints carrying an attached payment amount.
func (h *Handler) paymentOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, domain.ApartmentNumber, domain.Amount) (*registry.Apartment, error),
) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	apartment, err := op(r.Context(), number, domain.Amount(req.Amount))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toApartmentResponse(apartment))
}

// plainOperation handles endpoints with no request body.
func (h *Handler) plainOperation(
	w http.ResponseWriter,
	r *http.Request,
	op func(context.Context, domain.ApartmentNumber) (*registry.Apartment, error),
) {
	number, err := apartmentNumber(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	apartment, err := op(r.Context(), number)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toApartmentResponse(apartment))
}

func apartmentNumber(r *http.Request) (domain.ApartmentNumber, error) {
	raw := chi.URLParam(r, "number")
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "apartment number must be a positive integer")
	}
	return domain.ApartmentNumber(parsed), nil
}
