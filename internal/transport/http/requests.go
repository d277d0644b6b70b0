package httptransport

import (
	"time"

	"domus/internal/notify"
	"domus/internal/registry"
)

type registerRequest struct {
	ApartmentNumber int64 `json:"apartment_number"`
}

type priceRequest struct {
	Price uint64 `json:"price"`
}

type paymentRequest struct {
	Amount uint64 `json:"amount"`
}

type agreementResponse struct {
	Tenant    string    `json:"tenant"`
	Balance   uint64    `json:"balance"`
	StartedAt time.Time `json:"started_at"`
}

type apartmentResponse struct {
	Number    int64              `json:"number"`
	Owner     string             `json:"owner"`
	ForRent   bool               `json:"for_rent"`
	ForSale   bool               `json:"for_sale"`
	RentPrice uint64             `json:"rent_price"`
	SalePrice uint64             `json:"sale_price"`
	Tenant    string             `json:"tenant,omitempty"`
	Agreement *agreementResponse `json:"agreement,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type doorAccessResponse struct {
	Allowed bool `json:"allowed"`
}

type eventsResponse struct {
	Events []notify.Event `json:"events"`
}

func toApartmentResponse(a *registry.Apartment) apartmentResponse {
	resp := apartmentResponse{
		Number:    int64(a.Number),
		Owner:     a.Owner.String(),
		ForRent:   a.ForRent,
		ForSale:   a.ForSale,
		RentPrice: uint64(a.RentPrice),
		SalePrice: uint64(a.SalePrice),
		Tenant:    a.Tenant.String(),
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if a.Agreement != nil {
		resp.Agreement = &agreementResponse{
			Tenant:    a.Agreement.Tenant.String(),
			Balance:   uint64(a.Agreement.Balance),
			StartedAt: a.Agreement.StartedAt,
		}
	}
	return resp
}
