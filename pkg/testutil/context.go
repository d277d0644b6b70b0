package testutil

import (
	"net/http"
	"time"

	"domus/pkg/domain"
	"domus/pkg/requestcontext"
)

// WithCaller adds a caller account to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithCaller(req *http.Request, account domain.AccountID) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), account))
}

// WithTime pins the request-scoped time, so handler tests get deterministic
// timestamps.
func WithTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}
