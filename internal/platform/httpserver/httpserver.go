// Package httpserver builds the module's http.Server with timeouts derived
// from the configured request budget.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server whose write timeout leaves headroom above the
// per-request timeout enforced by the middleware chain, so the middleware
// deadline fires first and the client gets a proper error response instead
// of a dropped connection.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       requestTimeout,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
