package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"domus/pkg/domain"
	"domus/pkg/requestcontext"
)

// CallerValidator resolves a bearer token into a caller account. The
// identity substrate is external to this system; the token implementation
// lives in internal/platform/token.
type CallerValidator interface {
	Validate(token string) (domain.AccountID, error)
}

// RequireAuth rejects requests without a valid bearer token and injects the
// caller account into the request context. Identity is re-resolved on every
// call; nothing downstream caches who the caller is.
func RequireAuth(validator CallerValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				http.Error(w, `{"error":"unauthorized","message":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			caller, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(r.Context(), "token validation failed",
					"request_id", requestcontext.RequestID(r.Context()),
					"error", err.Error(),
				)
				http.Error(w, `{"error":"unauthorized","message":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
