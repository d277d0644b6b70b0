package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "domus/pkg/domain-errors"
	"domus/pkg/requestcontext"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to encode response", "error", err.Error())
	}
}

// writeError maps coded errors to status codes. Unclassified errors become
// opaque 500s so internals never leak to callers.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := dErrors.CodeOf(err)
	message := "internal server error"
	var de *dErrors.Error
	if errors.As(err, &de) && code != dErrors.CodeInternal {
		message = de.Message()
	}

	status := dErrors.HTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path,
			"error", err.Error(),
			"request_id", requestcontext.RequestID(r.Context()),
		)
	}

	h.writeJSON(w, status, errorResponse{Error: string(code), Message: message})
}
