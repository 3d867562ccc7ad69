package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/louisbranch/outreach/internal/platform/errors"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     apperrors.Code    `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	detail := errorDetail{Code: code, Message: err.Error()}
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		detail.Message = domainErr.Message
		detail.Metadata = domainErr.Metadata
	}
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		detail.Message = "internal error"
		detail.Metadata = nil
	}
	writeJSON(w, status, errorBody{Error: detail})
}

func invalidRequest(format string, args ...any) error {
	return apperrors.New(apperrors.CodeInvalidRequest, fmt.Sprintf(format, args...))
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return invalidRequest("decode request body: %v", err)
	}
	return nil
}

// parseTime requires an RFC 3339 timestamp.
func parseTime(name, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, invalidRequest("%s is required", name)
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, invalidRequest("%s must be an RFC 3339 timestamp", name)
	}
	return t.UTC(), nil
}
