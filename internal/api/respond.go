package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/DamianAcri/menulink-sub001/internal/domain"
	"github.com/DamianAcri/menulink-sub001/internal/store"
)

const maxBodyBytes = 1 << 20

// errUnauthorized is mapped to 401.
var errUnauthorized = errors.New("unauthorized")

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func errorBody(code, message string) map[string]errorPayload {
	return map[string]errorPayload{"error": {Code: code, Message: message}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to a status code and error code. Unknown errors are
// logged and reported as a generic 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		te *domain.TransitionError
		oe *store.OverlapError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody("validation_error", ve.Error()))
	case errors.Is(err, errUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "missing or invalid credentials"))
	case errors.As(err, &te):
		writeJSON(w, http.StatusConflict, errorBody("invalid_transition", te.Error()))
	case errors.As(err, &oe):
		writeJSON(w, http.StatusConflict, errorBody("shift_overlap", oe.Error()))
	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not_found", "not found"))
	case errors.Is(err, store.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("conflict", "the resource was changed or already exists"))
	default:
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
	}
}

// decodeJSON reads a JSON body into v. Unknown fields are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// queryTime parses an optional RFC 3339 query parameter.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: name, Message: "must be an RFC 3339 timestamp"}
	}
	return t.UTC(), nil
}
