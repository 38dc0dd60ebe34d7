package main

import (
	"encoding/json"
	"errors"
	"html"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/icco/gobang"
	"go.uber.org/zap"
)

var errMissingToken = errors.New("missing or invalid authorization header")

// maxBodyBytes caps a request body. Move histories and analysis reports are
// the largest payloads.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error      string              `json:"error" example:"invalid user: username must not be empty"`
	Violations []*gobang.Violation `json:"violations,omitempty"`
}

// HealthResponse is returned by /healthz.
type HealthResponse struct {
	Healthy  string `json:"healthy" example:"true"`
	Revision string `json:"revision"`
	Tag      string `json:"tag"`
	Branch   string `json:"branch"`
}

// CountResponse reports how many rows an operation touched.
type CountResponse struct {
	Count int64 `json:"count" example:"3"`
}

func renderJSON(w http.ResponseWriter, code int, v interface{}) {
	if err := Renderer.JSON(w, code, v); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// renderError maps the store's error taxonomy onto status codes.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *gobang.ValidationError
		fk *gobang.ForeignKeyError
		nf *gobang.NotFoundError
		se *gobang.StateError
		ce *gobang.ConflictError
	)

	switch {
	case errors.As(err, &ve):
		renderJSON(w, http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Violations: ve.Violations})
	case errors.As(err, &fk):
		renderJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: fk.Error()})
	case errors.As(err, &nf):
		renderJSON(w, http.StatusNotFound, ErrorResponse{Error: nf.Error()})
	case errors.As(err, &se):
		renderJSON(w, http.StatusConflict, ErrorResponse{Error: se.Error()})
	case errors.As(err, &ce):
		w.Header().Set("Retry-After", "1")
		renderJSON(w, http.StatusConflict, ErrorResponse{Error: ce.Error()})
	default:
		log.Errorw("request failed", "method", r.Method, "path", r.URL.Path, zap.Error(err))
		renderJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}

func forbidden(w http.ResponseWriter, msg string) {
	renderJSON(w, http.StatusForbidden, ErrorResponse{Error: msg})
}

// decode reads a JSON body into v. An empty body leaves v alone.
func decode(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return gobang.Invalid("request", "body", "must not exceed %d bytes", tooBig.Limit)
		}
		return gobang.Invalid("request", "body", "is not valid JSON: %v", err)
	}
	return nil
}

// cleanText strips markup from user supplied text that gets stored. Entities
// the sanitizer adds are decoded again so "&" is kept as typed.
func cleanText(s string) string {
	return html.UnescapeString(ugcPolicy.Sanitize(s))
}

// idParam parses a numeric URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	raw := ugcPolicy.Sanitize(chi.URLParam(r, name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, gobang.Invalid("request", name, "must be a positive number, got %q", raw)
	}
	return id, nil
}

// queryInt parses an optional numeric query parameter.
func queryInt(r *http.Request, name string) (int64, error) {
	raw := ugcPolicy.Sanitize(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, gobang.Invalid("request", name, "must be a non-negative number, got %q", raw)
	}
	return n, nil
}
