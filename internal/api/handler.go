// Package api provides HTTP handlers for the ChronoNote API.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ashureev/chrononote/internal/domain"
	"github.com/ashureev/chrononote/internal/timeline"
	"github.com/go-chi/chi/v5"
)

// Version is reported by the root banner.
const Version = "1.0.0"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// DefaultUploadMaxSize is used when NewHandler is given a non-positive limit.
const DefaultUploadMaxSize = 50 * 1024

// Handler provides the ChronoNote endpoints.
type Handler struct {
	svc           *timeline.Service
	uploadMaxSize int64
}

// NewHandler creates a new Handler. uploadMaxSize is the largest accepted
// upload in bytes.
func NewHandler(svc *timeline.Service, uploadMaxSize int64) *Handler {
	if uploadMaxSize <= 0 {
		uploadMaxSize = DefaultUploadMaxSize
	}
	return &Handler{svc: svc, uploadMaxSize: uploadMaxSize}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", h.Upload)
		r.Post("/extract", h.Extract)
		r.Post("/commit", h.Commit)
		r.Get("/timeline", h.Timeline)
		r.Get("/chrono-test", h.ChronologyTest)
		r.Post("/chrono-check", h.CheckOrder)
		r.Get("/date-quiz/next", h.NextQuestion)
		r.Post("/date-quiz/check", h.CheckAnswer)
		r.Get("/works/search", h.Search)
		r.Delete("/session", h.ClearSession)
	})
}

// Root returns the API banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]string{
		"name":    "ChronoNote API",
		"version": Version,
		"status":  "running",
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps domain errors onto HTTP statuses. Unclassified
// errors are logged in full and reported with a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNoWorks):
		Error(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, timeline.ErrExtractionUnavailable):
		Error(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("Request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON reads a size-capped JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return domain.InvalidInputf("request body exceeds %d bytes", maxErr.Limit)
		}
		return domain.InvalidInputf("invalid JSON body: %v", err)
	}
	return nil
}
