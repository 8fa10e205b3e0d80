package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/chrononote/internal/domain"
	"github.com/ashureev/chrononote/internal/identity"
)

// allowedExtensions lists the accepted upload file types.
var allowedExtensions = map[string]bool{
	".md":       true,
	".txt":      true,
	".markdown": true,
}

// uploadResponse is returned by Upload and Commit.
type uploadResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	WorksCount int    `json:"works_count"`
	SessionID  string `json:"session_id"`
}

type extractRequest struct {
	Text string `json:"text"`
}

type commitRequest struct {
	Works *[]commitWork `json:"works"`
}

// commitWork is a reviewed work as posted by the client. Year is a pointer
// so a missing year is rejected instead of stored as 0.
type commitWork struct {
	Title          string  `json:"title"`
	AuthorOrSource *string `json:"author_or_source"`
	Year           *int    `json:"year"`
}

// extractedWorks converts the request into works ready for storage.
func (req commitRequest) extractedWorks() ([]domain.ExtractedWork, error) {
	if req.Works == nil {
		return nil, domain.InvalidInputf("works is required")
	}
	out := make([]domain.ExtractedWork, 0, len(*req.Works))
	for i, w := range *req.Works {
		if w.Year == nil {
			return nil, domain.InvalidInputf("works[%d]: year is required", i)
		}
		out = append(out, domain.ExtractedWork{
			Title:          w.Title,
			AuthorOrSource: w.AuthorOrSource,
			Year:           *w.Year,
		})
	}
	return out, nil
}

// Upload extracts works from an uploaded notes file and stores them as the
// session's list.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	text, err := h.readUpload(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("Processing upload", "session_id", sessionID, "chars", len(text), "remote_ip", identity.IPFromRequest(r))

	works, err := h.svc.Upload(r.Context(), sessionID, text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, newUploadResponse(sessionID, len(works)))
}

// readUpload validates the multipart "file" field and returns its text.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize+maxBodyBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", domain.InvalidInputf("a file is required in the %q field", "file")
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedExtensions[ext] {
		return "", domain.InvalidInputf("invalid file type %q. Only .md, .txt and .markdown files are allowed", ext)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.uploadMaxSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > h.uploadMaxSize {
		return "", domain.InvalidInputf("file too large. Maximum size is %dKB", h.uploadMaxSize/1024)
	}
	if !utf8.Valid(data) {
		return "", domain.InvalidInputf("invalid file encoding. Please use UTF-8")
	}
	text := string(data)
	if strings.TrimSpace(text) == "" {
		return "", domain.InvalidInputf("file is empty")
	}
	return text, nil
}

// Extract returns the works found in the posted text without storing them.
func (h *Handler) Extract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if int64(len(req.Text)) > h.uploadMaxSize {
		Error(w, http.StatusBadRequest, fmt.Sprintf("text too large. Maximum size is %dKB", h.uploadMaxSize/1024))
		return
	}

	works, err := h.svc.Extract(r.Context(), req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if works == nil {
		works = []domain.ExtractedWork{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"works": works})
}

// Commit stores a reviewed list of works as the session's list.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())

	var req commitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	extracted, err := req.extractedWorks()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	works, err := h.svc.Commit(r.Context(), sessionID, extracted)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	JSON(w, http.StatusOK, newUploadResponse(sessionID, len(works)))
}

// Timeline returns the session's works in chronological order.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	works, err := h.svc.Timeline(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"works": works})
}

// Search runs a full-text query over the session's works.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	results, err := h.svc.Search(r.Context(), identity.SessionIDFromContext(r.Context()), query, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"query": query, "results": results})
}

// ClearSession deletes the session's stored works.
func (h *Handler) ClearSession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Clear(r.Context(), identity.SessionIDFromContext(r.Context())); err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func newUploadResponse(sessionID string, count int) uploadResponse {
	return uploadResponse{
		Success:    true,
		Message:    fmt.Sprintf("Successfully extracted %d historical references.", count),
		WorksCount: count,
		SessionID:  sessionID,
	}
}
