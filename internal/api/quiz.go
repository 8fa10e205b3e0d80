package api

import (
	"net/http"

	"github.com/ashureev/chrononote/internal/identity"
)

type checkOrderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

type checkAnswerRequest struct {
	WorkID       string `json:"work_id"`
	SelectedYear *int   `json:"selected_year"`
}

// ChronologyTest returns a shuffled sample of the session's works without years.
func (h *Handler) ChronologyTest(w http.ResponseWriter, r *http.Request) {
	works, err := h.svc.ChronologyTest(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"works": works})
}

// CheckOrder verifies a proposed chronological order.
func (h *Handler) CheckOrder(w http.ResponseWriter, r *http.Request) {
	var req checkOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	result, err := h.svc.CheckOrder(r.Context(), identity.SessionIDFromContext(r.Context()), req.OrderedIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}

// NextQuestion returns a date-quiz question.
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.NextQuestion(r.Context(), identity.SessionIDFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, q)
}

// CheckAnswer verifies a date-quiz answer.
func (h *Handler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req checkAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if req.WorkID == "" || req.SelectedYear == nil {
		Error(w, http.StatusBadRequest, "work_id and selected_year are required")
		return
	}

	result, err := h.svc.CheckAnswer(r.Context(), identity.SessionIDFromContext(r.Context()), req.WorkID, *req.SelectedYear)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	JSON(w, http.StatusOK, result)
}
