package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/ab"
	"github.com/nikhilbhutani/prompthub/internal/auth"
)

type ABHandler struct {
	svc *ab.Service
}

func NewABHandler(svc *ab.Service) *ABHandler {
	return &ABHandler{svc: svc}
}

func (h *ABHandler) SetPolicy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PromptName string          `json:"prompt_name"`
		Weights    map[int]float64 `json:"weights"`
		IsPublic   bool            `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.svc.SetPolicy(r.Context(), auth.UserIDFromContext(r.Context()), req.PromptName, req.Weights, req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ABHandler) ListPolicies(w http.ResponseWriter, r *http.Request) {
	includePublic := r.URL.Query().Get("include_public") != "false"

	policies, err := h.svc.ListPolicies(r.Context(), auth.UserIDFromContext(r.Context()), includePublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"policies": policies, "count": len(policies)})
}

func (h *ABHandler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetPolicy(r.Context(), chi.URLParam(r, "prompt_name"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ABHandler) DeletePolicy(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid policy ID"})
		return
	}

	deleted, err := h.svc.DeletePolicy(r.Context(), id, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": deleted})
}

func (h *ABHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExperimentName string `json:"experiment_name"`
		PromptName     string `json:"prompt_name"`
		UserID         string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	version, err := h.svc.Assign(r.Context(), auth.UserIDFromContext(r.Context()), req.ExperimentName, req.PromptName, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"experiment_name": req.ExperimentName,
		"prompt_name":     req.PromptName,
		"user_id":         req.UserID,
		"version":         version,
	})
}

func (h *ABHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
