package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/nikhilbhutani/prompthub/internal/auth"
	"github.com/nikhilbhutani/prompthub/internal/testcase"
)

type TestCaseHandler struct {
	svc *testcase.Service
}

func NewTestCaseHandler(svc *testcase.Service) *TestCaseHandler {
	return &TestCaseHandler{svc: svc}
}

func (h *TestCaseHandler) List(w http.ResponseWriter, r *http.Request) {
	cases, err := h.svc.List(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"test_cases": cases, "count": len(cases)})
}

func (h *TestCaseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req testcase.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tc, err := h.svc.Create(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tc)
}

func (h *TestCaseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid test case ID"})
		return
	}

	var req testcase.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	tc, err := h.svc.Update(r.Context(), id, auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tc)
}

func (h *TestCaseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid test case ID"})
		return
	}

	if err := h.svc.Delete(r.Context(), id, auth.UserIDFromContext(r.Context())); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
