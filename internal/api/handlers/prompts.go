package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nikhilbhutani/prompthub/internal/auth"
	"github.com/nikhilbhutani/prompthub/internal/prompt"
)

type PromptHandler struct {
	svc *prompt.Service
}

func NewPromptHandler(svc *prompt.Service) *PromptHandler {
	return &PromptHandler{svc: svc}
}

func (h *PromptHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req prompt.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Create(r.Context(), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	opts := prompt.ListOptions{
		Query:      q.Get("q"),
		CreatedBy:  q.Get("created_by"),
		LatestOnly: q.Get("latest_only") == "true",
		SortBy:     q.Get("sort_by"),
		Order:      q.Get("order"),
		Limit:      limit,
		Offset:     offset,
	}
	if v := q.Get("active"); v != "" {
		active := v == "true"
		opts.Active = &active
	}

	items, hasNext, err := h.svc.List(r.Context(), auth.UserIDFromContext(r.Context()), opts)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"count":    len(items),
		"offset":   offset,
		"has_next": hasNext,
	})
}

func (h *PromptHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetActive(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req prompt.UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Delete(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *PromptHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, hasNext, err := h.svc.ListVersions(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"count":    len(items),
		"offset":   offset,
		"has_next": hasNext,
	})
}

func (h *PromptHandler) GetVersion(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid version number"})
		return
	}

	p, err := h.svc.GetVersion(r.Context(), chi.URLParam(r, "name"), version, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid version number"})
		return
	}

	p, err := h.svc.Rollback(r.Context(), chi.URLParam(r, "name"), version, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *PromptHandler) Diff(w http.ResponseWriter, r *http.Request) {
	from, err := strconv.Atoi(r.URL.Query().Get("from"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'from' version"})
		return
	}
	to, err := strconv.Atoi(r.URL.Query().Get("to"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid 'to' version"})
		return
	}

	d, err := h.svc.DiffVersions(r.Context(), chi.URLParam(r, "name"), from, to, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *PromptHandler) Render(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Version   int               `json:"version,omitempty"` // 0 = active
		Variables map[string]string `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	rendered, err := h.svc.Preview(r.Context(), chi.URLParam(r, "name"), req.Version, req.Variables, auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"rendered": rendered})
}

func (h *PromptHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsPublic bool `json:"is_public"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.svc.SetVisibility(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()), req.IsPublic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PromptHandler) Clone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	p, err := h.svc.Clone(r.Context(), chi.URLParam(r, "name"), auth.UserIDFromContext(r.Context()), req.NewName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}
