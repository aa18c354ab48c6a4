package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	middleware "clauselens/internal/api/middlewares"
	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/render"
)

const (
	themePref    = "theme"
	defaultTheme = "dark"
)

// PrefsHandler serves the small durable UI state: theme preference,
// checklist completion flags and the chat language catalog.
type PrefsHandler struct {
	db core.DbClient
}

func NewPrefsHandler(db core.DbClient) *PrefsHandler {
	return &PrefsHandler{db: db}
}

func (h *PrefsHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	theme, err := h.db.GetPreference(r.Context(), userID, themePref)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if theme == "" {
		theme = defaultTheme
	}
	writeJSON(w, map[string]string{"theme": theme})
}

func (h *PrefsHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Theme string `json:"theme"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if req.Theme != "light" && req.Theme != "dark" {
		http.Error(w, `theme must be "light" or "dark"`, http.StatusBadRequest)
		return
	}

	if err := h.db.SetPreference(r.Context(), userID, themePref, req.Theme); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"theme": req.Theme})
}

// GetChecklist returns the persisted completion flags for one file.
func (h *PrefsHandler) GetChecklist(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	fileName := r.URL.Query().Get("file_name")
	if fileName == "" {
		http.Error(w, "file_name required", http.StatusBadRequest)
		return
	}

	items, err := h.db.GetChecklistItems(r.Context(), userID, render.ChecklistPrefix(fileName))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.ChecklistItem{}
	}
	writeJSON(w, items)
}

type toggleRequest struct {
	FileName string `json:"file_name"`
	Index    int    `json:"index"`
	Done     bool   `json:"done"`
}

// ToggleChecklist re-persists one item's completion flag.
func (h *PrefsHandler) ToggleChecklist(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.FileName) == "" || req.Index < 0 {
		http.Error(w, "file_name and non-negative index required", http.StatusBadRequest)
		return
	}

	item := &models.ChecklistItem{
		UserID: userID,
		Key:    render.ChecklistKey(req.FileName, req.Index),
		Done:   req.Done,
	}
	if err := h.db.SetChecklistItem(r.Context(), item); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, item)
}

// Languages returns the Q&A language catalog, optionally filtered by a
// case-insensitive substring query.
func (h *PrefsHandler) Languages(w http.ResponseWriter, r *http.Request) {
	langs := render.FilterLanguages(r.URL.Query().Get("q"))
	if langs == nil {
		langs = []string{}
	}
	writeJSON(w, map[string]any{
		"default":   render.DefaultLanguage,
		"languages": langs,
	})
}
