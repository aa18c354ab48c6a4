package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	middleware "clauselens/internal/api/middlewares"
	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/render"
	"clauselens/internal/services"
)

type HistoryHandler struct {
	history *services.HistoryService
	db      core.DbClient
	log     *zap.SugaredLogger
}

func NewHistoryHandler(history *services.HistoryService, db core.DbClient, log *zap.SugaredLogger) *HistoryHandler {
	return &HistoryHandler{history: history, db: db, log: log}
}

// List returns the user's records, newest first.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.history.List(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.HistoryRecord{}
	}
	writeJSON(w, records)
}

type reportResponse struct {
	Record models.HistoryRecord `json:"record"`
	Report render.Report        `json:"report"`
	HTML   string               `json:"html,omitempty"`
}

// Get re-renders a past report from its stored analysis.
func (h *HistoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	rec, err := h.history.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if rec == nil {
		http.Error(w, "record not found", http.StatusNotFound)
		return
	}

	var result models.AnalysisResult
	if err := json.Unmarshal([]byte(rec.Analysis), &result); err != nil {
		h.log.Errorw("stored analysis is corrupt", "record", rec.ID, "error", err)
		http.Error(w, "stored analysis unreadable", http.StatusInternalServerError)
		return
	}

	state := map[string]bool{}
	items, err := h.db.GetChecklistItems(r.Context(), userID, render.ChecklistPrefix(rec.FileName))
	if err != nil {
		h.log.Warnw("checklist state unavailable", "user", userID, "error", err)
	} else {
		for _, it := range items {
			state[it.Key] = it.Done
		}
	}

	report := render.BuildReport(rec.FileName, &result, state)
	html, rerr := render.HTML(report)
	if rerr != nil {
		h.log.Errorw("report render failed", "record", rec.ID, "error", rerr)
	}

	writeJSON(w, reportResponse{Record: *rec, Report: report, HTML: html})
}

// Stream pushes the full, sorted record set as a server-sent event on every
// history change. One subscription per stream; it is torn down when the
// client disconnects.
func (h *HistoryHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	snapshots := make(chan []models.HistoryRecord, 4)
	unsubscribe := h.history.Subscribe(r.Context(), userID, func(records []models.HistoryRecord) {
		select {
		case snapshots <- records:
		default:
			// slow consumer; the next snapshot carries the full state anyway
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case records := <-snapshots:
			payload, err := json.Marshal(records)
			if err != nil {
				h.log.Errorw("snapshot marshal failed", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
