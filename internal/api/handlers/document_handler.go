package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	middleware "clauselens/internal/api/middlewares"
	"clauselens/internal/config"
	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/render"
	"clauselens/internal/services"
)

type DocumentHandler struct {
	analysis *services.AnalysisService
	cfg      *config.Config
	log      *zap.SugaredLogger
}

func NewDocumentHandler(analysis *services.AnalysisService, cfg *config.Config, log *zap.SugaredLogger) *DocumentHandler {
	return &DocumentHandler{analysis: analysis, cfg: cfg, log: log}
}

type analyzeResponse struct {
	RecordID string        `json:"record_id,omitempty"`
	State    string        `json:"state"`
	Report   render.Report `json:"report"`
	HTML     string        `json:"html,omitempty"`
}

// AnalyzeDocument runs the upload pipeline: multipart file plus a
// document_type field chosen before upload. The rendered report comes back
// in the response; history persistence is detached and not awaited.
func (h *DocumentHandler) AnalyzeDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}

	docType := models.ParseDocumentType(r.FormValue("document_type"))

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "invalid file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.cfg.MaxUploadBytes+1))
	if err != nil {
		http.Error(w, "read file", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > h.cfg.MaxUploadBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	// Sanitize the filename to drop any path components.
	fileName := filepath.Base(header.Filename)

	run, err := h.analysis.Analyze(r.Context(), services.UploadInput{
		UserID:       userID,
		FileName:     fileName,
		ContentType:  contentType,
		DocumentType: docType,
		Data:         data,
	})
	switch {
	case errors.Is(err, core.ErrUnsupportedType):
		http.Error(w, "Unsupported file type.", http.StatusUnsupportedMediaType)
		return
	case errors.Is(err, services.ErrAnalysisInFlight):
		http.Error(w, "An analysis is already in progress.", http.StatusConflict)
		return
	case errors.Is(err, services.ErrAnalysisFailed):
		// failure view still renders in place
		html, rerr := render.HTML(run.Report)
		if rerr != nil {
			h.log.Errorw("report render failed", "error", rerr)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(analyzeResponse{State: string(run.State), Report: run.Report, HTML: html})
		return
	case err != nil:
		h.log.Errorw("extraction failed", "file", fileName, "error", err)
		http.Error(w, "could not read document", http.StatusUnprocessableEntity)
		return
	}

	html, rerr := render.HTML(run.Report)
	if rerr != nil {
		h.log.Errorw("report render failed", "error", rerr)
	}

	writeJSON(w, analyzeResponse{
		RecordID: run.RecordID,
		State:    string(run.State),
		Report:   run.Report,
		HTML:     html,
	})
}
