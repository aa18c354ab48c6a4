package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	middleware "clauselens/internal/api/middlewares"
	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/render"
	"clauselens/internal/services"
)

// DocumentSource resolves the text of a document analyzed in this process
// whose detached history write has not landed (or never will).
type DocumentSource interface {
	DocumentText(userID, recordID string) (string, bool)
}

type ChatHandler struct {
	history *services.HistoryService
	runs    DocumentSource
	chat    core.ChatProvider
}

func NewChatHandler(history *services.HistoryService, runs DocumentSource, chat core.ChatProvider) *ChatHandler {
	return &ChatHandler{history: history, runs: runs, chat: chat}
}

type chatRequest struct {
	HistoryID string `json:"history_id"`
	Question  string `json:"question"`
	Language  string `json:"language"`
}

type chatResponse struct {
	Turns []models.ChatTurn `json:"turns"`
}

// Ask answers one question against an analyzed document's stored text. Only
// the question and answer are surfaced; the document context never echoes
// back.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	question := strings.TrimSpace(req.Question)
	if question == "" {
		http.Error(w, "question required", http.StatusBadRequest)
		return
	}

	language := req.Language
	if language == "" {
		language = render.DefaultLanguage
	}
	if !render.ValidLanguage(language) {
		http.Error(w, "unknown language", http.StatusBadRequest)
		return
	}

	rec, err := h.history.Get(r.Context(), userID, req.HistoryID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// History persistence is detached and best-effort; the freshly analyzed
	// document stays answerable from the run's own text.
	var docText string
	switch {
	case rec != nil:
		docText = rec.OriginalText
	default:
		text, ok := h.runs.DocumentText(userID, req.HistoryID)
		if !ok {
			http.Error(w, "document not found", http.StatusNotFound)
			return
		}
		docText = text
	}

	answer := h.chat.Ask(r.Context(), question, docText, language)

	writeJSON(w, chatResponse{Turns: []models.ChatTurn{
		{Role: "user", Text: question},
		{Role: "assistant", Text: answer},
	}})
}
