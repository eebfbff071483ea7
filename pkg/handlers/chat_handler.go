package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/apperrors"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/auth"
	"github.com/ToanTrinh2004/AIDSENSE-BE/pkg/services"
)

// ChatHandler exposes the operator Q&A chatbot.
type ChatHandler struct {
	chatbot services.ChatbotService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatbot services.ChatbotService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{chatbot: chatbot, logger: logger}
}

// RegisterRoutes registers the chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux, authMw *auth.Middleware) {
	mux.HandleFunc("POST /api/chat", authMw.RequireAuth(h.Ask))
	mux.HandleFunc("POST /api/chat/documents", authMw.RequireRole(auth.RoleAdmin, h.AddDocument))
}

// Ask handles POST /api/chat.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	answer, err := h.chatbot.Ask(r.Context(), body.Question)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusOK, map[string]string{"answer": answer})
}

// AddDocument handles POST /api/chat/documents.
func (h *ChatHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, h.logger, apperrors.Validation("body", "invalid JSON payload"))
		return
	}
	doc, err := h.chatbot.AddDocument(r.Context(), body.Content)
	if err != nil {
		WriteError(w, h.logger, err)
		return
	}
	_ = WriteJSON(w, http.StatusCreated, doc)
}
