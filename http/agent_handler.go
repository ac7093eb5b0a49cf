package http

import (
	"context"
	"encoding/json"
	"net/http"

	"finance-agent/domain"
)

// ChatService answers a single user message.
type ChatService interface {
	Chat(ctx context.Context, text string) (domain.ChatReply, error)
}

type AgentHandler struct {
	service ChatService
}

func NewAgentHandler(service ChatService) *AgentHandler {
	return &AgentHandler{service: service}
}

func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input domain.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&input); err != nil {
		writeError(w, r, domain.InvalidInput("invalid request body"))
		return
	}

	reply, err := h.service.Chat(r.Context(), input.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, reply)
}
