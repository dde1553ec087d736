package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Zereker/oncall/internal/classify"
	"github.com/Zereker/oncall/internal/domain"
	"github.com/Zereker/oncall/internal/workflow"
	"github.com/Zereker/oncall/pkg/log"
)

// Handler handles HTTP API requests
type Handler struct {
	logger       *slog.Logger
	orchestrator *workflow.Orchestrator
	classifier   classify.Classifier
}

// NewHandler creates a new HTTP handler
func NewHandler(orchestrator *workflow.Orchestrator, classifier classify.Classifier) *Handler {
	return &Handler{
		logger:       log.Logger("http.handler"),
		orchestrator: orchestrator,
		classifier:   classifier,
	}
}

// Response represents a standard API response
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// RegisterRoutes registers all HTTP routes
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/messages/process", h.Process)
	mux.HandleFunc("GET /api/v1/conversations", h.Conversations)

	// Health check
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// Process handles POST /api/v1/messages/process
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req domain.ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if req.Message == "" {
		h.writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	msgCtx := contextFromRequest(&req)

	history, err := h.orchestrator.History(r.Context(), msgCtx)
	if err != nil {
		h.logger.Warn("failed to load conversation history", "error", err)
	}

	classification, err := h.classifier.Classify(r.Context(), req.Message, history)
	if err != nil {
		h.logger.Error("classification failed", "message_id", msgCtx.MessageID, "error", err)
		h.writeError(w, http.StatusBadGateway, "classification failed: "+err.Error())
		return
	}

	result := h.orchestrator.Process(r.Context(), msgCtx, classification)

	h.writeJSON(w, http.StatusOK, Response{
		Success: !result.ErrorOccurred,
		Data:    result,
	})
}

// Conversations handles GET /api/v1/conversations
func (h *Handler) Conversations(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel_id")
	if channelID == "" {
		h.writeError(w, http.StatusBadRequest, "channel_id is required")
		return
	}

	msgCtx := &domain.MessageContext{
		ChannelID: channelID,
		UserID:    r.URL.Query().Get("user_id"),
		ThreadTS:  r.URL.Query().Get("thread_ts"),
	}
	if msgCtx.UserID == "" && msgCtx.ThreadTS == "" {
		h.writeError(w, http.StatusBadRequest, "user_id or thread_ts is required")
		return
	}

	history, err := h.orchestrator.History(r.Context(), msgCtx)
	if err != nil {
		h.logger.Error("failed to load conversation history", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: map[string]string{
			"status": "healthy",
		},
	})
}

// contextFromRequest normalizes an API request into a message context
func contextFromRequest(req *domain.ProcessRequest) *domain.MessageContext {
	channelType := req.ChannelType
	if channelType == "" {
		channelType = "api"
	}
	channelID := req.ChannelID
	if channelID == "" {
		channelID = "api-channel"
	}
	userID := req.UserID
	if userID == "" {
		userID = "api-user"
	}

	return &domain.MessageContext{
		MessageID:   uuid.New().String(),
		UserID:      userID,
		ChannelID:   channelID,
		ChannelType: channelType,
		MessageText: req.Message,
		ThreadTS:    req.ThreadTS,
		IsMention:   req.IsMention,
		Timestamp:   time.Now(),
		Metadata:    req.Metadata,
	}
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}
