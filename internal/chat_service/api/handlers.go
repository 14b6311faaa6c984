package api

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/kcscroggins/water-institute-chatbot/internal/chat_service/service"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/interfaces"
	"github.com/kcscroggins/water-institute-chatbot/internal/rag/pipeline"
	"github.com/kcscroggins/water-institute-chatbot/pkg/logger"
)

// Handler holds the handler functions for every API endpoint.
type Handler struct {
	service      *service.Service
	rankingsFile string
	log          *logger.Logger
}

// NewHandler creates a new Handler instance. rankingsFile may be empty, in
// which case GET /rankings answers with a placeholder body.
func NewHandler(s *service.Service, rankingsFile string, log *logger.Logger) *Handler {
	return &Handler{service: s, rankingsFile: rankingsFile, log: log}
}

// ChatMessage is one prior conversation turn supplied by the client.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the JSON body of POST /chat.
type ChatRequest struct {
	Message string        `json:"message" binding:"required"`
	History []ChatMessage `json:"conversation_history"`
}

// ChatResponse is the JSON body of a successful POST /chat.
type ChatResponse struct {
	Response string   `json:"response"`
	Sources  []string `json:"sources"`
}

// Chat handles POST /chat.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	history := make([]interfaces.Message, len(req.History))
	for i, m := range req.History {
		history[i] = interfaces.Message{Role: m.Role, Content: m.Content}
	}

	answer, err := h.service.Chat(c.Request.Context(), req.Message, history)
	if err != nil {
		h.log.WithError(err).Error("Chat request failed")
		switch {
		case errors.Is(err, pipeline.ErrRetrievalUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "retrieval_unavailable"})
		case errors.Is(err, pipeline.ErrSynthesisUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "synthesis_unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		}
		return
	}

	sources := answer.Sources
	if sources == nil {
		sources = []string{}
	}
	c.JSON(http.StatusOK, ChatResponse{Response: answer.Text, Sources: sources})
}

// Health handles GET /health. An unreachable index is a 503 so load
// balancers take the instance out of rotation.
func (h *Handler) Health(c *gin.Context) {
	status := h.service.Health(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// Root handles GET /, a liveness probe that needs no backing services.
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "UF Water Institute chatbot API is running"})
}

// Rankings handles GET /rankings, serving the pre-computed faculty rankings
// file produced by the ingestion tooling. A missing file answers with a
// placeholder so the widget renders an empty list instead of an error page.
func (h *Handler) Rankings(c *gin.Context) {
	if h.rankingsFile != "" {
		if _, err := os.Stat(h.rankingsFile); err == nil {
			c.File(h.rankingsFile)
			return
		}
		h.log.Warn("Rankings file missing, serving placeholder")
	}
	c.JSON(http.StatusOK, gin.H{"rankings": []string{}, "message": "rankings not yet generated"})
}
