package handler

import (
	"errors"
	"net/http"

	"quote-desk/internal/domain"
	"quote-desk/internal/llm"
	"quote-desk/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// Chat godoc
// @Summary      Chat with the configured model
// @Description  Forwards an OpenAI-style conversation to DeepSeek, or Zhipu when DeepSeek is not configured
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request  body  chatRequest  true  "Conversation messages"
// @Success      200  {object}  domain.ChatReply
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/chat [post]
func (h *Handler) Chat(c *gin.Context) {
	if h.svc.Chat == nil || !h.svc.Chat.Configured() {
		unavailable(c, "chat unavailable: set DEEPSEEK_API_KEY or ZHIPU_API_KEY")
		return
	}
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.chat")
	defer span.End()

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	span.SetAttributes(attribute.Int("messages", len(req.Messages)))

	reply, err := h.svc.Chat.Chat(ctx, req.Messages)
	switch {
	case errors.Is(err, service.ErrEmptyConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, llm.ErrNotConfigured):
		unavailable(c, "chat unavailable: set DEEPSEEK_API_KEY or ZHIPU_API_KEY")
	case err != nil:
		zerolog.Ctx(ctx).Warn().Err(err).Msg("chat completion failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "chat provider error"})
	default:
		c.JSON(http.StatusOK, reply)
	}
}
