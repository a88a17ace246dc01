package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rohankatakam/devai/internal/claude"
	"github.com/rohankatakam/devai/internal/errors"
	"github.com/rohankatakam/devai/internal/http/dto"
)

// Completer answers a single prompt
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type ChatHandler struct {
	completer Completer
	logger    logrus.FieldLogger
}

// NewChatHandler creates the chat proxy. A nil completer makes every request
// fail with a configuration hint.
func NewChatHandler(completer Completer, logger logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{completer: completer, logger: logger}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}
	if h.completer == nil {
		respondError(c, errors.New(errors.ErrorTypeExternal, errors.SeverityMedium, "Claude API key missing. Set ANTHROPIC_API_KEY in the environment."))
		return
	}

	prompt := claude.BuildPrompt(req.Question, req.PageContext, req.ContextHistory)
	answer, err := h.completer.Complete(c.Request.Context(), prompt)
	if err != nil {
		h.logger.WithError(err).Error("chat completion failed")
		if errors.GetType(err) == errors.ErrorTypeExternal {
			respondError(c, err)
			return
		}
		respondError(c, errors.InternalError("Unexpected error"))
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{Answer: answer})
}
