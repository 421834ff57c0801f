package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bachngocs/support-chatbot-be/service"
	"github.com/bachngocs/support-chatbot-be/types"
)

type ChatHandler interface {
	HandleChat(c *gin.Context)
}

type chatHandler struct {
	aiService        service.AIService
	knowledgeService service.KnowledgeService
	logger           *zap.Logger
}

func NewChatHandler(aiService service.AIService, knowledgeService service.KnowledgeService, logger *zap.Logger) ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &chatHandler{
		aiService:        aiService,
		knowledgeService: knowledgeService,
		logger:           logger,
	}
}

func (h *chatHandler) HandleChat(c *gin.Context) {
	var req types.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Message must not be empty",
		})
		return
	}

	contextText, err := h.knowledgeService.RelevantContext(c.Request.Context(), req.Message)
	if err != nil {
		h.logger.Warn("failed to build knowledge context", zap.Error(err))
		contextText = ""
	}

	result, err := h.aiService.Complete(c.Request.Context(), req.Message, contextText)
	if err != nil {
		if errors.Is(err, types.ErrServiceExhausted) {
			c.JSON(http.StatusServiceUnavailable, types.DataResponse{
				Status:  false,
				Message: "Assistant temporarily unavailable, please retry later",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, types.DataResponse{
			Status:  false,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data: types.ChatResponse{
			Reply: result.Text,
			Model: result.Model,
			Tier:  result.Tier,
		},
	})
}
