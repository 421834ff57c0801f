package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/bachngocs/support-chatbot-be/service"
	"github.com/bachngocs/support-chatbot-be/types"
)

type KnowledgeHandler interface {
	HandleListEntries(c *gin.Context)
	HandleGetEntry(c *gin.Context)
	HandleCreateEntry(c *gin.Context)
	HandleUpdateEntry(c *gin.Context)
	HandleDeleteEntry(c *gin.Context)
	HandleSearch(c *gin.Context)
	HandleStats(c *gin.Context)
}

type knowledgeHandler struct {
	knowledgeService service.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService service.KnowledgeService) KnowledgeHandler {
	return &knowledgeHandler{
		knowledgeService: knowledgeService,
	}
}

func (h *knowledgeHandler) HandleListEntries(c *gin.Context) {
	entries, err := h.knowledgeService.ListEntries(c.Request.Context())
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   entries,
	})
}

func (h *knowledgeHandler) HandleGetEntry(c *gin.Context) {
	id := c.Query("id")
	entry, err := h.knowledgeService.GetEntry(c.Request.Context(), id)
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  false,
			Message: "Entry not found",
		})
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   entry,
	})
}

func (h *knowledgeHandler) HandleCreateEntry(c *gin.Context) {
	var req types.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	entry, err := h.knowledgeService.CreateEntry(c.Request.Context(), req)
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   entry,
	})
}

func (h *knowledgeHandler) HandleUpdateEntry(c *gin.Context) {
	var req types.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  false,
			Message: "Invalid request body",
		})
		return
	}

	entry, err := h.knowledgeService.UpdateEntry(c.Request.Context(), req)
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   entry,
	})
}

func (h *knowledgeHandler) HandleDeleteEntry(c *gin.Context) {
	id := c.Query("id")
	entry, err := h.knowledgeService.DeleteEntry(c.Request.Context(), id)
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   entry,
	})
}

func (h *knowledgeHandler) HandleSearch(c *gin.Context) {
	query := c.Query("q")
	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, _ = strconv.Atoi(limitStr)
	}

	results, err := h.knowledgeService.Search(c.Request.Context(), query, limit)
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   types.SearchResponse{Results: results},
	})
}

func (h *knowledgeHandler) HandleStats(c *gin.Context) {
	stats, err := h.knowledgeService.Stats(c.Request.Context())
	if err != nil {
		h.sendStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.DataResponse{
		Status: true,
		Data:   stats,
	})
}

// sendStoreError maps store errors onto status codes: unknown ids are
// 404, invalid input is 400, anything else is a server failure.
func (h *knowledgeHandler) sendStoreError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidEntry):
		status = http.StatusBadRequest
	}
	c.JSON(status, types.DataResponse{
		Status:  false,
		Message: err.Error(),
	})
}
