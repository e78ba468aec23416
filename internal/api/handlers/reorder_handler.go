package handlers

import (
	"net/http"
	"strconv"

	"github.com/andresuchdata/stocksense/internal/domain"
	"github.com/andresuchdata/stocksense/internal/service"
	"github.com/gin-gonic/gin"
)

type ReorderHandler struct {
	reorderService *service.ReorderService
	exportService  *service.ExportService
}

func NewReorderHandler(reorderService *service.ReorderService, exportService *service.ExportService) *ReorderHandler {
	return &ReorderHandler{reorderService: reorderService, exportService: exportService}
}

type statusUpdateRequest struct {
	Status string  `json:"status" binding:"required"`
	Notes  *string `json:"notes"`
}

// Generate evaluates the caller's products and refreshes pending suggestions
func (h *ReorderHandler) Generate(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.reorderService.GenerateReorderSuggestions(c.Request.Context(), cl)
	if err != nil {
		errorResponse(c, err, "failed to generate reorder suggestions")
		return
	}

	c.JSON(http.StatusOK, result)
}

// List returns suggestions filtered by status and urgency, most urgent first
func (h *ReorderHandler) List(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	var status domain.SuggestionStatus
	if raw := c.Query("status"); raw != "" {
		parsed, valid := domain.ParseSuggestionStatus(raw)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(raw)})
			return
		}
		status = parsed
	}

	var urgency domain.Urgency
	if raw := c.Query("urgency"); raw != "" {
		parsed, valid := domain.ParseUrgency(raw)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown urgency " + strconv.Quote(raw)})
			return
		}
		urgency = parsed
	}

	limit, ok := parseLimit(c.Query("limit"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	suggestions, err := h.reorderService.ListSuggestions(c.Request.Context(), cl, status, urgency, limit)
	if err != nil {
		errorResponse(c, err, "failed to fetch reorder suggestions")
		return
	}
	if suggestions == nil {
		suggestions = []domain.ReorderSuggestion{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions, "count": len(suggestions)})
}

// UpdateStatus approves or rejects a pending suggestion
func (h *ReorderHandler) UpdateStatus(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid suggestion id"})
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status, _ := domain.ParseSuggestionStatus(req.Status)
	result, err := h.reorderService.UpdateSuggestionStatus(c.Request.Context(), cl, id, status, req.Notes)
	if err != nil {
		errorResponse(c, err, "failed to update suggestion status")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export writes the caller's pending suggestions to CSV
func (h *ReorderHandler) Export(c *gin.Context) {
	cl, ok := caller(c)
	if !ok {
		return
	}

	if h.exportService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "export is not configured"})
		return
	}

	result, err := h.exportService.ExportPending(c.Request.Context(), cl)
	if err != nil {
		errorResponse(c, err, "failed to export reorder suggestions")
		return
	}

	c.JSON(http.StatusCreated, result)
}
