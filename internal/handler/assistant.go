package handler

import (
	"log"
	"net/http"

	"core/internal/model"
	"core/internal/service"

	"github.com/gin-gonic/gin"
)

// AssistantHandler handles chat assistant HTTP requests
type AssistantHandler struct {
	assistant *service.Assistant
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *service.Assistant) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// Message handles POST /api/v1/assistant/message
func (h *AssistantHandler) Message(c *gin.Context) {
	var req model.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: message and sessionId are required"})
		return
	}

	resp := h.assistant.HandleMessage(c.Request.Context(), &req)
	c.JSON(http.StatusOK, resp)
}

// ConfirmProperty handles POST /api/v1/assistant/property/confirm
func (h *AssistantHandler) ConfirmProperty(c *gin.Context) {
	var req model.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: sessionId is required"})
		return
	}

	resp, err := h.assistant.ConfirmDraft(c.Request.Context(), req.SessionID)
	if err != nil {
		// Details stay in the server log; the caller gets a generic failure.
		log.Printf("Property confirmation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not register the property, please retry"})
		return
	}
	if !resp.Success {
		c.JSON(http.StatusBadRequest, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}
