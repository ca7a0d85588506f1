// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jurishub/chatclient/internal/model"
	"github.com/jurishub/chatclient/internal/repository"
)

// SessionHandler handles HTTP requests for chat session management.
type SessionHandler struct {
	repo *repository.SessionRepository
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(repo *repository.SessionRepository) *SessionHandler {
	return &SessionHandler{repo: repo}
}

// SessionResponse represents a chat session in API responses.
type SessionResponse struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toSessionResponse converts a model.ChatSession to SessionResponse.
func toSessionResponse(s *model.ChatSession) *SessionResponse {
	return &SessionResponse{
		ID:           s.ID,
		Title:        s.Title,
		Jurisdiction: s.Jurisdiction,
		Status:       string(s.Status),
		CreatedAt:    s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    s.UpdatedAt.Format(time.RFC3339),
	}
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// Create handles POST /api/sessions - creates a new chat session.
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	now := time.Now()
	sess := &model.ChatSession{
		ID:           uuid.New().String(),
		Title:        req.Title,
		Jurisdiction: req.Jurisdiction,
		Status:       model.SessionStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.repo.Create(c.Request.Context(), sess); err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session: "+err.Error())
		return
	}

	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// List handles GET /api/sessions - lists all chat sessions.
func (h *SessionHandler) List(c *gin.Context) {
	sessions, err := h.repo.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	response := make([]*SessionResponse, len(sessions))
	for i, sess := range sessions {
		response[i] = toSessionResponse(sess)
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/sessions/:id - gets a specific chat session.
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session ID is required")
		return
	}

	sess, err := h.repo.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get session: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Delete handles DELETE /api/sessions/:id - deletes a chat session.
func (h *SessionHandler) Delete(c *gin.Context) {
	sessionID := c.Param("id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Session ID is required")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", "Session "+sessionID+" not found")
			return
		}
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete session: "+err.Error())
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the session handler routes on a Gin router group.
func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/:id", h.Get)
		sessions.DELETE("/:id", h.Delete)
	}
}
