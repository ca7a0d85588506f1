package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jurishub/chatclient/internal/model"
	"github.com/jurishub/chatclient/internal/repository"
	"github.com/jurishub/chatclient/internal/server"
)

// WebSocketHandler joins participants to session rooms over websocket.
type WebSocketHandler struct {
	repo  *repository.SessionRepository
	rooms *server.RoomManager
}

// NewWebSocketHandler creates a new WebSocketHandler.
func NewWebSocketHandler(repo *repository.SessionRepository, rooms *server.RoomManager) *WebSocketHandler {
	return &WebSocketHandler{
		repo:  repo,
		rooms: rooms,
	}
}

// Join handles GET /ws/sessions/:id - upgrades and joins the session room.
// The participant identifier can be supplied via the user query parameter;
// anonymous peers are assigned one.
func (h *WebSocketHandler) Join(c *gin.Context) {
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

	if sess.Status != model.SessionStatusActive {
		sendError(c, http.StatusBadRequest, "SESSION_CLOSED", model.ErrSessionClosed.Error())
		return
	}

	userID := c.Query("user")
	if userID == "" {
		userID = "guest-" + uuid.New().String()[:8]
	}

	room := h.rooms.GetOrCreate(sessionID)
	if err := server.Serve(c.Writer, c.Request, room, userID); err != nil {
		// Upgrade failures have already written a response.
		return
	}
}

// RegisterRoutes registers the websocket route on a Gin router group.
func (h *WebSocketHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/sessions/:id", h.Join)
}
