package handlers

import (
	"net/http"

	"github.com/HiroshigeAoki/slack-game-master/internal/models"
	"github.com/HiroshigeAoki/slack-game-master/internal/services"

	"github.com/gin-gonic/gin"
)

// AdminHandler is the staff dashboard API over the session store.
type AdminHandler struct {
	game *services.GameService
}

func NewAdminHandler(game *services.GameService) *AdminHandler {
	return &AdminHandler{game: game}
}

// ListSessions godoc
// @Summary      List game sessions
// @Description  Return every session known to the store
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} GameSession
// @Failure      500 {object} ErrorResponse
// @Router       /api/v1/sessions [get]
func (h *AdminHandler) ListSessions(c *gin.Context) {
	sessions, err := h.game.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GetSession godoc
// @Summary      Get one game session
// @Description  Return the session for a Slack channel
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        channel_id path string true "Slack channel ID"
// @Success      200 {object} GameSession
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{channel_id} [get]
func (h *AdminHandler) GetSession(c *gin.Context) {
	session, err := h.game.Get(c.Param("channel_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load session"})
		return
	}
	if session == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "session not found"})
		return
	}
	c.JSON(http.StatusOK, session)
}

type UndoRequest struct {
	Role string `json:"role" binding:"required" example:"customer"`
}

// UndoDone godoc
// @Summary      Clear a role's annotation-done flag
// @Description  Administrative correction when a player pressed done by mistake
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        channel_id path string true "Slack channel ID"
// @Param        request body UndoRequest true "Role to undo"
// @Success      200 {object} MessageResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/sessions/{channel_id}/undo [post]
func (h *AdminHandler) UndoDone(c *gin.Context) {
	var req UndoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.game.Undo(c.Param("channel_id"), models.Role(req.Role)); err != nil {
		if gr, ok := services.AsGuardRejection(err); ok {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: gr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to undo"})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "done flag cleared"})
}
