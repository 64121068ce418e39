package agent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/gadgeto/internal/shared/types"
)

// Handlers serves the session API
type Handlers struct {
	sessions *Sessions
	agent    Responder
}

// NewHandlers creates the session API handlers
func NewHandlers(sessions *Sessions, agent Responder) *Handlers {
	return &Handlers{sessions: sessions, agent: agent}
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Len(),
	})
}

// NewSession handles POST /new
func (h *Handlers) NewSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.sessions.Create())
}

// Message handles POST /message
func (h *Handlers) Message(c *gin.Context) {
	var req types.SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	c.JSON(http.StatusOK, h.sessions.Exchange(c.Request.Context(), req.SessionID, req.Message, h.agent))
}

// History handles GET /:id/history
func (h *Handlers) History(c *gin.Context) {
	info, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

// Delete handles DELETE /:id. Deleting an unknown session still succeeds.
func (h *Handlers) Delete(c *gin.Context) {
	h.sessions.Delete(c.Param("id"))
	c.JSON(http.StatusOK, types.DeleteResponse{Status: "deleted"})
}
