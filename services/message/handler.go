package message

import (
	"net/http"

	"chamber122/pkg/errutil"
	"chamber122/pkg/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// List handles GET /api/messages/conversations.
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), session.Current(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": items})
}

// Get handles GET /api/messages/conversations/:id.
func (h *Handler) Get(c *gin.Context) {
	conv, msgs, err := h.svc.Get(c.Request.Context(), session.Current(c).UserID, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "messages": msgs})
}

// Start handles POST /api/messages/conversations.
func (h *Handler) Start(c *gin.Context) {
	var req StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("other_user_id is required", err))
		return
	}

	conv, created, err := h.svc.Start(c.Request.Context(), session.Current(c).UserID, req)
	if err != nil {
		c.Error(err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"conversation": conv})
}

// Send handles POST /api/messages.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("conversation_id and content are required", err))
		return
	}

	msg, err := h.svc.Send(c.Request.Context(), session.Current(c).UserID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Unread handles GET /api/messages/unread.
func (h *Handler) Unread(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), session.Current(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}
