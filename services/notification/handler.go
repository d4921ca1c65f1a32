package notification

import (
	"net/http"

	"chamber122/pkg/db/pagination"
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

// List handles GET /api/notifications.
func (h *Handler) List(c *gin.Context) {
	p := session.Current(c)

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	items, info, err := h.svc.List(c.Request.Context(), p.UserID, page)
	if err != nil {
		c.Error(err)
		return
	}
	unread, err := h.svc.UnreadCount(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(errutil.Internal("failed to count notifications", err))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": items,
		"unread":        unread,
		"page_info":     info,
	})
}

// MarkRead handles POST /api/notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	p := session.Current(c)
	if err := h.svc.MarkRead(c.Request.Context(), p.UserID, c.Param("id")); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
