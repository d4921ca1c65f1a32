package business

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

// ListPublic handles GET /api/businesses/public.
func (h *Handler) ListPublic(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		c.Error(errutil.BadRequest("invalid pagination", err))
		return
	}

	items, info, err := h.svc.ListPublic(c.Request.Context(), page, c.Query("category"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"businesses": items, "page_info": info})
}

// Get handles GET /api/businesses/:id. Businesses that are not approved are
// only shown to their owner and admins.
func (h *Handler) Get(c *gin.Context) {
	b, err := h.svc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	p := session.Current(c)
	if !b.IsApproved() && !p.IsAdmin() && (p == nil || p.UserID != b.OwnerID) {
		c.Error(notFound())
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}

// Mine handles GET /api/businesses/me.
func (h *Handler) Mine(c *gin.Context) {
	p := session.Current(c)
	b, err := h.svc.GetByOwner(c.Request.Context(), p.UserID)
	if err != nil {
		c.Error(err)
		return
	}
	if b == nil {
		c.Error(notFound())
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}

// UpdateMine handles PUT /api/businesses/me.
func (h *Handler) UpdateMine(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid business payload", err))
		return
	}

	b, err := h.svc.UpdateOwn(c.Request.Context(), session.Current(c).UserID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}

// Review handles PUT /api/admin/businesses/:id/status.
func (h *Handler) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid review payload", err))
		return
	}

	b, err := h.svc.Review(c.Request.Context(), session.Current(c).UserID, c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"business": b})
}
