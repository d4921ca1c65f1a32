package registration

import (
	"net/http"

	"chamber122/pkg/errutil"
	"chamber122/services/content"
	"chamber122/services/identity"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register handles POST /api/{events|bulletins}/:id/register.
func (h *Handler) Register(kind content.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Error(errutil.ValidationFailed("invalid registration", err))
			return
		}

		reg, err := h.svc.Register(c.Request.Context(), kind, c.Param("id"), req)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"registration": reg})
	}
}

// List handles GET /api/dashboard/content/:id/registrations.
func (h *Handler) List(c *gin.Context) {
	items, err := h.svc.ListForRecord(c.Request.Context(), identity.Current(c), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"registrations": items})
}
