package media

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

// Presign handles POST /api/media/presign.
func (h *Handler) Presign(c *gin.Context) {
	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid upload request", err))
		return
	}

	upload, err := h.svc.Presign(c.Request.Context(), session.Current(c).UserID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, upload)
}
