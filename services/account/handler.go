package account

import (
	"net/http"

	"chamber122/pkg/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Delete handles DELETE /api/admin/businesses/:id.
func (h *Handler) Delete(c *gin.Context) {
	d, err := h.svc.DeleteBusinessAccount(c.Request.Context(), session.Current(c).UserID, c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": d})
}
