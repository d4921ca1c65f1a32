package content

import (
	"net/http"
	"strconv"

	"chamber122/pkg/errutil"
	"chamber122/services/identity"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type feedQuery struct {
	Order  string `form:"order"`
	Filter string `form:"filter"`
}

type deleteQuery struct {
	Version int64 `form:"version"`
}

func actionResponse(d Decision, rec *Record) gin.H {
	return gin.H{
		"allowed":     d.Allowed,
		"next_status": d.NextStatus,
		"reason":      d.Reason,
		"record":      rec,
	}
}

// Feed handles GET /api/{events|bulletins}.
func (h *Handler) Feed(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q feedQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.Error(errutil.BadRequest("invalid feed query", err))
			return
		}

		order := ParseOrdering(q.Order)
		feed, err := h.svc.Feed(c.Request.Context(), kind, order, q.Filter)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": order, "feed": feed})
	}
}

// Get handles GET /api/{events|bulletins}/:id.
func (h *Handler) Get(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := h.svc.Get(c.Request.Context(), identity.Current(c), kind, c.Param("id"))
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"record": rec})
	}
}

// Create handles POST /api/{events|bulletins}. ?draft=true saves a draft.
func (h *Handler) Create(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in CreateInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Error(errutil.ValidationFailed("invalid content payload", err))
			return
		}
		draft, _ := strconv.ParseBool(c.Query("draft"))

		rec, d, err := h.svc.Create(c.Request.Context(), identity.Current(c), kind, in, draft)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, actionResponse(d, rec))
	}
}

// Edit handles PUT /api/{events|bulletins}/:id.
func (h *Handler) Edit(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in EditInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Error(errutil.ValidationFailed("invalid content payload", err))
			return
		}

		rec, d, err := h.svc.Edit(c.Request.Context(), identity.Current(c), kind, c.Param("id"), in)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, actionResponse(d, rec))
	}
}

// Delete handles DELETE /api/{events|bulletins}/:id?version=N.
func (h *Handler) Delete(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q deleteQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.Error(errutil.BadRequest("invalid version", err))
			return
		}

		d, err := h.svc.Delete(c.Request.Context(), identity.Current(c), kind, c.Param("id"), q.Version)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, actionResponse(d, nil))
	}
}

// Action handles the status-only lifecycle endpoints. kind is empty on the
// admin routes, which address records of either kind.
func (h *Handler) Action(kind Kind, action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in VersionInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.Error(errutil.ValidationFailed("version is required", err))
			return
		}

		rec, d, err := h.svc.Apply(c.Request.Context(), identity.Current(c), kind, c.Param("id"), action, in)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, actionResponse(d, rec))
	}
}

// Dashboard handles GET /api/dashboard/content?kind=event.
func (h *Handler) Dashboard(c *gin.Context) {
	kind := Kind(c.Query("kind"))
	if kind != "" && kind.String() == "" {
		c.Error(errutil.BadRequest("unknown content kind", nil))
		return
	}

	items, err := h.svc.Dashboard(c.Request.Context(), identity.Current(c), kind)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// Moderation handles GET /api/admin/moderation.
func (h *Handler) Moderation(c *gin.Context) {
	q, err := h.svc.Moderation(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// History handles GET /api/admin/content/:id/history.
func (h *Handler) History(c *gin.Context) {
	entries, err := h.svc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
