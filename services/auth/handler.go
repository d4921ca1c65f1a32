package auth

import (
	"net/http"

	"chamber122/pkg/errutil"
	"chamber122/pkg/session"
	"chamber122/services/identity"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
}

func NewHandler(svc *Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) startSession(c *gin.Context, user *User) (string, bool) {
	token, _, err := h.sessions.Tokens().Issue(user.ID, user.Email, user.Role)
	if err != nil {
		c.Error(errutil.Internal("failed to issue session", err))
		return "", false
	}
	h.sessions.SetCookie(c, token)
	return token, true
}

// Signup handles POST /api/auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid signup payload", err))
		return
	}

	user, biz, err := h.svc.Signup(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	token, ok := h.startSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "business": biz, "token": token})
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errutil.ValidationFailed("invalid login payload", err))
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		c.Error(err)
		return
	}
	token, ok := h.startSession(c, user)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.Revoke(c, session.Current(c)); err != nil {
		zap.L().Warn("failed to revoke session", zap.Error(err))
	}
	h.sessions.ClearCookie(c)
	c.Status(http.StatusNoContent)
}

// Me handles GET /api/auth/me.
func (h *Handler) Me(c *gin.Context) {
	user, err := h.svc.GetByID(c.Request.Context(), session.Current(c).UserID)
	if err != nil {
		c.Error(err)
		return
	}
	who := identity.Current(c)
	c.JSON(http.StatusOK, gin.H{"user": user, "business": who.Business, "tier": who.Tier})
}
