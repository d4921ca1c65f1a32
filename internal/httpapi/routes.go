// Package httpapi is the route table of the directory API.
package httpapi

import (
	"chamber122/pkg/access"
	"chamber122/pkg/session"
	"chamber122/services/account"
	"chamber122/services/auth"
	"chamber122/services/business"
	"chamber122/services/content"
	"chamber122/services/identity"
	"chamber122/services/media"
	"chamber122/services/message"
	"chamber122/services/notification"
	"chamber122/services/registration"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi", fx.Invoke(RegisterRoutes))

type Params struct {
	fx.In
	Engine       *gin.Engine
	Sessions     *session.Manager
	Resolver     *identity.Resolver
	Enforcer     *casbin.Enforcer
	Auth         *auth.Handler
	Business     *business.Handler
	Content      *content.Handler
	Registration *registration.Handler
	Notification *notification.Handler
	Media        *media.Handler
	Message      *message.Handler
	Account      *account.Handler
}

var kinds = map[string]content.Kind{
	"events":    content.KindEvent,
	"bulletins": content.KindBulletin,
}

func RegisterRoutes(p Params) {
	api := p.Engine.Group("/api",
		p.Sessions.Authenticate(),
		identity.Middleware(p.Resolver),
	)
	authed := session.RequireSession()

	authRoutes := api.Group("/auth")
	authRoutes.POST("/signup", p.Auth.Signup)
	authRoutes.POST("/login", p.Auth.Login)
	authRoutes.POST("/logout", authed, p.Auth.Logout)
	authRoutes.GET("/me", authed, p.Auth.Me)

	businesses := api.Group("/businesses")
	businesses.GET("/public", p.Business.ListPublic)
	businesses.GET("/me", authed, p.Business.Mine)
	businesses.PUT("/me", authed, p.Business.UpdateMine)
	businesses.GET("/:id", p.Business.Get)

	for plural, kind := range kinds {
		g := api.Group("/" + plural)
		g.GET("", p.Content.Feed(kind))
		g.POST("", p.Content.Create(kind))
		g.GET("/:id", p.Content.Get(kind))
		g.PUT("/:id", authed, p.Content.Edit(kind))
		g.DELETE("/:id", authed, p.Content.Delete(kind))
		g.POST("/:id/submit", authed, p.Content.Action(kind, content.ActionSubmit))
		g.POST("/:id/unpublish", authed, p.Content.Action(kind, content.ActionUnpublish))
		g.POST("/:id/register", p.Registration.Register(kind))
	}

	guard := access.Require(p.Enforcer, identity.Subject)

	dashboard := api.Group("/dashboard", authed, guard)
	dashboard.GET("/content", p.Content.Dashboard)
	dashboard.GET("/content/:id/registrations", p.Registration.List)

	admin := api.Group("/admin", authed, guard)
	admin.GET("/moderation", p.Content.Moderation)
	admin.POST("/content/:id/approve", p.Content.Action("", content.ActionApprove))
	admin.POST("/content/:id/reject", p.Content.Action("", content.ActionReject))
	admin.POST("/content/:id/convert", p.Content.Action("", content.ActionConvert))
	admin.POST("/content/:id/expire", p.Content.Action("", content.ActionExpire))
	admin.GET("/content/:id/history", p.Content.History)
	admin.PUT("/businesses/:id/status", p.Business.Review)
	admin.DELETE("/businesses/:id", p.Account.Delete)

	notifications := api.Group("/notifications", authed)
	notifications.GET("", p.Notification.List)
	notifications.POST("/:id/read", p.Notification.MarkRead)

	messages := api.Group("/messages", authed)
	messages.GET("/conversations", p.Message.List)
	messages.POST("/conversations", p.Message.Start)
	messages.GET("/conversations/:id", p.Message.Get)
	messages.POST("", p.Message.Send)
	messages.GET("/unread", p.Message.Unread)

	api.POST("/media/presign", authed, p.Media.Presign)
}
