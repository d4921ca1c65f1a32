package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

type channelKey struct{}

var ChannelContextKey = channelKey{}

const (
	ChannelWeb = "web"
	ChannelAPI = "api"
)

// deriveChannel guesses the client channel from how the request authenticates.
func deriveChannel(c *gin.Context, cookieName string) string {
	if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
		return ChannelAPI
	}
	if _, err := c.Cookie(cookieName); err == nil {
		return ChannelWeb
	}
	if strings.Contains(c.GetHeader("Accept"), "text/html") {
		return ChannelWeb
	}
	return ChannelAPI
}

// Channel stores the request channel on the request context so audit
// entries can record where an action came from.
func Channel(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ch := deriveChannel(c, cookieName)
		ctx := context.WithValue(c.Request.Context(), ChannelContextKey, ch)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func FromChannel(ctx context.Context, want string) bool {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	return ok && ch == want
}

// GetChannel returns the current channel, "api" when none was recorded.
func GetChannel(ctx context.Context) string {
	ch, ok := ctx.Value(ChannelContextKey).(string)
	if !ok {
		return ChannelAPI
	}
	return ch
}
