package middleware

import (
	"chamber122/pkg/errutil"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error renders the last error attached to the gin context. Handlers call
// c.Error(err) and return; anything that is not a BaseError becomes a 500.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}

		be := errutil.As(last.Err)
		status := be.Code.HTTPStatus()
		if status >= 500 {
			zap.L().Error("request failed",
				zap.String("path", c.FullPath()),
				zap.String("request_id", RequestID(c)),
				zap.Error(last.Err),
			)
			be.Err = nil
			be.Message = "internal error"
		}
		c.AbortWithStatusJSON(status, be.JSON())
	}
}
