package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/assets-backend/internal/platform/ctxutil"
)

// AttachRequestContext records caller attribution for audit rows.
func AttachRequestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			ClientIP:  c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
