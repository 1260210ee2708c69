package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assets-backend/internal/http/response"
	"github.com/yungbote/assets-backend/internal/platform/apierr"
	"github.com/yungbote/assets-backend/internal/platform/logger"
)

const HeaderAPIKey = "X-Api-Key"

type APIKeyMiddleware struct {
	log    *logger.Logger
	secret []byte
}

func NewAPIKeyMiddleware(log *logger.Logger, secret string) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		log:    log.With("middleware", "APIKeyMiddleware"),
		secret: []byte(secret),
	}
}

// RequireAPIKey rejects requests whose x-api-key header does not match the
// shared secret.
func (m *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderAPIKey))
		if key == "" {
			response.RespondAPIError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("API key is missing")))
			return
		}
		if len(m.secret) == 0 || subtle.ConstantTimeCompare([]byte(key), m.secret) != 1 {
			m.log.Warn("rejected request with invalid API key", "route", c.FullPath(), "client_ip", c.ClientIP())
			response.RespondAPIError(c, apierr.New(http.StatusUnauthorized, "unauthorized", errors.New("Invalid API key")))
			return
		}
		c.Next()
	}
}
