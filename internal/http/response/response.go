package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/assets-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes the error envelope. Server-side failures never expose
// their cause.
func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	if status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondAPIError writes an *apierr.Error and aborts the chain.
func RespondAPIError(c *gin.Context, e *apierr.Error) {
	if e == nil {
		e = apierr.Internal(nil)
	}
	c.AbortWithStatusJSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: e.PublicMessage(),
			Code:    e.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
