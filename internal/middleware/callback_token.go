package middleware

import (
	"net/http"

	"mixlab/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const CallbackTokenHeader = "x-callback-token"

// TokenVerifier checks a shared webhook token.
type TokenVerifier interface {
	VerifyCallbackToken(token string) bool
}

// CallbackToken protects gateway webhooks with the static callback token
// sent in the x-callback-token header.
func CallbackToken(v TokenVerifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(CallbackTokenHeader)
		if !v.VerifyCallbackToken(token) {
			reason := "invalid_token"
			if token == "" {
				reason = "missing_token"
			}
			log.Warn("webhook auth rejected",
				zap.String("reason", reason),
				zap.String("client_ip", c.ClientIP()),
				zap.String("request_id", RequestIDFrom(c)),
			)
			response.Abort(c, http.StatusUnauthorized, "INVALID_CALLBACK_TOKEN", "Invalid callback token")
			return
		}
		c.Next()
	}
}
