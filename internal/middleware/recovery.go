package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Recovery turns a panic into a 500. The stack goes to the log and, when
// exposeTraces is set, into the response body.
func Recovery(log zerolog.Logger, exposeTraces bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				log.Error().
					Interface("error", r).
					Str("request_id", c.GetString(requestIDKey)).
					Str("stack", stack).
					Msg("panic recovered")

				body := gin.H{
					"error":   fmt.Sprint(r),
					"message": "internal server error",
				}
				if exposeTraces {
					body["trace"] = stack
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, body)
			}
		}()
		c.Next()
	}
}
