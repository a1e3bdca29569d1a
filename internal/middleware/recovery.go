package middleware

import (
	"fmt"
	"net/http"

	"inventory/pkg/logger"
	"inventory/pkg/response"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 with the standard envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context()).
			Str("panic", fmt.Sprint(recovered)).
			Str("path", c.Request.URL.Path).
			Msg("recovered from panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			response.Error(http.StatusInternalServerError, "internal server error"))
	})
}
