package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Errors рендерит первую собранную в контексте ошибку. Публичные ошибки уходят
// клиенту как есть, приватные заменяются нейтральным текстом статуса: детали
// внутренних сбоев клиенту не принадлежат, их пишет в лог Logger.
func Errors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		firstErr := c.Errors[0]
		msg := strings.ToLower(http.StatusText(c.Writer.Status()))
		if firstErr.IsType(gin.ErrorTypePublic) {
			msg = firstErr.Error()
		}

		c.JSON(c.Writer.Status(), gin.H{"error": msg})
		c.Abort()
	}
}
