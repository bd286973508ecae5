package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/qat-souq/internal/domain"
)

// RequireRole пропускает только аккаунты с одной из перечисленных ролей.
// Вешается после AuthRequired: без роли в контексте вернется 403.
func RequireRole(roles ...domain.RoleType) gin.HandlerFunc {
	return func(c *gin.Context) {
		currentRole, ok := c.Get(CurrentRoleKey)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		role, castOk := currentRole.(domain.RoleType)
		if !castOk {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	}
}
