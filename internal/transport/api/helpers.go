package api

import (
	"github.com/gin-gonic/gin"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/transport/api/middlewares"
)

// getAccountIDFromContext берет из контекста gin ID текущего аккаунта. ID устанавливается
// в middlewares.AuthRequired, поэтому на роутах без него вернется ноль.
func getAccountIDFromContext(c *gin.Context) int64 {
	id, _ := c.Get(middlewares.CurrentAccountIDKey)
	accountID, _ := id.(int64)
	return accountID
}

func getRoleFromContext(c *gin.Context) domain.RoleType {
	value, _ := c.Get(middlewares.CurrentRoleKey)
	role, _ := value.(domain.RoleType)
	return role
}
