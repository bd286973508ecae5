package repoargs

import "github.com/fsdevblog/qat-souq/internal/domain"

type CreateAccount struct {
	Name     string
	Phone    string
	Password string
	Role     domain.RoleType
	MarketID *int64
}
