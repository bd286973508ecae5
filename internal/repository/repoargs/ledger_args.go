package repoargs

import (
	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/shopspring/decimal"
)

// LedgerPost аргументы проводки по счету. Отрицательный Amount - списание,
// положительный - зачисление.
type LedgerPost struct {
	AccountID int64
	Amount    decimal.Decimal
	Kind      domain.LedgerKindType
	Reference string
}
