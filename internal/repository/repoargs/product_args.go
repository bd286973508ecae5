package repoargs

import "github.com/shopspring/decimal"

type CreateProduct struct {
	SellerID         int64
	Name             string
	Description      string
	Price            decimal.Decimal
	Stock            int32
	WashingAvailable bool
	WashingFee       decimal.Decimal
}
