package repoargs

import (
	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateOrder struct {
	OrderCode        string
	SalesCode        string
	BuyerID          int64
	SellerID         int64
	MarketID         *int64
	WashingStationID *int64
	DriverID         *int64
	Subtotal         decimal.Decimal
	WashingTotal     decimal.Decimal
	DeliveryFee      decimal.Decimal
	GrandTotal       decimal.Decimal
	PaymentMethod    domain.PaymentMethodType
	PaymentStatus    domain.PaymentStatusType
	Status           domain.OrderStatusType
	DeliveryAddress  string
	IdempotencyKey   string
	Lines            []CreateOrderLine
}

type CreateOrderLine struct {
	ProductID  int64
	Quantity   int32
	UnitPrice  decimal.Decimal
	Washing    bool
	WashingFee decimal.Decimal
}
