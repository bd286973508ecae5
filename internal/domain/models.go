package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int64
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Phone     string
	Password  string
	Role      RoleType
	MarketID  *int64
	Balance   decimal.Decimal
	Active    bool
}

// LedgerEntry неизменяемая запись об изменении баланса. Записи никогда не редактируются
// и не удаляются, корректировки оформляются новыми записями вида LedgerKindRefund.
type LedgerEntry struct {
	ID            int64
	CreatedAt     time.Time
	AccountID     int64
	Amount        decimal.Decimal
	Kind          LedgerKindType
	Reference     string
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
}

type Product struct {
	ID               int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	SellerID         int64
	Name             string
	Description      string
	Price            decimal.Decimal
	Stock            int32
	WashingAvailable bool
	WashingFee       decimal.Decimal
	Active           bool
}

// Order корень агрегата заказа. Суммы фиксируются в момент создания и после
// никогда не пересчитываются, даже если цены продуктов изменились.
type Order struct {
	ID               int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
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
	PaymentMethod    PaymentMethodType
	PaymentStatus    PaymentStatusType
	Status           OrderStatusType
	DeliveryAddress  string
	IdempotencyKey   string
	Lines            []OrderLine
}

// OrderLine позиция заказа. UnitPrice и WashingFee - снапшоты значений продукта
// на момент оформления.
type OrderLine struct {
	ID         int64
	OrderID    int64
	ProductID  int64
	Quantity   int32
	UnitPrice  decimal.Decimal
	Washing    bool
	WashingFee decimal.Decimal
}

type Market struct {
	ID        int64
	CreatedAt time.Time
	Name      string
	City      string
	Address   string
}

type WashingStation struct {
	ID        int64
	CreatedAt time.Time
	MarketID  int64
	AccountID *int64
	Name      string
	OwnerName string
	Phone     string
	Active    bool
}

type Driver struct {
	ID        int64
	CreatedAt time.Time
	AccountID int64
	MarketID  *int64
	Name      string
	Phone     string
	Available bool
	Active    bool
}

// Assignment результат подбора ресурсов исполнения заказа. Все поля опциональны:
// отсутствие мойки или водителя не мешает созданию заказа. *AccountID нужны
// для адресации уведомлений после коммита.
type Assignment struct {
	WashingStationID *int64
	StationAccountID *int64
	DriverID         *int64
	DriverAccountID  *int64
}

type Notification struct {
	ID        int64
	CreatedAt time.Time
	AccountID int64
	Title     string
	Message   string
	Kind      string
	RelatedID *int64
	Read      bool
}
