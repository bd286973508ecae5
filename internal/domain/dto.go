package domain

type RoleType string

const (
	RoleBuyer  RoleType = "buyer"
	RoleSeller RoleType = "seller"
	RoleDriver RoleType = "driver"
	RoleWasher RoleType = "washer"
	RoleAdmin  RoleType = "admin"
)

type LedgerKindType string

const (
	LedgerKindDeposit  LedgerKindType = "deposit"
	LedgerKindWithdraw LedgerKindType = "withdraw"
	LedgerKindPurchase LedgerKindType = "purchase"
	LedgerKindSale     LedgerKindType = "sale"
	LedgerKindRefund   LedgerKindType = "refund"
)

type OrderStatusType string

const (
	OrderStatusPending    OrderStatusType = "pending"
	OrderStatusConfirmed  OrderStatusType = "confirmed"
	OrderStatusWashing    OrderStatusType = "washing"
	OrderStatusDelivering OrderStatusType = "delivering"
	OrderStatusDelivered  OrderStatusType = "delivered"
	OrderStatusCancelled  OrderStatusType = "cancelled"
)

type PaymentMethodType string

const (
	PaymentMethodWallet PaymentMethodType = "wallet"
	PaymentMethodCash   PaymentMethodType = "cash"
)

type PaymentStatusType string

const (
	PaymentStatusPending PaymentStatusType = "pending"
	PaymentStatusPaid    PaymentStatusType = "paid"
)
