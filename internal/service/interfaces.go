package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePassword(password string, hashedPassword string) bool
}

type AccountRepository interface {
	Create(ctx context.Context, args repoargs.CreateAccount) (*domain.Account, error)
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	FindByPhone(ctx context.Context, phone string) (*domain.Account, error)
	Deactivate(ctx context.Context, id int64) error
}

type ProductRepository interface {
	Create(ctx context.Context, args repoargs.CreateProduct) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
	Reserve(ctx context.Context, productID int64, quantity int32) error
	Release(ctx context.Context, productID int64, quantity int32) error
}

type LedgerRepository interface {
	Post(ctx context.Context, args repoargs.LedgerPost) (*domain.LedgerEntry, error)
	Balance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	Entries(ctx context.Context, accountID int64, limit uint) ([]domain.LedgerEntry, error)
}

type OrderRepository interface {
	Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error)
	FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (*domain.Order, error)
	GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error)
	GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error)
}

type FulfillmentRepository interface {
	FirstActiveStation(ctx context.Context, marketID int64) (*domain.WashingStation, error)
	FirstAvailableDriver(ctx context.Context, marketID *int64) (*domain.Driver, error)
	CreateMarket(ctx context.Context, args repoargs.CreateMarket) (*domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	CreateStation(ctx context.Context, args repoargs.CreateWashingStation) (*domain.WashingStation, error)
	ListStations(ctx context.Context) ([]domain.WashingStation, error)
	CreateDriver(ctx context.Context, args repoargs.CreateDriver) (*domain.Driver, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	SetDriverAvailability(ctx context.Context, driverID int64, available bool) error
}

type NotificationRepository interface {
	Create(ctx context.Context, args repoargs.CreateNotification) (*domain.Notification, error)
	GetByAccountID(ctx context.Context, accountID int64, limit uint) ([]domain.Notification, error)
	MarkRead(ctx context.Context, accountID, notificationID int64) error
}

// NotificationSink принимает пачку событий по уведомлениям после коммита транзакции.
// Доставка fire-and-forget: сбой доставки никогда не влияет на вызывающего.
type NotificationSink interface {
	Enqueue(events []repoargs.CreateNotification)
}

// Assigner подбирает мойку и водителя для заказа внутри транзакции заказа.
type Assigner interface {
	Assign(ctx context.Context, tx uow.TX, marketID *int64, needsWashing bool) (domain.Assignment, error)
}
