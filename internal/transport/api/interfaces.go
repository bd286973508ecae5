package api

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/service"
)

// AccountServicer интерфейс исключительно для моков.
type AccountServicer interface {
	Register(ctx context.Context, args service.RegisterAccountArgs) (*domain.Account, string, error)
	Login(ctx context.Context, phone, password string) (*domain.Account, string, error)
}

type OrderServicer interface {
	Create(ctx context.Context, args service.CreateOrderArgs) (*domain.Order, error)
	GetByAccount(ctx context.Context, accountID int64, role domain.RoleType) ([]domain.Order, error)
}

type LedgerServicer interface {
	Balance(ctx context.Context, accountID int64) (decimal.Decimal, error)
	Deposit(ctx context.Context, accountID int64, amount decimal.Decimal, method string) (*domain.LedgerEntry, error)
	Withdraw(
		ctx context.Context,
		accountID int64,
		amount decimal.Decimal,
		destination string,
	) (*domain.LedgerEntry, error)
	Statement(ctx context.Context, accountID int64, limit uint) ([]domain.LedgerEntry, error)
}

type ProductServicer interface {
	Create(ctx context.Context, args repoargs.CreateProduct) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error)
}

type NotificationServicer interface {
	List(ctx context.Context, accountID int64) ([]domain.Notification, error)
	MarkRead(ctx context.Context, accountID, notificationID int64) error
}

// PoolServicer административное управление пулами исполнения.
type PoolServicer interface {
	CreateMarket(ctx context.Context, args repoargs.CreateMarket) (*domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	CreateStation(ctx context.Context, args repoargs.CreateWashingStation) (*domain.WashingStation, error)
	ListStations(ctx context.Context) ([]domain.WashingStation, error)
	CreateDriver(ctx context.Context, args repoargs.CreateDriver) (*domain.Driver, error)
	ListDrivers(ctx context.Context) ([]domain.Driver, error)
	SetDriverAvailability(ctx context.Context, driverID int64, available bool) error
}
