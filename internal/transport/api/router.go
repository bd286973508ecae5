package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/transport/api/middlewares"
)

const (
	DefaultServiceTimeout = 3 * time.Second
)

const (
	RouteGroup              = "/api"
	RegisterRoute           = "/user/register"
	LoginRoute              = "/user/login"
	ProductsRoute           = "/products"
	MyProductsRoute         = "/products/mine"
	OrdersRoute             = "/orders"
	MyOrdersRoute           = "/orders/mine"
	WalletRoute             = "/wallet"
	WalletDepositRoute      = "/wallet/deposit"
	WalletWithdrawRoute     = "/wallet/withdraw"
	WalletTransactionsRoute = "/wallet/transactions"
	NotificationsRoute      = "/notifications"
	NotificationReadRoute   = "/notifications/:id/read"
	MarketsRoute            = "/admin/markets"
	StationsRoute           = "/admin/washing-stations"
	DriversRoute            = "/admin/drivers"
	DriverAvailabilityRoute = "/admin/drivers/:id/availability"
)

type RouterArgs struct {
	Logger              *logrus.Logger
	AccountService      AccountServicer
	OrderService        OrderServicer
	LedgerService       LedgerServicer
	ProductService      ProductServicer
	NotificationService NotificationServicer
	PoolService         PoolServicer
	JWTSecretKey        []byte
}

func New(args RouterArgs) *gin.Engine {
	registerValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if args.Logger != nil {
		r.Use(middlewares.Logger(args.Logger))
	}
	r.Use(middlewares.Errors())

	authHandler := NewAuthHandler(args.AccountService)
	productsHandler := NewProductsHandler(args.ProductService)
	ordersHandler := NewOrdersHandler(args.OrderService)
	walletHandler := NewWalletHandler(args.LedgerService)
	notificationsHandler := NewNotificationsHandler(args.NotificationService)
	adminHandler := NewAdminHandler(args.PoolService)

	api := r.Group(RouteGroup)

	api.POST(RegisterRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Register)
	api.POST(LoginRoute, middlewares.NonAuthRequired(args.JWTSecretKey), authHandler.Login)

	// витрина открыта без авторизации.
	api.GET(ProductsRoute, productsHandler.Index)

	api.Use(middlewares.AuthRequired(args.JWTSecretKey))
	// ниже все роуты группы требуют авторизованного аккаунта.
	api.POST(ProductsRoute, middlewares.RequireRole(domain.RoleSeller), productsHandler.Create)
	api.GET(MyProductsRoute, middlewares.RequireRole(domain.RoleSeller), productsHandler.Mine)

	api.POST(OrdersRoute, ordersHandler.Create)
	api.GET(MyOrdersRoute, ordersHandler.Index)

	api.GET(WalletRoute, walletHandler.Balance)
	api.POST(WalletDepositRoute, walletHandler.Deposit)
	api.POST(WalletWithdrawRoute, walletHandler.Withdraw)
	api.GET(WalletTransactionsRoute, walletHandler.Transactions)

	api.GET(NotificationsRoute, notificationsHandler.Index)
	api.POST(NotificationReadRoute, notificationsHandler.MarkRead)

	admin := api.Group("", middlewares.RequireRole(domain.RoleAdmin))
	admin.POST(MarketsRoute, adminHandler.CreateMarket)
	admin.GET(MarketsRoute, adminHandler.ListMarkets)
	admin.POST(StationsRoute, adminHandler.CreateStation)
	admin.GET(StationsRoute, adminHandler.ListStations)
	admin.POST(DriversRoute, adminHandler.CreateDriver)
	admin.GET(DriversRoute, adminHandler.ListDrivers)
	admin.PATCH(DriverAvailabilityRoute, adminHandler.SetDriverAvailability)
	return r
}
