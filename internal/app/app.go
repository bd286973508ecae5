package app

import (
	"context"
	"fmt"

	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fsdevblog/qat-souq/internal/config"
	"github.com/fsdevblog/qat-souq/internal/notifier"
	"github.com/fsdevblog/qat-souq/internal/repository/pgrepo"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/service"
	"github.com/fsdevblog/qat-souq/internal/transport/api"
	"github.com/fsdevblog/qat-souq/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app on %s", a.Config.RunAddress)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return fmt.Errorf("app run: %s", connErr.Error())
	}
	defer conn.Close()

	unitOfWork := initUOW(conn)

	deliveryFee, feeErr := decimal.NewFromString(a.Config.DeliveryFee)
	if feeErr != nil {
		return fmt.Errorf("app run: invalid delivery fee %q: %s", a.Config.DeliveryFee, feeErr.Error())
	}

	dispatcher := notifier.New(unitOfWork, a.Logger).
		SetWorkers(a.Config.NotifierWorkers).
		SetQueueSize(a.Config.NotifierQueueSize)

	services, sErr := service.Factory(service.FactoryArgs{
		UnitOfWork:  unitOfWork,
		JWTSecret:   []byte(a.Config.JWTSecret),
		Sink:        dispatcher,
		DeliveryFee: deliveryFee,
	})
	if sErr != nil {
		return fmt.Errorf("app run: %s", sErr.Error())
	}

	router := api.New(api.RouterArgs{
		Logger:              a.Logger,
		AccountService:      services.AccountService,
		OrderService:        services.OrderService,
		LedgerService:       services.LedgerService,
		ProductService:      services.ProductService,
		NotificationService: services.NotificationService,
		PoolService:         services.FulfillmentService,
		JWTSecretKey:        []byte(a.Config.JWTSecret),
	})

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	go dispatcher.Run(notifyCtx)

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func initUOW(conn *pgxpool.Pool) *uow.UnitOfWork {
	unitOfWork := uow.NewUnitOfWork(conn)

	unitOfWork.MustRegister(uow.RepositoryName(repoargs.AccountRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewAccountRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.ProductRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewProductRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.LedgerRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewLedgerRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.OrderRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewOrderRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.FulfillmentRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewFulfillmentRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.NotificationRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewNotificationRepository(dbtx)
	})

	return unitOfWork
}
