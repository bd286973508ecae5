package service

import (
	"context"
	"errors"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

// FulfillmentService управляет пулами ресурсов (рынки, мойки, водители) и реализует
// Assigner для создания заказа.
type FulfillmentService struct {
	uow             uow.UOW
	fulfillmentRepo FulfillmentRepository
}

func NewFulfillmentService(u uow.UOW) (*FulfillmentService, error) {
	repo, repoErr := uow.GetRepositoryAs[FulfillmentRepository](u, uow.RepositoryName(repoargs.FulfillmentRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &FulfillmentService{
		uow:             u,
		fulfillmentRepo: repo,
	}, nil
}

// Assign подбирает мойку и водителя по политике first-available: берется активная мойка
// рынка и свободный водитель с наименьшим id (детерминированно для воспроизводимости).
// Промахи не считаются ошибкой - соответствующее поле результата остается пустым.
//
// Выбор нарочно не блокирует строки: назначение мягкое, и при высокой конкуренции два
// заказа могут получить одного водителя. Переназначение - забота диспетчеризации,
// жесткая изоляция здесь дала бы только лишние конфликты на деньгах и складе.
func (s *FulfillmentService) Assign(
	ctx context.Context,
	tx uow.TX,
	marketID *int64,
	needsWashing bool,
) (domain.Assignment, error) {
	var assignment domain.Assignment

	repo, repoErr := uow.GetAs[FulfillmentRepository](tx, uow.RepositoryName(repoargs.FulfillmentRepoName))
	if repoErr != nil {
		return assignment, repoErr //nolint:wrapcheck
	}

	if needsWashing && marketID != nil {
		station, stationErr := repo.FirstActiveStation(ctx, *marketID)
		if stationErr != nil && !errors.Is(stationErr, domain.ErrRecordNotFound) {
			return assignment, stationErr //nolint:wrapcheck
		}
		if station != nil {
			assignment.WashingStationID = &station.ID
			assignment.StationAccountID = station.AccountID
		}
	}

	driver, driverErr := repo.FirstAvailableDriver(ctx, marketID)
	if driverErr != nil && !errors.Is(driverErr, domain.ErrRecordNotFound) {
		return assignment, driverErr //nolint:wrapcheck
	}
	// Пул мог оказаться пуст в рамках рынка - пробуем глобальный пул.
	if driver == nil && marketID != nil {
		driver, driverErr = repo.FirstAvailableDriver(ctx, nil)
		if driverErr != nil && !errors.Is(driverErr, domain.ErrRecordNotFound) {
			return assignment, driverErr //nolint:wrapcheck
		}
	}
	if driver != nil {
		assignment.DriverID = &driver.ID
		assignment.DriverAccountID = &driver.AccountID
	}

	return assignment, nil
}

func (s *FulfillmentService) CreateMarket(ctx context.Context, args repoargs.CreateMarket) (*domain.Market, error) {
	market, err := s.fulfillmentRepo.CreateMarket(ctx, args)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return market, nil
}

func (s *FulfillmentService) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	markets, err := s.fulfillmentRepo.ListMarkets(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return markets, nil
}

func (s *FulfillmentService) CreateStation(
	ctx context.Context,
	args repoargs.CreateWashingStation,
) (*domain.WashingStation, error) {
	station, err := s.fulfillmentRepo.CreateStation(ctx, args)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return station, nil
}

func (s *FulfillmentService) ListStations(ctx context.Context) ([]domain.WashingStation, error) {
	stations, err := s.fulfillmentRepo.ListStations(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return stations, nil
}

func (s *FulfillmentService) CreateDriver(ctx context.Context, args repoargs.CreateDriver) (*domain.Driver, error) {
	driver, err := s.fulfillmentRepo.CreateDriver(ctx, args)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return driver, nil
}

func (s *FulfillmentService) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	drivers, err := s.fulfillmentRepo.ListDrivers(ctx)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return drivers, nil
}

func (s *FulfillmentService) SetDriverAvailability(ctx context.Context, driverID int64, available bool) error {
	return s.fulfillmentRepo.SetDriverAvailability(ctx, driverID, available) //nolint:wrapcheck
}
