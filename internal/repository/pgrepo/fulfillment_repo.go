package pgrepo

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

// FulfillmentRepository доступ к пулам ресурсов исполнения заказа: рынкам,
// мойкам и водителям. Выборки first-* детерминированы (ORDER BY id),
// чтобы поведение было воспроизводимым.
type FulfillmentRepository struct {
	conn uow.DBTX
}

func NewFulfillmentRepository(conn uow.DBTX) *FulfillmentRepository {
	return &FulfillmentRepository{conn: conn}
}

// FirstActiveStation возвращает активную мойку рынка с наименьшим id
// или domain.ErrRecordNotFound.
func (f *FulfillmentRepository) FirstActiveStation(ctx context.Context, marketID int64) (*domain.WashingStation, error) {
	row := f.conn.QueryRow(ctx, `
		SELECT id, created_at, market_id, account_id, name, owner_name, phone, active
		FROM washing_stations
		WHERE market_id = $1 AND active
		ORDER BY id
		LIMIT 1`, marketID)

	station, err := scanStation(row)
	if err != nil {
		return nil, convertErr(err, "finding active washing station in market `%d`", marketID)
	}
	return station, nil
}

// FirstAvailableDriver возвращает свободного активного водителя с наименьшим id.
// При marketID != nil пул сужается до рынка, иначе берется глобальный пул.
// Чтение нарочно без блокировки: назначение водителя - мягкое, два конкурентных
// заказа вправе получить одного и того же водителя.
func (f *FulfillmentRepository) FirstAvailableDriver(ctx context.Context, marketID *int64) (*domain.Driver, error) {
	row := f.conn.QueryRow(ctx, `
		SELECT id, created_at, account_id, market_id, name, phone, available, active
		FROM drivers
		WHERE available AND active AND ($1::bigint IS NULL OR market_id = $1)
		ORDER BY id
		LIMIT 1`, marketID)

	driver, err := scanDriver(row)
	if err != nil {
		return nil, convertErr(err, "finding available driver")
	}
	return driver, nil
}

func (f *FulfillmentRepository) CreateMarket(ctx context.Context, args repoargs.CreateMarket) (*domain.Market, error) {
	row := f.conn.QueryRow(ctx, `
		INSERT INTO markets (name, city, address) VALUES ($1, $2, $3)
		RETURNING id, created_at, name, city, address`,
		args.Name, args.City, args.Address)

	var m domain.Market
	if err := row.Scan(&m.ID, &m.CreatedAt, &m.Name, &m.City, &m.Address); err != nil {
		return nil, convertErr(err, "creating market `%s`", args.Name)
	}
	return &m, nil
}

func (f *FulfillmentRepository) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := f.conn.Query(ctx, `SELECT id, created_at, name, city, address FROM markets ORDER BY id`)
	if err != nil {
		return nil, convertErr(err, "listing markets")
	}
	defer rows.Close()

	var markets []domain.Market
	for rows.Next() {
		var m domain.Market
		if scanErr := rows.Scan(&m.ID, &m.CreatedAt, &m.Name, &m.City, &m.Address); scanErr != nil {
			return nil, convertErr(scanErr, "listing markets")
		}
		markets = append(markets, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing markets")
	}
	return markets, nil
}

func (f *FulfillmentRepository) CreateStation(
	ctx context.Context,
	args repoargs.CreateWashingStation,
) (*domain.WashingStation, error) {
	row := f.conn.QueryRow(ctx, `
		INSERT INTO washing_stations (market_id, account_id, name, owner_name, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, market_id, account_id, name, owner_name, phone, active`,
		args.MarketID, args.AccountID, args.Name, args.OwnerName, args.Phone)

	station, err := scanStation(row)
	if err != nil {
		return nil, convertErr(err, "creating washing station `%s`", args.Name)
	}
	return station, nil
}

func (f *FulfillmentRepository) ListStations(ctx context.Context) ([]domain.WashingStation, error) {
	rows, err := f.conn.Query(ctx, `
		SELECT id, created_at, market_id, account_id, name, owner_name, phone, active
		FROM washing_stations ORDER BY id`)
	if err != nil {
		return nil, convertErr(err, "listing washing stations")
	}
	defer rows.Close()

	var stations []domain.WashingStation
	for rows.Next() {
		station, scanErr := scanStation(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "listing washing stations")
		}
		stations = append(stations, *station)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing washing stations")
	}
	return stations, nil
}

func (f *FulfillmentRepository) CreateDriver(ctx context.Context, args repoargs.CreateDriver) (*domain.Driver, error) {
	row := f.conn.QueryRow(ctx, `
		INSERT INTO drivers (account_id, market_id, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, account_id, market_id, name, phone, available, active`,
		args.AccountID, args.MarketID, args.Name, args.Phone)

	driver, err := scanDriver(row)
	if err != nil {
		return nil, convertErr(err, "creating driver `%s`", args.Name)
	}
	return driver, nil
}

func (f *FulfillmentRepository) ListDrivers(ctx context.Context) ([]domain.Driver, error) {
	rows, err := f.conn.Query(ctx, `
		SELECT id, created_at, account_id, market_id, name, phone, available, active
		FROM drivers ORDER BY id`)
	if err != nil {
		return nil, convertErr(err, "listing drivers")
	}
	defer rows.Close()

	var drivers []domain.Driver
	for rows.Next() {
		driver, scanErr := scanDriver(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "listing drivers")
		}
		drivers = append(drivers, *driver)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing drivers")
	}
	return drivers, nil
}

func (f *FulfillmentRepository) SetDriverAvailability(ctx context.Context, driverID int64, available bool) error {
	tag, err := f.conn.Exec(ctx, `
		UPDATE drivers SET available = $1 WHERE id = $2`, available, driverID)
	if err != nil {
		return convertErr(err, "setting availability of driver `%d`", driverID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "setting availability of driver `%d`", driverID)
	}
	return nil
}

func scanStation(row rowScanner) (*domain.WashingStation, error) {
	var m domain.WashingStation
	err := row.Scan(&m.ID, &m.CreatedAt, &m.MarketID, &m.AccountID, &m.Name, &m.OwnerName, &m.Phone, &m.Active)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var m domain.Driver
	err := row.Scan(&m.ID, &m.CreatedAt, &m.AccountID, &m.MarketID, &m.Name, &m.Phone, &m.Available, &m.Active)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
