package pgrepo

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

const orderColumns = `id, created_at, updated_at, order_code, sales_code, buyer_id, seller_id,
	market_id, washing_station_id, driver_id, subtotal, washing_total, delivery_fee, grand_total,
	payment_method, payment_status, status, delivery_address, idempotency_key`

// Create вставляет заказ вместе с позициями. Вызывается только внутри uow-транзакции
// создания заказа, отдельной атомарности не обеспечивает.
func (o *OrderRepository) Create(ctx context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx, `
		INSERT INTO orders (order_code, sales_code, buyer_id, seller_id, market_id,
			washing_station_id, driver_id, subtotal, washing_total, delivery_fee, grand_total,
			payment_method, payment_status, status, delivery_address, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING `+orderColumns,
		args.OrderCode, args.SalesCode, args.BuyerID, args.SellerID, args.MarketID,
		args.WashingStationID, args.DriverID, args.Subtotal, args.WashingTotal,
		args.DeliveryFee, args.GrandTotal, args.PaymentMethod, args.PaymentStatus,
		args.Status, args.DeliveryAddress, args.IdempotencyKey)

	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "creating order with code `%s`", args.OrderCode)
	}

	for _, line := range args.Lines {
		lineRow := o.conn.QueryRow(ctx, `
			INSERT INTO order_lines (order_id, product_id, quantity, unit_price, washing, washing_fee)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, order_id, product_id, quantity, unit_price, washing, washing_fee`,
			order.ID, line.ProductID, line.Quantity, line.UnitPrice, line.Washing, line.WashingFee)

		var m domain.OrderLine
		scanErr := lineRow.Scan(&m.ID, &m.OrderID, &m.ProductID, &m.Quantity,
			&m.UnitPrice, &m.Washing, &m.WashingFee)
		if scanErr != nil {
			return nil, convertErr(scanErr, "creating line of order `%s`", args.OrderCode)
		}
		order.Lines = append(order.Lines, m)
	}
	return order, nil
}

func (o *OrderRepository) FindByIdempotencyKey(ctx context.Context, buyerID int64, key string) (*domain.Order, error) {
	row := o.conn.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE buyer_id = $1 AND idempotency_key = $2`, buyerID, key)
	order, err := scanOrder(row)
	if err != nil {
		return nil, convertErr(err, "finding order by idempotency key for buyer `%d`", buyerID)
	}
	if linesErr := o.loadLines(ctx, order); linesErr != nil {
		return nil, linesErr
	}
	return order, nil
}

// GetByBuyerID возвращает покупки аккаунта по убыванию даты создания.
func (o *OrderRepository) GetByBuyerID(ctx context.Context, buyerID int64) ([]domain.Order, error) {
	return o.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE buyer_id = $1 ORDER BY created_at DESC`, buyerID)
}

// GetBySellerID возвращает продажи аккаунта по убыванию даты создания.
func (o *OrderRepository) GetBySellerID(ctx context.Context, sellerID int64) ([]domain.Order, error) {
	return o.list(ctx, `SELECT `+orderColumns+` FROM orders
		WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

func (o *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := o.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "listing orders")
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "listing orders")
		}
		orders = append(orders, *order)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing orders")
	}
	return orders, nil
}

func (o *OrderRepository) loadLines(ctx context.Context, order *domain.Order) error {
	rows, err := o.conn.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, washing, washing_fee
		FROM order_lines WHERE order_id = $1 ORDER BY id`, order.ID)
	if err != nil {
		return convertErr(err, "loading lines of order `%d`", order.ID)
	}
	defer rows.Close()

	for rows.Next() {
		var m domain.OrderLine
		scanErr := rows.Scan(&m.ID, &m.OrderID, &m.ProductID, &m.Quantity,
			&m.UnitPrice, &m.Washing, &m.WashingFee)
		if scanErr != nil {
			return convertErr(scanErr, "loading lines of order `%d`", order.ID)
		}
		order.Lines = append(order.Lines, m)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return convertErr(rowsErr, "loading lines of order `%d`", order.ID)
	}
	return nil
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var m domain.Order
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.OrderCode, &m.SalesCode, &m.BuyerID, &m.SellerID,
		&m.MarketID, &m.WashingStationID, &m.DriverID, &m.Subtotal, &m.WashingTotal,
		&m.DeliveryFee, &m.GrandTotal, &m.PaymentMethod, &m.PaymentStatus, &m.Status,
		&m.DeliveryAddress, &m.IdempotencyKey,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
