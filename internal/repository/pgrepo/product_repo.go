package pgrepo

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type ProductRepository struct {
	conn uow.DBTX
}

func NewProductRepository(conn uow.DBTX) *ProductRepository {
	return &ProductRepository{conn: conn}
}

const productColumns = `id, created_at, updated_at, seller_id, name, description, price, stock,
	washing_available, washing_fee, active`

func (p *ProductRepository) Create(ctx context.Context, args repoargs.CreateProduct) (*domain.Product, error) {
	row := p.conn.QueryRow(ctx, `
		INSERT INTO products (seller_id, name, description, price, stock, washing_available, washing_fee)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+productColumns,
		args.SellerID, args.Name, args.Description, args.Price, args.Stock,
		args.WashingAvailable, args.WashingFee)

	product, err := scanProduct(row)
	if err != nil {
		return nil, convertErr(err, "creating product `%s`", args.Name)
	}
	return product, nil
}

// FindByIDs возвращает продукты по списку id. Отсутствующие id не являются ошибкой,
// результат может быть короче запрошенного списка.
func (p *ProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Product, error) {
	rows, err := p.conn.Query(ctx, `
		SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, convertErr(err, "finding products by ids `%v`", ids)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "finding products by ids `%v`", ids)
		}
		products = append(products, *product)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "finding products by ids `%v`", ids)
	}
	return products, nil
}

func (p *ProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	return p.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE active AND stock > 0 ORDER BY created_at DESC`)
}

func (p *ProductRepository) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return p.list(ctx, `SELECT `+productColumns+` FROM products
		WHERE seller_id = $1 ORDER BY created_at DESC`, sellerID)
}

// Reserve атомарно списывает quantity единиц со склада. Условие stock >= quantity
// входит в сам UPDATE: строка либо блокируется и списывается, либо не затрагивается вовсе,
// поэтому два конкурентных резерва не могут увести остаток в минус.
func (p *ProductRepository) Reserve(ctx context.Context, productID int64, quantity int32) error {
	tag, err := p.conn.Exec(ctx, `
		UPDATE products SET stock = stock - $1, updated_at = now()
		WHERE id = $2 AND stock >= $1`, quantity, productID)
	if err != nil {
		return convertErr(err, "reserving %d of product `%d`", quantity, productID)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewInsufficientStockError(productID, quantity)
	}
	return nil
}

// Release компенсирующая операция для Reserve. Внутри атомарного создания заказа не нужна,
// но используется сценариями отмены.
func (p *ProductRepository) Release(ctx context.Context, productID int64, quantity int32) error {
	tag, err := p.conn.Exec(ctx, `
		UPDATE products SET stock = stock + $1, updated_at = now()
		WHERE id = $2`, quantity, productID)
	if err != nil {
		return convertErr(err, "releasing %d of product `%d`", quantity, productID)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "releasing %d of product `%d`", quantity, productID)
	}
	return nil
}

func (p *ProductRepository) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := p.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, convertErr(err, "listing products")
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, scanErr := scanProduct(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "listing products")
		}
		products = append(products, *product)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "listing products")
	}
	return products, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var m domain.Product
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.SellerID, &m.Name, &m.Description,
		&m.Price, &m.Stock, &m.WashingAvailable, &m.WashingFee, &m.Active,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
