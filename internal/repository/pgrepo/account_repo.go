package pgrepo

import (
	"context"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type AccountRepository struct {
	conn uow.DBTX
}

func NewAccountRepository(conn uow.DBTX) *AccountRepository {
	return &AccountRepository{conn: conn}
}

const accountColumns = `id, created_at, updated_at, name, phone, password, role, market_id, balance, active`

func (a *AccountRepository) Create(ctx context.Context, args repoargs.CreateAccount) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `
		INSERT INTO accounts (name, phone, password, role, market_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+accountColumns,
		args.Name, args.Phone, args.Password, args.Role, args.MarketID)

	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "creating account with phone `%s`", args.Phone)
	}
	return account, nil
}

func (a *AccountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account by id `%d`", id)
	}
	return account, nil
}

func (a *AccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	row := a.conn.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE phone = $1`, phone)
	account, err := scanAccount(row)
	if err != nil {
		return nil, convertErr(err, "finding account by phone `%s`", phone)
	}
	return account, nil
}

// Deactivate мягкое отключение аккаунта. Записи аккаунтов физически не удаляются.
func (a *AccountRepository) Deactivate(ctx context.Context, id int64) error {
	tag, err := a.conn.Exec(ctx, `
		UPDATE accounts SET active = FALSE, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return convertErr(err, "deactivating account `%d`", id)
	}
	if tag.RowsAffected() == 0 {
		return convertErr(errNoRowsAffected, "deactivating account `%d`", id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var m domain.Account
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.UpdatedAt, &m.Name, &m.Phone, &m.Password,
		&m.Role, &m.MarketID, &m.Balance, &m.Active,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
