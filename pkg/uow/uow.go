// Package uow реализует паттерн Unit of Work поверх pgxpool: репозитории регистрируются
// фабриками по имени, а Do выполняет произвольную функцию внутри одной транзакции,
// выдавая ей те же репозитории, но уже привязанные к транзакции.
package uow

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RepositoryName string
type Repository any
type RepositoryFactory func(DBTX) Repository

type UnitOfWork struct {
	conn         *pgxpool.Pool
	repositories map[RepositoryName]RepositoryFactory
}

func NewUnitOfWork(conn *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{
		conn:         conn,
		repositories: make(map[RepositoryName]RepositoryFactory),
	}
}

// Register регистрирует фабрику репозитория. Повторная регистрация под тем же именем
// вернет ошибку ErrRepositoryAlreadyRegistered.
func (u *UnitOfWork) Register(name RepositoryName, factory RepositoryFactory) error {
	if _, ok := u.repositories[name]; ok {
		return ErrRepositoryAlreadyRegistered
	}
	u.repositories[name] = factory
	return nil
}

// MustRegister то же что Register, но паникует при ошибке. Удобно на этапе сборки приложения.
func (u *UnitOfWork) MustRegister(name RepositoryName, factory RepositoryFactory) {
	if err := u.Register(name, factory); err != nil {
		panic(err)
	}
}

// Do выполняет функцию fn внутри транзакции. Если fn вернула ошибку, транзакция
// откатывается целиком; коммит происходит только при nil.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, TX) error) (err error) {
	tx, txErr := u.conn.BeginTx(ctx, pgx.TxOptions{})
	if txErr != nil {
		return txErr //nolint:wrapcheck
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			if err == nil {
				err = rollbackErr
			} else {
				err = errors.Join(err, rollbackErr)
			}
		}
	}()

	transErr := fn(ctx, NewTransaction(tx, u.repositories))
	if transErr != nil {
		return transErr
	}
	err = tx.Commit(ctx)
	return
}

// DoRetry повторяет Do до attempts раз, пока retryable возвращает true для полученной
// ошибки. Последняя ошибка отдается вызывающему как есть.
func (u *UnitOfWork) DoRetry(
	ctx context.Context,
	attempts uint,
	retryable func(error) bool,
	fn func(context.Context, TX) error,
) error {
	var err error
	for i := uint(0); i < attempts; i++ {
		err = u.Do(ctx, fn)
		if err == nil || !retryable(err) {
			return err
		}
	}
	return err
}

// GetRepository возвращает репозиторий, привязанный к пулу (вне транзакции),
// или ошибку ErrRepositoryNotRegistered.
func (u *UnitOfWork) GetRepository(name RepositoryName) (Repository, error) {
	if repoFactory, ok := u.repositories[name]; ok {
		return repoFactory(u.conn), nil
	}
	return nil, ErrRepositoryNotRegistered
}

// GetRepositoryAs возвращает репозиторий по имени name приведенный к типу T. Возвращает ошибки
// ErrRepositoryNotRegistered и ErrInvalidRepositoryType.
func GetRepositoryAs[T any](u UOW, name RepositoryName) (T, error) {
	var res T
	repo, err := u.GetRepository(name)
	if err != nil {
		return res, err //nolint:wrapcheck
	}
	r, ok := repo.(T)

	if !ok {
		return res, ErrInvalidRepositoryType
	}

	return r, nil
}
