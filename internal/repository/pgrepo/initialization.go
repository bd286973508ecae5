package pgrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	connectAttempts      uint = 30
	connectRetryInterval      = 3 * time.Second
)

// Connect открывает пул соединений с повторами (база может подниматься дольше
// сервиса) и накатывает миграции. Ошибка миграции фатальна: работать по
// неизвестной схеме нельзя.
func Connect(ctx context.Context, migrationsDir, dsn string, l *logrus.Logger) (*pgxpool.Pool, error) {
	pool, connErr := connectWithRetry(ctx, dsn, l)
	if connErr != nil {
		return nil, connErr
	}

	if migErr := applyMigrations(migrationsDir, dsn); migErr != nil {
		pool.Close()
		return nil, migErr
	}
	return pool, nil
}

func connectWithRetry(ctx context.Context, dsn string, l *logrus.Logger) (*pgxpool.Pool, error) {
	for attempt := uint(1); ; attempt++ {
		pool, poolErr := newPool(ctx, dsn)
		if poolErr == nil {
			return pool, nil
		}
		if attempt >= connectAttempts {
			return nil, fmt.Errorf("connecting to postgres after %d attempts: %w", connectAttempts, poolErr)
		}

		l.WithError(poolErr).
			WithField("attempt", fmt.Sprintf("%d/%d", attempt, connectAttempts)).
			Warnf("postgres is not ready, retrying in %.f seconds", connectRetryInterval.Seconds())

		select {
		case <-ctx.Done():
			return nil, ctx.Err() //nolint:wrapcheck
		case <-time.After(connectRetryInterval):
		}
	}
}

func newPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	poolConfig, confErr := pgxpool.ParseConfig(dsn)
	if confErr != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %s", confErr.Error())
	}

	pool, poolErr := pgxpool.NewWithConfig(ctx, poolConfig)
	if poolErr != nil {
		return nil, fmt.Errorf("creating pool: %s", poolErr.Error())
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %s", pingErr.Error())
	}
	return pool, nil
}

func applyMigrations(dir, dsn string) error {
	m, mErr := migrate.New("file://"+dir, dsn)
	if mErr != nil {
		return pkgerrors.Wrap(mErr, "creating migrate instance")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return pkgerrors.Wrap(err, "migrating schema")
	}
	return nil
}
