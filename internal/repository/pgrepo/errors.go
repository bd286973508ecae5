package pgrepo

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fsdevblog/qat-souq/internal/domain"
)

const (
	uniqueViolationCode    = "23505"
	serializationErrorCode = "40001"
	deadlockDetectedCode   = "40P01"
	lockNotAvailableCode   = "55P03"
	queryCanceledCode      = "57014" // statement_timeout
)

// errNoRowsAffected оборачивает pgx.ErrNoRows, чтобы convertErr отдал domain.ErrRecordNotFound
// для Exec-запросов, не затронувших ни одной строки.
var errNoRowsAffected = fmt.Errorf("no rows affected: %w", pgx.ErrNoRows)

// convertErr преобразует ошибку к стандартному виду для слоя репозитория.
// Добавляет форматированное сообщение контекста, тип бизнес-ошибки и оригинальное сообщение.
// Особенности:
//   - Для ошибок отсутствия данных (pgx.ErrNoRows) возвращает ErrRecordNotFound из domain.
//   - Дубликаты ключей (uniqueViolationCode) становятся ErrDuplicateKey из domain.
//   - Сбои изоляции (сериализация, дедлок, недоступная блокировка, таймаут запроса)
//     становятся ErrConflict - вызывающий вправе повторить всю операцию.
//   - Все остальные ошибки возвращаются как ErrUnknown с оригинальным сообщением.
func convertErr(err error, format string, formatArgs ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, formatArgs...)

	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("[repository/%s] %w", msg, domain.ErrRecordNotFound)
	}

	var pgErr *pgconn.PgError
	errType := domain.ErrUnknown

	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			errType = domain.ErrDuplicateKey
		case serializationErrorCode, deadlockDetectedCode, lockNotAvailableCode, queryCanceledCode:
			errType = domain.ErrConflict
		}
	}

	return fmt.Errorf("[repository/%s] %w: %s", msg, errType, err.Error())
}

func errorIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrRecordNotFound)
}
