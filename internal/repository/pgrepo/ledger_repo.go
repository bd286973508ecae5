package pgrepo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type LedgerRepository struct {
	conn uow.DBTX
}

func NewLedgerRepository(conn uow.DBTX) *LedgerRepository {
	return &LedgerRepository{conn: conn}
}

// Post проводит сумму по счету и добавляет запись в журнал одним логическим действием.
// Изменение баланса выполняется условным UPDATE: условие balance + amount >= 0 входит
// в сам запрос, поэтому чтение и запись баланса не разрываются (никаких lost update).
// Для дебета (amount < 0) при нехватке средств вернется domain.ErrInsufficientFunds,
// кредит на существующий счет всегда успешен.
func (l *LedgerRepository) Post(ctx context.Context, args repoargs.LedgerPost) (*domain.LedgerEntry, error) {
	var before, after decimal.Decimal

	err := l.conn.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, updated_at = now()
		WHERE id = $2 AND balance + $1 >= 0
		RETURNING balance - $1, balance`,
		args.Amount, args.AccountID).Scan(&before, &after)
	if err != nil {
		converted := convertErr(err, "posting %s to account `%d`", args.Amount, args.AccountID)
		// Условие UPDATE не выполнилось: либо счета нет, либо не хватает средств.
		// Для дебета различаем эти случаи дополнительным чтением.
		if errorIsNotFound(converted) && args.Amount.IsNegative() {
			if _, findErr := l.accountExists(ctx, args.AccountID); findErr == nil {
				return nil, domain.ErrInsufficientFunds
			}
		}
		return nil, converted
	}

	row := l.conn.QueryRow(ctx, `
		INSERT INTO ledger_entries (account_id, amount, kind, reference, balance_before, balance_after)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, account_id, amount, kind, reference, balance_before, balance_after`,
		args.AccountID, args.Amount, args.Kind, args.Reference, before, after)

	entry, scanErr := scanLedgerEntry(row)
	if scanErr != nil {
		return nil, convertErr(scanErr, "appending ledger entry for account `%d`", args.AccountID)
	}
	return entry, nil
}

func (l *LedgerRepository) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := l.conn.QueryRow(ctx, `SELECT balance FROM accounts WHERE id = $1`, accountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, convertErr(err, "getting balance of account `%d`", accountID)
	}
	return balance, nil
}

// Entries возвращает последние limit записей журнала по убыванию даты создания.
func (l *LedgerRepository) Entries(ctx context.Context, accountID int64, limit uint) ([]domain.LedgerEntry, error) {
	rows, err := l.conn.Query(ctx, `
		SELECT id, created_at, account_id, amount, kind, reference, balance_before, balance_after
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`, accountID, int64(limit))
	if err != nil {
		return nil, convertErr(err, "getting ledger entries of account `%d`", accountID)
	}
	defer rows.Close()

	var entries []domain.LedgerEntry
	for rows.Next() {
		entry, scanErr := scanLedgerEntry(rows)
		if scanErr != nil {
			return nil, convertErr(scanErr, "getting ledger entries of account `%d`", accountID)
		}
		entries = append(entries, *entry)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "getting ledger entries of account `%d`", accountID)
	}
	return entries, nil
}

func (l *LedgerRepository) accountExists(ctx context.Context, accountID int64) (bool, error) {
	var exists bool
	err := l.conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`, accountID).Scan(&exists)
	if err != nil || !exists {
		return false, convertErr(errNoRowsAffected, "checking account `%d`", accountID)
	}
	return true, nil
}

func scanLedgerEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var m domain.LedgerEntry
	err := row.Scan(
		&m.ID, &m.CreatedAt, &m.AccountID, &m.Amount, &m.Kind,
		&m.Reference, &m.BalanceBefore, &m.BalanceAfter,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
