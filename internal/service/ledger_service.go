package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

// MinDepositAmount минимальная сумма пополнения кошелька.
var MinDepositAmount = decimal.NewFromInt(10)

// DefaultStatementLimit сколько записей журнала отдается в выписке.
const DefaultStatementLimit uint = 50

type LedgerService struct {
	uow        uow.UOW
	ledgerRepo LedgerRepository
	sink       NotificationSink
}

func NewLedgerService(u uow.UOW, sink NotificationSink) (*LedgerService, error) {
	ledgerRepo, repoErr := uow.GetRepositoryAs[LedgerRepository](u, uow.RepositoryName(repoargs.LedgerRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &LedgerService{
		uow:        u,
		ledgerRepo: ledgerRepo,
		sink:       sink,
	}, nil
}

func (s *LedgerService) Balance(ctx context.Context, accountID int64) (decimal.Decimal, error) {
	balance, err := s.ledgerRepo.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err //nolint:wrapcheck
	}
	return balance, nil
}

// Deposit пополняет кошелек. Проводка и запись журнала выполняются одной транзакцией:
// repo.Post состоит из двух запросов и вне uow.Do может оставить баланс без записи журнала.
func (s *LedgerService) Deposit(
	ctx context.Context,
	accountID int64,
	amount decimal.Decimal,
	method string,
) (*domain.LedgerEntry, error) {
	if amount.LessThan(MinDepositAmount) {
		return nil, fmt.Errorf("%w: deposit amount must be at least %s", domain.ErrValidation, MinDepositAmount)
	}

	entry, err := s.post(ctx, repoargs.LedgerPost{
		AccountID: accountID,
		Amount:    amount,
		Kind:      domain.LedgerKindDeposit,
		Reference: uuid.NewString(),
	})
	if err != nil {
		return nil, fmt.Errorf("depositing to account %d: %w", accountID, err)
	}

	s.sink.Enqueue([]repoargs.CreateNotification{{
		AccountID: accountID,
		Title:     "Wallet recharged",
		Message:   fmt.Sprintf("Your wallet was recharged with %s via %s", amount, method),
		Kind:      "payment",
		RelatedID: &entry.ID,
	}})
	return entry, nil
}

// Withdraw списывает сумму с кошелька. При нехватке средств возвращает
// domain.ErrInsufficientFunds, частичных списаний не бывает.
func (s *LedgerService) Withdraw(
	ctx context.Context,
	accountID int64,
	amount decimal.Decimal,
	destination string,
) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: withdraw amount must be positive", domain.ErrValidation)
	}

	entry, err := s.post(ctx, repoargs.LedgerPost{
		AccountID: accountID,
		Amount:    amount.Neg(),
		Kind:      domain.LedgerKindWithdraw,
		Reference: uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}

	s.sink.Enqueue([]repoargs.CreateNotification{{
		AccountID: accountID,
		Title:     "Withdrawal requested",
		Message:   fmt.Sprintf("Withdrawal of %s to %s accepted for processing", amount, destination),
		Kind:      "payment",
		RelatedID: &entry.ID,
	}})
	return entry, nil
}

// Statement возвращает последние limit записей журнала по убыванию даты.
func (s *LedgerService) Statement(ctx context.Context, accountID int64, limit uint) ([]domain.LedgerEntry, error) {
	entries, err := s.ledgerRepo.Entries(ctx, accountID, limit)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return entries, nil
}

func (s *LedgerService) post(ctx context.Context, args repoargs.LedgerPost) (*domain.LedgerEntry, error) {
	var entry *domain.LedgerEntry
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		ledgerRepo, repoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
		if repoErr != nil {
			return repoErr //nolint:wrapcheck
		}
		var postErr error
		entry, postErr = ledgerRepo.Post(c, args)
		return postErr //nolint:wrapcheck
	})
	if txErr != nil {
		return nil, txErr //nolint:wrapcheck
	}
	return entry, nil
}
