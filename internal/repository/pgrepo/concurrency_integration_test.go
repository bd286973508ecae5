//go:build integration

package pgrepo_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/pgrepo"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

// Тесты гонок ходят в настоящий postgres: условные UPDATE в Reserve и Post
// имеют смысл только под реальной блокировкой строк. Запуск:
//
//	DATABASE_URI=postgres://... go test -tags integration ./internal/repository/pgrepo/...
type ConcurrencyTestSuite struct {
	suite.Suite

	pool       *pgxpool.Pool
	unitOfWork *uow.UnitOfWork

	accountRepo *pgrepo.AccountRepository
	productRepo *pgrepo.ProductRepository
	ledgerRepo  *pgrepo.LedgerRepository
}

func TestConcurrencySuite(t *testing.T) {
	if os.Getenv("DATABASE_URI") == "" {
		t.Skip("DATABASE_URI is not set")
	}
	suite.Run(t, new(ConcurrencyTestSuite))
}

func (s *ConcurrencyTestSuite) SetupSuite() {
	l := logrus.New()
	l.SetOutput(os.Stderr)

	pool, err := pgrepo.Connect(context.Background(), "../../db/migrations", os.Getenv("DATABASE_URI"), l)
	s.Require().NoError(err)

	s.pool = pool
	s.accountRepo = pgrepo.NewAccountRepository(pool)
	s.productRepo = pgrepo.NewProductRepository(pool)
	s.ledgerRepo = pgrepo.NewLedgerRepository(pool)

	s.unitOfWork = uow.NewUnitOfWork(pool)
	s.unitOfWork.MustRegister(uow.RepositoryName(repoargs.LedgerRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewLedgerRepository(dbtx)
	})
}

func (s *ConcurrencyTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// TestReserveNeverOversells пять конкурентных резервов бьются за остаток в 4 единицы:
// ровно один должен получить InsufficientStockError, остаток не уходит в минус.
func (s *ConcurrencyTestSuite) TestReserveNeverOversells() {
	ctx := context.Background()
	seller := s.createAccount(domain.RoleSeller, decimal.Zero)

	product, err := s.productRepo.Create(ctx, repoargs.CreateProduct{
		SellerID: seller.ID,
		Name:     "contested bundle",
		Price:    decimal.NewFromInt(60),
		Stock:    4,
	})
	s.Require().NoError(err)

	const workers = 5
	var reserved atomic.Int32
	var stockErrs atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reserveErr := s.productRepo.Reserve(ctx, product.ID, 1)
			switch {
			case reserveErr == nil:
				reserved.Add(1)
			default:
				var stockErr *domain.InsufficientStockError
				s.ErrorAs(reserveErr, &stockErr)
				stockErrs.Add(1)
			}
		}()
	}
	wg.Wait()

	s.EqualValues(4, reserved.Load())
	s.EqualValues(1, stockErrs.Load())

	products, findErr := s.productRepo.FindByIDs(ctx, []int64{product.ID})
	s.Require().NoError(findErr)
	s.Require().Len(products, 1)
	s.EqualValues(0, products[0].Stock)
}

// TestPostRejectsConcurrentOverdraft два параллельных перевода по 100 при балансе 150:
// ровно один проходит, второй получает ErrInsufficientFunds, суммарный баланс сохраняется.
func (s *ConcurrencyTestSuite) TestPostRejectsConcurrentOverdraft() {
	ctx := context.Background()
	amount := decimal.NewFromInt(100)

	buyer := s.createAccount(domain.RoleBuyer, decimal.NewFromInt(150))
	seller := s.createAccount(domain.RoleSeller, decimal.Zero)

	transfer := func(reference string) error {
		return s.unitOfWork.Do(ctx, func(c context.Context, tx uow.TX) error {
			repo, repoErr := uow.GetAs[*pgrepo.LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
			if repoErr != nil {
				return repoErr
			}
			if _, postErr := repo.Post(c, repoargs.LedgerPost{
				AccountID: buyer.ID,
				Amount:    amount.Neg(),
				Kind:      domain.LedgerKindPurchase,
				Reference: reference,
			}); postErr != nil {
				return postErr
			}
			_, postErr := repo.Post(c, repoargs.LedgerPost{
				AccountID: seller.ID,
				Amount:    amount,
				Kind:      domain.LedgerKindSale,
				Reference: reference,
			})
			return postErr
		})
	}

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = transfer(fmt.Sprintf("transfer-%d", i))
		}(i)
	}
	wg.Wait()

	var succeeded, rejected int
	for _, transferErr := range results {
		if transferErr == nil {
			succeeded++
			continue
		}
		s.ErrorIs(transferErr, domain.ErrInsufficientFunds)
		rejected++
	}
	s.Equal(1, succeeded)
	s.Equal(1, rejected)

	buyerBalance, balErr := s.ledgerRepo.Balance(ctx, buyer.ID)
	s.Require().NoError(balErr)
	sellerBalance, balErr := s.ledgerRepo.Balance(ctx, seller.ID)
	s.Require().NoError(balErr)

	s.True(buyerBalance.Equal(decimal.NewFromInt(50)), "buyer balance = %s", buyerBalance)
	s.True(sellerBalance.Equal(amount), "seller balance = %s", sellerBalance)
	s.True(buyerBalance.Add(sellerBalance).Equal(decimal.NewFromInt(150)))
}

func (s *ConcurrencyTestSuite) createAccount(role domain.RoleType, balance decimal.Decimal) *domain.Account {
	ctx := context.Background()
	account, err := s.accountRepo.Create(ctx, repoargs.CreateAccount{
		Name:     fmt.Sprintf("test %s", role),
		Phone:    fmt.Sprintf("+%d", time.Now().UnixNano()),
		Password: "hash",
		Role:     role,
	})
	s.Require().NoError(err)

	if balance.IsPositive() {
		_, postErr := s.ledgerRepo.Post(ctx, repoargs.LedgerPost{
			AccountID: account.ID,
			Amount:    balance,
			Kind:      domain.LedgerKindDeposit,
			Reference: fmt.Sprintf("seed-%d", account.ID),
		})
		s.Require().NoError(postErr)
	}
	return account
}
