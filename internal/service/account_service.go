package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/service/psswd"
	"github.com/fsdevblog/qat-souq/internal/service/tokens"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

const JWTTokenExpire = 24 * time.Hour

type AccountService struct {
	uow            uow.UOW
	accountRepo    AccountRepository
	hasher         PasswordHasher
	jwtTokenSecret []byte
}

func NewAccountService(u uow.UOW, jwtTokenSecret []byte) (*AccountService, error) {
	accountRepo, repoErr := uow.GetRepositoryAs[AccountRepository](u, uow.RepositoryName(repoargs.AccountRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &AccountService{
		uow:            u,
		accountRepo:    accountRepo,
		hasher:         psswd.PasswordHash(""),
		jwtTokenSecret: jwtTokenSecret,
	}, nil
}

type RegisterAccountArgs struct {
	Name     string
	Phone    string
	Password string
	Role     domain.RoleType
	MarketID *int64
}

// Register создает аккаунт (кошелек открывается с нулевым балансом) и выдает jwt токен.
// Для роли водителя в той же транзакции создается запись в пуле водителей,
// иначе Assigner его никогда не увидит.
func (s *AccountService) Register(ctx context.Context, args RegisterAccountArgs) (*domain.Account, string, error) {
	password, hashErr := s.hasher.HashPassword(args.Password)
	if hashErr != nil {
		return nil, "", fmt.Errorf("registering account: %s", hashErr.Error())
	}

	var account *domain.Account
	txErr := s.uow.Do(ctx, func(c context.Context, tx uow.TX) error {
		accountRepo, accountRepoErr := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
		if accountRepoErr != nil {
			return accountRepoErr //nolint:wrapcheck
		}
		var accErr error
		account, accErr = accountRepo.Create(c, repoargs.CreateAccount{
			Name:     args.Name,
			Phone:    args.Phone,
			Password: password,
			Role:     args.Role,
			MarketID: args.MarketID,
		})
		if accErr != nil {
			return accErr //nolint:wrapcheck
		}

		if args.Role == domain.RoleDriver {
			fulfillmentRepo, fRepoErr :=
				uow.GetAs[FulfillmentRepository](tx, uow.RepositoryName(repoargs.FulfillmentRepoName))
			if fRepoErr != nil {
				return fRepoErr //nolint:wrapcheck
			}
			if _, driverErr := fulfillmentRepo.CreateDriver(c, repoargs.CreateDriver{
				AccountID: account.ID,
				MarketID:  args.MarketID,
				Name:      args.Name,
				Phone:     args.Phone,
			}); driverErr != nil {
				return driverErr //nolint:wrapcheck
			}
		}
		return nil
	})

	if txErr != nil {
		return nil, "", fmt.Errorf("registering account: %w", txErr)
	}

	token, tokenErr := tokens.GenerateAccountJWT(account.ID, account.Role, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("registering account: %s", tokenErr.Error())
	}
	return account, token, nil
}

// Login проверяет пару телефон/пароль и выдает jwt токен. Для неизвестного телефона
// и неверного пароля возвращается одна и та же ошибка domain.ErrPasswordMissMatch.
func (s *AccountService) Login(ctx context.Context, phone, password string) (*domain.Account, string, error) {
	account, findErr := s.accountRepo.FindByPhone(ctx, phone)
	if findErr != nil {
		if errors.Is(findErr, domain.ErrRecordNotFound) {
			return nil, "", domain.ErrPasswordMissMatch
		}
		return nil, "", fmt.Errorf("logging in: %w", findErr)
	}

	if !account.Active {
		return nil, "", domain.ErrAccountDeactivated
	}

	if !s.hasher.ComparePassword(password, account.Password) {
		return nil, "", domain.ErrPasswordMissMatch
	}

	token, tokenErr := tokens.GenerateAccountJWT(account.ID, account.Role, JWTTokenExpire, s.jwtTokenSecret)
	if tokenErr != nil {
		return nil, "", fmt.Errorf("logging in: %s", tokenErr.Error())
	}
	return account, token, nil
}
