package service

import (
	"context"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/service/mocks"
	"github.com/fsdevblog/qat-souq/internal/service/psswd"
	"github.com/fsdevblog/qat-souq/internal/service/tokens"
	"github.com/fsdevblog/qat-souq/pkg/uow"
	uowmocks "github.com/fsdevblog/qat-souq/pkg/uow/mocks"
)

var testJWTSecret = []byte("super secret key")

type AccountServiceTestSuite struct {
	suite.Suite
	mockCtrl            *gomock.Controller
	mockUOW             *uowmocks.MockUOW
	mockTX              *uowmocks.MockTX
	mockAccountRepo     *mocks.MockAccountRepository
	mockFulfillmentRepo *mocks.MockFulfillmentRepository
	accountService      *AccountService
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceTestSuite))
}

func (s *AccountServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockAccountRepo = mocks.NewMockAccountRepository(s.mockCtrl)
	s.mockFulfillmentRepo = mocks.NewMockFulfillmentRepository(s.mockCtrl)

	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.FulfillmentRepoName)).
		Return(s.mockFulfillmentRepo, nil).AnyTimes()

	accountService, servErr := NewAccountService(s.mockUOW, testJWTSecret)
	s.Require().NoError(servErr)
	s.accountService = accountService
}

func (s *AccountServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *AccountServiceTestSuite) expectDo() {
	s.mockUOW.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, uow.TX) error) error {
			return fn(ctx, s.mockTX)
		})
}

func (s *AccountServiceTestSuite) TestRegisterBuyer() {
	phone := gofakeit.Phone()
	name := gofakeit.Name()

	s.mockAccountRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateAccount) (*domain.Account, error) {
			s.Equal(phone, args.Phone)
			s.Equal(domain.RoleBuyer, args.Role)
			// В репозиторий уходит хеш, не исходный пароль.
			s.NotEqual("password123", args.Password)
			return &domain.Account{ID: 1, Name: args.Name, Phone: args.Phone, Role: args.Role, Active: true}, nil
		})
	// Запись в пуле водителей создается только для роли водителя.
	s.mockFulfillmentRepo.EXPECT().CreateDriver(gomock.Any(), gomock.Any()).Times(0)
	s.expectDo()

	account, token, err := s.accountService.Register(context.Background(), RegisterAccountArgs{
		Name:     name,
		Phone:    phone,
		Password: "password123",
		Role:     domain.RoleBuyer,
	})
	s.Require().NoError(err)
	s.Equal(int64(1), account.ID)

	claims, claimsErr := tokens.ValidateAccountJWT(token, testJWTSecret)
	s.Require().NoError(claimsErr)
	s.Equal(int64(1), claims.ID)
	s.Equal(domain.RoleBuyer, claims.Role)
}

func (s *AccountServiceTestSuite) TestRegisterDriverCreatesPoolEntry() {
	marketID := int64(7)
	phone := gofakeit.Phone()

	s.mockAccountRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&domain.Account{ID: 4, Phone: phone, Role: domain.RoleDriver, Active: true}, nil)
	s.mockFulfillmentRepo.EXPECT().
		CreateDriver(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateDriver) (*domain.Driver, error) {
			s.Equal(int64(4), args.AccountID)
			s.Equal(&marketID, args.MarketID)
			return &domain.Driver{ID: 1, AccountID: args.AccountID}, nil
		})
	s.expectDo()

	_, _, err := s.accountService.Register(context.Background(), RegisterAccountArgs{
		Name:     gofakeit.Name(),
		Phone:    phone,
		Password: "password123",
		Role:     domain.RoleDriver,
		MarketID: &marketID,
	})
	s.Require().NoError(err)
}

func (s *AccountServiceTestSuite) TestRegisterDuplicatePhone() {
	s.mockAccountRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrDuplicateKey)
	s.expectDo()

	_, _, err := s.accountService.Register(context.Background(), RegisterAccountArgs{
		Name:     gofakeit.Name(),
		Phone:    gofakeit.Phone(),
		Password: "password123",
		Role:     domain.RoleBuyer,
	})
	s.Require().ErrorIs(err, domain.ErrDuplicateKey)
}

func (s *AccountServiceTestSuite) TestLogin() {
	hash, hashErr := psswd.PasswordHash("").HashPassword("password123")
	s.Require().NoError(hashErr)
	stored := &domain.Account{ID: 1, Phone: "+967700000001", Password: hash, Role: domain.RoleBuyer, Active: true}

	testCases := []struct {
		name     string
		phone    string
		password string
		found    *domain.Account
		findErr  error
		wantErr  error
	}{
		{
			name:     "valid credentials",
			phone:    stored.Phone,
			password: "password123",
			found:    stored,
		},
		{
			name:     "wrong password",
			phone:    stored.Phone,
			password: "wrong",
			found:    stored,
			wantErr:  domain.ErrPasswordMissMatch,
		},
		{
			name:     "unknown phone",
			phone:    "+967700009999",
			password: "password123",
			findErr:  domain.ErrRecordNotFound,
			wantErr:  domain.ErrPasswordMissMatch,
		},
		{
			name:     "deactivated account",
			phone:    stored.Phone,
			password: "password123",
			found:    &domain.Account{ID: 2, Phone: stored.Phone, Password: hash, Role: domain.RoleBuyer, Active: false},
			wantErr:  domain.ErrAccountDeactivated,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.mockAccountRepo.EXPECT().
				FindByPhone(gomock.Any(), tc.phone).
				Return(tc.found, tc.findErr)

			account, token, err := s.accountService.Login(context.Background(), tc.phone, tc.password)
			if tc.wantErr != nil {
				s.Require().ErrorIs(err, tc.wantErr)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.found.ID, account.ID)
			s.NotEmpty(token)
		})
	}
}
