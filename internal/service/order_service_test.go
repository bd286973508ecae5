package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/service/mocks"
	"github.com/fsdevblog/qat-souq/pkg/uow"
	uowmocks "github.com/fsdevblog/qat-souq/pkg/uow/mocks"
)

type OrderServiceTestSuite struct {
	suite.Suite
	mockCtrl        *gomock.Controller
	mockUOW         *uowmocks.MockUOW
	mockTX          *uowmocks.MockTX
	mockOrderRepo   *mocks.MockOrderRepository
	mockProductRepo *mocks.MockProductRepository
	mockLedgerRepo  *mocks.MockLedgerRepository
	mockAccountRepo *mocks.MockAccountRepository
	mockAssigner    *mocks.MockAssigner
	mockSink        *mocks.MockNotificationSink
	orderService    *OrderService
}

func TestOrderServiceSuite(t *testing.T) {
	suite.Run(t, new(OrderServiceTestSuite))
}

func (s *OrderServiceTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockUOW = uowmocks.NewMockUOW(s.mockCtrl)
	s.mockTX = uowmocks.NewMockTX(s.mockCtrl)
	s.mockOrderRepo = mocks.NewMockOrderRepository(s.mockCtrl)
	s.mockProductRepo = mocks.NewMockProductRepository(s.mockCtrl)
	s.mockLedgerRepo = mocks.NewMockLedgerRepository(s.mockCtrl)
	s.mockAccountRepo = mocks.NewMockAccountRepository(s.mockCtrl)
	s.mockAssigner = mocks.NewMockAssigner(s.mockCtrl)
	s.mockSink = mocks.NewMockNotificationSink(s.mockCtrl)

	// Мок получения репозитория из uow. Выполняется в инициализации сервиса.
	s.mockUOW.EXPECT().GetRepository(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()

	// Репозитории внутри транзакции.
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.ProductRepoName)).
		Return(s.mockProductRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.LedgerRepoName)).
		Return(s.mockLedgerRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.AccountRepoName)).
		Return(s.mockAccountRepo, nil).AnyTimes()
	s.mockTX.EXPECT().Get(uow.RepositoryName(repoargs.OrderRepoName)).
		Return(s.mockOrderRepo, nil).AnyTimes()

	// Инициализация сервиса.
	orderService, servErr := NewOrderService(s.mockUOW, s.mockAssigner, s.mockSink, decimal.NewFromInt(15))
	s.Require().NoError(servErr)
	s.orderService = orderService
}

func (s *OrderServiceTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// expectDoRetry проксирует DoRetry мока на реальную семантику повторов,
// выдавая fn транзакционный мок.
func (s *OrderServiceTestSuite) expectDoRetry() {
	s.mockUOW.EXPECT().
		DoRetry(gomock.Any(), createOrderAttempts, gomock.Any(), gomock.Any()).
		DoAndReturn(func(
			ctx context.Context,
			attempts uint,
			retryable func(error) bool,
			fn func(context.Context, uow.TX) error,
		) error {
			var err error
			for i := uint(0); i < attempts; i++ {
				err = fn(ctx, s.mockTX)
				if err == nil || !retryable(err) {
					return err
				}
			}
			return err
		})
}

func (s *OrderServiceTestSuite) sellerProducts() []domain.Product {
	return []domain.Product{
		{
			ID:               10,
			SellerID:         2,
			Name:             "qat bundle",
			Price:            decimal.NewFromInt(60),
			Stock:            5,
			WashingAvailable: true,
			WashingFee:       decimal.NewFromInt(10),
			Active:           true,
		},
	}
}

func (s *OrderServiceTestSuite) TestCreateWalletOrder() {
	var buyerID int64 = 1
	var sellerID int64 = 2
	marketID := int64(7)
	stationID := int64(3)
	stationAccountID := int64(30)
	driverID := int64(4)
	driverAccountID := int64(40)

	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(2)).
		Return(nil)

	// Списание у покупателя и зачисление продавцу на полную сумму заказа:
	// 60*2 + 10*2 + 15 = 155.
	grandTotal := decimal.NewFromInt(155)
	s.mockLedgerRepo.EXPECT().
		Post(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.LedgerPost) (*domain.LedgerEntry, error) {
			s.Equal(buyerID, args.AccountID)
			s.Equal(domain.LedgerKindPurchase, args.Kind)
			s.True(args.Amount.Equal(grandTotal.Neg()))
			return &domain.LedgerEntry{ID: 100, AccountID: buyerID, Amount: args.Amount}, nil
		})
	s.mockLedgerRepo.EXPECT().
		Post(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.LedgerPost) (*domain.LedgerEntry, error) {
			s.Equal(sellerID, args.AccountID)
			s.Equal(domain.LedgerKindSale, args.Kind)
			s.True(args.Amount.Equal(grandTotal))
			return &domain.LedgerEntry{ID: 101, AccountID: sellerID, Amount: args.Amount}, nil
		})

	s.mockAccountRepo.EXPECT().
		FindByID(gomock.Any(), sellerID).
		Return(&domain.Account{ID: sellerID, Role: domain.RoleSeller, MarketID: &marketID}, nil)

	s.mockAssigner.EXPECT().
		Assign(gomock.Any(), s.mockTX, &marketID, true).
		Return(domain.Assignment{
			WashingStationID: &stationID,
			StationAccountID: &stationAccountID,
			DriverID:         &driverID,
			DriverAccountID:  &driverAccountID,
		}, nil)

	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			s.True(args.Subtotal.Equal(decimal.NewFromInt(120)))
			s.True(args.WashingTotal.Equal(decimal.NewFromInt(20)))
			s.True(args.DeliveryFee.Equal(decimal.NewFromInt(15)))
			s.True(args.GrandTotal.Equal(grandTotal))
			s.Equal(domain.PaymentStatusPaid, args.PaymentStatus)
			s.Equal(domain.OrderStatusConfirmed, args.Status)
			s.Require().Len(args.Lines, 1)
			s.True(args.Lines[0].UnitPrice.Equal(decimal.NewFromInt(60)))
			s.True(args.Lines[0].WashingFee.Equal(decimal.NewFromInt(10)))
			return &domain.Order{
				ID:               55,
				CreatedAt:        time.Now(),
				OrderCode:        args.OrderCode,
				SalesCode:        args.SalesCode,
				BuyerID:          args.BuyerID,
				SellerID:         args.SellerID,
				MarketID:         args.MarketID,
				WashingStationID: args.WashingStationID,
				DriverID:         args.DriverID,
				Subtotal:         args.Subtotal,
				WashingTotal:     args.WashingTotal,
				DeliveryFee:      args.DeliveryFee,
				GrandTotal:       args.GrandTotal,
				PaymentMethod:    args.PaymentMethod,
				PaymentStatus:    args.PaymentStatus,
				Status:           args.Status,
			}, nil
		})

	// Уведомления: покупатель, продавец, оператор мойки, водитель.
	s.mockSink.EXPECT().
		Enqueue(gomock.Any()).
		Do(func(events []repoargs.CreateNotification) {
			s.Require().Len(events, 4)
			s.Equal(buyerID, events[0].AccountID)
			s.Equal(sellerID, events[1].AccountID)
			s.Equal(stationAccountID, events[2].AccountID)
			s.Equal(driverAccountID, events[3].AccountID)
		})

	s.expectDoRetry()

	order, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:         buyerID,
		Items:           []CartItem{{ProductID: 10, Quantity: 2, Washing: true}},
		DeliveryAddress: "stall 14, central market",
		PaymentMethod:   domain.PaymentMethodWallet,
	})
	s.Require().NoError(err)
	s.Equal(int64(55), order.ID)
	s.True(order.GrandTotal.Equal(grandTotal))
}

func (s *OrderServiceTestSuite) TestCreateEmptyCart() {
	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         nil,
		PaymentMethod: domain.PaymentMethodWallet,
	})
	s.Require().ErrorIs(err, domain.ErrEmptyCart)
}

func (s *OrderServiceTestSuite) TestCreateNonPositiveQuantity() {
	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 0}},
		PaymentMethod: domain.PaymentMethodWallet,
	})
	s.Require().ErrorIs(err, domain.ErrValidation)
}

func (s *OrderServiceTestSuite) TestCreateMultiSellerCart() {
	products := []domain.Product{
		{ID: 10, SellerID: 2, Price: decimal.NewFromInt(60), Stock: 5, Active: true},
		{ID: 11, SellerID: 3, Price: decimal.NewFromInt(40), Stock: 5, Active: true},
	}
	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10, 11}).
		Return(products, nil)
	// Побочных эффектов быть не должно.
	s.mockProductRepo.EXPECT().Reserve(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)
	s.mockLedgerRepo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID: 1,
		Items: []CartItem{
			{ProductID: 10, Quantity: 1},
			{ProductID: 11, Quantity: 1},
		},
		PaymentMethod: domain.PaymentMethodWallet,
	})
	s.Require().ErrorIs(err, domain.ErrMultiSellerCart)
}

func (s *OrderServiceTestSuite) TestCreateUnknownProduct() {
	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{99}).
		Return(nil, nil)

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 99, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodWallet,
	})
	s.Require().ErrorIs(err, domain.ErrProductNotFound)
}

func (s *OrderServiceTestSuite) TestCreateInsufficientStock() {
	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(7)).
		Return(domain.NewInsufficientStockError(10, 7))
	s.mockLedgerRepo.EXPECT().Post(gomock.Any(), gomock.Any()).Times(0)
	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 7}},
		PaymentMethod: domain.PaymentMethodWallet,
	})

	var stockErr *domain.InsufficientStockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal(int64(10), stockErr.ProductID)
}

func (s *OrderServiceTestSuite) TestCreateInsufficientFunds() {
	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(nil)
	s.mockLedgerRepo.EXPECT().
		Post(gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrInsufficientFunds)
	s.mockOrderRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodWallet,
	})
	s.Require().ErrorIs(err, domain.ErrInsufficientFunds)
}

// TestCreateWithoutAssignment заказ создается даже когда в пулах нет ни мойки,
// ни водителя.
func (s *OrderServiceTestSuite) TestCreateWithoutAssignment() {
	var sellerID int64 = 2

	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(nil)
	s.mockAccountRepo.EXPECT().
		FindByID(gomock.Any(), sellerID).
		Return(&domain.Account{ID: sellerID, Role: domain.RoleSeller}, nil)
	s.mockAssigner.EXPECT().
		Assign(gomock.Any(), s.mockTX, nil, false).
		Return(domain.Assignment{}, nil)
	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			s.Nil(args.WashingStationID)
			s.Nil(args.DriverID)
			s.Equal(domain.PaymentStatusPending, args.PaymentStatus)
			return &domain.Order{ID: 56, BuyerID: args.BuyerID, SellerID: args.SellerID}, nil
		})

	// Только покупатель и продавец.
	s.mockSink.EXPECT().
		Enqueue(gomock.Any()).
		Do(func(events []repoargs.CreateNotification) {
			s.Len(events, 2)
		})

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodCash,
	})
	s.Require().NoError(err)
}

func (s *OrderServiceTestSuite) TestCreateIdempotentReplay() {
	existing := &domain.Order{ID: 77, OrderCode: "ORD202509010001"}

	s.mockOrderRepo.EXPECT().
		FindByIdempotencyKey(gomock.Any(), int64(1), "req-1").
		Return(existing, nil)
	// Транзакция не запускается вовсе.
	s.mockUOW.EXPECT().DoRetry(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	order, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:        1,
		Items:          []CartItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod:  domain.PaymentMethodWallet,
		IdempotencyKey: "req-1",
	})
	s.Require().NoError(err)
	s.Equal(existing.ID, order.ID)
}

// TestCreateRegeneratesOrderCodeOnCollision коллизия уникального кода заказа
// не отдается наружу: транзакция перезапускается с новыми кодами.
func (s *OrderServiceTestSuite) TestCreateRegeneratesOrderCodeOnCollision() {
	var sellerID int64 = 2
	var seenCodes []string

	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil).
		Times(2)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(nil).
		Times(2)
	s.mockAccountRepo.EXPECT().
		FindByID(gomock.Any(), sellerID).
		Return(&domain.Account{ID: sellerID, Role: domain.RoleSeller}, nil).
		Times(2)
	s.mockAssigner.EXPECT().
		Assign(gomock.Any(), s.mockTX, nil, false).
		Return(domain.Assignment{}, nil).
		Times(2)

	first := s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			seenCodes = append(seenCodes, args.OrderCode)
			return nil, domain.ErrDuplicateKey
		})
	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			seenCodes = append(seenCodes, args.OrderCode)
			return &domain.Order{ID: 59, OrderCode: args.OrderCode}, nil
		}).
		After(first)
	s.mockSink.EXPECT().Enqueue(gomock.Any())

	s.expectDoRetry()

	order, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Equal(int64(59), order.ID)
	s.Require().Len(seenCodes, 2)
	s.NotEqual(seenCodes[0], seenCodes[1])
}

// TestCreateZeroFeeWashingAssignsStation запрос мойки с нулевой моечной платой
// все равно требует подбора станции.
func (s *OrderServiceTestSuite) TestCreateZeroFeeWashingAssignsStation() {
	var sellerID int64 = 2
	marketID := int64(7)
	stationID := int64(3)

	products := []domain.Product{
		{
			ID:               10,
			SellerID:         sellerID,
			Name:             "qat bundle",
			Price:            decimal.NewFromInt(60),
			Stock:            5,
			WashingAvailable: true,
			WashingFee:       decimal.Zero,
			Active:           true,
		},
	}
	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(products, nil)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(nil)
	s.mockAccountRepo.EXPECT().
		FindByID(gomock.Any(), sellerID).
		Return(&domain.Account{ID: sellerID, Role: domain.RoleSeller, MarketID: &marketID}, nil)
	s.mockAssigner.EXPECT().
		Assign(gomock.Any(), s.mockTX, &marketID, true).
		Return(domain.Assignment{WashingStationID: &stationID}, nil)
	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, args repoargs.CreateOrder) (*domain.Order, error) {
			s.Require().NotNil(args.WashingStationID)
			s.Equal(stationID, *args.WashingStationID)
			s.True(args.WashingTotal.IsZero())
			return &domain.Order{ID: 60, BuyerID: args.BuyerID, SellerID: args.SellerID}, nil
		})
	// Нулевая моечная плата: оператору станции уведомление не шлем.
	s.mockSink.EXPECT().
		Enqueue(gomock.Any()).
		Do(func(events []repoargs.CreateNotification) {
			s.Len(events, 2)
		})

	s.expectDoRetry()

	_, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 1, Washing: true}},
		PaymentMethod: domain.PaymentMethodCash,
	})
	s.Require().NoError(err)
}

// TestCreateConflictRetry конфликт изоляции перезапускает транзакцию целиком,
// вторая попытка завершается успехом.
func (s *OrderServiceTestSuite) TestCreateConflictRetry() {
	var sellerID int64 = 2

	s.mockProductRepo.EXPECT().
		FindByIDs(gomock.Any(), []int64{10}).
		Return(s.sellerProducts(), nil).
		Times(2)
	first := s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(domain.ErrConflict)
	s.mockProductRepo.EXPECT().
		Reserve(gomock.Any(), int64(10), int32(1)).
		Return(nil).
		After(first)
	s.mockAccountRepo.EXPECT().
		FindByID(gomock.Any(), sellerID).
		Return(&domain.Account{ID: sellerID, Role: domain.RoleSeller}, nil)
	s.mockAssigner.EXPECT().
		Assign(gomock.Any(), s.mockTX, nil, false).
		Return(domain.Assignment{}, nil)
	s.mockOrderRepo.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&domain.Order{ID: 58}, nil)
	s.mockSink.EXPECT().Enqueue(gomock.Any())

	s.expectDoRetry()

	order, err := s.orderService.Create(context.Background(), CreateOrderArgs{
		BuyerID:       1,
		Items:         []CartItem{{ProductID: 10, Quantity: 1}},
		PaymentMethod: domain.PaymentMethodCash,
	})
	s.Require().NoError(err)
	s.Equal(int64(58), order.ID)
}
