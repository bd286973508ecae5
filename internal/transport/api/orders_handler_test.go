package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/service"
	"github.com/fsdevblog/qat-souq/internal/service/tokens"
	"github.com/fsdevblog/qat-souq/internal/transport/api/mocks"
	"github.com/fsdevblog/qat-souq/internal/transport/api/testutils"
)

var testJWTSecret = []byte("super secret key")

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func makeToken(s *suite.Suite, accountID int64, role domain.RoleType) string {
	token, err := tokens.GenerateAccountJWT(accountID, role, time.Hour, testJWTSecret)
	s.Require().NoError(err)
	return token
}

type OrdersHandlerTestSuite struct {
	suite.Suite
	mockCtrl     *gomock.Controller
	mockOrderSvs *mocks.MockOrderServicer
	router       *gin.Engine
}

func TestOrdersHandlerSuite(t *testing.T) {
	suite.Run(t, new(OrdersHandlerTestSuite))
}

func (s *OrdersHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockOrderSvs = mocks.NewMockOrderServicer(s.mockCtrl)
	s.router = New(RouterArgs{
		OrderService: s.mockOrderSvs,
		JWTSecretKey: testJWTSecret,
	})
}

func (s *OrdersHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *OrdersHandlerTestSuite) TestCreate() {
	var buyerID int64 = 1
	validPayload := `{
		"items": [{"product_id": 10, "quantity": 2, "washing": true}],
		"delivery_address": "stall 14, central market",
		"payment_method": "wallet"
	}`

	testCases := []struct {
		name       string
		payload    string
		jwtToken   string
		mockExpect func()
		wantStatus int
	}{
		{
			name:     "order created",
			payload:  validPayload,
			jwtToken: makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, args service.CreateOrderArgs) (*domain.Order, error) {
						s.Equal(buyerID, args.BuyerID)
						s.Equal(domain.PaymentMethodWallet, args.PaymentMethod)
						s.Equal("req-1", args.IdempotencyKey)
						s.Require().Len(args.Items, 1)
						s.True(args.Items[0].Washing)
						return &domain.Order{
							ID:         55,
							OrderCode:  "ORD202609010042",
							GrandTotal: decimal.NewFromInt(155),
							Status:     domain.OrderStatusConfirmed,
						}, nil
					})
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "no token",
			payload:    validPayload,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "empty cart",
			payload:    `{"items": [], "delivery_address": "stall 14", "payment_method": "wallet"}`,
			jwtToken:   makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown payment method",
			payload:    `{"items": [{"product_id": 10, "quantity": 1}], "delivery_address": "stall 14", "payment_method": "gold"}`,
			jwtToken:   makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:     "insufficient funds",
			payload:  validPayload,
			jwtToken: makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrInsufficientFunds)
			},
			wantStatus: http.StatusPaymentRequired,
		},
		{
			name:     "insufficient stock",
			payload:  validPayload,
			jwtToken: makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewInsufficientStockError(10, 2))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:     "unknown product",
			payload:  validPayload,
			jwtToken: makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrProductNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:     "isolation conflict",
			payload:  validPayload,
			jwtToken: makeToken(&s.Suite, buyerID, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(nil, domain.ErrConflict)
			},
			wantStatus: http.StatusConflict,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			if tc.mockExpect != nil {
				tc.mockExpect()
			}

			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodPost,
				URL:    RouteGroup + OrdersRoute,
				Body:   bytes.NewBufferString(tc.payload),
			},
				testutils.WithHeader("Content-Type", "application/json"),
				testutils.WithHeader("Authorization", "Bearer "+tc.jwtToken),
				testutils.WithHeader(IdempotencyKeyHeader, "req-1"),
			)
			s.Require().NoError(err)
			defer res.Body.Close() //nolint:errcheck

			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}

func (s *OrdersHandlerTestSuite) TestCreateResponseBody() {
	s.mockOrderSvs.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		Return(&domain.Order{
			ID:            55,
			OrderCode:     "ORD202609010042",
			SalesCode:     "A1B2C3D4",
			Subtotal:      decimal.NewFromInt(120),
			WashingTotal:  decimal.NewFromInt(20),
			DeliveryFee:   decimal.NewFromInt(15),
			GrandTotal:    decimal.NewFromInt(155),
			PaymentMethod: domain.PaymentMethodWallet,
			PaymentStatus: domain.PaymentStatusPaid,
			Status:        domain.OrderStatusConfirmed,
			Lines: []domain.OrderLine{
				{ProductID: 10, Quantity: 2, UnitPrice: decimal.NewFromInt(60), Washing: true, WashingFee: decimal.NewFromInt(10)},
			},
		}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + OrdersRoute,
		Body: bytes.NewBufferString(`{
			"items": [{"product_id": 10, "quantity": 2, "washing": true}],
			"delivery_address": "stall 14, central market",
			"payment_method": "wallet"
		}`),
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 1, domain.RoleBuyer)),
	)
	s.Require().NoError(err)
	defer res.Body.Close() //nolint:errcheck

	s.Require().Equal(http.StatusCreated, res.StatusCode)

	body, readErr := io.ReadAll(res.Body)
	s.Require().NoError(readErr)

	var response OrderResponse
	s.Require().NoError(json.Unmarshal(body, &response))
	s.Equal("ORD202609010042", response.OrderCode)
	s.InDelta(155.0, response.GrandTotal, 0.0001)
	s.Require().Len(response.Lines, 1)
	s.InDelta(60.0, response.Lines[0].UnitPrice, 0.0001)
}

func (s *OrdersHandlerTestSuite) TestIndex() {
	testCases := []struct {
		name       string
		jwtToken   string
		mockExpect func()
		wantStatus int
	}{
		{
			name:     "buyer orders",
			jwtToken: makeToken(&s.Suite, 1, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					GetByAccount(gomock.Any(), int64(1), domain.RoleBuyer).
					Return([]domain.Order{{ID: 55}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "seller sees sales",
			jwtToken: makeToken(&s.Suite, 2, domain.RoleSeller),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					GetByAccount(gomock.Any(), int64(2), domain.RoleSeller).
					Return([]domain.Order{{ID: 55}, {ID: 56}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:     "no orders",
			jwtToken: makeToken(&s.Suite, 3, domain.RoleBuyer),
			mockExpect: func() {
				s.mockOrderSvs.EXPECT().
					GetByAccount(gomock.Any(), int64(3), domain.RoleBuyer).
					Return(nil, nil)
			},
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "no token",
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			if tc.mockExpect != nil {
				tc.mockExpect()
			}

			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    RouteGroup + MyOrdersRoute,
			}, testutils.WithHeader("Authorization", "Bearer "+tc.jwtToken))
			s.Require().NoError(err)
			defer res.Body.Close() //nolint:errcheck

			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}
