package api

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/transport/api/mocks"
	"github.com/fsdevblog/qat-souq/internal/transport/api/testutils"
)

type NotificationsHandlerTestSuite struct {
	suite.Suite
	mockCtrl            *gomock.Controller
	mockNotificationSvs *mocks.MockNotificationServicer
	router              *gin.Engine
}

func TestNotificationsHandlerSuite(t *testing.T) {
	suite.Run(t, new(NotificationsHandlerTestSuite))
}

func (s *NotificationsHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockNotificationSvs = mocks.NewMockNotificationServicer(s.mockCtrl)
	s.router = New(RouterArgs{
		NotificationService: s.mockNotificationSvs,
		JWTSecretKey:        testJWTSecret,
	})
}

func (s *NotificationsHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *NotificationsHandlerTestSuite) TestIndex() {
	s.mockNotificationSvs.EXPECT().
		List(gomock.Any(), int64(1)).
		Return([]domain.Notification{{ID: 2, Title: "Order created"}, {ID: 1, Title: "Wallet recharged"}}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodGet,
		URL:    RouteGroup + NotificationsRoute,
	}, testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 1, domain.RoleBuyer)))
	s.Require().NoError(err)
	defer res.Body.Close() //nolint:errcheck

	s.Equal(http.StatusOK, res.StatusCode)
}

func (s *NotificationsHandlerTestSuite) TestMarkRead() {
	testCases := []struct {
		name       string
		url        string
		mockExpect func()
		wantStatus int
	}{
		{
			name: "marked",
			url:  RouteGroup + "/notifications/5/read",
			mockExpect: func() {
				s.mockNotificationSvs.EXPECT().
					MarkRead(gomock.Any(), int64(1), int64(5)).
					Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "foreign notification",
			url:  RouteGroup + "/notifications/6/read",
			mockExpect: func() {
				s.mockNotificationSvs.EXPECT().
					MarkRead(gomock.Any(), int64(1), int64(6)).
					Return(domain.ErrRecordNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			url:        RouteGroup + "/notifications/abc/read",
			wantStatus: http.StatusBadRequest,
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
				URL:    tc.url,
			}, testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 1, domain.RoleBuyer)))
			s.Require().NoError(err)
			defer res.Body.Close() //nolint:errcheck

			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}
