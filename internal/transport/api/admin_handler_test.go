package api

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/internal/transport/api/mocks"
	"github.com/fsdevblog/qat-souq/internal/transport/api/testutils"
)

type AdminHandlerTestSuite struct {
	suite.Suite
	mockCtrl    *gomock.Controller
	mockPoolSvs *mocks.MockPoolServicer
	router      *gin.Engine
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}

func (s *AdminHandlerTestSuite) SetupTest() {
	s.mockCtrl = gomock.NewController(s.T())
	s.mockPoolSvs = mocks.NewMockPoolServicer(s.mockCtrl)
	s.router = New(RouterArgs{
		PoolService:  s.mockPoolSvs,
		JWTSecretKey: testJWTSecret,
	})
}

func (s *AdminHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

// TestAdminRoutesForbiddenForNonAdmin админский справочник закрыт для всех
// остальных ролей.
func (s *AdminHandlerTestSuite) TestAdminRoutesForbiddenForNonAdmin() {
	for _, role := range []domain.RoleType{domain.RoleBuyer, domain.RoleSeller, domain.RoleDriver} {
		s.Run(string(role), func() {
			res, err := testutils.MakeRequest(testutils.RequestArgs{
				Router: s.router,
				Method: http.MethodGet,
				URL:    RouteGroup + MarketsRoute,
			}, testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 1, role)))
			s.Require().NoError(err)
			defer res.Body.Close() //nolint:errcheck

			s.Equal(http.StatusForbidden, res.StatusCode)
		})
	}
}

func (s *AdminHandlerTestSuite) TestCreateMarket() {
	s.mockPoolSvs.EXPECT().
		CreateMarket(gomock.Any(), repoargs.CreateMarket{Name: "Souq al-Melh", City: "Sanaa"}).
		Return(&domain.Market{ID: 7, Name: "Souq al-Melh", City: "Sanaa"}, nil)

	res, err := testutils.MakeRequest(testutils.RequestArgs{
		Router: s.router,
		Method: http.MethodPost,
		URL:    RouteGroup + MarketsRoute,
		Body:   bytes.NewBufferString(`{"name": "Souq al-Melh", "city": "Sanaa"}`),
	},
		testutils.WithHeader("Content-Type", "application/json"),
		testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 9, domain.RoleAdmin)),
	)
	s.Require().NoError(err)
	defer res.Body.Close() //nolint:errcheck

	s.Equal(http.StatusCreated, res.StatusCode)
}

func (s *AdminHandlerTestSuite) TestSetDriverAvailability() {
	testCases := []struct {
		name       string
		url        string
		payload    string
		mockExpect func()
		wantStatus int
	}{
		{
			name:    "driver released",
			url:     RouteGroup + "/admin/drivers/4/availability",
			payload: `{"available": true}`,
			mockExpect: func() {
				s.mockPoolSvs.EXPECT().
					SetDriverAvailability(gomock.Any(), int64(4), true).
					Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:    "unknown driver",
			url:     RouteGroup + "/admin/drivers/99/availability",
			payload: `{"available": false}`,
			mockExpect: func() {
				s.mockPoolSvs.EXPECT().
					SetDriverAvailability(gomock.Any(), int64(99), false).
					Return(domain.ErrRecordNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid id",
			url:        RouteGroup + "/admin/drivers/abc/availability",
			payload:    `{"available": true}`,
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
				Method: http.MethodPatch,
				URL:    tc.url,
				Body:   bytes.NewBufferString(tc.payload),
			},
				testutils.WithHeader("Content-Type", "application/json"),
				testutils.WithHeader("Authorization", "Bearer "+makeToken(&s.Suite, 9, domain.RoleAdmin)),
			)
			s.Require().NoError(err)
			defer res.Body.Close() //nolint:errcheck

			s.Equal(tc.wantStatus, res.StatusCode)
		})
	}
}
