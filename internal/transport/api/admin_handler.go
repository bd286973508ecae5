package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
)

// AdminHandler управление справочниками исполнения: рынки, мойки, водители.
type AdminHandler struct {
	svs PoolServicer
}

func NewAdminHandler(svs PoolServicer) *AdminHandler {
	return &AdminHandler{
		svs: svs,
	}
}

func bindParams(c *gin.Context, params any) bool {
	if bindErr := c.ShouldBindJSON(params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
			return false
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

type CreateMarketParams struct {
	Name    string `binding:"required,min=1,max=150" json:"name"`
	City    string `binding:"required,min=1,max=100" json:"city"`
	Address string `binding:"max=500"                json:"address"`
}

func (h *AdminHandler) CreateMarket(c *gin.Context) {
	var params CreateMarketParams
	if !bindParams(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	market, err := h.svs.CreateMarket(reqCtx, repoargs.CreateMarket{
		Name:    params.Name,
		City:    params.City,
		Address: params.Address,
	})
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusCreated, market)
}

func (h *AdminHandler) ListMarkets(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	markets, err := h.svs.ListMarkets(reqCtx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, markets)
}

type CreateStationParams struct {
	MarketID  int64  `binding:"required,gt=0"          json:"market_id"`
	AccountID *int64 `binding:"omitempty,gt=0"         json:"account_id"`
	Name      string `binding:"required,min=1,max=150" json:"name"`
	OwnerName string `binding:"max=100"                json:"owner_name"`
	Phone     string `binding:"max=20"                 json:"phone"`
}

func (h *AdminHandler) CreateStation(c *gin.Context) {
	var params CreateStationParams
	if !bindParams(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	station, err := h.svs.CreateStation(reqCtx, repoargs.CreateWashingStation{
		MarketID:  params.MarketID,
		AccountID: params.AccountID,
		Name:      params.Name,
		OwnerName: params.OwnerName,
		Phone:     params.Phone,
	})
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusCreated, station)
}

func (h *AdminHandler) ListStations(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	stations, err := h.svs.ListStations(reqCtx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, stations)
}

type CreateDriverParams struct {
	AccountID int64  `binding:"required,gt=0"          json:"account_id"`
	MarketID  *int64 `binding:"omitempty,gt=0"         json:"market_id"`
	Name      string `binding:"required,min=1,max=100" json:"name"`
	Phone     string `binding:"max=20"                 json:"phone"`
}

func (h *AdminHandler) CreateDriver(c *gin.Context) {
	var params CreateDriverParams
	if !bindParams(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	driver, err := h.svs.CreateDriver(reqCtx, repoargs.CreateDriver{
		AccountID: params.AccountID,
		MarketID:  params.MarketID,
		Name:      params.Name,
		Phone:     params.Phone,
	})
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusCreated, driver)
}

func (h *AdminHandler) ListDrivers(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	drivers, err := h.svs.ListDrivers(reqCtx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, drivers)
}

type DriverAvailabilityParams struct {
	Available *bool `binding:"required" json:"available"`
}

// SetDriverAvailability PATCH RouteGroup + DriverAvailabilityRoute.
func (h *AdminHandler) SetDriverAvailability(c *gin.Context) {
	driverID, parseErr := strconv.ParseInt(c.Param("id"), 10, 64)
	if parseErr != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid driver id"})
		return
	}

	var params DriverAvailabilityParams
	if !bindParams(c, &params) {
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	if err := h.svs.SetDriverAvailability(reqCtx, driverID, *params.Available); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.AbortWithStatus(http.StatusOK)
}
