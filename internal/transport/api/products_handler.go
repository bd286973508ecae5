package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
)

type ProductsHandler struct {
	productSvs ProductServicer
}

func NewProductsHandler(productSvs ProductServicer) *ProductsHandler {
	return &ProductsHandler{
		productSvs: productSvs,
	}
}

type ProductResponse struct {
	ID               int64   `json:"id"`
	SellerID         int64   `json:"seller_id"`
	Name             string  `json:"name"`
	Description      string  `json:"description,omitempty"`
	Price            float64 `json:"price"`
	Stock            int32   `json:"stock"`
	WashingAvailable bool    `json:"washing_available"`
	WashingFee       float64 `json:"washing_fee,omitempty"`
	Active           bool    `json:"active"`
}

func productResponses(products []domain.Product) []ProductResponse {
	response := make([]ProductResponse, len(products))
	for i, product := range products {
		response[i] = ProductResponse{
			ID:               product.ID,
			SellerID:         product.SellerID,
			Name:             product.Name,
			Description:      product.Description,
			Price:            product.Price.InexactFloat64(),
			Stock:            product.Stock,
			WashingAvailable: product.WashingAvailable,
			WashingFee:       product.WashingFee.InexactFloat64(),
			Active:           product.Active,
		}
	}
	return response
}

// Index GET RouteGroup + ProductsRoute. Публичная витрина активных продуктов.
func (h *ProductsHandler) Index(c *gin.Context) {
	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	products, err := h.productSvs.ListActive(reqCtx)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, productResponses(products))
}

type CreateProductParams struct {
	Name             string          `binding:"required,min=1,max=150" json:"name"`
	Description      string          `binding:"max=2000"               json:"description"`
	Price            decimal.Decimal `binding:"required,gt=0"          json:"price"`
	Stock            int32           `binding:"gte=0"                  json:"stock"`
	WashingAvailable bool            `json:"washing_available"`
	WashingFee       decimal.Decimal `binding:"gte=0"                  json:"washing_fee"`
}

// Create POST RouteGroup + ProductsRoute. Только для роли seller.
func (h *ProductsHandler) Create(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params CreateProductParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	product, createErr := h.productSvs.Create(reqCtx, repoargs.CreateProduct{
		SellerID:         currentAccountID,
		Name:             params.Name,
		Description:      params.Description,
		Price:            params.Price,
		Stock:            params.Stock,
		WashingAvailable: params.WashingAvailable,
		WashingFee:       params.WashingFee,
	})
	if createErr != nil {
		if errors.Is(createErr, domain.ErrValidation) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": createErr.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusInternalServerError, createErr).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusCreated, productResponses([]domain.Product{*product})[0])
}

// Mine GET RouteGroup + MyProductsRoute. Продукты текущего продавца, включая неактивные.
func (h *ProductsHandler) Mine(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	products, err := h.productSvs.ListBySeller(reqCtx, currentAccountID)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
		return
	}

	c.JSON(http.StatusOK, productResponses(products))
}
