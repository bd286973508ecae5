package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/service"
)

// IdempotencyKeyHeader необязательный клиентский ключ идемпотентности создания заказа.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 64

type OrdersHandler struct {
	orderSvs OrderServicer
}

func NewOrdersHandler(orderSvs OrderServicer) *OrdersHandler {
	return &OrdersHandler{
		orderSvs: orderSvs,
	}
}

type OrderLineParams struct {
	ProductID int64 `binding:"required,gt=0" json:"product_id"`
	Quantity  int32 `binding:"required,gt=0" json:"quantity"`
	Washing   bool  `json:"washing"`
}

type CreateOrderParams struct {
	Items           []OrderLineParams `binding:"required,min=1,dive" json:"items"`
	DeliveryAddress string            `binding:"required,max=500"    json:"delivery_address"`
	PaymentMethod   string            `binding:"required,oneof=wallet cash" json:"payment_method"`
}

type OrderLineResponse struct {
	ProductID  int64   `json:"product_id"`
	Quantity   int32   `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	Washing    bool    `json:"washing"`
	WashingFee float64 `json:"washing_fee,omitempty"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	OrderCode       string              `json:"order_code"`
	SalesCode       string              `json:"sales_code"`
	Status          string              `json:"status"`
	PaymentMethod   string              `json:"payment_method"`
	PaymentStatus   string              `json:"payment_status"`
	Subtotal        float64             `json:"subtotal"`
	WashingTotal    float64             `json:"washing_total,omitempty"`
	DeliveryFee     float64             `json:"delivery_fee"`
	GrandTotal      float64             `json:"grand_total"`
	DeliveryAddress string              `json:"delivery_address"`
	CreatedAt       time.Time           `json:"created_at"`
	Lines           []OrderLineResponse `json:"items,omitempty"`
}

func orderResponse(order *domain.Order) OrderResponse {
	lines := make([]OrderLineResponse, len(order.Lines))
	for i, line := range order.Lines {
		lines[i] = OrderLineResponse{
			ProductID:  line.ProductID,
			Quantity:   line.Quantity,
			UnitPrice:  line.UnitPrice.InexactFloat64(),
			Washing:    line.Washing,
			WashingFee: line.WashingFee.InexactFloat64(),
		}
	}
	return OrderResponse{
		ID:              order.ID,
		OrderCode:       order.OrderCode,
		SalesCode:       order.SalesCode,
		Status:          string(order.Status),
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Subtotal:        order.Subtotal.InexactFloat64(),
		WashingTotal:    order.WashingTotal.InexactFloat64(),
		DeliveryFee:     order.DeliveryFee.InexactFloat64(),
		GrandTotal:      order.GrandTotal.InexactFloat64(),
		DeliveryAddress: order.DeliveryAddress,
		CreatedAt:       order.CreatedAt,
		Lines:           lines,
	}
}

// Create POST RouteGroup + OrdersRoute. Оформляет заказ из корзины текущего аккаунта.
func (o *OrdersHandler) Create(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)

	var params CreateOrderParams
	if bindErr := c.ShouldBindJSON(&params); bindErr != nil {
		var valErrs validator.ValidationErrors
		if errors.As(bindErr, &valErrs) {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": valErrs.Error()})
			return
		}
		_ = c.AbortWithError(http.StatusBadRequest, bindErr).SetType(gin.ErrorTypeBind)
		return
	}

	idempotencyKey := c.GetHeader(IdempotencyKeyHeader)
	if len(idempotencyKey) > maxIdempotencyKeyLength {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": "idempotency key is too long"})
		return
	}

	items := make([]service.CartItem, len(params.Items))
	for i, item := range params.Items {
		items[i] = service.CartItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Washing:   item.Washing,
		}
	}

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	order, createErr := o.orderSvs.Create(reqCtx, service.CreateOrderArgs{
		BuyerID:         currentAccountID,
		Items:           items,
		DeliveryAddress: params.DeliveryAddress,
		PaymentMethod:   domain.PaymentMethodType(params.PaymentMethod),
		IdempotencyKey:  idempotencyKey,
	})
	if createErr != nil {
		abortOrderError(c, createErr)
		return
	}

	c.JSON(http.StatusCreated, orderResponse(order))
}

// abortOrderError переводит доменные ошибки создания заказа в http статусы.
func abortOrderError(c *gin.Context, err error) {
	var stockErr *domain.InsufficientStockError

	switch {
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMultiSellerCart),
		errors.Is(err, domain.ErrValidation):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrProductNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds):
		c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": "insufficient funds"})
	case errors.As(err, &stockErr):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":      stockErr.Error(),
			"product_id": stockErr.ProductID,
		})
	case errors.Is(err, domain.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "try again later"})
	default:
		_ = c.AbortWithError(http.StatusInternalServerError, err).SetType(gin.ErrorTypePrivate)
	}
}

// Index GET RouteGroup + MyOrdersRoute. Продавец видит продажи, остальные роли - покупки.
func (o *OrdersHandler) Index(c *gin.Context) {
	currentAccountID := getAccountIDFromContext(c)
	currentRole := getRoleFromContext(c)

	reqCtx, cancel := context.WithTimeout(c, DefaultServiceTimeout)
	defer cancel()

	orders, err := o.orderSvs.GetByAccount(reqCtx, currentAccountID, currentRole)
	if err != nil {
		_ = c.AbortWithError(http.StatusInternalServerError, err).
			SetType(gin.ErrorTypePrivate)
		return
	}

	if len(orders) == 0 {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	response := make([]OrderResponse, len(orders))
	for i := range orders {
		response[i] = orderResponse(&orders[i])
	}

	c.JSON(http.StatusOK, response)
}
