package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/pkg/uow"
)

type AppServices struct {
	AccountService      *AccountService
	ProductService      *ProductService
	LedgerService       *LedgerService
	OrderService        *OrderService
	FulfillmentService  *FulfillmentService
	NotificationService *NotificationService
}

type FactoryArgs struct {
	UnitOfWork  uow.UOW
	JWTSecret   []byte
	Sink        NotificationSink
	DeliveryFee decimal.Decimal
}

func Factory(args FactoryArgs) (*AppServices, error) {
	accountService, accountServiceErr := NewAccountService(args.UnitOfWork, args.JWTSecret)
	if accountServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", accountServiceErr.Error())
	}

	productService, productServiceErr := NewProductService(args.UnitOfWork)
	if productServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", productServiceErr.Error())
	}

	ledgerService, ledgerServiceErr := NewLedgerService(args.UnitOfWork, args.Sink)
	if ledgerServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", ledgerServiceErr.Error())
	}

	fulfillmentService, fulfillmentServiceErr := NewFulfillmentService(args.UnitOfWork)
	if fulfillmentServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", fulfillmentServiceErr.Error())
	}

	orderService, orderServiceErr := NewOrderService(args.UnitOfWork, fulfillmentService, args.Sink, args.DeliveryFee)
	if orderServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", orderServiceErr.Error())
	}

	notificationService, notificationServiceErr := NewNotificationService(args.UnitOfWork)
	if notificationServiceErr != nil {
		return nil, fmt.Errorf("service factory: %s", notificationServiceErr.Error())
	}

	return &AppServices{
		AccountService:      accountService,
		ProductService:      productService,
		LedgerService:       ledgerService,
		OrderService:        orderService,
		FulfillmentService:  fulfillmentService,
		NotificationService: notificationService,
	}, nil
}
