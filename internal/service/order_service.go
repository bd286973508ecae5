package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fsdevblog/qat-souq/internal/domain"
	"github.com/fsdevblog/qat-souq/internal/repository/repoargs"
	"github.com/fsdevblog/qat-souq/pkg/uow"
)

const createOrderAttempts uint = 3

type OrderService struct {
	uow         uow.UOW
	orderRepo   OrderRepository
	assigner    Assigner
	sink        NotificationSink
	deliveryFee decimal.Decimal
}

func NewOrderService(
	u uow.UOW,
	assigner Assigner,
	sink NotificationSink,
	deliveryFee decimal.Decimal,
) (*OrderService, error) {
	orderRepo, repoErr := uow.GetRepositoryAs[OrderRepository](u, uow.RepositoryName(repoargs.OrderRepoName))
	if repoErr != nil {
		return nil, repoErr
	}
	return &OrderService{
		uow:         u,
		orderRepo:   orderRepo,
		assigner:    assigner,
		sink:        sink,
		deliveryFee: deliveryFee,
	}, nil
}

type CartItem struct {
	ProductID int64
	Quantity  int32
	Washing   bool
}

type CreateOrderArgs struct {
	BuyerID         int64
	Items           []CartItem
	DeliveryAddress string
	PaymentMethod   domain.PaymentMethodType
	IdempotencyKey  string
}

// Create оформляет заказ из корзины.
//
// Алгоритм работы:
//  1. Локальная предварительная валидация: пустая корзина, неположительные количества,
//     дубликаты позиций. Без побочных эффектов, безопасно повторять.
//  2. При переданном ключе идемпотентности - поиск уже созданного заказа; повтор
//     сетевого запроса возвращает исходный заказ вместо второго списания.
//  3. Атомарное ядро в одной uow-транзакции: чтение продуктов с фиксацией цен,
//     проверка единственного продавца, резерв остатков, расчет сумм, проводки
//     по кошелькам (только для оплаты кошельком), подбор мойки и водителя,
//     вставка заказа с позициями. Любая ошибка откатывает все целиком.
//  4. После коммита - постановка уведомлений в очередь. Их доставка не влияет
//     на результат: заказ уже создан.
//
// Конфликты изоляции (domain.ErrConflict) и коллизии уникальных кодов заказа
// (domain.ErrDuplicateKey) перезапускают транзакцию целиком до createOrderAttempts
// раз; коды при перезапуске генерируются заново.
func (o *OrderService) Create(ctx context.Context, args CreateOrderArgs) (*domain.Order, error) {
	if validateErr := validateCart(args.Items); validateErr != nil {
		return nil, validateErr
	}

	if args.IdempotencyKey != "" {
		existing, findErr := o.orderRepo.FindByIdempotencyKey(ctx, args.BuyerID, args.IdempotencyKey)
		if findErr == nil {
			return existing, nil
		}
		if !errors.Is(findErr, domain.ErrRecordNotFound) {
			return nil, fmt.Errorf("creating order: %w", findErr)
		}
	}

	var order *domain.Order
	var events []repoargs.CreateNotification

	txErr := o.uow.DoRetry(ctx, createOrderAttempts, func(err error) bool {
		// Дубликат ключа здесь - это коллизия кода заказа (либо гонка по ключу
		// идемпотентности): повтор сгенерирует новые коды.
		return errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrDuplicateKey)
	}, func(c context.Context, tx uow.TX) error {
		// При перезапуске транзакции собираем состояние заново.
		order = nil
		events = nil

		var txInnerErr error
		order, events, txInnerErr = o.createInTx(c, tx, args)
		return txInnerErr
	})

	if txErr != nil {
		// Гонка по ключу идемпотентности: конкурентный повтор успел первым,
		// отдаем созданный им заказ.
		if errors.Is(txErr, domain.ErrDuplicateKey) && args.IdempotencyKey != "" {
			existing, findErr := o.orderRepo.FindByIdempotencyKey(ctx, args.BuyerID, args.IdempotencyKey)
			if findErr == nil {
				return existing, nil
			}
		}
		return nil, txErr
	}

	o.sink.Enqueue(events)
	return order, nil
}

func (o *OrderService) createInTx(
	ctx context.Context,
	tx uow.TX,
	args CreateOrderArgs,
) (*domain.Order, []repoargs.CreateNotification, error) {
	productRepo, productRepoErr := uow.GetAs[ProductRepository](tx, uow.RepositoryName(repoargs.ProductRepoName))
	if productRepoErr != nil {
		return nil, nil, productRepoErr //nolint:wrapcheck
	}

	products, sellerID, productsErr := o.resolveProducts(ctx, productRepo, args.Items)
	if productsErr != nil {
		return nil, nil, productsErr
	}

	lines, subtotal, washingTotal, linesErr := o.buildLines(ctx, productRepo, products, args.Items)
	if linesErr != nil {
		return nil, nil, linesErr
	}
	grandTotal := subtotal.Add(washingTotal).Add(o.deliveryFee)

	orderCode := generateOrderCode()
	paymentStatus := domain.PaymentStatusPending

	if args.PaymentMethod == domain.PaymentMethodWallet {
		if postErr := o.settleWallet(ctx, tx, args.BuyerID, sellerID, grandTotal, orderCode); postErr != nil {
			return nil, nil, postErr
		}
		paymentStatus = domain.PaymentStatusPaid
	}

	marketID, marketErr := o.sellerMarket(ctx, tx, sellerID)
	if marketErr != nil {
		return nil, nil, marketErr
	}

	// Мойка нужна, когда хоть одна позиция ее запросила: нулевая моечная плата
	// не отменяет запрос.
	assignment, assignErr := o.assigner.Assign(ctx, tx, marketID, washingRequested(lines))
	if assignErr != nil {
		return nil, nil, assignErr //nolint:wrapcheck
	}

	orderRepo, orderRepoErr := uow.GetAs[OrderRepository](tx, uow.RepositoryName(repoargs.OrderRepoName))
	if orderRepoErr != nil {
		return nil, nil, orderRepoErr //nolint:wrapcheck
	}

	order, createErr := orderRepo.Create(ctx, repoargs.CreateOrder{
		OrderCode:        orderCode,
		SalesCode:        generateSalesCode(),
		BuyerID:          args.BuyerID,
		SellerID:         sellerID,
		MarketID:         marketID,
		WashingStationID: assignment.WashingStationID,
		DriverID:         assignment.DriverID,
		Subtotal:         subtotal,
		WashingTotal:     washingTotal,
		DeliveryFee:      o.deliveryFee,
		GrandTotal:       grandTotal,
		PaymentMethod:    args.PaymentMethod,
		PaymentStatus:    paymentStatus,
		Status:           domain.OrderStatusConfirmed,
		DeliveryAddress:  args.DeliveryAddress,
		IdempotencyKey:   args.IdempotencyKey,
		Lines:            lines,
	})
	if createErr != nil {
		return nil, nil, createErr //nolint:wrapcheck
	}

	return order, o.buildEvents(order, assignment), nil
}

// resolveProducts загружает продукты корзины и проверяет инвариант единственного
// продавца. Неизвестный или отключенный продукт - ошибка domain.ErrProductNotFound.
func (o *OrderService) resolveProducts(
	ctx context.Context,
	productRepo ProductRepository,
	items []CartItem,
) (map[int64]domain.Product, int64, error) {
	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ProductID
	}

	found, findErr := productRepo.FindByIDs(ctx, ids)
	if findErr != nil {
		return nil, 0, findErr //nolint:wrapcheck
	}

	products := make(map[int64]domain.Product, len(found))
	for _, product := range found {
		products[product.ID] = product
	}

	var sellerID int64
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.Active {
			return nil, 0, fmt.Errorf("%w: product %d", domain.ErrProductNotFound, item.ProductID)
		}
		if sellerID == 0 {
			sellerID = product.SellerID
			continue
		}
		if product.SellerID != sellerID {
			return nil, 0, domain.ErrMultiSellerCart
		}
	}
	return products, sellerID, nil
}

// buildLines резервирует остатки и формирует позиции заказа со снапшотами цены
// и моечной платы. Первый же неудачный резерв прерывает операцию: откат транзакции
// снимет уже выполненные резервы.
func (o *OrderService) buildLines(
	ctx context.Context,
	productRepo ProductRepository,
	products map[int64]domain.Product,
	items []CartItem,
) ([]repoargs.CreateOrderLine, decimal.Decimal, decimal.Decimal, error) {
	lines := make([]repoargs.CreateOrderLine, 0, len(items))
	subtotal := decimal.Zero
	washingTotal := decimal.Zero

	for _, item := range items {
		product := products[item.ProductID]

		if reserveErr := productRepo.Reserve(ctx, item.ProductID, item.Quantity); reserveErr != nil {
			return nil, decimal.Zero, decimal.Zero, reserveErr //nolint:wrapcheck
		}

		quantity := decimal.NewFromInt32(item.Quantity)
		subtotal = subtotal.Add(product.Price.Mul(quantity))

		washingFee := decimal.Zero
		if item.Washing && product.WashingAvailable {
			washingFee = product.WashingFee
			washingTotal = washingTotal.Add(washingFee.Mul(quantity))
		}

		lines = append(lines, repoargs.CreateOrderLine{
			ProductID:  item.ProductID,
			Quantity:   item.Quantity,
			UnitPrice:  product.Price,
			Washing:    item.Washing && product.WashingAvailable,
			WashingFee: washingFee,
		})
	}
	return lines, subtotal, washingTotal, nil
}

// settleWallet списывает полную сумму с покупателя и зачисляет ее продавцу.
// Продавец принимает средства безусловно, списание может упасть
// с domain.ErrInsufficientFunds.
func (o *OrderService) settleWallet(
	ctx context.Context,
	tx uow.TX,
	buyerID, sellerID int64,
	grandTotal decimal.Decimal,
	orderCode string,
) error {
	ledgerRepo, repoErr := uow.GetAs[LedgerRepository](tx, uow.RepositoryName(repoargs.LedgerRepoName))
	if repoErr != nil {
		return repoErr //nolint:wrapcheck
	}

	if _, debitErr := ledgerRepo.Post(ctx, repoargs.LedgerPost{
		AccountID: buyerID,
		Amount:    grandTotal.Neg(),
		Kind:      domain.LedgerKindPurchase,
		Reference: orderCode,
	}); debitErr != nil {
		return debitErr //nolint:wrapcheck
	}

	if _, creditErr := ledgerRepo.Post(ctx, repoargs.LedgerPost{
		AccountID: sellerID,
		Amount:    grandTotal,
		Kind:      domain.LedgerKindSale,
		Reference: orderCode,
	}); creditErr != nil {
		return creditErr //nolint:wrapcheck
	}
	return nil
}

func (o *OrderService) sellerMarket(ctx context.Context, tx uow.TX, sellerID int64) (*int64, error) {
	accountRepo, repoErr := uow.GetAs[AccountRepository](tx, uow.RepositoryName(repoargs.AccountRepoName))
	if repoErr != nil {
		return nil, repoErr //nolint:wrapcheck
	}
	seller, sellerErr := accountRepo.FindByID(ctx, sellerID)
	if sellerErr != nil {
		return nil, sellerErr //nolint:wrapcheck
	}
	return seller.MarketID, nil
}

func (o *OrderService) buildEvents(order *domain.Order, assignment domain.Assignment) []repoargs.CreateNotification {
	events := []repoargs.CreateNotification{
		{
			AccountID: order.BuyerID,
			Title:     "Order created",
			Message:   fmt.Sprintf("Your order %s was created, total %s", order.OrderCode, order.GrandTotal),
			Kind:      "order",
			RelatedID: &order.ID,
		},
		{
			AccountID: order.SellerID,
			Title:     "New order",
			Message:   fmt.Sprintf("You have a new order %s", order.OrderCode),
			Kind:      "order",
			RelatedID: &order.ID,
		},
	}

	if assignment.WashingStationID != nil && order.WashingTotal.IsPositive() {
		// У мойки может не быть привязанного аккаунта - тогда уведомляем продавца.
		operatorID := order.SellerID
		if assignment.StationAccountID != nil {
			operatorID = *assignment.StationAccountID
		}
		events = append(events, repoargs.CreateNotification{
			AccountID: operatorID,
			Title:     "Washing requested",
			Message:   fmt.Sprintf("Washing requested for order %s", order.OrderCode),
			Kind:      "order",
			RelatedID: &order.ID,
		})
	}
	if assignment.DriverAccountID != nil {
		events = append(events, repoargs.CreateNotification{
			AccountID: *assignment.DriverAccountID,
			Title:     "New delivery",
			Message:   fmt.Sprintf("New delivery for order %s", order.OrderCode),
			Kind:      "order",
			RelatedID: &order.ID,
		})
	}
	return events
}

// GetByAccount возвращает заказы аккаунта в зависимости от роли: продавец видит
// свои продажи, все остальные - свои покупки.
func (o *OrderService) GetByAccount(ctx context.Context, accountID int64, role domain.RoleType) ([]domain.Order, error) {
	if role == domain.RoleSeller {
		orders, err := o.orderRepo.GetBySellerID(ctx, accountID)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		return orders, nil
	}
	orders, err := o.orderRepo.GetByBuyerID(ctx, accountID)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return orders, nil
}

func washingRequested(lines []repoargs.CreateOrderLine) bool {
	for _, line := range lines {
		if line.Washing {
			return true
		}
	}
	return false
}

func validateCart(items []CartItem) error {
	if len(items) == 0 {
		return domain.ErrEmptyCart
	}
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive for product %d", domain.ErrValidation, item.ProductID)
		}
		if _, ok := seen[item.ProductID]; ok {
			return fmt.Errorf("%w: duplicate product %d in cart", domain.ErrValidation, item.ProductID)
		}
		seen[item.ProductID] = struct{}{}
	}
	return nil
}

const salesCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const salesCodeLength = 8

// orderCodeSpace задает ширину случайного суффикса кода заказа. Код уникален в
// пределах всей таблицы, узкий суффикс начал бы коллидировать уже на сотнях
// заказов в день.
const orderCodeSpace = 100_000_000

func generateOrderCode() string {
	return fmt.Sprintf("ORD%s%08d", time.Now().Format("20060102"), rand.IntN(orderCodeSpace)) //nolint:gosec
}

func generateSalesCode() string {
	code := make([]byte, salesCodeLength)
	for i := range code {
		code[i] = salesCodeAlphabet[rand.IntN(len(salesCodeAlphabet))] //nolint:gosec
	}
	return string(code)
}
