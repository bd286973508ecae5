package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRecordNotFound    = errors.New("record not found")
	ErrPasswordMissMatch = errors.New("password mismatch")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrUnknown           = errors.New("unknown error")

	ErrEmptyCart          = errors.New("empty cart")
	ErrMultiSellerCart    = errors.New("cart contains products of multiple sellers")
	ErrProductNotFound    = errors.New("product not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrConflict           = errors.New("transaction conflict")
	ErrValidation         = errors.New("validation error")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// InsufficientStockError возвращается при попытке зарезервировать больше товара,
// чем есть на складе.
type InsufficientStockError struct {
	ProductID int64
	Requested int32
}

func NewInsufficientStockError(productID int64, requested int32) error {
	return &InsufficientStockError{ProductID: productID, Requested: requested}
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %d: requested %d",
		e.ProductID,
		e.Requested,
	)
}
