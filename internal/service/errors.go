package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Request validation errors. Raised before any transaction is opened.
var (
	ErrInvalidMachineID   = errors.New("invalid machine_id")
	ErrInvalidUserID      = errors.New("invalid user_id")
	ErrInvalidItemID      = errors.New("invalid item id")
	ErrNoIngredients      = errors.New("at least one ingredient is required")
	ErrTooManyIngredients = errors.New("at most 20 ingredients are allowed")
	ErrTooManyAddons      = errors.New("at most 10 addons are allowed")
	ErrInvalidGrams       = errors.New("grams_used must be between 1 and 1000")
	ErrInvalidQtyMl       = errors.New("qty_ml must be >= 0")
	ErrInvalidAddonQty    = errors.New("qty must be between 1 and 10")
	ErrInvalidCalories    = errors.New("calories must be >= 0")
	ErrTooManyCalories    = errors.New("total calories exceed 2147483647")
	ErrInvalidTotalPrice  = errors.New("total_price must be greater than 0 and below 100000000")
	ErrInvalidSessionID   = errors.New("session_id must be at most 255 characters")
	ErrInvalidStatus      = errors.New("status must be one of completed, failed, cancelled")
)

// Domain errors raised while the order transaction runs.
var (
	ErrMachineNotFound     = errors.New("machine not found")
	ErrMachineUnavailable  = errors.New("machine unavailable")
	ErrItemNotFound        = errors.New("item not found")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrOrderNotFound       = errors.New("order not found")
	ErrInvalidTransition   = errors.New("invalid status transition")
)

// StockError reports a shortfall for one line of an order. It matches
// ErrInsufficientStock with errors.Is.
type StockError struct {
	ItemType  string
	ItemID    uuid.UUID
	Name      string
	Available int32
	Requested int32
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s %s (%s): available %d, requested %d",
		e.ItemType, e.Name, e.ItemID, e.Available, e.Requested)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }
