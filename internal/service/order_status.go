package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/events"
)

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
// Terminal statuses have no entry.
var allowedTransitions = map[database.OrderStatus][]database.OrderStatus{
	database.OrderStatusProcessing: {
		database.OrderStatusCompleted,
		database.OrderStatusFailed,
		database.OrderStatusCancelled,
	},
}

// restoresStock lists the statuses whose transition gives the order's
// consumed stock back to the machine.
var restoresStock = map[database.OrderStatus]bool{
	database.OrderStatusFailed:    true,
	database.OrderStatusCancelled: true,
}

// UpdateStatusResult is the order after a successful transition.
type UpdateStatusResult struct {
	Order    database.Order
	Previous database.OrderStatus
	Restored bool
}

// ParseTargetStatus accepts the statuses a caller may move an order to.
func ParseTargetStatus(s string) (database.OrderStatus, error) {
	switch st := database.OrderStatus(s); st {
	case database.OrderStatusCompleted, database.OrderStatusFailed, database.OrderStatusCancelled:
		return st, nil
	}
	return "", ErrInvalidStatus
}

func isTerminal(st database.OrderStatus) bool {
	switch st {
	case database.OrderStatusCompleted, database.OrderStatusFailed, database.OrderStatusCancelled:
		return true
	}
	return false
}

func validateStatusTransition(current, next database.OrderStatus) error {
	allowed, ok := allowedTransitions[current]
	if !ok {
		if isTerminal(current) {
			return fmt.Errorf("%w: order is already %s", ErrInvalidTransition, current)
		}
		return fmt.Errorf("%w: cannot transition from %s", ErrInvalidTransition, current)
	}
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, current, next)
}

// UpdateOrderStatus moves a processing order to a terminal status. Moving to
// failed or cancelled restores every consumed ingredient and addon to the
// machine's inventory in the same transaction as the status write.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, target database.OrderStatus) (*UpdateStatusResult, error) {
	if _, err := ParseTargetStatus(string(target)); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		result, err := s.updateOrderStatusTx(ctx, orderID, target)
		if err == nil {
			s.publishStatusChanged(ctx, result)
			return result, nil
		}
		if isTransientConflict(err) {
			s.logger.Warn("retrying status transaction", "order_id", orderID, "attempt", attempt+1, "err", err)
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (s *OrderService) updateOrderStatusTx(ctx context.Context, orderID uuid.UUID, target database.OrderStatus) (*UpdateStatusResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrderForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	if err := validateStatusTransition(current.Status, target); err != nil {
		return nil, fmt.Errorf("order %s: %w", orderID, err)
	}

	updated, err := store.UpdateOrderStatus(ctx, database.UpdateOrderStatusParams{
		Status:         target,
		ID:             orderID,
		ExpectedStatus: current.Status,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("order %s: %w: status changed concurrently", orderID, ErrInvalidTransition)
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	restored := false
	if restoresStock[target] {
		restored, err = s.restoreStock(ctx, store, current)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &UpdateStatusResult{
		Order:    updated,
		Previous: current.Status,
		Restored: restored,
	}, nil
}

// restoreStock gives back what the order consumed. Lines whose catalog item
// was deleted since, and orders whose machine was deleted, have nowhere to
// restore to and are skipped.
func (s *OrderService) restoreStock(ctx context.Context, store OrderStore, order database.Order) (bool, error) {
	if !order.MachineID.Valid {
		s.logger.Warn("order has no machine, skipping stock restoration", "order_id", order.ID)
		return false, nil
	}
	machineID := uuid.UUID(order.MachineID.Bytes)

	items, err := store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return false, fmt.Errorf("list order items: %w", err)
	}
	for _, item := range items {
		if !item.IngredientID.Valid {
			s.logger.Warn("order item has no ingredient, skipping", "order_id", order.ID, "item_id", item.ID)
			continue
		}
		err := store.RestoreIngredientStock(ctx, database.RestoreIngredientStockParams{
			MachineID:     machineID,
			IngredientID:  uuid.UUID(item.IngredientID.Bytes),
			QtyAvailableG: item.GramsUsed,
		})
		if err != nil {
			return false, fmt.Errorf("restore ingredient stock: %w", err)
		}
	}

	addons, err := store.ListOrderAddonsByOrder(ctx, order.ID)
	if err != nil {
		return false, fmt.Errorf("list order addons: %w", err)
	}
	for _, oa := range addons {
		if !oa.AddonID.Valid {
			s.logger.Warn("order addon has no addon, skipping", "order_id", order.ID, "addon_row_id", oa.ID)
			continue
		}
		err := store.RestoreAddonStock(ctx, database.RestoreAddonStockParams{
			MachineID:    machineID,
			AddonID:      uuid.UUID(oa.AddonID.Bytes),
			QtyAvailable: oa.Qty,
		})
		if err != nil {
			return false, fmt.Errorf("restore addon stock: %w", err)
		}
	}
	return true, nil
}

func (s *OrderService) publishStatusChanged(ctx context.Context, result *UpdateStatusResult) {
	s.publish(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		MachineID:  uuid.UUID(result.Order.MachineID.Bytes),
		OrderID:    result.Order.ID,
		OccurredAt: time.Now().UTC(),
		Payload: events.OrderStatusChangedPayload{
			From:     string(result.Previous),
			To:       string(result.Order.Status),
			Restored: result.Restored,
		},
	})
}
