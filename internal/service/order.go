package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/enum"
	"github.com/urbanharvest/vending-api/internal/events"
)

const (
	maxIngredients  = 20
	maxAddons       = 10
	minGrams        = 1
	maxGrams        = 1000
	minAddonQty     = 1
	maxAddonQty     = 10
	maxSessionIDLen = 255

	maxTxRetries = 3
)

// numeric(10,2) upper bound.
var maxTotalPrice = decimal.NewFromInt(100_000_000)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// OrderStore defines the DB methods needed to create orders and move them
// through their lifecycle. Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetMachine(ctx context.Context, id uuid.UUID) (database.VendingMachine, error)
	RegisterMachine(ctx context.Context, arg database.RegisterMachineParams) error
	GetIngredientForOrder(ctx context.Context, id uuid.UUID) (database.GetIngredientForOrderRow, error)
	GetAddonForOrder(ctx context.Context, id uuid.UUID) (database.GetAddonForOrderRow, error)
	GetIngredientStock(ctx context.Context, arg database.GetIngredientStockParams) (database.MachineIngredient, error)
	GetAddonStock(ctx context.Context, arg database.GetAddonStockParams) (database.MachineAddon, error)
	CreateOrder(ctx context.Context, arg database.CreateOrderParams) (database.Order, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	CreateOrderAddon(ctx context.Context, arg database.CreateOrderAddonParams) (database.OrderAddon, error)
	DeductIngredientStock(ctx context.Context, arg database.DeductIngredientStockParams) (database.DeductIngredientStockRow, error)
	DeductAddonStock(ctx context.Context, arg database.DeductAddonStockParams) (database.DeductAddonStockRow, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (database.Order, error)
	UpdateOrderStatus(ctx context.Context, arg database.UpdateOrderStatusParams) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
	ListOrderAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderAddonsByOrderRow, error)
	RestoreIngredientStock(ctx context.Context, arg database.RestoreIngredientStockParams) error
	RestoreAddonStock(ctx context.Context, arg database.RestoreAddonStockParams) error
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
type NewOrderStore func(db database.DBTX) OrderStore

// Config holds the order service policy knobs.
type Config struct {
	// AutoRegisterMachine creates unknown machines with default containers
	// and no stock instead of rejecting the order with ErrMachineNotFound.
	AutoRegisterMachine    bool
	DefaultCupsQty         int32
	DefaultBowlsQty        int32
	DefaultMachineLocation string
}

// CreateOrderRequest is the normalized input for creating an order.
type CreateOrderRequest struct {
	MachineID   uuid.UUID
	UserID      *uuid.UUID
	SessionID   string
	TotalPrice  decimal.Decimal
	Ingredients []IngredientLine
	Addons      []AddonLine
}

// IngredientLine is one ingredient portion. Lines referencing the same
// ingredient are kept separate.
type IngredientLine struct {
	IngredientID uuid.UUID
	GramsUsed    int32
	QtyMl        int32
	Calories     int32
}

// AddonLine is one addon selection.
type AddonLine struct {
	AddonID  uuid.UUID
	Qty      int32
	Calories int32
}

// CreateOrderResult is the persisted order with its line items.
type CreateOrderResult struct {
	Order    database.Order
	Items    []database.OrderItem
	Addons   []database.OrderAddon
	LowStock []StockLevel
}

// StockLevel is an inventory row that crossed its low-stock threshold.
type StockLevel struct {
	ItemType  string
	ItemID    uuid.UUID
	Name      string
	Remaining int32
	Threshold int32
}

// OrderService handles order business logic.
type OrderService struct {
	pool      TxBeginner
	newStore  NewOrderStore
	publisher events.Publisher
	logger    *slog.Logger
	cfg       Config
}

// NewOrderService creates a new OrderService. A nil publisher discards
// events and a nil logger uses slog.Default().
func NewOrderService(pool TxBeginner, newStore NewOrderStore, publisher events.Publisher, logger *slog.Logger, cfg Config) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{
		pool:      pool,
		newStore:  newStore,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateOrder validates the request against the machine's catalog and
// inventory, then persists the order and deducts stock atomically.
// Serialization failures and deadlocks retry the whole transaction up to
// maxTxRetries times.
func (s *OrderService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	registered := false
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		result, err := s.createOrderTx(ctx, req)
		if err == nil {
			s.publishCreated(ctx, result)
			return result, nil
		}
		if errors.Is(err, ErrMachineNotFound) && s.cfg.AutoRegisterMachine && !registered {
			if regErr := s.registerMachine(ctx, req.MachineID); regErr != nil {
				return nil, regErr
			}
			registered = true
			lastErr = err
			continue
		}
		if isTransientConflict(err) {
			s.logger.Warn("retrying order transaction", "machine_id", req.MachineID, "attempt", attempt+1, "err", err)
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

// isTransientConflict reports serialization failures (40001) and deadlocks
// (40P01), both safe to retry since the transaction rolled back.
func isTransientConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

// isCheckViolation matches the qty >= 0 constraints on inventory rows.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return false
}

// registerMachine inserts an unknown machine in its own short transaction so
// the registration survives even when the order that triggered it fails.
func (s *OrderService) registerMachine(ctx context.Context, machineID uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	err = s.newStore(tx).RegisterMachine(ctx, database.RegisterMachineParams{
		ID:       machineID,
		Location: s.cfg.DefaultMachineLocation,
		CupsQty:  s.cfg.DefaultCupsQty,
		BowlsQty: s.cfg.DefaultBowlsQty,
	})
	if err != nil {
		return fmt.Errorf("register machine: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	s.logger.Info("auto-registered machine", "machine_id", machineID,
		"cups_qty", s.cfg.DefaultCupsQty, "bowls_qty", s.cfg.DefaultBowlsQty)
	return nil
}

// ingredientCheck is a validated ingredient line ready to persist.
type ingredientCheck struct {
	line IngredientLine
	name string
}

// addonCheck is a validated addon line ready to persist.
type addonCheck struct {
	line AddonLine
	name string
}

// createOrderTx executes the full order creation in a single transaction.
func (s *OrderService) createOrderTx(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	// --- Begin transaction ---
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Machine ---
	machine, err := store.GetMachine(ctx, req.MachineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMachineNotFound, req.MachineID)
		}
		return nil, fmt.Errorf("get machine: %w", err)
	}
	if machine.Status != database.MachineStatusActive {
		return nil, fmt.Errorf("%w: machine %s is %s", ErrMachineUnavailable, machine.ID, machine.Status)
	}

	// --- Existence ---
	ingredients := make([]ingredientCheck, 0, len(req.Ingredients))
	catalog := make(map[uuid.UUID]database.GetIngredientForOrderRow)
	for i, line := range req.Ingredients {
		ing, ok := catalog[line.IngredientID]
		if !ok {
			ing, err = store.GetIngredientForOrder(ctx, line.IngredientID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return nil, fmt.Errorf("ingredients[%d]: %w: ingredient %s", i, ErrItemNotFound, line.IngredientID)
				}
				return nil, fmt.Errorf("ingredients[%d]: get ingredient: %w", i, err)
			}
			catalog[line.IngredientID] = ing
		}
		ingredients = append(ingredients, ingredientCheck{line: line, name: ing.Name})
	}

	addons := make([]addonCheck, 0, len(req.Addons))
	for i, line := range req.Addons {
		addon, err := store.GetAddonForOrder(ctx, line.AddonID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("addons[%d]: %w: addon %s", i, ErrItemNotFound, line.AddonID)
			}
			return nil, fmt.Errorf("addons[%d]: get addon: %w", i, err)
		}
		addons = append(addons, addonCheck{line: line, name: addon.Name})
	}

	// --- Constraints ---
	var totalGrams int64
	for _, ic := range ingredients {
		totalGrams += int64(ic.line.GramsUsed)
	}
	for i, ic := range ingredients {
		if err := checkIngredientConstraints(catalog[ic.line.IngredientID], ic.line.GramsUsed, totalGrams); err != nil {
			return nil, fmt.Errorf("ingredients[%d]: %w", i, err)
		}
	}

	// --- Stock (request order, duplicates consume independently) ---
	ingredientLeft := make(map[uuid.UUID]int32)
	for _, ic := range ingredients {
		id := ic.line.IngredientID
		left, seen := ingredientLeft[id]
		if !seen {
			left, err = ingredientAvailable(ctx, store, req.MachineID, id)
			if err != nil {
				return nil, err
			}
		}
		if left < ic.line.GramsUsed {
			return nil, &StockError{
				ItemType:  enum.ItemTypeIngredient,
				ItemID:    id,
				Name:      ic.name,
				Available: left,
				Requested: ic.line.GramsUsed,
			}
		}
		ingredientLeft[id] = left - ic.line.GramsUsed
	}

	addonLeft := make(map[uuid.UUID]int32)
	for _, ac := range addons {
		id := ac.line.AddonID
		left, seen := addonLeft[id]
		if !seen {
			left, err = addonAvailable(ctx, store, req.MachineID, id)
			if err != nil {
				return nil, err
			}
		}
		if left < ac.line.Qty {
			return nil, &StockError{
				ItemType:  enum.ItemTypeAddon,
				ItemID:    id,
				Name:      ac.name,
				Available: left,
				Requested: ac.line.Qty,
			}
		}
		addonLeft[id] = left - ac.line.Qty
	}

	// --- Compute ---
	var totalCalories int32
	for _, ic := range ingredients {
		totalCalories += ic.line.Calories
	}
	for _, ac := range addons {
		totalCalories += ac.line.Calories
	}

	// --- Insert order ---
	userID := pgtype.UUID{}
	if req.UserID != nil {
		userID = pgtype.UUID{Bytes: *req.UserID, Valid: true}
	}
	sessionID := pgtype.Text{}
	if req.SessionID != "" {
		sessionID = pgtype.Text{String: req.SessionID, Valid: true}
	}

	order, err := store.CreateOrder(ctx, database.CreateOrderParams{
		UserID:        userID,
		MachineID:     pgtype.UUID{Bytes: req.MachineID, Valid: true},
		SessionID:     sessionID,
		Status:        database.OrderStatusProcessing,
		TotalPrice:    decimalToNumeric(req.TotalPrice),
		TotalCalories: totalCalories,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	// --- Insert line items ---
	items := make([]database.OrderItem, 0, len(ingredients))
	for _, ic := range ingredients {
		item, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderID:      order.ID,
			IngredientID: pgtype.UUID{Bytes: ic.line.IngredientID, Valid: true},
			QtyMl:        ic.line.QtyMl,
			GramsUsed:    ic.line.GramsUsed,
			Calories:     ic.line.Calories,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, item)
	}

	orderAddons := make([]database.OrderAddon, 0, len(addons))
	for _, ac := range addons {
		oa, err := store.CreateOrderAddon(ctx, database.CreateOrderAddonParams{
			OrderID:  order.ID,
			AddonID:  pgtype.UUID{Bytes: ac.line.AddonID, Valid: true},
			Qty:      ac.line.Qty,
			Calories: ac.line.Calories,
		})
		if err != nil {
			return nil, fmt.Errorf("create order addon: %w", err)
		}
		orderAddons = append(orderAddons, oa)
	}

	// --- Deduct ---
	lowStock, err := deductStock(ctx, store, req.MachineID, ingredients, addons)
	if err != nil {
		return nil, err
	}

	// --- Commit ---
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &CreateOrderResult{
		Order:    order,
		Items:    items,
		Addons:   orderAddons,
		LowStock: lowStock,
	}, nil
}

// deductStock decrements every line with a conditional update. Rows are
// touched in item id order so concurrent orders lock them in the same
// sequence. A zero-row update means a concurrent order took the stock
// after the check above.
func deductStock(ctx context.Context, store OrderStore, machineID uuid.UUID, ingredients []ingredientCheck, addons []addonCheck) ([]StockLevel, error) {
	ings := append([]ingredientCheck(nil), ingredients...)
	sort.SliceStable(ings, func(i, j int) bool {
		return ings[i].line.IngredientID.String() < ings[j].line.IngredientID.String()
	})
	ads := append([]addonCheck(nil), addons...)
	sort.SliceStable(ads, func(i, j int) bool {
		return ads[i].line.AddonID.String() < ads[j].line.AddonID.String()
	})

	var low []StockLevel
	for _, ic := range ings {
		row, err := store.DeductIngredientStock(ctx, database.DeductIngredientStockParams{
			Amount:       ic.line.GramsUsed,
			MachineID:    machineID,
			IngredientID: ic.line.IngredientID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				available, readErr := ingredientAvailable(ctx, store, machineID, ic.line.IngredientID)
				if readErr != nil {
					return nil, readErr
				}
				return nil, &StockError{
					ItemType:  enum.ItemTypeIngredient,
					ItemID:    ic.line.IngredientID,
					Name:      ic.name,
					Available: available,
					Requested: ic.line.GramsUsed,
				}
			}
			if isCheckViolation(err) {
				return nil, fmt.Errorf("%w: ingredient %s (%s)", ErrInsufficientStock, ic.name, ic.line.IngredientID)
			}
			return nil, fmt.Errorf("deduct ingredient stock: %w", err)
		}
		if crossedThreshold(row.QtyAvailableG, ic.line.GramsUsed, row.LowStockThresholdG) {
			low = append(low, StockLevel{
				ItemType:  enum.ItemTypeIngredient,
				ItemID:    ic.line.IngredientID,
				Name:      ic.name,
				Remaining: row.QtyAvailableG,
				Threshold: row.LowStockThresholdG,
			})
		}
	}

	for _, ac := range ads {
		row, err := store.DeductAddonStock(ctx, database.DeductAddonStockParams{
			Amount:    ac.line.Qty,
			MachineID: machineID,
			AddonID:   ac.line.AddonID,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				available, readErr := addonAvailable(ctx, store, machineID, ac.line.AddonID)
				if readErr != nil {
					return nil, readErr
				}
				return nil, &StockError{
					ItemType:  enum.ItemTypeAddon,
					ItemID:    ac.line.AddonID,
					Name:      ac.name,
					Available: available,
					Requested: ac.line.Qty,
				}
			}
			if isCheckViolation(err) {
				return nil, fmt.Errorf("%w: addon %s (%s)", ErrInsufficientStock, ac.name, ac.line.AddonID)
			}
			return nil, fmt.Errorf("deduct addon stock: %w", err)
		}
		if crossedThreshold(row.QtyAvailable, ac.line.Qty, row.LowStockThreshold) {
			low = append(low, StockLevel{
				ItemType:  enum.ItemTypeAddon,
				ItemID:    ac.line.AddonID,
				Name:      ac.name,
				Remaining: row.QtyAvailable,
				Threshold: row.LowStockThreshold,
			})
		}
	}
	return low, nil
}

// ingredientAvailable returns the machine's stock for an ingredient. A
// missing inventory row means the machine does not carry it.
func ingredientAvailable(ctx context.Context, store OrderStore, machineID, ingredientID uuid.UUID) (int32, error) {
	row, err := store.GetIngredientStock(ctx, database.GetIngredientStockParams{
		MachineID:    machineID,
		IngredientID: ingredientID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get ingredient stock: %w", err)
	}
	return row.QtyAvailableG, nil
}

func addonAvailable(ctx context.Context, store OrderStore, machineID, addonID uuid.UUID) (int32, error) {
	row, err := store.GetAddonStock(ctx, database.GetAddonStockParams{
		MachineID: machineID,
		AddonID:   addonID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("get addon stock: %w", err)
	}
	return row.QtyAvailable, nil
}

// checkIngredientConstraints enforces the per-ingredient minimum portion and
// the share of the whole order one ingredient may take.
func checkIngredientConstraints(ing database.GetIngredientForOrderRow, grams int32, totalGrams int64) error {
	if grams < ing.MinQtyG {
		return fmt.Errorf("%w: %s requires at least %dg, got %dg",
			ErrConstraintViolation, ing.Name, ing.MinQtyG, grams)
	}
	if totalGrams > 0 && int64(grams)*100 > int64(ing.MaxPercentLimit)*totalGrams {
		pct := float64(grams) * 100 / float64(totalGrams)
		return fmt.Errorf("%w: %s is %.1f%% of the order, limit is %d%%",
			ErrConstraintViolation, ing.Name, pct, ing.MaxPercentLimit)
	}
	return nil
}

// --- Validation ---

func validateCreateRequest(req CreateOrderRequest) error {
	if req.MachineID == uuid.Nil {
		return ErrInvalidMachineID
	}
	if len(req.Ingredients) == 0 {
		return ErrNoIngredients
	}
	if len(req.Ingredients) > maxIngredients {
		return ErrTooManyIngredients
	}
	if len(req.Addons) > maxAddons {
		return ErrTooManyAddons
	}
	if len(req.SessionID) > maxSessionIDLen {
		return ErrInvalidSessionID
	}
	price := req.TotalPrice.Round(2)
	if !price.IsPositive() || price.GreaterThanOrEqual(maxTotalPrice) {
		return ErrInvalidTotalPrice
	}

	var calories int64
	for i, line := range req.Ingredients {
		if line.IngredientID == uuid.Nil {
			return fmt.Errorf("ingredients[%d]: %w", i, ErrInvalidItemID)
		}
		if line.GramsUsed < minGrams || line.GramsUsed > maxGrams {
			return fmt.Errorf("ingredients[%d]: %w", i, ErrInvalidGrams)
		}
		if line.QtyMl < 0 {
			return fmt.Errorf("ingredients[%d]: %w", i, ErrInvalidQtyMl)
		}
		if line.Calories < 0 {
			return fmt.Errorf("ingredients[%d]: %w", i, ErrInvalidCalories)
		}
		calories += int64(line.Calories)
	}
	for i, line := range req.Addons {
		if line.AddonID == uuid.Nil {
			return fmt.Errorf("addons[%d]: %w", i, ErrInvalidItemID)
		}
		if line.Qty < minAddonQty || line.Qty > maxAddonQty {
			return fmt.Errorf("addons[%d]: %w", i, ErrInvalidAddonQty)
		}
		if line.Calories < 0 {
			return fmt.Errorf("addons[%d]: %w", i, ErrInvalidCalories)
		}
		calories += int64(line.Calories)
	}
	if calories > math.MaxInt32 {
		return ErrTooManyCalories
	}
	return nil
}

// --- Events ---

func (s *OrderService) publishCreated(ctx context.Context, result *CreateOrderResult) {
	machineID := uuid.UUID(result.Order.MachineID.Bytes)
	now := time.Now().UTC()

	s.publish(ctx, events.Event{
		Type:       events.OrderCreated,
		MachineID:  machineID,
		OrderID:    result.Order.ID,
		OccurredAt: now,
		Payload: events.OrderCreatedPayload{
			Status:        string(result.Order.Status),
			TotalPrice:    numericToDecimal(result.Order.TotalPrice).StringFixed(2),
			TotalCalories: result.Order.TotalCalories,
			Ingredients:   len(result.Items),
			Addons:        len(result.Addons),
		},
	})

	for _, lvl := range result.LowStock {
		s.logger.Warn("low stock", "machine_id", machineID, "item_type", lvl.ItemType,
			"item_id", lvl.ItemID, "remaining", lvl.Remaining, "threshold", lvl.Threshold)
		s.publish(ctx, events.Event{
			Type:       events.StockLow,
			MachineID:  machineID,
			OrderID:    result.Order.ID,
			OccurredAt: now,
			Payload: events.StockLowPayload{
				ItemType:  lvl.ItemType,
				ItemID:    lvl.ItemID,
				Name:      lvl.Name,
				Remaining: lvl.Remaining,
				Threshold: lvl.Threshold,
				Severity:  StockSeverity(lvl.Remaining, lvl.Threshold),
			},
		})
	}
}

// publish is best effort: the order is already committed.
func (s *OrderService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("publish event", "type", e.Type, "order_id", e.OrderID, "err", err)
	}
}
