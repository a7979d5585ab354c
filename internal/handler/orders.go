package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/service"
)

// OrderServicer defines the service methods needed by order handlers.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*service.CreateOrderResult, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, target database.OrderStatus) (*service.UpdateStatusResult, error)
}

// OrderStore defines the read queries needed by order handlers.
// Satisfied by *database.Queries.
type OrderStore interface {
	GetOrder(ctx context.Context, id uuid.UUID) (database.Order, error)
	ListOrderItemsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderItemsByOrderRow, error)
	ListOrderAddonsByOrder(ctx context.Context, orderID uuid.UUID) ([]database.ListOrderAddonsByOrderRow, error)
	ListOrdersByMachine(ctx context.Context, arg database.ListOrdersByMachineParams) ([]database.Order, error)
}

// OrderHandler handles order endpoints.
type OrderHandler struct {
	svc    OrderServicer
	store  OrderStore
	logger *slog.Logger

	// currentMachine is the machine served by /machine/orders in
	// single-machine deployments. uuid.Nil leaves those routes disabled.
	currentMachine uuid.UUID
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, store OrderStore, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, store: store, logger: logger}
}

// WithCurrentMachine sets the machine used by the /machine/orders routes.
func (h *OrderHandler) WithCurrentMachine(id uuid.UUID) *OrderHandler {
	h.currentMachine = id
	return h
}

// RegisterRoutes registers the /orders endpoints.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/summary", h.Summary)
	r.Put("/{id}/status", h.UpdateStatus)
	r.Patch("/{id}/status", h.UpdateStatus)
}

// RegisterMachineRoutes registers the machine-scoped order endpoints.
// Expected to be mounted inside /machines/{mid}.
func (h *OrderHandler) RegisterMachineRoutes(r chi.Router) {
	r.Post("/orders", h.CreateForMachine)
	r.Get("/orders", h.ListByMachine)
}

// RegisterCurrentMachineRoutes registers the single-machine endpoints.
// Expected to be mounted inside /machine.
func (h *OrderHandler) RegisterCurrentMachineRoutes(r chi.Router) {
	r.Post("/orders", h.CreateForCurrentMachine)
	r.Get("/orders", h.ListForCurrentMachine)
}

// --- Request / Response types ---

type createOrderRequest struct {
	MachineID   string                   `json:"machine_id"`
	UserID      string                   `json:"user_id"`
	SessionID   string                   `json:"session_id"`
	TotalPrice  *decimal.Decimal         `json:"total_price"`
	Ingredients []orderIngredientRequest `json:"ingredients"`
	Addons      []orderAddonRequest      `json:"addons"`
}

type orderIngredientRequest struct {
	IngredientID string `json:"ingredient_id"`
	GramsUsed    int32  `json:"grams_used"`
	QtyMl        int32  `json:"qty_ml"`
	Calories     int32  `json:"calories"`
}

type orderAddonRequest struct {
	AddonID  string `json:"addon_id"`
	Qty      *int32 `json:"qty"`
	Calories int32  `json:"calories"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderResponse struct {
	ID            uuid.UUID  `json:"id"`
	UserID        *uuid.UUID `json:"user_id"`
	MachineID     *uuid.UUID `json:"machine_id"`
	SessionID     *string    `json:"session_id"`
	Status        string     `json:"status"`
	TotalPrice    string     `json:"total_price"`
	TotalCalories int32      `json:"total_calories"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

type orderItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	IngredientID *uuid.UUID `json:"ingredient_id"`
	Name         *string    `json:"name"`
	Emoji        *string    `json:"emoji"`
	QtyMl        int32      `json:"qty_ml"`
	GramsUsed    int32      `json:"grams_used"`
	Calories     int32      `json:"calories"`
}

type orderAddonResponse struct {
	ID       uuid.UUID  `json:"id"`
	AddonID  *uuid.UUID `json:"addon_id"`
	Name     *string    `json:"name"`
	Icon     *string    `json:"icon"`
	Qty      int32      `json:"qty"`
	Calories int32      `json:"calories"`
}

type lowStockResponse struct {
	ItemType  string    `json:"item_type"`
	ItemID    uuid.UUID `json:"item_id"`
	Name      string    `json:"name"`
	Remaining int32     `json:"remaining"`
	Threshold int32     `json:"threshold"`
	Severity  string    `json:"severity"`
}

// orderDetailResponse extends orderResponse with its lines.
type orderDetailResponse struct {
	orderResponse
	Items    []orderItemResponse  `json:"items"`
	Addons   []orderAddonResponse `json:"addons"`
	LowStock []lowStockResponse   `json:"low_stock,omitempty"`
}

type statusUpdateResponse struct {
	orderResponse
	PreviousStatus string `json:"previous_status"`
	StockRestored  bool   `json:"stock_restored"`
}

type orderSummaryResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderString string    `json:"order_string"`
	Timestamp   time.Time `json:"timestamp"`
}

// orderListResponse wraps a list of orders with pagination metadata.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Limit  int32           `json:"limit"`
	Offset int32           `json:"offset"`
}

// --- Handlers ---

// Create handles POST /orders.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.MachineID == "" {
		badRequest(w, "machine_id is required")
		return
	}
	machineID, err := uuid.Parse(req.MachineID)
	if err != nil {
		badRequest(w, service.ErrInvalidMachineID.Error())
		return
	}
	h.create(w, r, machineID, req)
}

// CreateForMachine handles POST /machines/{mid}/orders.
func (h *OrderHandler) CreateForMachine(w http.ResponseWriter, r *http.Request) {
	machineID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		badRequest(w, "invalid machine ID")
		return
	}
	h.createScoped(w, r, machineID)
}

// CreateForCurrentMachine handles POST /machine/orders.
func (h *OrderHandler) CreateForCurrentMachine(w http.ResponseWriter, r *http.Request) {
	if h.currentMachine == uuid.Nil {
		badRequest(w, "no machine configured, use POST /orders with machine_id")
		return
	}
	h.createScoped(w, r, h.currentMachine)
}

// createScoped creates an order for a machine fixed by the route. A
// machine_id in the body must agree with it.
func (h *OrderHandler) createScoped(w http.ResponseWriter, r *http.Request, machineID uuid.UUID) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.MachineID != "" {
		bodyID, err := uuid.Parse(req.MachineID)
		if err != nil || bodyID != machineID {
			badRequest(w, "machine_id does not match the machine this route serves")
			return
		}
	}
	h.create(w, r, machineID, req)
}

func (h *OrderHandler) create(w http.ResponseWriter, r *http.Request, machineID uuid.UUID, req createOrderRequest) {
	svcReq, msg := buildCreateRequest(machineID, req)
	if msg != "" {
		badRequest(w, msg)
		return
	}

	result, err := h.svc.CreateOrder(r.Context(), svcReq)
	if err != nil {
		writeServiceError(w, h.logger, "create order", err)
		return
	}

	resp, err := h.orderDetail(r.Context(), result.Order)
	if err != nil {
		// The order is committed; answer with the unenriched lines.
		h.logger.Warn("enrich created order", "order_id", result.Order.ID, "err", err)
		resp = createResultToResponse(result)
	}
	resp.LowStock = toLowStockResponses(result.LowStock)
	writeJSON(w, http.StatusCreated, resp)
}

// buildCreateRequest normalizes the wire request into the service request.
// It returns a non-empty message when the request cannot be parsed.
func buildCreateRequest(machineID uuid.UUID, req createOrderRequest) (service.CreateOrderRequest, string) {
	out := service.CreateOrderRequest{
		MachineID: machineID,
		SessionID: req.SessionID,
	}
	if req.TotalPrice == nil {
		return out, "total_price is required"
	}
	out.TotalPrice = *req.TotalPrice

	if req.UserID != "" {
		uid, err := uuid.Parse(req.UserID)
		if err != nil {
			return out, service.ErrInvalidUserID.Error()
		}
		out.UserID = &uid
	}

	if len(req.Ingredients) == 0 {
		return out, service.ErrNoIngredients.Error()
	}
	out.Ingredients = make([]service.IngredientLine, len(req.Ingredients))
	for i, ing := range req.Ingredients {
		id, err := uuid.Parse(ing.IngredientID)
		if err != nil {
			return out, fmt.Sprintf("ingredients[%d]: %v", i, service.ErrInvalidItemID)
		}
		out.Ingredients[i] = service.IngredientLine{
			IngredientID: id,
			GramsUsed:    ing.GramsUsed,
			QtyMl:        ing.QtyMl,
			Calories:     ing.Calories,
		}
	}

	out.Addons = make([]service.AddonLine, len(req.Addons))
	for i, a := range req.Addons {
		id, err := uuid.Parse(a.AddonID)
		if err != nil {
			return out, fmt.Sprintf("addons[%d]: %v", i, service.ErrInvalidItemID)
		}
		qty := int32(1)
		if a.Qty != nil {
			qty = *a.Qty
		}
		out.Addons[i] = service.AddonLine{AddonID: id, Qty: qty, Calories: a.Calories}
	}
	return out, ""
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}

	order, err := h.store.GetOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, codeOrderNotFound, "order not found: "+orderID.String())
			return
		}
		internalError(w, h.logger, "get order", err)
		return
	}

	resp, err := h.orderDetail(r.Context(), order)
	if err != nil {
		internalError(w, h.logger, "get order lines", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateStatus handles PUT and PATCH /orders/{id}/status.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Status == "" {
		badRequest(w, "status is required")
		return
	}
	target, err := service.ParseTargetStatus(req.Status)
	if err != nil {
		writeServiceError(w, h.logger, "update order status", err)
		return
	}

	result, err := h.svc.UpdateOrderStatus(r.Context(), orderID, target)
	if err != nil {
		writeServiceError(w, h.logger, "update order status", err)
		return
	}

	writeJSON(w, http.StatusOK, statusUpdateResponse{
		orderResponse:  toOrderResponse(result.Order),
		PreviousStatus: string(result.Previous),
		StockRestored:  result.Restored,
	})
}

// ListByMachine handles GET /machines/{mid}/orders.
func (h *OrderHandler) ListByMachine(w http.ResponseWriter, r *http.Request) {
	machineID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		badRequest(w, "invalid machine ID")
		return
	}
	h.listOrders(w, r, machineID)
}

// ListForCurrentMachine handles GET /machine/orders.
func (h *OrderHandler) ListForCurrentMachine(w http.ResponseWriter, r *http.Request) {
	if h.currentMachine == uuid.Nil {
		badRequest(w, "no machine configured, use GET /machines/{mid}/orders")
		return
	}
	h.listOrders(w, r, h.currentMachine)
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request, machineID uuid.UUID) {
	limit, offset := parsePagination(r)
	params := database.ListOrdersByMachineParams{
		MachineID: machineID,
		Limit:     limit,
		Offset:    offset,
	}

	if s := r.URL.Query().Get("status"); s != "" {
		if !isOrderStatus(s) {
			badRequest(w, "invalid status filter: "+s)
			return
		}
		params.Status = database.NullOrderStatus{OrderStatus: database.OrderStatus(s), Valid: true}
	}
	if s := r.URL.Query().Get("start_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			badRequest(w, "invalid start_date format, use YYYY-MM-DD")
			return
		}
		params.StartDate = pgtype.Timestamptz{Time: t, Valid: true}
	}
	if s := r.URL.Query().Get("end_date"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			badRequest(w, "invalid end_date format, use YYYY-MM-DD")
			return
		}
		// end_date is inclusive of the whole day.
		params.EndDate = pgtype.Timestamptz{Time: t.AddDate(0, 0, 1), Valid: true}
	}

	orders, err := h.store.ListOrdersByMachine(r.Context(), params)
	if err != nil {
		internalError(w, h.logger, "list orders", err)
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Limit:  limit,
		Offset: offset,
	}
	for i, o := range orders {
		resp.Orders[i] = toOrderResponse(o)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Summary handles GET /orders/{id}/summary: a one-line description of the
// order for machine displays and the dispensing controller.
func (h *OrderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "invalid order ID")
		return
	}

	if _, err := h.store.GetOrder(r.Context(), orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, codeOrderNotFound, "order not found: "+orderID.String())
			return
		}
		internalError(w, h.logger, "get order", err)
		return
	}
	items, err := h.store.ListOrderItemsByOrder(r.Context(), orderID)
	if err != nil {
		internalError(w, h.logger, "list order items", err)
		return
	}
	addons, err := h.store.ListOrderAddonsByOrder(r.Context(), orderID)
	if err != nil {
		internalError(w, h.logger, "list order addons", err)
		return
	}

	writeJSON(w, http.StatusOK, orderSummaryResponse{
		OrderID:     orderID,
		OrderString: orderSummary(items, addons),
		Timestamp:   time.Now().UTC(),
	})
}

// --- Helpers ---

// orderSummary renders "<container>: <ingredient> <g>g, ... + <addon> x<qty>, ...".
// Orders with any liquid volume are served in a cup, the rest in a bowl.
func orderSummary(items []database.ListOrderItemsByOrderRow, addons []database.ListOrderAddonsByOrderRow) string {
	container := "bowl"
	parts := make([]string, len(items))
	for i, it := range items {
		if it.QtyMl > 0 {
			container = "cup"
		}
		parts[i] = fmt.Sprintf("%s %dg", lineName(it.IngredientName, "unknown ingredient"), it.GramsUsed)
	}
	out := container + ": " + strings.Join(parts, ", ")

	if len(addons) > 0 {
		extras := make([]string, len(addons))
		for i, a := range addons {
			extras[i] = fmt.Sprintf("%s x%d", lineName(a.AddonName, "unknown addon"), a.Qty)
		}
		out += " + " + strings.Join(extras, ", ")
	}
	return out
}

func lineName(t pgtype.Text, fallback string) string {
	if t.Valid && t.String != "" {
		return t.String
	}
	return fallback
}

// orderDetail loads the order lines joined with their catalog display fields.
func (h *OrderHandler) orderDetail(ctx context.Context, order database.Order) (orderDetailResponse, error) {
	items, err := h.store.ListOrderItemsByOrder(ctx, order.ID)
	if err != nil {
		return orderDetailResponse{}, fmt.Errorf("list order items: %w", err)
	}
	addons, err := h.store.ListOrderAddonsByOrder(ctx, order.ID)
	if err != nil {
		return orderDetailResponse{}, fmt.Errorf("list order addons: %w", err)
	}

	resp := orderDetailResponse{
		orderResponse: toOrderResponse(order),
		Items:         make([]orderItemResponse, len(items)),
		Addons:        make([]orderAddonResponse, len(addons)),
	}
	for i, it := range items {
		resp.Items[i] = orderItemResponse{
			ID:           it.ID,
			IngredientID: uuidPtr(it.IngredientID),
			Name:         textPtr(it.IngredientName),
			Emoji:        textPtr(it.IngredientEmoji),
			QtyMl:        it.QtyMl,
			GramsUsed:    it.GramsUsed,
			Calories:     it.Calories,
		}
	}
	for i, a := range addons {
		resp.Addons[i] = orderAddonResponse{
			ID:       a.ID,
			AddonID:  uuidPtr(a.AddonID),
			Name:     textPtr(a.AddonName),
			Icon:     textPtr(a.AddonIcon),
			Qty:      a.Qty,
			Calories: a.Calories,
		}
	}
	return resp, nil
}

func createResultToResponse(result *service.CreateOrderResult) orderDetailResponse {
	resp := orderDetailResponse{
		orderResponse: toOrderResponse(result.Order),
		Items:         make([]orderItemResponse, len(result.Items)),
		Addons:        make([]orderAddonResponse, len(result.Addons)),
	}
	for i, it := range result.Items {
		resp.Items[i] = orderItemResponse{
			ID:           it.ID,
			IngredientID: uuidPtr(it.IngredientID),
			QtyMl:        it.QtyMl,
			GramsUsed:    it.GramsUsed,
			Calories:     it.Calories,
		}
	}
	for i, a := range result.Addons {
		resp.Addons[i] = orderAddonResponse{
			ID:       a.ID,
			AddonID:  uuidPtr(a.AddonID),
			Qty:      a.Qty,
			Calories: a.Calories,
		}
	}
	return resp
}

func toLowStockResponses(levels []service.StockLevel) []lowStockResponse {
	if len(levels) == 0 {
		return nil
	}
	out := make([]lowStockResponse, len(levels))
	for i, l := range levels {
		out[i] = lowStockResponse{
			ItemType:  l.ItemType,
			ItemID:    l.ItemID,
			Name:      l.Name,
			Remaining: l.Remaining,
			Threshold: l.Threshold,
			Severity:  service.StockSeverity(l.Remaining, l.Threshold),
		}
	}
	return out
}

func toOrderResponse(o database.Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		UserID:        uuidPtr(o.UserID),
		MachineID:     uuidPtr(o.MachineID),
		SessionID:     textPtr(o.SessionID),
		Status:        string(o.Status),
		TotalPrice:    numericToString(o.TotalPrice),
		TotalCalories: o.TotalCalories,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func isOrderStatus(s string) bool {
	switch database.OrderStatus(s) {
	case database.OrderStatusPending, database.OrderStatusProcessing,
		database.OrderStatusCompleted, database.OrderStatusFailed, database.OrderStatusCancelled:
		return true
	}
	return false
}
