package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/service"
)

// MachineStore defines the database methods needed by machine handlers.
// Satisfied by *database.Queries.
type MachineStore interface {
	GetMachine(ctx context.Context, id uuid.UUID) (database.VendingMachine, error)
	ListMachineIngredientStock(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineIngredientStockRow, error)
	ListMachineAddonStock(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineAddonStockRow, error)
}

// MachineHandler serves machine status and per-machine inventory.
type MachineHandler struct {
	store  MachineStore
	logger *slog.Logger
}

// NewMachineHandler creates a new MachineHandler.
func NewMachineHandler(store MachineStore, logger *slog.Logger) *MachineHandler {
	return &MachineHandler{store: store, logger: logger}
}

// RegisterRoutes registers machine endpoints inside /machines/{mid}.
func (h *MachineHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Get)
	r.Get("/inventory", h.Inventory)
}

type machineResponse struct {
	ID              uuid.UUID `json:"id"`
	Location        string    `json:"location"`
	Status          string    `json:"status"`
	CupsQty         int32     `json:"cups_qty"`
	BowlsQty        int32     `json:"bowls_qty"`
	AcceptingOrders bool      `json:"accepting_orders"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ingredientStockResponse struct {
	IngredientID       uuid.UUID `json:"ingredient_id"`
	Name               string    `json:"name"`
	Emoji              *string   `json:"emoji"`
	MinQtyG            int32     `json:"min_qty_g"`
	MaxPercentLimit    int32     `json:"max_percent_limit"`
	CaloriesPerG       string    `json:"calories_per_g"`
	PricePerGram       string    `json:"price_per_gram"`
	QtyAvailableG      int32     `json:"qty_available_g"`
	LowStockThresholdG int32     `json:"low_stock_threshold_g"`
	IsAvailable        bool      `json:"is_available"`
	Severity           *string   `json:"severity"`
}

type addonStockResponse struct {
	AddonID           uuid.UUID `json:"addon_id"`
	Name              string    `json:"name"`
	Icon              *string   `json:"icon"`
	Price             string    `json:"price"`
	Calories          int32     `json:"calories"`
	QtyAvailable      int32     `json:"qty_available"`
	LowStockThreshold int32     `json:"low_stock_threshold"`
	IsAvailable       bool      `json:"is_available"`
	Severity          *string   `json:"severity"`
}

type inventoryResponse struct {
	MachineID   uuid.UUID                 `json:"machine_id"`
	Status      string                    `json:"status"`
	Ingredients []ingredientStockResponse `json:"ingredients"`
	Addons      []addonStockResponse      `json:"addons"`
}

// Get handles GET /machines/{mid}.
func (h *MachineHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMachine(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, machineResponse{
		ID:              m.ID,
		Location:        m.Location,
		Status:          string(m.Status),
		CupsQty:         m.CupsQty,
		BowlsQty:        m.BowlsQty,
		AcceptingOrders: m.Status == database.MachineStatusActive,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	})
}

// Inventory handles GET /machines/{mid}/inventory.
func (h *MachineHandler) Inventory(w http.ResponseWriter, r *http.Request) {
	m, ok := h.loadMachine(w, r)
	if !ok {
		return
	}

	ings, err := h.store.ListMachineIngredientStock(r.Context(), m.ID)
	if err != nil {
		internalError(w, h.logger, "list ingredient stock", err)
		return
	}
	addons, err := h.store.ListMachineAddonStock(r.Context(), m.ID)
	if err != nil {
		internalError(w, h.logger, "list addon stock", err)
		return
	}

	resp := inventoryResponse{
		MachineID:   m.ID,
		Status:      string(m.Status),
		Ingredients: make([]ingredientStockResponse, len(ings)),
		Addons:      make([]addonStockResponse, len(addons)),
	}
	for i, s := range ings {
		resp.Ingredients[i] = ingredientStockResponse{
			IngredientID:       s.IngredientID,
			Name:               s.Name,
			Emoji:              textPtr(s.Emoji),
			MinQtyG:            s.MinQtyG,
			MaxPercentLimit:    s.MaxPercentLimit,
			CaloriesPerG:       numericExact(s.CaloriesPerG),
			PricePerGram:       numericExact(s.PricePerGram),
			QtyAvailableG:      s.QtyAvailableG,
			LowStockThresholdG: s.LowStockThresholdG,
			IsAvailable:        s.IsAvailable,
			Severity:           severityPtr(s.QtyAvailableG, s.LowStockThresholdG),
		}
	}
	for i, s := range addons {
		resp.Addons[i] = addonStockResponse{
			AddonID:           s.AddonID,
			Name:              s.Name,
			Icon:              textPtr(s.Icon),
			Price:             numericToString(s.Price),
			Calories:          s.Calories,
			QtyAvailable:      s.QtyAvailable,
			LowStockThreshold: s.LowStockThreshold,
			IsAvailable:       s.IsAvailable,
			Severity:          severityPtr(s.QtyAvailable, s.LowStockThreshold),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *MachineHandler) loadMachine(w http.ResponseWriter, r *http.Request) (database.VendingMachine, bool) {
	machineID, err := uuid.Parse(chi.URLParam(r, "mid"))
	if err != nil {
		badRequest(w, "invalid machine ID")
		return database.VendingMachine{}, false
	}
	m, err := h.store.GetMachine(r.Context(), machineID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, codeMachineNotFound, "machine not found: "+machineID.String())
			return database.VendingMachine{}, false
		}
		internalError(w, h.logger, "get machine", err)
		return database.VendingMachine{}, false
	}
	return m, true
}

// severityPtr is nil while stock sits above its threshold.
func severityPtr(qty, threshold int32) *string {
	s := service.StockSeverity(qty, threshold)
	if s == "" {
		return nil
	}
	return &s
}
