package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/enum"
	"github.com/urbanharvest/vending-api/internal/service"
)

// AlertStore defines the low-stock queries needed by InventoryHandler.
type AlertStore interface {
	ListLowStockIngredients(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockIngredientsRow, error)
	ListLowStockAddons(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockAddonsRow, error)
}

// InventoryHandler reports stock at or below its low-stock threshold across
// machines.
type InventoryHandler struct {
	store  AlertStore
	logger *slog.Logger
}

// NewInventoryHandler creates a new InventoryHandler.
func NewInventoryHandler(store AlertStore, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{store: store, logger: logger}
}

// RegisterRoutes registers the /inventory endpoints.
func (h *InventoryHandler) RegisterRoutes(r chi.Router) {
	r.Get("/alerts", h.Alerts)
}

type alertResponse struct {
	MachineID         uuid.UUID `json:"machine_id"`
	MachineLocation   string    `json:"machine_location"`
	ItemType          string    `json:"item_type"`
	ItemID            uuid.UUID `json:"item_id"`
	Name              string    `json:"name"`
	QtyAvailable      int32     `json:"qty_available"`
	LowStockThreshold int32     `json:"low_stock_threshold"`
	Severity          string    `json:"severity"`
}

type alertListResponse struct {
	Alerts   []alertResponse `json:"alerts"`
	Critical int             `json:"critical"`
	Warning  int             `json:"warning"`
}

// Alerts handles GET /inventory/alerts?machine_id=.
func (h *InventoryHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	var machineID pgtype.UUID
	if s := r.URL.Query().Get("machine_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			badRequest(w, "invalid machine_id")
			return
		}
		machineID = pgtype.UUID{Bytes: id, Valid: true}
	}

	ings, err := h.store.ListLowStockIngredients(r.Context(), machineID)
	if err != nil {
		internalError(w, h.logger, "list low stock ingredients", err)
		return
	}
	addons, err := h.store.ListLowStockAddons(r.Context(), machineID)
	if err != nil {
		internalError(w, h.logger, "list low stock addons", err)
		return
	}

	resp := alertListResponse{Alerts: make([]alertResponse, 0, len(ings)+len(addons))}
	for _, s := range ings {
		resp.Alerts = append(resp.Alerts, alertResponse{
			MachineID:         s.MachineID,
			MachineLocation:   s.MachineLocation,
			ItemType:          enum.ItemTypeIngredient,
			ItemID:            s.IngredientID,
			Name:              s.Name,
			QtyAvailable:      s.QtyAvailableG,
			LowStockThreshold: s.LowStockThresholdG,
			Severity:          service.StockSeverity(s.QtyAvailableG, s.LowStockThresholdG),
		})
	}
	for _, s := range addons {
		resp.Alerts = append(resp.Alerts, alertResponse{
			MachineID:         s.MachineID,
			MachineLocation:   s.MachineLocation,
			ItemType:          enum.ItemTypeAddon,
			ItemID:            s.AddonID,
			Name:              s.Name,
			QtyAvailable:      s.QtyAvailable,
			LowStockThreshold: s.LowStockThreshold,
			Severity:          service.StockSeverity(s.QtyAvailable, s.LowStockThreshold),
		})
	}

	// Critical first, then by remaining quantity.
	sort.SliceStable(resp.Alerts, func(i, j int) bool {
		a, b := resp.Alerts[i], resp.Alerts[j]
		if a.Severity != b.Severity {
			return a.Severity == enum.SeverityCritical
		}
		return a.QtyAvailable < b.QtyAvailable
	})
	for _, a := range resp.Alerts {
		switch a.Severity {
		case enum.SeverityCritical:
			resp.Critical++
		case enum.SeverityWarning:
			resp.Warning++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
