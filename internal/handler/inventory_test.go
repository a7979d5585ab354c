package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/handler"
)

type mockAlertStore struct {
	lowIngredientsFn func(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockIngredientsRow, error)
	lowAddonsFn      func(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockAddonsRow, error)
}

func (m *mockAlertStore) ListLowStockIngredients(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockIngredientsRow, error) {
	if m.lowIngredientsFn != nil {
		return m.lowIngredientsFn(ctx, machineID)
	}
	return []database.ListLowStockIngredientsRow{}, nil
}

func (m *mockAlertStore) ListLowStockAddons(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockAddonsRow, error) {
	if m.lowAddonsFn != nil {
		return m.lowAddonsFn(ctx, machineID)
	}
	return []database.ListLowStockAddonsRow{}, nil
}

func setupInventoryRouter(store *mockAlertStore) *chi.Mux {
	h := handler.NewInventoryHandler(store, testLogger())
	r := chi.NewRouter()
	r.Route("/inventory", h.RegisterRoutes)
	return r
}

func TestInventoryAlerts_AllMachines(t *testing.T) {
	m1, m2 := uuid.New(), uuid.New()
	store := &mockAlertStore{
		lowIngredientsFn: func(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockIngredientsRow, error) {
			if machineID.Valid {
				t.Errorf("expected no machine filter, got %v", machineID)
			}
			return []database.ListLowStockIngredientsRow{
				{MachineID: m1, MachineLocation: "Lobby", IngredientID: uuid.New(), Name: "Mango", QtyAvailableG: 90, LowStockThresholdG: 100},
				{MachineID: m2, MachineLocation: "Gym", IngredientID: uuid.New(), Name: "Kale", QtyAvailableG: 0, LowStockThresholdG: 100},
			}, nil
		},
		lowAddonsFn: func(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockAddonsRow, error) {
			return []database.ListLowStockAddonsRow{
				{MachineID: m1, MachineLocation: "Lobby", AddonID: uuid.New(), Name: "Granola", QtyAvailable: 2, LowStockThreshold: 5},
			}, nil
		},
	}

	rr := doRequest(t, setupInventoryRouter(store), "GET", "/inventory/alerts", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	alerts := resp["alerts"].([]interface{})
	if len(alerts) != 3 {
		t.Fatalf("alerts count: got %d, want 3", len(alerts))
	}

	// Critical entries sort first, lowest quantity first.
	first := alerts[0].(map[string]interface{})
	second := alerts[1].(map[string]interface{})
	third := alerts[2].(map[string]interface{})
	if first["name"] != "Kale" || first["severity"] != "critical" {
		t.Errorf("first alert: got %v", first)
	}
	if second["name"] != "Granola" || second["item_type"] != "addon" || second["severity"] != "critical" {
		t.Errorf("second alert: got %v", second)
	}
	if third["name"] != "Mango" || third["severity"] != "warning" {
		t.Errorf("third alert: got %v", third)
	}
	if resp["critical"] != float64(2) || resp["warning"] != float64(1) {
		t.Errorf("counts: got critical=%v warning=%v", resp["critical"], resp["warning"])
	}
}

func TestInventoryAlerts_MachineFilter(t *testing.T) {
	machineID := uuid.New()
	check := func(got pgtype.UUID) {
		if !got.Valid || uuid.UUID(got.Bytes) != machineID {
			t.Errorf("machine filter: got %v, want %v", got, machineID)
		}
	}
	store := &mockAlertStore{
		lowIngredientsFn: func(ctx context.Context, id pgtype.UUID) ([]database.ListLowStockIngredientsRow, error) {
			check(id)
			return nil, nil
		},
		lowAddonsFn: func(ctx context.Context, id pgtype.UUID) ([]database.ListLowStockAddonsRow, error) {
			check(id)
			return nil, nil
		},
	}

	rr := doRequest(t, setupInventoryRouter(store), "GET", "/inventory/alerts?machine_id="+machineID.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if alerts := resp["alerts"].([]interface{}); len(alerts) != 0 {
		t.Errorf("expected empty alerts, got %v", alerts)
	}
}

func TestInventoryAlerts_InvalidMachineID(t *testing.T) {
	rr := doRequest(t, setupInventoryRouter(&mockAlertStore{}), "GET", "/inventory/alerts?machine_id=abc", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestInventoryAlerts_StoreError(t *testing.T) {
	store := &mockAlertStore{
		lowIngredientsFn: func(ctx context.Context, machineID pgtype.UUID) ([]database.ListLowStockIngredientsRow, error) {
			return nil, errors.New("boom")
		},
	}
	rr := doRequest(t, setupInventoryRouter(store), "GET", "/inventory/alerts", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
