package handler_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/handler"
)

// --- Mock MachineStore ---

type mockMachineStore struct {
	getMachineFn          func(ctx context.Context, id uuid.UUID) (database.VendingMachine, error)
	listIngredientStockFn func(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineIngredientStockRow, error)
	listAddonStockFn      func(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineAddonStockRow, error)
}

func (m *mockMachineStore) GetMachine(ctx context.Context, id uuid.UUID) (database.VendingMachine, error) {
	if m.getMachineFn != nil {
		return m.getMachineFn(ctx, id)
	}
	return database.VendingMachine{}, pgx.ErrNoRows
}

func (m *mockMachineStore) ListMachineIngredientStock(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineIngredientStockRow, error) {
	if m.listIngredientStockFn != nil {
		return m.listIngredientStockFn(ctx, machineID)
	}
	return []database.ListMachineIngredientStockRow{}, nil
}

func (m *mockMachineStore) ListMachineAddonStock(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineAddonStockRow, error) {
	if m.listAddonStockFn != nil {
		return m.listAddonStockFn(ctx, machineID)
	}
	return []database.ListMachineAddonStockRow{}, nil
}

func setupMachineRouter(store *mockMachineStore) *chi.Mux {
	h := handler.NewMachineHandler(store, testLogger())
	r := chi.NewRouter()
	r.Route("/machines/{mid}", h.RegisterRoutes)
	return r
}

func testMachine(id uuid.UUID, status database.MachineStatus) database.VendingMachine {
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	return database.VendingMachine{
		ID:        id,
		Location:  "Central Station, Hall B",
		Status:    status,
		CupsQty:   100,
		BowlsQty:  50,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestMachineGet_Active(t *testing.T) {
	id := uuid.New()
	store := &mockMachineStore{
		getMachineFn: func(ctx context.Context, mid uuid.UUID) (database.VendingMachine, error) {
			return testMachine(mid, database.MachineStatusActive), nil
		},
	}

	rr := doRequest(t, setupMachineRouter(store), "GET", "/machines/"+id.String(), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["id"] != id.String() || resp["status"] != "active" {
		t.Errorf("machine: got %v", resp)
	}
	if resp["accepting_orders"] != true {
		t.Errorf("accepting_orders: got %v, want true", resp["accepting_orders"])
	}
	if resp["cups_qty"] != float64(100) || resp["bowls_qty"] != float64(50) {
		t.Errorf("cups/bowls: got %v/%v", resp["cups_qty"], resp["bowls_qty"])
	}
}

func TestMachineGet_MaintenanceNotAccepting(t *testing.T) {
	store := &mockMachineStore{
		getMachineFn: func(ctx context.Context, mid uuid.UUID) (database.VendingMachine, error) {
			return testMachine(mid, database.MachineStatusMaintenance), nil
		},
	}
	rr := doRequest(t, setupMachineRouter(store), "GET", "/machines/"+uuid.New().String(), nil)
	if resp := decodeResponse(t, rr); resp["accepting_orders"] != false {
		t.Errorf("accepting_orders: got %v, want false", resp["accepting_orders"])
	}
}

func TestMachineGet_NotFound(t *testing.T) {
	rr := doRequest(t, setupMachineRouter(&mockMachineStore{}), "GET", "/machines/"+uuid.New().String(), nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
	if resp := decodeResponse(t, rr); resp["code"] != "MACHINE_NOT_FOUND" {
		t.Errorf("code: got %v", resp["code"])
	}
}

func TestMachineGet_InvalidID(t *testing.T) {
	rr := doRequest(t, setupMachineRouter(&mockMachineStore{}), "GET", "/machines/m-1", nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMachineInventory(t *testing.T) {
	id := uuid.New()
	bananaID := uuid.New()
	spinachID := uuid.New()
	chiaID := uuid.New()

	store := &mockMachineStore{
		getMachineFn: func(ctx context.Context, mid uuid.UUID) (database.VendingMachine, error) {
			return testMachine(mid, database.MachineStatusActive), nil
		},
		listIngredientStockFn: func(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineIngredientStockRow, error) {
			if machineID != id {
				t.Errorf("machine id: got %v, want %v", machineID, id)
			}
			return []database.ListMachineIngredientStockRow{
				{
					IngredientID: bananaID, Name: "Banana", Emoji: pgtype.Text{String: "🍌", Valid: true},
					MinQtyG: 50, MaxPercentLimit: 80,
					CaloriesPerG: makeNumeric("0.89"), PricePerGram: makeNumeric("0.0120"),
					QtyAvailableG: 4500, LowStockThresholdG: 500, IsAvailable: true,
				},
				{
					IngredientID: spinachID, Name: "Spinach", MinQtyG: 20, MaxPercentLimit: 40,
					CaloriesPerG: makeNumeric("0.23"), PricePerGram: makeNumeric("0.02"),
					QtyAvailableG: 10, LowStockThresholdG: 100, IsAvailable: false,
				},
			}, nil
		},
		listAddonStockFn: func(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineAddonStockRow, error) {
			return []database.ListMachineAddonStockRow{
				{AddonID: chiaID, Name: "Chia", Price: makeNumeric("0.5"), Calories: 60,
					QtyAvailable: 4, LowStockThreshold: 5, IsAvailable: true},
			}, nil
		},
	}

	rr := doRequest(t, setupMachineRouter(store), "GET", "/machines/"+id.String()+"/inventory", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	ings := resp["ingredients"].([]interface{})
	if len(ings) != 2 {
		t.Fatalf("ingredients count: got %d, want 2", len(ings))
	}
	banana := ings[0].(map[string]interface{})
	if banana["severity"] != nil {
		t.Errorf("banana severity: got %v, want null", banana["severity"])
	}
	if banana["price_per_gram"] != "0.012" || banana["calories_per_g"] != "0.89" {
		t.Errorf("banana rates: got %v / %v", banana["price_per_gram"], banana["calories_per_g"])
	}
	spinach := ings[1].(map[string]interface{})
	if spinach["severity"] != "critical" || spinach["is_available"] != false {
		t.Errorf("spinach: got %v", spinach)
	}

	addons := resp["addons"].([]interface{})
	chia := addons[0].(map[string]interface{})
	if chia["severity"] != "warning" || chia["price"] != "0.50" {
		t.Errorf("chia: got %v", chia)
	}
}

func TestMachineInventory_StoreError(t *testing.T) {
	store := &mockMachineStore{
		getMachineFn: func(ctx context.Context, mid uuid.UUID) (database.VendingMachine, error) {
			return testMachine(mid, database.MachineStatusActive), nil
		},
		listAddonStockFn: func(ctx context.Context, machineID uuid.UUID) ([]database.ListMachineAddonStockRow, error) {
			return nil, errors.New("boom")
		},
	}
	rr := doRequest(t, setupMachineRouter(store), "GET", "/machines/"+uuid.New().String()+"/inventory", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestMachineInventory_UnknownMachine(t *testing.T) {
	rr := doRequest(t, setupMachineRouter(&mockMachineStore{}), "GET", "/machines/"+uuid.New().String()+"/inventory", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}
