//go:build integration

package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/urbanharvest/vending-api/internal/config"
	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/events"
	"github.com/urbanharvest/vending-api/internal/router"
	"github.com/urbanharvest/vending-api/internal/ws"
)

type fixture struct {
	machineID uuid.UUID
	bananaID  uuid.UUID
	spinachID uuid.UUID
	gingerID  uuid.UUID
	chiaID    uuid.UUID
}

// TestIntegrationOrderLifecycle exercises order creation, stock deduction and
// compensating restoration against a real PostgreSQL database.
func TestIntegrationOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, connStr, cleanup := setupPostgresContainer(t, ctx)
	defer cleanup()

	runMigrations(t, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	defer pool.Close()

	cfg := &config.Config{
		AutoRegisterMachine:    true,
		DefaultCupsQty:         100,
		DefaultBowlsQty:        50,
		DefaultMachineLocation: "Auto-registered machine",
	}
	hub := ws.NewHub(testLogger(), nil)
	go hub.Run(ctx)

	r := router.New(cfg, router.Deps{
		Pool:      pool,
		Queries:   database.New(pool),
		Hub:       hub,
		Publisher: events.Multi{hub},
		Logger:    testLogger(),
	})
	server := httptest.NewServer(r)
	defer server.Close()

	fx := seedFixture(t, ctx, pool)

	t.Run("A: order deducts stock", func(t *testing.T) {
		feed := subscribe(t, server, fx.machineID)
		defer feed.Close()

		status, resp := httpJSON(t, server, "POST", "/orders", orderBody(fx.machineID, fx.bananaID, 150))
		if status != http.StatusCreated {
			t.Fatalf("status: got %d, want 201; body: %v", status, resp)
		}
		if resp["status"] != "processing" || resp["total_price"] != "8.50" {
			t.Errorf("order: got %v", resp)
		}
		items := resp["items"].([]interface{})
		if items[0].(map[string]interface{})["name"] != "Banana" {
			t.Errorf("item should be enriched with its catalog name, got %v", items[0])
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID); got != 4350 {
			t.Errorf("banana stock: got %d, want 4350", got)
		}

		var ev events.Event
		feed.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck
		if err := feed.ReadJSON(&ev); err != nil {
			t.Fatalf("read websocket event: %v", err)
		}
		if ev.Type != events.OrderCreated || ev.MachineID != fx.machineID {
			t.Errorf("event: got %+v", ev)
		}
	})

	t.Run("B: insufficient stock writes nothing", func(t *testing.T) {
		before := orderCount(t, ctx, pool)

		status, resp := httpJSON(t, server, "POST", "/orders", orderBody(fx.machineID, fx.spinachID, 200))
		if status != http.StatusConflict {
			t.Fatalf("status: got %d, want 409; body: %v", status, resp)
		}
		details := resp["details"].(map[string]interface{})
		if details["available"] != float64(50) || details["requested"] != float64(200) {
			t.Errorf("details: got %v", details)
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.spinachID); got != 50 {
			t.Errorf("spinach stock: got %d, want 50", got)
		}
		if after := orderCount(t, ctx, pool); after != before {
			t.Errorf("order rows: got %d, want %d", after, before)
		}
	})

	t.Run("C: cancel restores stock", func(t *testing.T) {
		body := orderBody(fx.machineID, fx.bananaID, 200)
		body["addons"] = []map[string]interface{}{{"addon_id": fx.chiaID.String(), "qty": 3, "calories": 180}}

		bananaBefore := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID)
		chiaBefore := addonStock(t, ctx, pool, fx.machineID, fx.chiaID)

		status, resp := httpJSON(t, server, "POST", "/orders", body)
		if status != http.StatusCreated {
			t.Fatalf("create status: got %d; body: %v", status, resp)
		}
		orderID := resp["id"].(string)
		if got := addonStock(t, ctx, pool, fx.machineID, fx.chiaID); got != chiaBefore-3 {
			t.Errorf("chia after order: got %d, want %d", got, chiaBefore-3)
		}

		status, resp = httpJSON(t, server, "PUT", "/orders/"+orderID+"/status", map[string]interface{}{"status": "cancelled"})
		if status != http.StatusOK {
			t.Fatalf("cancel status: got %d; body: %v", status, resp)
		}
		if resp["stock_restored"] != true {
			t.Errorf("stock_restored: got %v", resp["stock_restored"])
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID); got != bananaBefore {
			t.Errorf("banana after cancel: got %d, want %d", got, bananaBefore)
		}
		if got := addonStock(t, ctx, pool, fx.machineID, fx.chiaID); got != chiaBefore {
			t.Errorf("chia after cancel: got %d, want %d", got, chiaBefore)
		}

		// A terminal order cannot be cancelled twice.
		status, _ = httpJSON(t, server, "PATCH", "/orders/"+orderID+"/status", map[string]interface{}{"status": "failed"})
		if status != http.StatusConflict {
			t.Errorf("second transition: got %d, want 409", status)
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID); got != bananaBefore {
			t.Errorf("banana restored twice: got %d, want %d", got, bananaBefore)
		}
	})

	t.Run("D: unknown ingredient writes nothing", func(t *testing.T) {
		before := orderCount(t, ctx, pool)
		bananaBefore := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID)

		body := orderBody(fx.machineID, fx.bananaID, 100)
		missing := uuid.New()
		body["ingredients"] = append(body["ingredients"].([]map[string]interface{}),
			map[string]interface{}{"ingredient_id": missing.String(), "grams_used": 50})

		status, resp := httpJSON(t, server, "POST", "/orders", body)
		if status != http.StatusBadRequest || resp["code"] != "ITEM_NOT_FOUND" {
			t.Fatalf("status: got %d, body: %v", status, resp)
		}
		if !strings.Contains(resp["error"].(string), missing.String()) {
			t.Errorf("error should name the missing id, got %v", resp["error"])
		}
		if after := orderCount(t, ctx, pool); after != before {
			t.Errorf("order rows: got %d, want %d", after, before)
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.bananaID); got != bananaBefore {
			t.Errorf("banana stock: got %d, want %d", got, bananaBefore)
		}
	})

	t.Run("E: concurrent orders for the last grams", func(t *testing.T) {
		setIngredientStock(t, ctx, pool, fx.machineID, fx.gingerID, 100)

		var wg sync.WaitGroup
		statuses := make([]int, 2)
		for i := range statuses {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				body := orderBody(fx.machineID, fx.bananaID, 900)
				body["ingredients"] = append(body["ingredients"].([]map[string]interface{}),
					map[string]interface{}{"ingredient_id": fx.gingerID.String(), "grams_used": 100})
				statuses[i], _ = httpJSONNoFatal(server, "POST", "/orders", body)
			}(i)
		}
		wg.Wait()

		created, rejected := 0, 0
		for _, s := range statuses {
			switch s {
			case http.StatusCreated:
				created++
			case http.StatusConflict:
				rejected++
			}
		}
		if created != 1 || rejected != 1 {
			t.Fatalf("statuses: got %v, want one 201 and one 409", statuses)
		}
		if got := ingredientStock(t, ctx, pool, fx.machineID, fx.gingerID); got != 0 {
			t.Errorf("ginger stock: got %d, want 0", got)
		}
	})

	t.Run("machine unavailable", func(t *testing.T) {
		if _, err := pool.Exec(ctx, `UPDATE vending_machines SET status = 'maintenance' WHERE id = $1`, fx.machineID); err != nil {
			t.Fatalf("set maintenance: %v", err)
		}
		defer pool.Exec(ctx, `UPDATE vending_machines SET status = 'active' WHERE id = $1`, fx.machineID) //nolint:errcheck

		status, resp := httpJSON(t, server, "POST", "/orders", orderBody(fx.machineID, fx.bananaID, 100))
		if status != http.StatusConflict || resp["code"] != "MACHINE_UNAVAILABLE" {
			t.Fatalf("status: got %d, body: %v", status, resp)
		}
	})

	t.Run("auto-registered machine has no stock", func(t *testing.T) {
		newMachine := uuid.New()
		status, resp := httpJSON(t, server, "POST", "/orders", orderBody(newMachine, fx.bananaID, 100))
		if status != http.StatusConflict || resp["code"] != "INSUFFICIENT_STOCK" {
			t.Fatalf("status: got %d, body: %v", status, resp)
		}

		status, resp = httpJSON(t, server, "GET", "/machines/"+newMachine.String(), nil)
		if status != http.StatusOK {
			t.Fatalf("machine lookup: got %d, body: %v", status, resp)
		}
		if resp["cups_qty"] != float64(100) || resp["bowls_qty"] != float64(50) {
			t.Errorf("defaults: got %v", resp)
		}
	})

	t.Run("listing and alerts", func(t *testing.T) {
		status, resp := httpJSON(t, server, "GET", "/machines/"+fx.machineID.String()+"/orders?status=cancelled", nil)
		if status != http.StatusOK {
			t.Fatalf("list status: got %d", status)
		}
		if orders := resp["orders"].([]interface{}); len(orders) != 1 {
			t.Errorf("cancelled orders: got %d, want 1", len(orders))
		}

		status, resp = httpJSON(t, server, "GET", "/inventory/alerts?machine_id="+fx.machineID.String(), nil)
		if status != http.StatusOK {
			t.Fatalf("alerts status: got %d", status)
		}
		// Spinach (50/100) and ginger (0/10) are at or below threshold.
		if resp["critical"] != float64(2) {
			t.Errorf("critical alerts: got %v, body: %v", resp["critical"], resp)
		}
	})
}

// --- Setup helpers ---

func setupPostgresContainer(t *testing.T, ctx context.Context) (testcontainers.Container, string, func()) {
	t.Helper()

	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("vending_test"),
		tcpostgres.WithUsername("vending"),
		tcpostgres.WithPassword("vending"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("get connection string: %v", err)
	}

	cleanup := func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("terminate container: %v", err)
		}
	}

	return pgContainer, connStr, cleanup
}

func runMigrations(t *testing.T, connStr string) {
	t.Helper()

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("open db for migrations: %v", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		t.Fatalf("create migrate driver: %v", err)
	}

	// Go test sets cwd to the package directory.
	m, err := migrate.NewWithDatabaseInstance("file://../../migrations", "postgres", driver)
	if err != nil {
		t.Fatalf("create migrate instance: %v", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("run migrations: %v", err)
	}
}

func seedFixture(t *testing.T, ctx context.Context, pool *pgxpool.Pool) fixture {
	t.Helper()
	fx := fixture{machineID: uuid.New()}

	mustExec := func(query string, args ...interface{}) {
		t.Helper()
		if _, err := pool.Exec(ctx, query, args...); err != nil {
			t.Fatalf("seed: %v\n%s", err, query)
		}
	}
	insertIngredient := func(name string, minG, maxPct int32) uuid.UUID {
		t.Helper()
		var id uuid.UUID
		err := pool.QueryRow(ctx, `
			INSERT INTO ingredients (name, min_qty_g, max_percent_limit, calories_per_g, price_per_gram)
			VALUES ($1, $2, $3, 0.5, 0.01) RETURNING id
		`, name, minG, maxPct).Scan(&id)
		if err != nil {
			t.Fatalf("insert ingredient %s: %v", name, err)
		}
		return id
	}

	fx.bananaID = insertIngredient("Banana", 10, 100)
	fx.spinachID = insertIngredient("Spinach", 10, 100)
	fx.gingerID = insertIngredient("Ginger", 10, 100)
	if err := pool.QueryRow(ctx, `INSERT INTO addons (name, price, calories) VALUES ('Chia', 0.5, 60) RETURNING id`).Scan(&fx.chiaID); err != nil {
		t.Fatalf("insert addon: %v", err)
	}

	mustExec(`INSERT INTO vending_machines (id, location, status, cups_qty, bowls_qty) VALUES ($1, 'Test Lab', 'active', 100, 50)`, fx.machineID)
	mustExec(`INSERT INTO machine_ingredients (machine_id, ingredient_id, qty_available_g, low_stock_threshold_g) VALUES ($1, $2, 4500, 500)`, fx.machineID, fx.bananaID)
	mustExec(`INSERT INTO machine_ingredients (machine_id, ingredient_id, qty_available_g, low_stock_threshold_g) VALUES ($1, $2, 50, 100)`, fx.machineID, fx.spinachID)
	mustExec(`INSERT INTO machine_ingredients (machine_id, ingredient_id, qty_available_g, low_stock_threshold_g) VALUES ($1, $2, 1000, 10)`, fx.machineID, fx.gingerID)
	mustExec(`INSERT INTO machine_addons (machine_id, addon_id, qty_available, low_stock_threshold) VALUES ($1, $2, 30, 5)`, fx.machineID, fx.chiaID)
	return fx
}

func orderBody(machineID, ingredientID uuid.UUID, grams int) map[string]interface{} {
	return map[string]interface{}{
		"machine_id":  machineID.String(),
		"total_price": "8.50",
		"ingredients": []map[string]interface{}{
			{"ingredient_id": ingredientID.String(), "grams_used": grams, "calories": grams},
		},
	}
}

func ingredientStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, machineID, ingredientID uuid.UUID) int32 {
	t.Helper()
	var qty int32
	err := pool.QueryRow(ctx, `SELECT qty_available_g FROM machine_ingredients WHERE machine_id = $1 AND ingredient_id = $2`,
		machineID, ingredientID).Scan(&qty)
	if err != nil {
		t.Fatalf("read ingredient stock: %v", err)
	}
	return qty
}

func addonStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, machineID, addonID uuid.UUID) int32 {
	t.Helper()
	var qty int32
	err := pool.QueryRow(ctx, `SELECT qty_available FROM machine_addons WHERE machine_id = $1 AND addon_id = $2`,
		machineID, addonID).Scan(&qty)
	if err != nil {
		t.Fatalf("read addon stock: %v", err)
	}
	return qty
}

func setIngredientStock(t *testing.T, ctx context.Context, pool *pgxpool.Pool, machineID, ingredientID uuid.UUID, qty int32) {
	t.Helper()
	_, err := pool.Exec(ctx, `UPDATE machine_ingredients SET qty_available_g = $3 WHERE machine_id = $1 AND ingredient_id = $2`,
		machineID, ingredientID, qty)
	if err != nil {
		t.Fatalf("set ingredient stock: %v", err)
	}
}

func orderCount(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		t.Fatalf("count orders: %v", err)
	}
	return n
}

// --- HTTP helpers ---

func subscribe(t *testing.T, server *httptest.Server, machineID uuid.UUID) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/machines/" + machineID.String()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial websocket: %v", err)
	}
	// Registration is asynchronous; give the hub a moment to add the client.
	time.Sleep(100 * time.Millisecond)
	return conn
}

func httpJSON(t *testing.T, server *httptest.Server, method, path string, body map[string]interface{}) (int, map[string]interface{}) {
	t.Helper()
	status, result, err := doJSON(server, method, path, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return status, result
}

func httpJSONNoFatal(server *httptest.Server, method, path string, body map[string]interface{}) (int, map[string]interface{}) {
	status, result, _ := doJSON(server, method, path, body)
	return status, result
}

func doJSON(server *httptest.Server, method, path string, body map[string]interface{}) (int, map[string]interface{}, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, result, nil
}
