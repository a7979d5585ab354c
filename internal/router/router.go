package router

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/urbanharvest/vending-api/internal/cache"
	"github.com/urbanharvest/vending-api/internal/config"
	"github.com/urbanharvest/vending-api/internal/database"
	"github.com/urbanharvest/vending-api/internal/events"
	"github.com/urbanharvest/vending-api/internal/handler"
	mw "github.com/urbanharvest/vending-api/internal/middleware"
	"github.com/urbanharvest/vending-api/internal/service"
	"github.com/urbanharvest/vending-api/internal/ws"
)

// Deps are the long-lived resources the routes are built from.
type Deps struct {
	Pool      *pgxpool.Pool
	Queries   *database.Queries
	Cache     *cache.Cache
	Hub       *ws.Hub
	Publisher events.Publisher
	Logger    *slog.Logger
}

// New creates a Chi router with all application routes wired up.
func New(cfg *config.Config, d Deps) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.RequestLogger(d.Logger))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	healthHandler := handler.NewHealthHandler(d.Pool, d.Cache, d.Cache.Enabled(), d.Logger)
	healthHandler.RegisterRoutes(r)

	// Live order and stock feed per machine
	r.Get("/ws/machines/{mid}", d.Hub.ServeWS)

	// Catalog (cached)
	catalogHandler := handler.NewCatalogHandler(d.Queries, d.Cache, d.Logger)
	catalogHandler.RegisterRoutes(r)

	// Orders
	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(d.Pool, newOrderStore, d.Publisher, d.Logger, service.Config{
		AutoRegisterMachine:    cfg.AutoRegisterMachine,
		DefaultCupsQty:         cfg.DefaultCupsQty,
		DefaultBowlsQty:        cfg.DefaultBowlsQty,
		DefaultMachineLocation: cfg.DefaultMachineLocation,
	})
	orderHandler := handler.NewOrderHandler(orderService, d.Queries, d.Logger).
		WithCurrentMachine(cfg.CurrentMachineID)
	r.Route("/orders", orderHandler.RegisterRoutes)

	// Single-machine deployments
	r.Route("/machine", orderHandler.RegisterCurrentMachineRoutes)

	// Machine-scoped routes
	machineHandler := handler.NewMachineHandler(d.Queries, d.Logger)
	r.Route("/machines/{mid}", func(r chi.Router) {
		machineHandler.RegisterRoutes(r)
		orderHandler.RegisterMachineRoutes(r)
	})

	// Low stock alerts across machines
	inventoryHandler := handler.NewInventoryHandler(d.Queries, d.Logger)
	r.Route("/inventory", inventoryHandler.RegisterRoutes)

	return r
}
