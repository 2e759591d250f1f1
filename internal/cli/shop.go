package cli

import (
	"fmt"
	"log"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/adyen/shopharness/internal/config"
	"github.com/adyen/shopharness/internal/database"
	"github.com/adyen/shopharness/internal/handlers"
	"github.com/adyen/shopharness/internal/repository"
	"github.com/adyen/shopharness/internal/services"
)

// catalogStore is what the storefront needs from a backend.
type catalogStore interface {
	services.CatalogRepository
	services.CustomerRepository
}

// BuildShop seeds the configured catalog backend and returns the storefront
// handler. The close func releases the backend.
func BuildShop(cfg config.ServerConfig, logger *zap.Logger) (http.Handler, func() error, error) {
	var (
		store   catalogStore
		closeFn = func() error { return nil }
	)

	switch cfg.Backend {
	case config.BackendPostgres:
		if err := database.Connect(cfg.Postgres); err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		log.Println("Connected to database successfully")
		closeFn = database.Close

		if err := database.RunMigrations(); err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
		store = repository.NewCatalogRepository()
	default:
		store = repository.NewMemoryStore()
	}

	if err := repository.SeedDemo(store); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	shop, err := handlers.NewShop(
		services.NewCatalogService(store, repository.FeaturedProductIDs),
		services.NewAccountService(store),
		services.NewAdminAuth(cfg.AdminUsername, cfg.AdminPassword),
		logger,
	)
	if err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("failed to build shop: %w", err)
	}
	return shop, closeFn, nil
}

// ServeShop starts the in-memory storefront on a free local port for a run.
// The back office accepts the admin credentials the scenarios log in with.
// It returns the storefront URL and a func that stops it.
func ServeShop(cfg *config.HarnessConfig, logger *zap.Logger) (string, func(), error) {
	shop, closeShop, err := BuildShop(config.ServerConfig{
		Backend:       config.BackendMemory,
		AdminUsername: cfg.AdminUsername,
		AdminPassword: cfg.AdminPassword,
	}, logger)
	if err != nil {
		return "", nil, err
	}
	listener, server, err := StartServer(ServerDependencies{
		ServerConfig: config.ServerConfig{Port: "0"},
		Shop:         shop,
	})
	if err != nil {
		_ = closeShop()
		return "", nil, err
	}
	port := listener.Addr().(*net.TCPAddr).Port
	return fmt.Sprintf("http://127.0.0.1:%d/", port), func() {
		_ = server.Close()
		_ = closeShop()
	}, nil
}
