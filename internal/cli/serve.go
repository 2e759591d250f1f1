package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adyen/shopharness/internal/config"
)

// ServerDependencies holds all dependencies needed for the server
type ServerDependencies struct {
	ServerConfig config.ServerConfig
	// Shop serves the storefront and the back office.
	Shop http.Handler
}

// RunServe starts the demo storefront
func RunServe(deps ServerDependencies) error {
	listener, server, err := StartServer(deps)
	if err != nil {
		return err
	}
	defer listener.Close()

	return WaitForShutdown(server, nil)
}

// StartServer listens on the configured port and serves the shop in the
// background. Port "0" picks a free port; read it from the listener.
func StartServer(deps ServerDependencies) (net.Listener, *http.Server, error) {
	if deps.Shop == nil {
		return nil, nil, fmt.Errorf("no shop handler configured")
	}

	addr := fmt.Sprintf(":%s", deps.ServerConfig.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create listener: %w", err)
	}

	server := &http.Server{
		Handler:           deps.Shop,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Storefront listening on %s", listener.Addr().String())
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Storefront error: %v", err)
		}
	}()

	return listener, server, nil
}

// WaitForShutdown waits for SIGINT or SIGTERM and drains the storefront
func WaitForShutdown(server *http.Server, shutdown chan os.Signal) error {
	return WaitForShutdownWithTimeout(server, shutdown, 30*time.Second)
}

// WaitForShutdownWithTimeout waits for a signal on shutdown, or on SIGINT and
// SIGTERM when shutdown is nil, then gives in-flight requests up to
// shutdownTimeout before closing every connection.
func WaitForShutdownWithTimeout(server *http.Server, shutdown chan os.Signal, shutdownTimeout time.Duration) error {
	if shutdown == nil {
		shutdown = make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)
	}

	sig := <-shutdown
	log.Printf("Received %v, stopping storefront", sig)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Storefront did not drain within %v: %v", shutdownTimeout, err)
		if err := server.Close(); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	log.Println("Storefront stopped")
	return nil
}
