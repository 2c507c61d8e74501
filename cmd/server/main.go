package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/ferd/tripsplit/internal/exchange"
	"github.com/ferd/tripsplit/internal/server"
	"github.com/ferd/tripsplit/internal/service"
	"github.com/ferd/tripsplit/internal/storage/sqlite"
	"github.com/ferd/tripsplit/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/tripsplit.db")
	addr := getEnv("ADDR", ":8080")
	ratesURL := getEnv("RATES_URL", "https://api.frankfurter.dev/v1")
	ratesTimeout, err := time.ParseDuration(getEnv("RATES_API_TIMEOUT", "5s"))
	if err != nil {
		slog.Error("Invalid RATES_API_TIMEOUT", "error", err)
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	resolver := exchange.NewResolver(store, exchange.NewHTTPProvider(ratesURL, ratesTimeout))

	srv := server.New(
		service.NewTripService(store),
		service.NewBalanceService(store, resolver),
	)

	// Wrap with h2c for HTTP/2 without TLS
	handler := h2c.NewHandler(srv.Handler(), &http2.Server{})

	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
