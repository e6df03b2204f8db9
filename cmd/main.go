package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"storefront-service/internal/api"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/checkout"
	"storefront-service/internal/config"
	"storefront-service/internal/domain"
	"storefront-service/internal/gateway"
	"storefront-service/internal/store"
)

const (
	defaultAppName = "StorefrontService" // App name for logger
	healthInterval = 15 * time.Second
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s, cart storage: %s", cfg.AppEnv, cfg.LogLevel, cfg.Storage.Driver)

	// --- Cart Storage ---
	records, err := openRecordStore(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatalf("FATAL: Failed to open cart storage: %v", err)
	}

	cartStore := cart.NewStore(records, cfg.Storage.Key, logger)
	if err := cartStore.Hydrate(context.Background()); err != nil {
		logger.Printf("WARN: Cart could not be hydrated, starting empty: %v", err)
	}
	cartStore.Subscribe(func(items []domain.Product) {
		logger.Printf("INFO: Cart now holds %d items (total %s)", len(items), checkout.Total(items))
	})

	// --- Catalog & Checkout ---
	client := gateway.NewClient(cfg.CatalogAPI.URL, cfg.CatalogAPI.Timeout, logger)
	engine := catalog.NewEngine(client, logger, catalog.Options{})
	view := engine.Mount(context.Background())
	logger.Printf("INFO: Catalog mounted with %d of %d products, %d categories", len(view.Products), view.KnownTotal, len(view.Categories))

	summary := checkout.NewSummary(cartStore, client, checkout.Options{
		Currency:     cfg.Payment.Currency,
		MerchantName: cfg.Payment.MerchantName,
		Description:  cfg.Payment.Description,
		ThemeColor:   cfg.Payment.ThemeColor,
		CallbackURL:  cfg.CallbackURL(),
	}, logger)

	httpAPIHandler := api.NewHTTPHandler(engine, cartStore, summary, logger)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, records)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Setup & Start gRPC Server ---
	healthCtx, stopHealth := context.WithCancel(context.Background())
	grpcServer := setupGRPCServer(healthCtx, logger, records)
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatalf("FATAL: Failed to listen for gRPC on port %s: %v", cfg.GrpcServer.Port, err)
	}

	go func() {
		logger.Printf("INFO: gRPC server listening on port %s", cfg.GrpcServer.Port)
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatalf("FATAL: gRPC server Serve error: %v", err)
		}
		logger.Println("INFO: gRPC server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, grpcServer, stopHealth, records, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

// openRecordStore connects the configured cart storage backend.
func openRecordStore(ctx context.Context, cfg *config.Config, logger *log.Logger) (store.RecordStorer, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := sql.Open("postgres", cfg.Postgres.DSN())
		if err != nil {
			return nil, fmt.Errorf("initializing database connection: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}
		pg := store.NewPostgresStore(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		logger.Println("INFO: Database connection established, cart table ready.")
		return pg, nil

	case config.DriverRedis:
		rs, err := store.NewRedisStore(cfg.Redis.URL, "storefront:")
		if err != nil {
			return nil, err
		}
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, fmt.Errorf("pinging redis: %w", err)
		}
		logger.Println("INFO: Redis connection established.")
		return rs, nil
	}

	dir, err := filepath.Abs(cfg.Storage.Dir)
	if err != nil {
		return nil, err
	}
	fs, err := store.NewFileStore(dir)
	if err != nil {
		return nil, err
	}
	logger.Printf("INFO: Cart stored under %s", dir)
	return fs, nil
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, records store.RecordStorer) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		storageStatus := "healthy"
		if err := records.Ping(ctx); err != nil {
			storageStatus = "unhealthy"
			logger.Printf("WARN: Health check storage ping failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, the payload carries the detail
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"storage":     storageStatus,
		})
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func setupGRPCServer(ctx context.Context, logger *log.Logger, records store.RecordStorer) *grpc.Server {
	s := grpc.NewServer()

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, healthServer)
	go api.NewHealthReporter(healthServer, records, logger).Run(ctx, healthInterval)
	logger.Println("INFO: gRPC health check service registered.")

	reflection.Register(s)
	logger.Println("INFO: gRPC reflection service registered.")

	return s
}

func waitForShutdown(
	logger *log.Logger,
	httpServer *http.Server,
	grpcServer *grpc.Server,
	stopHealth context.CancelFunc,
	records store.RecordStorer,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()
	stopHealth()

	logger.Println("INFO: Attempting to gracefully shut down gRPC server...")
	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	select {
	case <-stoppedGrpc:
		logger.Println("INFO: gRPC server gracefully shut down.")
	case <-shutdownCtx.Done():
		logger.Printf("WARN: gRPC server graceful shutdown timed out: %v", shutdownCtx.Err())
		grpcServer.Stop()
		logger.Println("INFO: gRPC server forced stop.")
	}

	if err := records.Close(); err != nil {
		logger.Printf("WARN: Error closing cart storage: %v", err)
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
