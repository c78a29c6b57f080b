package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"skylark/opscommand/internal/api"
	"skylark/opscommand/internal/auth"
	"skylark/opscommand/internal/config"
	"skylark/opscommand/internal/logging"
	"skylark/opscommand/internal/metrics"
	"skylark/opscommand/internal/routes"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load(os.Getenv("OPSCOMMAND_CONFIG"))
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	if err := logging.Init(cfg.AppEnv); err != nil {
		log.Fatalf("❌ Failed to initialize logger: %v", err)
	}
	defer logging.Close()

	logging.Info("Ops command server starting up",
		"environment", cfg.AppEnv,
		"timestamp", time.Now().Format(time.RFC3339),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsReg := metrics.NewMetricsRegistry(prometheus.DefaultRegisterer)

	deps, cleanup, err := api.InitDependencies(ctx, cfg, metricsReg)
	defer cleanup()
	if err != nil {
		logging.Fatal("Failed to initialize dependencies", "error", err.Error())
	}

	if cfg.Auth.Disabled {
		logging.Warn("Authentication is disabled; every caller is treated as admin")
	} else {
		deps.Tokens, err = auth.NewTokenService([]byte(cfg.Auth.JWTSecret), cfg.Auth.TokenTTL)
		if err != nil {
			logging.Fatal("Failed to initialize token service", "error", err.Error())
		}
	}

	if deps.AuditRetention != nil {
		go deps.AuditRetention.Start(ctx, cfg.Audit.PruneInterval)
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           routes.RegisterRoutes(deps, prometheus.DefaultGatherer),
		ReadHeaderTimeout: 10 * time.Second,
		// chat turns wait on up to two model calls
		WriteTimeout: cfg.Model.Timeout*2 + 30*time.Second,
	}

	go func() {
		logging.Info("Server starting", "addr", cfg.ListenAddr, "environment", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("Server failed", "error", err.Error())
		}
	}()

	<-ctx.Done()
	logging.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("Server forced to shutdown", "error", err.Error())
	}
	logging.Info("Server exited")
}
