package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pinnlo/pinnlo-server/api"
	"github.com/pinnlo/pinnlo-server/config"
	"github.com/pinnlo/pinnlo-server/database"
	"github.com/pinnlo/pinnlo-server/integrations"
	"github.com/pinnlo/pinnlo-server/internal/auth"
	"github.com/pinnlo/pinnlo-server/internal/cache"
	"github.com/pinnlo/pinnlo-server/internal/logger"
	"github.com/pinnlo/pinnlo-server/internal/selection"
	"github.com/pinnlo/pinnlo-server/internal/store"
	"github.com/pinnlo/pinnlo-server/internal/tracing"
	"go.uber.org/zap"
)

func main() {
	// env-only logger so config errors are reported before the real one exists
	boot, err := logger.New(os.Getenv("PINNLO_LOG_LEVEL"), os.Getenv("PINNLO_LOG_FORMAT"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to build logger:", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(boot)
	if err != nil {
		boot.Sync()
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		boot.Error("Failed to build logger", "error", err)
		boot.Sync()
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log.Desugar())

	shutdownTracing := tracing.Init(context.Background(), cfg.Tracing, log)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to open database", "driver", cfg.Database.Driver, "error", err)
	}
	sqlDB, _ := db.DB()

	versions := cache.NewMemory()
	if cfg.Redis.Addr != "" {
		versions, err = cache.NewRedis(cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to redis", "addr", cfg.Redis.Addr, "error", err)
		}
		log.Info("Using redis for collection versions", "addr", cfg.Redis.Addr)
	}

	var enhancer integrations.Enhancer = integrations.NewEnhancerClient(cfg.Enhancer.URL, cfg.Enhancer.APIKey, cfg.Enhancer.Timeout)
	if cfg.Enhancer.URL == "" {
		log.Warn("AI enhancer URL not configured, enhance requests will be rejected")
	}

	handler := &api.Handler{
		DB:         db,
		Cards:      store.NewCardStore(db, log),
		Groups:     store.NewGroupStore(db, log),
		Members:    store.NewAssociationManager(db, log),
		Versions:   versions,
		Enhancer:   enhancer,
		Dispatcher: selection.NewDispatcher(log, cfg.Bulk.Concurrency),
		Log:        log,
	}

	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := api.NewRouter(handler, auth.NewVerifier(cfg.Auth.JWTSecret), api.RouterOptions{
		CORSOrigins: cfg.CORS.AllowOrigins,
		Tracing:     cfg.Tracing.Enabled,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Starting server", "port", cfg.Server.Port, "db_driver", cfg.Database.Driver)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	var once sync.Once

	cleanup := func(reason string) {
		log.Info("Shutdown initiated", "reason", reason)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		log.Info("Shutting down HTTP server...")
		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Error shutting down server", "error", err)
		} else {
			log.Info("HTTP server shut down gracefully.")
		}

		if err := versions.Close(); err != nil {
			log.Error("Error closing version cache", "error", err)
		}

		if sqlDB != nil {
			if err := sqlDB.Close(); err != nil {
				log.Error("Error closing database", "error", err)
			} else {
				log.Info("Database connection closed.")
			}
		}

		if err := shutdownTracing(ctx); err != nil {
			log.Error("Error flushing traces", "error", err)
		}
		close(done)
	}

	go func() {
		sig := <-sigCh
		once.Do(func() {
			cleanup(sig.String())
		})

		// a second signal exits immediately
		go func() {
			<-sigCh
			log.Info("Second interrupt signal received. Exiting immediately.")
			os.Exit(1)
		}()
	}()

	<-done
	log.Info("Exiting...")
}

func loadConfig(boot *logger.Logger, paths ...string) (*config.Config, error) {
	cfg, err := config.Load(paths...)
	if err != nil {
		boot.Error("Error reading config", "error", err)
		return nil, err
	}
	return cfg, nil
}
