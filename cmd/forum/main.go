package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/itchan-dev/forum/internal/config"
	"github.com/itchan-dev/forum/internal/logger"
	"github.com/itchan-dev/forum/internal/router"
	"github.com/itchan-dev/forum/internal/setup"
)

const (
	readTimeout     = 5 * time.Second
	writeTimeout    = 10 * time.Second
	shutdownTimeout = 15 * time.Second
	pruneInterval   = 10 * time.Minute
)

func main() {
	var configFolder string
	var migrate bool
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.BoolVar(&migrate, "migrate", false, "apply the database schema before serving")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Log.Warn("failed to load .env", "error", err)
	}
	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to set up dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if migrate {
		if err := deps.Storage.Migrate(context.Background()); err != nil {
			logger.Log.Error("migration failed", "error", err)
			deps.Close()
			os.Exit(1)
		}
	}

	stop := make(chan struct{})
	go deps.RateLimiter.Run(pruneInterval, stop)
	defer close(stop)

	server := &http.Server{
		Addr:         cfg.Public.HttpAddr,
		Handler:      router.New(deps),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Log.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
}
