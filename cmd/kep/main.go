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

	"github.com/kep-app/kep/internal/config"
	"github.com/kep-app/kep/internal/logger"
	"github.com/kep-app/kep/internal/router"
	"github.com/kep-app/kep/internal/setup"
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("initializing dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Cleanup()

	srv := &http.Server{
		Addr:    cfg.Public.ListenAddr,
		Handler: router.New(deps),
	}

	go func() {
		logger.Log.Info("server started", "addr", cfg.Public.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("shutdown failed", "error", err)
	}
}
