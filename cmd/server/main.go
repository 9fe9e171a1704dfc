package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"avseries/internal/api"
	"avseries/internal/app"
	"avseries/internal/config"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Log.Logger(os.Stderr))
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := app.NewRedis(ctx, cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
	}
	p := app.NewProvider(cfg, rdb)

	var seriesStore api.SeriesStore
	st, err := app.OpenStore(ctx, cfg.Store)
	if err != nil {
		slog.Error("open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	if st != nil {
		defer st.Close()
		seriesStore = st
	}

	h := api.NewHandler(p, seriesStore,
		time.Duration(cfg.Server.RequestTimeoutSec)*time.Second,
		cfg.AlphaVantage.MaxConcurrency)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(h),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// rate limited fan-out can hold a response for a while
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.Server.Port, "store", cfg.Store.Driver, "redis", rdb != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("shutdown", "error", err)
	}
}
