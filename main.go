package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/CorrelAid/contact_form_guard/config"
	"github.com/CorrelAid/contact_form_guard/handlers"
	"github.com/CorrelAid/contact_form_guard/inits"
	"github.com/CorrelAid/contact_form_guard/logging"
	"github.com/CorrelAid/contact_form_guard/metrics"
	"github.com/CorrelAid/contact_form_guard/notify"
	"github.com/CorrelAid/contact_form_guard/routines"
	"github.com/CorrelAid/contact_form_guard/validators"
	"github.com/CorrelAid/contact_form_guard/views"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	boot := logging.BootstrapLogger()
	cfg, err := config.Load(boot, os.Args[1:])
	if err != nil {
		boot.Fatal("cannot load config", zap.Error(err))
	}
	logger, err := logging.BuildLogger(cfg.LogLevel, cfg.Env)
	if err != nil {
		boot.Fatal("cannot build logger", zap.Error(err))
	}
	defer logger.Sync()
	logger.Debug("config", zap.String("dump", cfg.Dump()))

	if cfg.Release() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := inits.DBInit(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("cannot open contact store", zap.Error(err))
	}
	defer store.Close()

	if store.Mem != nil && cfg.Retention > 0 && cfg.CleanupInterval > 0 {
		go routines.StartCleanupRoutine(ctx, store.Mem, cfg.CleanupInterval, logger)
	}

	m := metrics.New()
	h := &handlers.Contact{
		Store:    store,
		Notifier: notify.New(cfg.SMTP),
		Metrics:  m,
		Logger:   logger,
		Turnstile: validators.TurnstileConfig{
			Secret:    cfg.Turnstile.Secret,
			TestToken: cfg.Turnstile.TestToken,
			Release:   cfg.Release(),
		},
		Assets: views.Assets{
			TurnstileSiteKey: cfg.Turnstile.SiteKey,
			WASMPath:         cfg.WASMPath,
			ExecJSPath:       cfg.ExecJSPath,
		},
		Retention: cfg.Retention,
	}
	router := handlers.NewRouter(h, m, logger, handlers.RouterOptions{
		AllowedHosts:       cfg.AllowedHosts,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitIPLookups: cfg.RateLimitIPLookups,
		StaticDir:          cfg.StaticDir,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
	if err := h.Drain(shutdownCtx); err != nil {
		logger.Warn("pending notifications dropped", zap.Error(err))
	}
}
