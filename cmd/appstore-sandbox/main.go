package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Checker-Finance/appstore/internal/sandbox"
	"github.com/Checker-Finance/appstore/pkg/config"
	"github.com/Checker-Finance/appstore/pkg/logger"
	"github.com/Checker-Finance/appstore/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg, err := config.LoadSandbox()
	if err != nil {
		fmt.Fprintln(os.Stderr, "appstore-sandbox:", err)
		os.Exit(1)
	}

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()
	logg := logger.S()
	logg.Info("starting [appstore-sandbox]...")
	logg.Info("connection to redis: ", utils.MaskDSN(fmt.Sprintf("redis://:%s@%s/%d", cfg.RedisPass, cfg.RedisAddr, cfg.RedisDB)))

	// --- Store ---
	st, err := sandbox.NewRedisStore(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB, cfg.TokenTTL, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "error", err)
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.HTTPReadTimeout,
		WriteTimeout:          cfg.HTTPWriteTimeout,
		IdleTimeout:           cfg.HTTPIdleTimeout,
		BodyLimit:             cfg.HTTPBodyLimit,
		DisableStartupMessage: true,
	})
	sandbox.RegisterRoutes(app, st, sandbox.NewHandler(logg.Desugar(), st, cfg.Apps))

	go func() {
		logg.Infof("HTTP API listening on :%d%s", cfg.Port, sandbox.APIPrefix)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow("[appstore-sandbox] running",
		"env", cfg.Env,
		"apps", len(cfg.Apps),
		"token_ttl", cfg.TokenTTL)

	<-ctx.Done()
	logg.Info("shutting down [appstore-sandbox]...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}
	if err := st.Close(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
}
