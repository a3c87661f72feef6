package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Checker-Finance/appstore/internal/cli"
	"github.com/Checker-Finance/appstore/pkg/config"
	"github.com/Checker-Finance/appstore/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadClient()
	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	defer logger.Sync()

	err := cli.New(cfg, logger.L(), os.Stdout).Run(ctx, os.Args[1:])
	if err == nil {
		return
	}
	if cli.IsHelp(err) {
		fmt.Fprintln(os.Stdout, err)
		return
	}
	fmt.Fprintln(os.Stderr, "appstore:", err)
	logger.Sync()
	os.Exit(1)
}
