package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/notex/internal/buildinfo"
	"github.com/dmitrijs2005/notex/internal/client/cli"
	"github.com/dmitrijs2005/notex/internal/client/config"
	"github.com/dmitrijs2005/notex/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
