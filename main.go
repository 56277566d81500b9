package main

import (
	"context"
	"flag"
	"github.com/lefinal/vrcafe-server/app"
	"github.com/lefinal/vrcafe-server/errors"
	"go.uber.org/zap"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()
	// The app sets up its own logging after config validation.
	bootLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	config, err := app.LoadConfig(*configPath)
	if err != nil {
		bootLogger.Fatal("load config", zap.Error(err), zap.String("path", *configPath))
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = app.NewApp(config).Boot(ctx)
	cancel()
	if err != nil {
		errors.Log(bootLogger, err)
		os.Exit(1)
	}
}
