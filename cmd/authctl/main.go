package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gatekeeper/internal/authctl"
	"github.com/dmitrijs2005/gatekeeper/internal/flagx"
	"github.com/dmitrijs2005/gatekeeper/internal/logging"
	"github.com/dmitrijs2005/gatekeeper/internal/server"
	"github.com/dmitrijs2005/gatekeeper/internal/server/config"
	"github.com/dmitrijs2005/gatekeeper/internal/server/hasher"
	"github.com/dmitrijs2005/gatekeeper/internal/server/services"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	store, db, err := server.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	h, err := hasher.New(cfg.HashAlgorithm, cfg.BcryptCost)
	if err != nil {
		return err
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)
	svc := services.NewIdentityService(store, h, logger)

	args := flagx.Positional(os.Args[1:], config.ValueFlags())
	return authctl.NewApp(svc, os.Stdout).Run(ctx, args)
}
