// Package main starts the commandeer bot and handles termination.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	botcmd "github.com/louisbranch/commandeer/internal/cmd/commandeer"
	"github.com/louisbranch/commandeer/internal/platform/config"
)

func main() {
	cfg, err := botcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Healthcheck {
		if err := botcmd.Healthcheck(ctx, cfg); err != nil {
			config.Exitf("healthcheck: %v", err)
		}
		return
	}
	if err := botcmd.Run(ctx, cfg); err != nil {
		stop()
		config.Exitf("commandeer: %v", err)
	}
}
