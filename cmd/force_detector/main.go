// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/glove_controller/internal/app"
	"github.com/relabs-tech/glove_controller/internal/config"
)

func main() {
	configPath := flag.String("config", "./glove_config.txt", "path to configuration file")
	flag.Parse()

	log.Println("starting glove force detector (FSR402 serial → click state)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunForceDetector(ctx); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
