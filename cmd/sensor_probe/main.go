// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"
	"os"

	"github.com/relabs-tech/climate_monitor/internal/app"
	"github.com/relabs-tech/climate_monitor/internal/config"
	"github.com/relabs-tech/climate_monitor/internal/logging"
)

func main() {
	configPath := flag.String("config", "climate_config.txt", "path to the configuration file")
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()
	logger := logging.New(cfg, "sensor_probe")

	if err := app.RunProbe(cfg, logger, os.Stdout); err != nil {
		logger.Error("probe failed", "err", err)
		os.Exit(1)
	}
}
