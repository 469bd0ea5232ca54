package main

import (
	"flag"
	"log"
	"os"

	"PulseTrace/internal/di"
	"PulseTrace/pkg/config"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "", "override run mode (batch or serve)")
	input := flag.String("input", "", "override batch input: a directory of CSV strips or a single CSV file")
	flag.Parse()

	// Load config
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *mode != "" {
		cfg.Mode = *mode
	}
	if *input != "" {
		cfg.Batch.InputDir = *input
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config invalid: %v", err)
	}

	log.Printf("env=%s mode=%s", cfg.Environment, cfg.Mode)

	// Wire DI: Initialize all dependencies
	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (batch exits on completion, serve blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
