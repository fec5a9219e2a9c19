package main

import (
	"flag"
	"log"
	"os"

	"finbot/internal/di"
	"finbot/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; real deployments set env vars directly
	_ = godotenv.Load()

	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	log.Printf("env=%s bus=%s symbols=%v", cfg.Environment, cfg.Bus.Type, cfg.Binance.Symbols)

	app, err := di.InitializeApp(cfg)
	if err != nil {
		log.Fatalf("app initialization failed: %v", err)
	}

	// Run application (blocks until signal)
	if err := app.Run(); err != nil {
		log.Printf("app error: %v", err)
		os.Exit(1)
	}
}
