package main

import (
	"log"
	"os"

	"github.com/woonstadrotterdam/sqlgate/cmd/cli"
	"github.com/woonstadrotterdam/sqlgate/internal/config"
	"github.com/woonstadrotterdam/sqlgate/internal/logger"
)

func main() {
	configPath := os.Getenv("SQLGATE_CONFIG")
	if configPath == "" {
		configPath = "./config/config.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Setup(cfg.Logging); err != nil {
		log.Fatal(err)
	}

	if err := cli.Run(cfg); err != nil {
		log.Fatal(err)
	}
}
