package main

import (
	"github.com/gitcast/backend/internal/config"
	"github.com/gitcast/backend/internal/server"
	"github.com/gitcast/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Init(false)
		logger.Fatal("Failed to load config", "err", err)
	}

	logger.Init(cfg.Debug)

	server.Init(cfg)
}
