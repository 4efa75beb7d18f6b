package main

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/youruser/cardgrid/internal/api"
	"github.com/youruser/cardgrid/internal/config"
	"github.com/youruser/cardgrid/internal/generator"
	"github.com/youruser/cardgrid/internal/logging"
)

func main() {
	level := slog.LevelInfo
	if os.Getenv("CARDGRID_DEBUG") == "1" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	logging.SetLogger(logger)

	cfg, err := config.LoadFromEnv()
	if err != nil {
		logger.Error("loading config", "err", err)
		os.Exit(1)
	}

	r := gin.Default()
	api.RegisterRoutes(r, generator.NewFromConfig(cfg), cfg.PublicRoot)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	logger.Info("starting server", "addr", "http://localhost:"+port, "public_root", cfg.PublicRoot)
	if err := r.Run(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
