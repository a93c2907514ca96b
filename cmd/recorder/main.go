package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/api"
	"motion-recorder-go/internal/config"
	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services"
)

// @title Motion Recorder API
// @version 1.0.0
// @description Motion-triggered video recorder: camera binding, motion detection and recording control
// @BasePath /
func main() {
	// Load configuration
	cfg := config.Load()

	// Setup structured logging, optionally teed into the Logdy UI
	var tee io.Writer
	if cfg.LogdyEnabled {
		w, _, err := logging.StartLogdy(cfg)
		if err != nil {
			log.Warn().Err(err).Msg("Logdy UI unavailable")
		} else {
			tee = w
		}
	}
	logging.Setup(cfg, tee)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Bool("nats_enabled", cfg.NatsEnabled).
		Msg("Starting motion recorder")

	sc, err := services.NewServiceContainer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create services")
	}

	server := api.NewServer(cfg, sc)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	if cfg.AutoStartMonitoring {
		go func() {
			req := models.StartRequest{UseBackCamera: cfg.UseBackCamera, RecordAudio: cfg.RecordAudio}
			if err := sc.StartMonitoring(context.Background(), req); err != nil {
				log.Error().Err(err).Msg("Auto-start monitoring failed")
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutdown signal received")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	} else {
		log.Info().Msg("Server shutdown complete")
	}
}
