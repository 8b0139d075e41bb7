package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/bandroom/internal/band"
	"github.com/Nixie-Tech-LLC/bandroom/internal/config"
	"github.com/Nixie-Tech-LLC/bandroom/internal/enrich"
	"github.com/Nixie-Tech-LLC/bandroom/internal/realtime"
)

const shutdownTimeout = 10 * time.Second

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := InitBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("backend init")
	}
	defer backend.Close()

	files, err := InitStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	enricher, err := enrich.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize enrichment client")
	}

	svc := band.NewService(backend.Store, enricher, files)
	if err := svc.Slots.EnsureDefaults(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to seed default instrument slots")
	}

	hub := realtime.NewHub()
	detach, err := hub.Attach(ctx, backend.Bus)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to attach websocket hub")
	}
	defer detach()

	if cfg.MQTTBrokerURL != "" {
		client, err := realtime.CreateMQTTClient(cfg.MQTTBrokerURL, "bandroom-"+uuid.NewString()[:8])
		if err != nil {
			log.Error().Err(err).Msg("MQTT unavailable, changes will not be bridged")
		} else {
			bridge := realtime.NewMQTTBridge(client, cfg.MQTTTopicPrefix)
			if err := bridge.Attach(ctx, backend.Bus); err != nil {
				log.Error().Err(err).Msg("failed to attach MQTT bridge")
			}
			defer bridge.Close()
		}
	}

	// set up gin router
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, cfg.JWTSecret, svc, files, hub)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}
	go func() {
		log.Info().Str("addr", cfg.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
