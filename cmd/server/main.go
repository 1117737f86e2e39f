package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/knockline/backend/internal/config"
	"github.com/knockline/backend/internal/db"
	"github.com/knockline/backend/internal/geocode"
	httpapi "github.com/knockline/backend/internal/http"
	"github.com/knockline/backend/internal/suggest"
	"github.com/knockline/backend/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "knockline-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	var geocoder geocode.Geocoder
	if cfg.NominatimURL == "" {
		geocoder = geocode.MockGeocoder{}
		logger.Info().Msg("using mock geocoder")
	} else {
		geocoder = &geocode.NominatimGeocoder{
			BaseURL:     cfg.NominatimURL,
			UserAgent:   cfg.NominatimUserAgent,
			MinInterval: cfg.GeocodeMinInterval,
			CacheTTL:    cfg.GeocodeCacheTTL,
		}
	}

	engine := &workflow.Engine{Store: store, Logger: logger}
	searcher := &suggest.Searcher{
		Geocoder:    geocoder,
		MaxAttempts: cfg.SuggestMaxAttempts,
		Country:     cfg.CountryDefault,
		Logger:      logger,
	}

	router := httpapi.Router(cfg, store, geocoder, engine, searcher, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
