package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"gemini-relay/internal/config"
	"gemini-relay/internal/logging"
	tracing "gemini-relay/internal/monitoring/tracing"
	srv "gemini-relay/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	cfg := config.LoadWithFile(*configPath)
	if cfg == nil {
		log.Fatal("Failed to load configuration")
	}
	if *debug {
		cfg.Debug = true
	}
	if err := logging.Setup(cfg); err != nil {
		log.WithError(err).Fatal("failed to configure logging")
	}

	traceShutdown, err := tracing.Init(context.Background())
	if err != nil {
		log.WithError(err).Warn("failed to initialize tracing")
	}
	if traceShutdown != nil {
		defer func() {
			if err := traceShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown tracing")
			}
		}()
	}

	// Reloads reach the relay engine through config.Current; logging output
	// is re-applied here since it lives outside the per-request path.
	watcher, err := config.Watch(*configPath, func(updated *config.Config) {
		lcfg := *updated
		if *debug {
			lcfg.Debug = true
		}
		if err := logging.Setup(&lcfg); err != nil {
			log.WithError(err).Warn("failed to reconfigure logging")
		}
	})
	if err != nil {
		log.WithError(err).Warn("configuration watcher disabled")
	} else {
		defer watcher.Stop()
	}

	engine := srv.Build(cfg)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("addr", server.Addr).Info("starting gemini-relay")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server exited")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
