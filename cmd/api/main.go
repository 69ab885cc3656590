package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/birbparty/birb-fetch/internal/api"
	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/birbparty/birb-fetch/internal/cleanup"
	"github.com/birbparty/birb-fetch/internal/telemetry"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := api.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	if err := telemetry.Init(cfg.Telemetry); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize telemetry")
	}
	log := telemetry.L()

	log.WithFields(logrus.Fields{
		"upstream": cfg.UpstreamURL,
		"cache":    cfg.Cache.Backend,
	}).Info("Birb Fetch API starting")

	// A Redis backend gives every render a namespace on one shared pool;
	// the LRU backend gives every render its own in-process cache.
	sweepCtx, stopSweeper := context.WithCancel(context.Background())
	defer stopSweeper()

	var shared cache.Cache
	if cfg.Cache.Backend == cache.BackendRedis {
		redisCache, err := cache.NewRedisCache(cfg.Cache)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		log.WithField("addr", cfg.Cache.Address()).Info("Connected to Redis")

		go cleanup.NewSweeper(redisCache, cleanup.LoadSweepConfig()).Start(sweepCtx)
		shared = redisCache
	}

	handler := api.NewHandler(cfg, shared)
	defer handler.Shutdown()

	app := api.NewApp(cfg, handler)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info("Shutting down gracefully")
		stopSweeper()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
		defer shutdownCancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("Server forced to shutdown")
		}
		telemetry.Shutdown(shutdownCtx)
	}()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	log.WithField("addr", addr).Info("Birb Fetch API listening")

	if err := app.Listen(addr); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}
