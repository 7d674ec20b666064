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
	"github.com/sirupsen/logrus"
	"github.com/zemen-restaurant/zemen-backend/auth"
	"github.com/zemen-restaurant/zemen-backend/cache"
	"github.com/zemen-restaurant/zemen-backend/config"
	"github.com/zemen-restaurant/zemen-backend/database"
	"github.com/zemen-restaurant/zemen-backend/events"
	"github.com/zemen-restaurant/zemen-backend/router"
	"github.com/zemen-restaurant/zemen-backend/services"
	"github.com/zemen-restaurant/zemen-backend/utils"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := utils.NewLogger(cfg.LogLevel, cfg.AppEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(db, log); err != nil {
		log.Fatalf("Failed to AutoMigrate: %v", err)
	}

	store, closeStore := openCache(cfg, log)
	defer closeStore()

	hub := events.NewHub(log)
	publishers := []events.Publisher{hub}

	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka, log)
		publishers = append(publishers, kafkaPublisher)
		log.WithFields(logrus.Fields{"brokers": cfg.Kafka.Brokers, "topic": cfg.Kafka.Topic}).Info("Kafka publishing enabled")
	}
	bus := events.NewMulti(cfg.ServiceName, publishers...)

	r := router.SetupRouter(router.Dependencies{
		Config:       cfg,
		Log:          log,
		Orders:       services.NewOrderService(db, store, bus, log),
		Reservations: services.NewReservationService(db, bus, log),
		Auth:         services.NewAuthService(db, auth.NewTokenManager(cfg.Auth), auth.NewRevoker(store), log),
		Payments:     services.NewPaymentService(cfg.Payment, log),
		Hub:          hub,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "prefix": cfg.APIPrefix}).Info("Listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown did not complete")
	}

	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	log.Info("Server stopped")
}

func openCache(cfg *config.Config, log *logrus.Logger) (cache.Store, func()) {
	if cfg.Redis.URL == "" {
		log.Info("REDIS_URL not set, using in-memory cache")
		return cache.NewMemoryStore(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := cache.NewRedisStore(ctx, cfg.Redis.URL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	log.Info("Redis cache connected")
	return store, func() {
		if err := store.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis client")
		}
	}
}
