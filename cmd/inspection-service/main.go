package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/restinspect/platform/pkg/common/config"
	"github.com/restinspect/platform/pkg/common/database"
	"github.com/restinspect/platform/pkg/common/kafka"
	"github.com/restinspect/platform/pkg/common/logger"
	"github.com/restinspect/platform/pkg/gateway/middleware"
	"github.com/restinspect/platform/pkg/inspections"
	"github.com/restinspect/platform/pkg/observability/metrics"
	"github.com/restinspect/platform/pkg/resolution"
	"github.com/restinspect/platform/pkg/restaurants"
	"github.com/restinspect/platform/pkg/store"
	"github.com/restinspect/platform/pkg/tweets"
)

func main() {
	logger.Init()
	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Get().WithError(err).Fatal("failed to open database")
	}

	repo := store.NewRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Get().WithError(err).Fatal("failed to migrate restaurant tables")
	}

	rules, err := resolution.LoadRules(cfg.MatchingRulesPath)
	if err != nil {
		logger.Get().WithError(err).Fatal("failed to load matching rules")
	}
	strategy, err := resolution.ParseStrategy(cfg.ResolutionStrategy)
	if err != nil {
		logger.Get().WithError(err).Fatal("invalid resolution strategy")
	}
	engine, err := resolution.NewEngine(repo, resolution.Options{
		Mode:     resolution.ModeFor(cfg.ResolutionBlocking),
		Strategy: strategy,
		Rules:    rules,
	})
	if err != nil {
		logger.Get().WithError(err).Fatal("failed to build resolution engine")
	}

	resolutionOpts := []resolution.ServiceOption{resolution.WithRecorder(repo)}
	if cfg.RedisEnabled {
		locker := database.NewLocker(database.GetRedis(cfg), "restinspect:lock:")
		resolutionOpts = append(resolutionOpts, resolution.WithLocker(locker, cfg.ResolutionLockTTL))
		defer database.CloseRedis()
	}

	var tweetPublisher tweets.Publisher
	if cfg.KafkaEnabled {
		resolutionProducer := kafka.NewProducer(cfg, cfg.ResolutionTopic)
		defer resolutionProducer.Close()
		resolutionOpts = append(resolutionOpts, resolution.WithPublisher(resolutionProducer))

		matchProducer := kafka.NewProducer(cfg, cfg.TweetMatchTopic)
		defer matchProducer.Close()
		tweetPublisher = matchProducer
	}

	resolutionSvc := resolution.NewService(engine, resolutionOpts...)
	tweetSvc := tweets.NewService(repo, tweetPublisher, "inspection-service")

	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.BodyLimit(cfg.MaxRequestBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(r.Context()) != nil {
			http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()
	inspections.NewHTTPHandler(inspections.NewService(repo)).Register(api)
	restaurants.NewHTTPHandler(restaurants.NewService(repo)).Register(api)
	resolution.NewHTTPHandler(resolutionSvc).Register(api)
	tweets.NewHTTPHandler(tweetSvc).Register(api)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Get().WithFields(map[string]interface{}{
			"host":     cfg.ServerHost,
			"port":     cfg.ServerPort,
			"driver":   cfg.DatabaseDriver,
			"mode":     string(engine.Mode()),
			"strategy": string(engine.Strategy()),
		}).Info("Inspection Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Get().WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down Inspection Service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Get().WithError(err).Error("server forced to shutdown")
	}
	if err := database.Close(db); err != nil {
		logger.Get().WithError(err).Warn("failed to close database")
	}

	logger.Get().Info("Inspection Service stopped")
}
