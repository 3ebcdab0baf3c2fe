package main

import (
	"context"
	"encoding/json"
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
	"github.com/restinspect/platform/pkg/common/models"
	"github.com/restinspect/platform/pkg/common/validation"
	"github.com/restinspect/platform/pkg/gateway/middleware"
	"github.com/restinspect/platform/pkg/observability/metrics"
	"github.com/restinspect/platform/pkg/store"
	"github.com/restinspect/platform/pkg/tweets"
)

type TweetApp struct {
	service  *tweets.Service
	consumer *kafka.Consumer
	// dlq receives tweets that fail validation; nil drops them.
	dlq tweets.Publisher
}

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

	producer := kafka.NewProducer(cfg, cfg.TweetMatchTopic)
	defer producer.Close()

	app := &TweetApp{service: tweets.NewService(repo, producer, "tweet-service")}
	if cfg.TweetDLQTopic != "" {
		dlq := kafka.NewProducer(cfg, cfg.TweetDLQTopic)
		defer dlq.Close()
		app.dlq = dlq
	}

	app.consumer = kafka.NewConsumer(cfg, cfg.TweetInputTopic, "tweet-service")
	defer app.consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := app.consumer.Consume(ctx, app.handleEvent); err != nil && ctx.Err() == nil {
			logger.Get().WithError(err).Fatal("consumer error")
		}
	}()

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.TweetServicePort),
		Handler:      app.router(cfg.MaxRequestBody),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		logger.Get().WithFields(map[string]interface{}{
			"host":  cfg.ServerHost,
			"port":  cfg.TweetServicePort,
			"topic": cfg.TweetInputTopic,
		}).Info("Tweet Service started")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Get().WithError(err).Fatal("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Get().Info("Shutting down Tweet Service...")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Get().WithError(err).Error("server forced to shutdown")
	}

	if err := database.Close(db); err != nil {
		logger.Get().WithError(err).Warn("failed to close database")
	}

	logger.Get().Info("Tweet Service stopped")
}

func (a *TweetApp) router(maxBody int64) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.Recovery, middleware.Logging, middleware.BodyLimit(maxBody))

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	}).Methods(http.MethodGet)

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ready"}`))
	}).Methods(http.MethodGet)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/tweets/batch", a.handleBatch).Methods(http.MethodPost)
	return router
}

// handleEvent processes one tweet event. Malformed tweets are parked on the
// DLQ and committed; store failures are returned so the message is retried.
func (a *TweetApp) handleEvent(ctx context.Context, event models.Event) error {
	tweet, err := tweets.ParseEvent(event)
	if err == nil {
		_, err = a.service.Process(ctx, tweet)
	}
	if err == nil {
		return nil
	}
	if !validation.IsValidationError(err) {
		return err
	}

	logger.Get().WithError(err).WithField("event_id", event.ID).Warn("Dropping invalid tweet event")
	if a.dlq != nil {
		payload := map[string]interface{}{
			"event": event,
			"error": err.Error(),
		}
		if dlqErr := a.dlq.PublishEvent(ctx, "tweet-rejected", "tweet-service", payload); dlqErr != nil {
			return dlqErr
		}
	}
	return nil
}

func (a *TweetApp) handleBatch(w http.ResponseWriter, r *http.Request) {
	var batch []models.Tweet
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	// Reject the whole batch before anything is written.
	for i, tweet := range batch {
		if err := validation.Struct(tweet); err != nil {
			http.Error(w, fmt.Sprintf("tweet %d: %v", i, err), http.StatusBadRequest)
			return
		}
	}

	results := make([]models.TweetMatchResult, 0, len(batch))
	for _, tweet := range batch {
		res, err := a.service.Process(r.Context(), tweet)
		if err != nil {
			logger.Get().WithError(err).WithField("tweet_key", tweet.GetKey()).Error("failed to process tweet batch")
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		results = append(results, *res)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(results)
}
