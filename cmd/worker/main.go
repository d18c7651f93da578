package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/arunvm123/ticketbooking/config"
	"github.com/arunvm123/ticketbooking/logger"
	"github.com/arunvm123/ticketbooking/worker"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// WorkerHealth is the worker's /health body
type WorkerHealth struct {
	Status            string    `json:"status"`
	Service           string    `json:"service"`
	Timestamp         time.Time `json:"timestamp"`
	MessagesProcessed int64     `json:"messagesProcessed"`
	MessagesFailed    int64     `json:"messagesFailed"`
	ActiveWorkers     int64     `json:"activeWorkers"`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Initialise("config.yaml", false)
	if err != nil {
		log.Printf("Config file not found or invalid, using environment variables: %v", err)
		cfg, err = config.Initialise("", true)
		if err != nil {
			log.Fatal("Failed to load configuration:", err)
		}
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.NotificationTopic,
		GroupID:  cfg.Kafka.ConsumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	defer consumer.Close()

	processor := worker.NewNotificationProcessor(consumer, worker.NewLogSender(zlog.Named("email")), cfg.Worker.MaxWorkers, zlog)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, WorkerHealth{
			Status:            "healthy",
			Service:           "notification-worker",
			Timestamp:         time.Now().UTC(),
			MessagesProcessed: processor.Processed(),
			MessagesFailed:    processor.Failed(),
			ActiveWorkers:     processor.ActiveWorkers(),
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              ":" + cfg.Worker.HealthPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zlog.Info("Starting worker health server", zap.String("port", cfg.Worker.HealthPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("Health server failed", zap.Error(err))
		}
	}()

	zlog.Info("Notification worker started",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("topic", cfg.Kafka.NotificationTopic),
		zap.String("group", cfg.Kafka.ConsumerGroup))
	if err := processor.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error("Worker error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("Failed to stop health server", zap.Error(err))
	}

	zlog.Info("Worker stopped gracefully",
		zap.Int64("processed", processor.Processed()),
		zap.Int64("failed", processor.Failed()))
}
