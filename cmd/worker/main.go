package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/framescan/framescan/config"
	"github.com/framescan/framescan/internal/adapter/broker/rabbit"
	"github.com/framescan/framescan/internal/adapter/decoder/zxing"
	"github.com/framescan/framescan/internal/adapter/extractor/ffmpeg"
	"github.com/framescan/framescan/internal/adapter/notify/hub"
	redisstore "github.com/framescan/framescan/internal/adapter/storage/redis"
	"github.com/framescan/framescan/internal/infrastructure/logger"
	"github.com/framescan/framescan/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Printf("failed to load config: %v", err)
		os.Exit(1)
	}

	// One shutdown signal governs the consumer loop and in-flight processing.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := redisstore.NewStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error.Printf("failed to connect to store: %v", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	processor := service.NewProcessor(
		store,
		ffmpeg.NewExtractor(),
		zxing.NewDecoder(),
		hub.NewNotifier(cfg.NotificationsEnabled, cfg.HubURL),
		cfg.TempDir,
		cfg.MaxParallelism,
	)

	consumer := rabbit.NewConsumer(cfg.AMQPURL(), cfg.RabbitQueue, cfg.PrefetchCount, processor)

	logger.Info.Printf("starting framescan worker, queue %s", cfg.RabbitQueue)
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error.Printf("worker stopped: %v", err)
		os.Exit(1)
	}
	logger.Info.Printf("worker stopped")
}
