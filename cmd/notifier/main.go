package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"pizzeria-service/config"
	"pizzeria-service/internal/notifier"
	"pizzeria-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.LoadNotifier(log)
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("KAFKA_BROKERS не задан")
	}

	sender := notifier.NewEmailSender(cfg)
	consumer := notifier.NewOrderEventConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, sender, log)
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting order notifier",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaGroupID))

	if err := consumer.Run(ctx); err != nil {
		log.Error("Notifier stopped with error", zap.Error(err))
		return
	}
	log.Info("Notifier stopped gracefully")
}
