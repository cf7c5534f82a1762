package main

import (
	"context"
	"fmt"
	"os"

	"pizzeria-service/config"
	"pizzeria-service/internal/cleanup"
	"pizzeria-service/internal/producer"
	"pizzeria-service/internal/repository"
	"pizzeria-service/internal/service"
	"pizzeria-service/pkg/database"
	"pizzeria-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <canceled|carts|all>\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "  canceled  удалить отменённые заказы старше CANCELED_RETENTION")
	fmt.Fprintln(os.Stderr, "  carts     отменить корзины без изменений дольше CART_IDLE")
	fmt.Fprintln(os.Stderr, "  all       выполнить обе задачи")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	dbCfg := config.LoadDB(log)
	policy := config.LoadCleanup()
	kafkaCfg := config.LoadKafka()

	db := database.ConnectDB(&dbCfg.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var bus service.EventBus
	if len(kafkaCfg.Brokers) > 0 {
		p := producer.NewOrderEventProducer(kafkaCfg.Brokers, kafkaCfg.Topic)
		defer p.Close()
		bus = p
	}

	// отмена корзины идёт через сервис, чтобы сработали блокировки и события
	orderSvc := service.NewOrderService(repos.Orders, repos.Customers, repos.Products,
		service.DefaultPayments(log), bus, log, service.DefaultOrderOptions())
	svc := cleanup.NewCleanupService(repos.Orders, orderSvc, log)

	ctx := context.Background()

	switch os.Args[1] {
	case "canceled":
		n, err := svc.PurgeCanceledOrders(ctx, policy.CanceledRetention)
		if err != nil {
			log.Fatal("Ошибка очистки отменённых заказов", zap.Error(err))
		}
		log.Info("Отменённые заказы удалены", zap.Int("count", n))
	case "carts":
		n, err := svc.ExpireAbandonedCarts(ctx, policy.CartIdle)
		if err != nil {
			log.Fatal("Ошибка отмены брошенных корзин", zap.Error(err))
		}
		log.Info("Брошенные корзины отменены", zap.Int("count", n))
	case "all":
		err := svc.RunFullCleanup(ctx, cleanup.Policy{
			CanceledRetention: policy.CanceledRetention,
			CartIdle:          policy.CartIdle,
		})
		if err != nil {
			log.Fatal("Ошибка полной очистки", zap.Error(err))
		}
		log.Info("Полная очистка завершена")
	default:
		usage()
		os.Exit(2)
	}
}
