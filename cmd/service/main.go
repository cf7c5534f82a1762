package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pizzeria-service/config"
	"pizzeria-service/internal/cache"
	"pizzeria-service/internal/cleanup"
	"pizzeria-service/internal/hashing"
	"pizzeria-service/internal/producer"
	"pizzeria-service/internal/repository"
	"pizzeria-service/internal/router"
	"pizzeria-service/internal/service"
	"pizzeria-service/internal/token"
	gtransport "pizzeria-service/internal/transport/grpc"
	"pizzeria-service/pkg/database"
	"pizzeria-service/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}

	defer logger.Sync()

	log := logger.L()

	cfg := config.Load(log)
	db := database.ConnectDB(&cfg.DB.Config, log)
	defer database.CloseDB(db, log)

	repos := repository.New(db)

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		if err != nil {
			// каталог продолжит работать на локальном LRU
			log.Warn("Redis недоступен, кэш только локальный", zap.Error(err))
		} else {
			redisClient = rc
			defer redisClient.Close()
		}
	}
	products := cache.NewCachedProductRepo(repos.Products, redisClient, 1024,
		time.Duration(cfg.Redis.TTLSeconds)*time.Second, log)

	// Шина событий необязательна: без брокеров события не публикуются
	var bus service.EventBus
	if len(cfg.Kafka.Brokers) > 0 {
		p := producer.NewOrderEventProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer p.Close()
		bus = p
		log.Info("Kafka producer initialized", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	orderSvc := service.NewOrderService(
		repos.Orders,
		repos.Customers,
		products,
		service.DefaultPayments(log),
		bus,
		log,
		service.OrderOptions{AutoDeliver: cfg.Order.AutoDeliver, MaxAttempts: service.DefaultOrderOptions().MaxAttempts},
	)
	customerSvc := service.NewCustomerService(
		repos.Customers,
		hashing.NewBcrypt(cfg.Order.BcryptCost),
		token.NewHSProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience),
		cfg.JWT.AccessExp,
		log,
	)
	catalogSvc := service.NewCatalogService(products, repos.Ingredients, products, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if email, pw := os.Getenv("ADMIN_EMAIL"), os.Getenv("ADMIN_PASSWORD"); email != "" && pw != "" {
		if err := customerSvc.EnsureAdmin(ctx, email, pw); err != nil {
			log.Fatal("Не удалось создать администратора", zap.Error(err))
		}
	}

	var scheduler *cleanup.Scheduler
	if cfg.Cleanup.Enabled {
		scheduler = cleanup.NewScheduler(
			cleanup.NewCleanupService(repos.Orders, orderSvc, log),
			cleanup.Policy{
				CanceledRetention: cfg.Cleanup.CanceledRetention,
				CartIdle:          cfg.Cleanup.CartIdle,
				CartsEvery:        cfg.Cleanup.Interval,
				PurgeEvery:        6 * cfg.Cleanup.Interval,
			},
			log,
		)
		scheduler.Start(ctx)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal("Не удалось получить *sql.DB", zap.Error(err))
	}

	r := router.Router(router.Deps{
		Orders:    orderSvc,
		Customers: customerSvc,
		Catalog:   catalogSvc,
		Ping:      sqlDB.PingContext,
	}, log)

	httpSrv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting pizzeria HTTP server", zap.String("addr", cfg.HTTPPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var grpcSrv *gtransport.Server
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", cfg.GRPCPort)
		if err != nil {
			log.Fatal("failed to listen", zap.String("addr", cfg.GRPCPort), zap.Error(err))
		}
		grpcSrv = gtransport.NewServer(customerSvc, log)
		g.Go(func() error { return grpcSrv.Serve(lis) })
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down pizzeria service...")
		if scheduler != nil {
			scheduler.Stop()
		}
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("Service stopped with error", zap.Error(err))
		return
	}
	log.Info("Pizzeria service stopped gracefully")
}
