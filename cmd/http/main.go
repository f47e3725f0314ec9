package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meli/ecommerce-orders-api/docs"
	"github.com/meli/ecommerce-orders-api/internal/adapters/config"
	"github.com/meli/ecommerce-orders-api/internal/adapters/http"
	"github.com/meli/ecommerce-orders-api/internal/adapters/http/controllers"
	"github.com/meli/ecommerce-orders-api/internal/adapters/kafka"
	"github.com/meli/ecommerce-orders-api/internal/adapters/memory"
	"github.com/meli/ecommerce-orders-api/internal/adapters/metrics"
	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo"
	"github.com/meli/ecommerce-orders-api/internal/adapters/mongo/repository"
	"github.com/meli/ecommerce-orders-api/internal/adapters/outbox"
	"github.com/meli/ecommerce-orders-api/internal/adapters/postgres"
	"github.com/meli/ecommerce-orders-api/internal/adapters/rabbitmq"
	"github.com/meli/ecommerce-orders-api/internal/adapters/redis"
	"github.com/meli/ecommerce-orders-api/internal/core/domain"
	"github.com/meli/ecommerce-orders-api/internal/core/logger"
	"github.com/meli/ecommerce-orders-api/internal/core/port"
	"github.com/meli/ecommerce-orders-api/internal/core/service"
)

// @title       Orders API
// @version     1.0
// @description Order management API

// @host     localhost:8080
// @BasePath /

//go:generate swag init -d ../.. -g cmd/http/main.go -o ../../docs --parseInternal

// storage groups the adapters of the selected storage driver.
type storage struct {
	orders    port.OrderPort
	outbox    outbox.Repository
	txManager port.TransactionManager
	check     func(ctx context.Context) error
	close     func()
}

func newStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.StorageDriver {
	case config.StorageMongo:
		client, err := mongo.NewConnection(ctx, cfg.Mongo)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		database := client.Database(cfg.Mongo.Database)
		return &storage{
			orders:    repository.NewOrderRepository(database),
			outbox:    repository.NewOutboxRepository(database),
			txManager: mongo.NewTransactionManager(client),
			check:     func(ctx context.Context) error { return mongo.Ping(ctx, client) },
			close:     func() { _ = mongo.Disconnect(client) },
		}, nil
	case config.StoragePostgres:
		pool, err := postgres.NewConnection(ctx, cfg.Postgres)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &storage{
			orders:    postgres.NewOrderRepository(pool),
			outbox:    postgres.NewOutboxRepository(pool),
			txManager: postgres.NewTransactionManager(pool),
			check:     pool.Ping,
			close:     pool.Close,
		}, nil
	case config.StorageMemory:
		return &storage{
			orders:    memory.NewOrderRepository(),
			outbox:    memory.NewOutboxRepository(),
			txManager: memory.NewTransactionManager(),
			check:     func(context.Context) error { return nil },
			close:     func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func newBroker(cfg *config.Config) (port.BrokerPort, error) {
	switch cfg.BrokerDriver {
	case config.BrokerRabbitMQ:
		publisher, err := rabbitmq.NewPublisher(cfg.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case config.BrokerKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return nil, err
		}
		return producer, nil
	default:
		return nil, fmt.Errorf("unknown broker driver %q", cfg.BrokerDriver)
	}
}

func main() {
	// initialize config and logger
	cfg := config.NewConfig()
	if err := logger.Initialize(logger.Options{
		Format:      logger.Format(cfg.Logger.Format),
		ServiceName: cfg.Logger.ServiceName,
		Endpoint:    cfg.Logger.Endpoint,
		Level:       logger.ParseLevel(cfg.Logger.Level),
	}); err != nil {
		// logger not available yet, fall back to stderr
		fmt.Fprintln(os.Stderr, "failed to initialize logger: "+err.Error())
		os.Exit(1)
	}

	// cancellable context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := newStorage(ctx, cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize storage", err, map[string]any{"driver": string(cfg.StorageDriver)})
		os.Exit(1)
	}
	defer store.close()
	logger.Info(ctx, "Storage ready", map[string]any{"driver": string(cfg.StorageDriver)})

	redisClient, err := redis.NewConnection(cfg.Redis)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to Redis", err, nil)
		os.Exit(1)
	}
	defer redisClient.Close()
	logger.Info(ctx, "Connected to Redis", nil)

	broker, err := newBroker(cfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to connect to broker", err, map[string]any{"driver": string(cfg.BrokerDriver)})
		os.Exit(1)
	}
	defer broker.Close()
	logger.Info(ctx, "Connected to broker", map[string]any{"driver": string(cfg.BrokerDriver)})

	// metrics are optional; a nil *metrics.Metrics records nothing
	var (
		appMetrics    *metrics.Metrics
		routerMetrics http.Metrics
	)
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(cfg.Metrics.Namespace)
		routerMetrics = appMetrics
	}

	// caches and rate limiter
	orderCache := redis.NewCache[domain.Order](redisClient, "order-cache")
	idempotencyCache := redis.NewCache[service.IdempotencyRecord[domain.Order]](redisClient, "idempotency-cache")
	rateLimiter := redis.NewRateLimiter(redisClient)

	// outbox relay (uses cancellable context)
	var recorder outbox.Recorder
	if appMetrics != nil {
		recorder = appMetrics
	}
	outboxHandler := outbox.NewHandler(store.outbox, broker, cfg.Outbox, recorder)
	go outboxHandler.Start(ctx)
	logger.Info(ctx, "Outbox handler started", map[string]any{"interval": cfg.Outbox.Interval.String(), "batch_size": cfg.Outbox.BatchSize})

	// services
	idempotencyService := service.NewIdempotencyService(idempotencyCache, service.IdempotencyConfig{
		TTL:          cfg.Idempotency.TTL,
		PollInterval: cfg.Idempotency.PollInterval,
		PollTimeout:  cfg.Idempotency.PollTimeout,
	})
	orderService := service.NewOrderService(
		store.orders,
		outbox.NewEventStore(store.outbox),
		orderCache,
		idempotencyService,
		store.txManager,
		cfg.Cache.OrderTTL,
	)

	// controllers
	orderController := controllers.NewOrderController(orderService)
	docsController := controllers.NewDocsController(docs.SwaggerInfo.InstanceName())
	healthController := controllers.NewHealthController([]controllers.HealthChecker{
		{Name: "storage", Check: store.check},
		{Name: "redis", Check: redisClient.Ping},
		{Name: "broker", Check: func(context.Context) error { return broker.HealthCheck() }},
	})

	router := http.NewRouter(healthController, orderController, docsController, rateLimiter, cfg.RateLimit, routerMetrics)

	// graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	logger.Info(ctx, "Starting HTTP server", map[string]any{"addr": cfg.HTTP.BindInterface + ":" + cfg.HTTP.Port})
	if err := router.ListenAndServe(ctx, cfg.HTTP); err != nil {
		logger.Error(ctx, "HTTP server stopped with error", err, nil)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := logger.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "logger shutdown error: "+err.Error())
	}
}
