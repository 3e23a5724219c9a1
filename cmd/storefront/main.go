package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/cache"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/checkout"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/client"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/config"
	h "github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/http"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/logger"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/metrics"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/order"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/session"
	"github.com/202W0807-Taller-Web/ecommerce-store-sub000/internal/stock"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(log)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, checkouts, closeStores := openStores(ctx, cfg, log)
	defer closeStores()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	opts := []client.Option{client.WithLogger(log), client.WithTimeout(cfg.RequestTimeout)}
	cartClient := client.NewCartClient(cfg.CartServiceURL, opts...)
	shippingClient := client.NewShippingClient(cfg.ShippingServiceURL, opts...)
	contactClient := client.NewContactClient(cfg.ContactServiceURL, opts...)
	stockClient := client.NewStockClient(cfg.StockServiceURL, opts...)
	orderClient := client.NewOrderClient(cfg.OrderServiceURL, opts...)
	locationClient := client.NewLocationClient(cfg.LocationServiceURL, opts...)

	var publisher order.Publisher = order.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := order.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		publisher = kafkaPublisher
		log.Info("publishing order events", "topic", cfg.OrderEventsTopic, "brokers", cfg.KafkaBrokers)
	}

	registry := h.NewRegistry(h.Services{
		Cart:     cartClient,
		Shipping: shippingClient,
		Stock:    stockClient,
		Orders:   orderClient,
	}, session.NewManager(sessions), publisher, m, log, h.DefaultWorkspaceTTL)
	go registry.Run(ctx, h.SweepInterval)

	if len(cfg.KafkaBrokers) > 0 {
		consumer := stock.NewConsumer(registry, cfg.StockEventsTopic, cfg.StockConsumerGroup, log, cfg.KafkaBrokers...)
		defer consumer.Close()
		go consumer.Run(ctx)
	}

	wizard := checkout.NewWizard(checkouts, contactClient, checkout.Rates{
		Standard: cfg.FlatRateStandard,
		Express:  cfg.FlatRateExpress,
	}, log)

	router := h.NewRouter(h.RouterConfig{
		Registry:       registry,
		Wizard:         wizard,
		Locations:      locationClient,
		Tokens:         h.NewTokenValidator(cfg.JWTSecret),
		Metrics:        m,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		DeviceTimeout:  cfg.GeolocationTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, cfg.ServiceName),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("storefront starting", "port", cfg.HTTPPort, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("server exited")
}

// openStores keeps sessions and checkouts in Redis when it answers, and in
// process memory otherwise.
func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger) (cache.Store[session.Session], cache.Store[checkout.Session], func()) {
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			log.Info("redis ping succeeded", "addr", cfg.RedisAddr)
			return cache.NewRedisCache[session.Session](redisClient, "session", cfg.SessionTTL),
				cache.NewRedisCache[checkout.Session](redisClient, "checkout", cfg.SessionTTL),
				func() { _ = redisClient.Close() }
		}
		log.Warn("redis unavailable, keeping sessions in memory", "addr", cfg.RedisAddr, "error", err)
		_ = redisClient.Close()
	}

	sessions := cache.NewMemoryCache[session.Session](cfg.SessionTTL)
	checkouts := cache.NewMemoryCache[checkout.Session](cfg.SessionTTL)
	return sessions, checkouts, func() {
		_ = sessions.Close()
		_ = checkouts.Close()
	}
}
