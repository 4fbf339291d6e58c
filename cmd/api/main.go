package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/cache"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/catalog"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/config"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/db"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/httpserver"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/metrics"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/outbox"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/pricing"
	addressrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/address"
	cartrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/cart"
	customerrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/customer"
	discountrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/discount"
	orderrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/order"
	productrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/product"
	tokenrepo "github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/token"
	cartsvc "github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/cart"
	checkoutsvc "github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/checkout"
	ordersvc "github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/order"
	sessionsvc "github.com/phnam24/Shop-Front-End-temp-sub000/internal/service/session"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	if err := migrate.Apply(ctx, dbpool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	m := metrics.New()

	var (
		cartCache cache.CartCache = cache.Noop{}
		readiness []httpserver.ReadinessCheck
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Printf("redis unreachable at %s, cart cache disabled: %v", cfg.RedisAddr, err)
		} else {
			cartCache = cache.NewRedisCache(rdb, cfg.CartCacheTTL)
			readiness = append(readiness, httpserver.ReadinessCheck{
				Name:  "redis",
				Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			})
		}
	}

	productRepo := productrepo.NewPostgres(dbpool, logger)
	var stock catalog.Source = catalog.NewLocal(productRepo)
	if cfg.CatalogBaseURL != "" {
		stock = catalog.NewClient(catalog.Options{
			BaseURL:      cfg.CatalogBaseURL,
			ClientID:     cfg.CatalogClientID,
			ClientSecret: cfg.CatalogClientSecret,
			Logger:       logger,
			Metrics:      m,
		})
		logger.Printf("stock oracle: remote catalog %s", cfg.CatalogBaseURL)
	}

	customerRepo := customerrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool, logger)

	cartService := cartsvc.New(cartsvc.Deps{
		Repo:      cartrepo.NewPostgres(dbpool, logger),
		Stock:     catalog.NewDedup(stock),
		Discounts: discountrepo.NewPostgres(dbpool),
		Cache:     cartCache,
		Policy: pricing.Policy{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			FlatShippingFee:       cfg.FlatShippingFee,
		},
		Metrics: m,
		Logger:  logger,
	})
	orderService := ordersvc.New(orderrepo.NewPostgres(dbpool, logger), m, logger)
	checkoutService := checkoutsvc.New(checkoutsvc.Deps{
		Carts:       cartService,
		Addresses:   addressRepo,
		Orders:      orderService,
		Metrics:     m,
		Logger:      logger,
		IdleTimeout: cfg.CheckoutIdleTimeout,
	})
	sessionService := sessionsvc.New(tokenrepo.NewPostgres(dbpool), customerRepo, logger)

	var producer outbox.Producer = outbox.LogProducer{Logger: logger}
	if len(cfg.KafkaBrokers) > 0 {
		w := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer w.Close()
		producer = w
	}
	relay := outbox.NewRelay(logger, outbox.NewPostgresStore(dbpool),
		outbox.NewDispatcher(logger, producer, cfg.OrderEventsTopic), m, uuid.NewString())

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Sessions:       sessionService,
		Carts:          cartService,
		Checkout:       checkoutService,
		Orders:         orderService,
		Addresses:      addressRepo,
		Metrics:        m,
		FulfillmentKey: cfg.FulfillmentAPIKey,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		Readiness:      readiness,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return relay.Run(gctx)
	})
	g.Go(func() error {
		checkoutService.Run(gctx)
		return nil
	})
	g.Go(func() error {
		purgeSessions(gctx, logger, sessionService)
		return nil
	})
	g.Go(func() error {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("graceful shutdown failed: %v", err)
			return err
		}
		logger.Printf("server stopped")
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Printf("exited with error: %v", err)
	}
}

func purgeSessions(ctx context.Context, logger *log.Logger, sessions *sessionsvc.Service) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Printf("purge sessions: %v", err)
				continue
			}
			if n > 0 {
				logger.Printf("purged %d expired session tokens", n)
			}
		}
	}
}
