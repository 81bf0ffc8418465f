package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/redis/go-redis/v9"
	"github.com/wichananm65/storefront-backend/internal/auth"
	"github.com/wichananm65/storefront-backend/internal/cart"
	"github.com/wichananm65/storefront-backend/internal/config"
	"github.com/wichananm65/storefront-backend/internal/database"
	"github.com/wichananm65/storefront-backend/internal/events"
	"github.com/wichananm65/storefront-backend/internal/logger"
	"github.com/wichananm65/storefront-backend/internal/metrics"
	"github.com/wichananm65/storefront-backend/internal/order"
	"github.com/wichananm65/storefront-backend/internal/product"
	"go.uber.org/zap"
)

// stores bundles the repositories of the selected backend and how to release
// them.
type stores struct {
	products product.Repository
	orders   order.Repository
	close    func()
}

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	st, err := openStores(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.close()

	catalogCache, closeCache := newCatalogCache(cfg, log)
	defer closeCache()

	publisher := newPublisher(cfg, log)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close failed", zap.Error(err))
		}
	}()

	m := metrics.New()
	sessions := cart.NewSessions()

	productService := product.NewService(st.products,
		product.WithCache(catalogCache),
		product.WithLogger(log.Named("catalog")),
		product.WithTimeout(cfg.StoreTimeout),
	)
	placer := order.NewPlacer(st.orders, productService,
		order.WithPublisher(publisher),
		order.WithRecorder(m),
		order.WithLogger(log.Named("orders")),
		order.WithStoreTimeout(cfg.StoreTimeout),
	)
	orderService := order.NewService(st.orders, cfg.StoreTimeout)

	authHandler := auth.NewHandler(auth.NewIssuer(cfg.JWTSecret), cfg.AdminEmail, cfg.AdminPasswordHash)
	productHandler := product.NewHandler(productService)
	cartHandler := cart.NewHandler(sessions, productService)
	orderHandler := order.NewHandler(placer, orderService, sessions)

	app := fiber.New(fiber.Config{
		AppName:      "storefront",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	})
	setupCORS(app)
	app.Use(logger.RequestLogger(log.Named("http")))
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "backend": cfg.StoreBackend})
	})
	app.Get("/metrics", m.Handler())

	api := app.Group("/api/v1")
	authHandler.RegisterPublicRoutes(api)
	productHandler.RegisterPublicRoutes(api)

	// everything registered below needs a valid token
	protected := api.Group("", auth.Middleware(cfg.JWTSecret))
	cartHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)
	productHandler.RegisterAdminRoutes(protected.Group("/admin", auth.RequireAdmin))

	go func() {
		log.Info("storefront listening", zap.String("addr", cfg.Addr), zap.String("backend", cfg.StoreBackend))
		if err := app.Listen(cfg.Addr); err != nil {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return stores{}, err
		}
		orders := order.NewMongoRepository(db)
		if err := orders.CreateIndexes(ctx); err != nil {
			log.Warn("order index creation failed", zap.Error(err))
		}
		return stores{
			products: product.NewMongoRepository(db),
			orders:   orders,
			close: func() {
				if err := db.Client().Disconnect(context.Background()); err != nil {
					log.Warn("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil

	case config.BackendPostgres:
		db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, err
		}
		if err := database.RunMigrations(db, cfg.MigrationsPath); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		return stores{
			products: product.NewPostgresRepository(db),
			orders:   order.NewPostgresRepository(db),
			close:    closeDB(db, log),
		}, nil

	case config.BackendMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return stores{
			products: product.NewInMemoryRepository(nil),
			orders:   order.NewInMemoryRepository(),
			close:    func() {},
		}, nil
	}
	return stores{}, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}

func closeDB(db *sql.DB, log *zap.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}
}

func newCatalogCache(cfg config.Config, log *zap.Logger) (product.CatalogCache, func()) {
	if cfg.RedisAddr == "" {
		return product.NopCache{}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unreachable, catalog cache will miss until it recovers", zap.Error(err))
	}
	return product.NewRedisCache(client, cfg.CatalogCacheTTL), func() { _ = client.Close() }
}

func newPublisher(cfg config.Config, log *zap.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		return events.Nop{}
	}
	log.Info("publishing order events", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.OrderEventsTopic))
	return events.NewKafkaPublisher(cfg.OrderEventsTopic, cfg.KafkaBrokers...)
}

func setupCORS(app *fiber.App) {
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
}
