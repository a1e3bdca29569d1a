package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "inventory/api/swagger" // swagger docs
	"inventory/internal/cache"
	"inventory/internal/config"
	"inventory/internal/database"
	"inventory/internal/handler"
	"inventory/internal/messaging"
	"inventory/internal/middleware"
	"inventory/internal/repository"
	"inventory/internal/service"
	"inventory/internal/websocket"
	"inventory/pkg/logger"
	"inventory/pkg/tracing"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"
)

// @title           Inventory API
// @version         1.0
// @description     Order and stock transactions for a retail shop.
// @host            localhost:8080
// @BasePath        /
func main() {
	app := &cli.App{
		Name:  "inventory",
		Usage: "retail inventory order and stock service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "env-file",
				Value:   "configs/.env",
				Usage:   "dotenv file loaded before reading the environment",
				EnvVars: []string{"ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: serve,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "migrate", Value: true, Usage: "migrate the schema before serving"},
				},
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Action: migrate,
			},
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		logger.Logger.Fatal().Err(err).Msg("inventory exited")
	}
}

func bootstrap(c *cli.Context) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, nil, err
	}
	logger.Init(cfg.ServiceName, cfg.IsDevelopment())
	logger.SetLevel(cfg.LogLevel)

	db, err := database.NewConnection(c.Context, cfg.DB.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return cfg, db, nil
}

func migrate(c *cli.Context) error {
	_, db, err := bootstrap(c)
	if err != nil {
		return err
	}
	return database.Migrate(c.Context, db)
}

func serve(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := bootstrap(c)
	if err != nil {
		return err
	}
	if c.Bool("migrate") {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return fmt.Errorf("tracing setup failed: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Logger.Error().Err(err).Msg("failed to shutdown tracer")
		}
	}()

	// Event fan-out: dashboards over websocket, plus Kafka when configured.
	wsHub := websocket.NewHub(cfg.CORSAllowedOrigins)
	go wsHub.Run(ctx)
	publishers := []service.EventPublisher{wsHub}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher, err := messaging.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			logger.Logger.Warn().Err(err).Msg("kafka unavailable, events go to websocket only")
		} else {
			defer kafkaPublisher.Close()
			publishers = append(publishers, kafkaPublisher)
		}
	}
	publisher := service.NewMultiPublisher(publishers...)

	var reportCache service.ReportCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Logger.Warn().Err(err).Str("redis_addr", cfg.RedisAddr).Msg("redis unavailable, report cache disabled")
		} else {
			reportCache = cache.NewReportCache(redisClient, cfg.ReportCacheTTL)
		}
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db, cfg.DB.LockTimeout)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	stockInRepo := repository.NewStockInRepository(db)

	ledger := service.NewInventoryLedger(productRepo, movementRepo)
	sequence := service.NewOrderSequence(orderRepo)

	orderService := service.NewOrderService(orderRepo, ledger, sequence, txManager, reportCache, publisher)
	reportService := service.NewReportService(orderRepo, reportCache)
	stockService := service.NewStockService(stockInRepo, movementRepo, ledger, txManager, publisher)
	productService := service.NewProductService(productRepo, ledger, txManager, publisher)

	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Accept", "traceparent"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "websocket_clients": wsHub.ClientCount()})
	})
	router.GET("/ws", wsHub.ServeWs)

	api := router.Group("")
	handler.NewOrderHandler(orderService).RegisterRoutes(api)
	handler.NewReportHandler(reportService).RegisterRoutes(api)
	handler.NewStockHandler(stockService).RegisterRoutes(api)
	handler.NewProductHandler(productService).RegisterRoutes(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Logger.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
