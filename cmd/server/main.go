package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"riskmonitor/internal/api"
	"riskmonitor/internal/bridge"
	"riskmonitor/internal/config"
	"riskmonitor/internal/monitor"
	"riskmonitor/internal/repository"
	"riskmonitor/pkg/utils"

	_ "github.com/lib/pq"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	logger, err := utils.InitLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatal("failed to connect to database",
			zap.String("dsn", cfg.Database.DSNWithoutPassword()),
			zap.Error(err))
	}
	defer db.Close()

	logger.Info("connected to database",
		zap.String("dsn", cfg.Database.DSNWithoutPassword()))

	// Инициализация репозиториев
	alertRepo := repository.NewAlertRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	profileRepo := repository.NewProfileRepository(db)

	// Клиент MT5 bridge (upstream data feed)
	bridgeClient := bridge.NewClient(bridge.Config{
		BaseURL:        cfg.Bridge.BaseURL,
		RequestTimeout: cfg.Bridge.RequestTimeout,
		RateLimit:      cfg.Bridge.RateLimit,
		RateBurst:      cfg.Bridge.RateBurst,
	}, logger)

	// Компоненты движка мониторинга
	registry := monitor.NewRegistry(monitor.RegistryConfig{
		HeartbeatInterval: cfg.Monitor.HeartbeatInterval,
		SweepInterval:     cfg.Monitor.SweepInterval,
		ConnectionTimeout: cfg.Monitor.ConnectionTimeout,
	}, logger)

	limiter := monitor.NewAlertLimiter(cfg.Monitor.MaxAlertsPerBucket, cfg.Monitor.RateLimitReset, logger)
	dispatcher := monitor.NewDispatcher(limiter, alertRepo, registry, logger)

	evaluator := monitor.NewEvaluator(
		tradeRepo,
		profileRepo,
		bridgeClient,
		cfg.Monitor.VolatilityThreshold,
		cfg.Monitor.TradeFetchLimit,
		logger,
	)

	scheduler := monitor.NewScheduler(
		registry,
		evaluator,
		bridgeClient,
		dispatcher,
		cfg.Monitor.Interval,
		cfg.Monitor.MaxAlertsPerCycle,
		logger,
	)

	retention := monitor.NewRetention(alertRepo, cfg.Monitor.AlertRetention, cfg.Monitor.RetentionSweep, logger)

	// Запуск фоновых компонентов
	limiter.Start()
	registry.StartSweeper()
	retention.Start()
	scheduler.Start()

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		Registry:      registry,
		Scheduler:     scheduler,
		CycleInterval: cfg.Monitor.Interval,
		Logger:        logger,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatal("server failed", zap.Error(err))
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Останавливаем движок: планировщик дорабатывает текущий цикл,
	// затем закрываются подписки и таймер сброса лимитов
	scheduler.Stop()
	registry.Stop()
	retention.Stop()
	limiter.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

// initDatabase создает подключение к базе данных
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
