package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"rehive-autosave/internal/api/handlers"
	"rehive-autosave/internal/api/middlew"
	"rehive-autosave/internal/config"
	"rehive-autosave/internal/kafka"
	"rehive-autosave/internal/locks"
	"rehive-autosave/internal/metrics"
	"rehive-autosave/internal/rehive"
	"rehive-autosave/internal/server"
	"rehive-autosave/internal/service"
	"rehive-autosave/pkg/logger"
)

type App struct {
	log            *slog.Logger
	server         *server.Server
	logFile        *os.File
	cfg            *config.Config
	ledgerClient   rehive.Client
	kafkaProducer  kafka.Producer
	redisClient    *redis.Client
	metrics        *metrics.Metrics
	savingsService *service.SavingsService
}

func NewApp() (*App, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации конфига: %w", err)
	}

	loggerWithFile, err := logger.New(cfg.Log.File, cfg.Log.SlogLevel())
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации логгера: %w", err)
	}
	log := loggerWithFile.Logger
	log.Info("инициализация приложения")
	log.Info("конфигурация загружена",
		slog.String("port", cfg.HTTPPort),
		slog.String("log_level", cfg.Log.Level))

	ledgerClient := rehive.NewClient(cfg.Rehive.BaseURL, cfg.Rehive.APIToken, cfg.Rehive.Timeout, log)
	log.Info("rehive client инициализирован", slog.String("base_url", cfg.Rehive.BaseURL))

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			return nil, fmt.Errorf("не удалось подключиться к redis: %w", err)
		}
		log.Info("подключение к redis установлено", slog.String("addr", cfg.Redis.Addr))
	} else {
		log.Warn("redis отключен: гонка find-or-create не сериализуется, возможны дубликаты счета savings")
	}

	var kafkaProducer kafka.Producer
	if cfg.Kafka.Enabled {
		log.Info("инициализация kafka producer", slog.Any("brokers", cfg.Kafka.Brokers))
		kafkaProducer, err = kafka.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			return nil, fmt.Errorf("ошибка инициализации kafka: %w", err)
		}
	} else {
		log.Info("kafka отключен в конфигурации")
		kafkaProducer = kafka.NewNoOpProducer(log)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	m := metrics.New(registry)

	srv := server.NewServer(cfg.HTTPPort)
	log.Info("сервер инициализирован", slog.String("port", cfg.HTTPPort))
	srv.Router.Use(chimiddleware.RequestID)
	srv.Router.Use(middlew.WithLogger(log))
	srv.Router.Use(chimiddleware.RealIP)
	srv.Router.Use(chimiddleware.Recoverer)
	srv.RegisterSwagger()
	srv.RegisterMetrics(registry)

	return &App{
		log:           log,
		server:        srv,
		logFile:       loggerWithFile.LogFile,
		cfg:           cfg,
		ledgerClient:  ledgerClient,
		kafkaProducer: kafkaProducer,
		redisClient:   redisClient,
		metrics:       m,
	}, nil
}

func (a *App) BuildWebhookLayer() {
	var locker locks.UserLocker
	if a.redisClient != nil {
		locker = locks.NewRedisUserLocker(a.redisClient, a.cfg.Redis.LockTTL, a.log)
	} else {
		locker = locks.NewNoOpLocker()
	}

	a.savingsService = service.NewSavingsService(
		a.ledgerClient,
		locker,
		a.kafkaProducer,
		a.metrics,
		a.log,
	)

	webhookHandler := handlers.NewWebhookHandler(a.savingsService, a.metrics)
	indexHandler := handlers.NewIndexHandler()

	a.server.Router.Get("/", indexHandler.Greet)

	a.server.Router.Group(func(r chi.Router) {
		r.Use(middlew.RequireWebhookSecret(a.cfg.Webhook.Secret))
		r.Post("/webhook/transaction/", webhookHandler.HandleTransaction)
	})

	a.log.Info("слой 'webhook' собран и маршруты зарегистрированы")
}

func (a *App) Run() error {
	a.log.Info("сервер запускается")

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("ошибка запуска сервера: %w", err)
		}
	}()

	shutdownChan := make(chan os.Signal, 1)
	signal.Notify(shutdownChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdownChan:
		a.log.Info("получен сигнал завершения", slog.String("signal", sig.String()))
	}

	a.log.Info("приложение останавливается")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.savingsService != nil {
		a.log.Info("остановка savings service")
		if err := a.savingsService.Shutdown(ctx); err != nil {
			a.log.Error("ошибка при остановке savings service", slog.String("error", err.Error()))
		}
	}

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("ошибка при остановке http сервера", slog.String("error", err.Error()))
	}

	if a.kafkaProducer != nil {
		a.log.Info("закрытие kafka producer")
		if err := a.kafkaProducer.Close(); err != nil {
			a.log.Error("ошибка при закрытии kafka producer", slog.String("error", err.Error()))
		}
	}

	if a.redisClient != nil {
		a.log.Info("закрытие соединения с redis")
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("ошибка при закрытии redis", slog.String("error", err.Error()))
		}
	}

	a.log.Info("закрытие файла логов")
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil {
			a.log.Error("ошибка при закрытии файла логов", slog.String("error", err.Error()))
		}
	}

	a.log.Info("приложение остановлено")
	return nil
}
