package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/argusvision/dashsync/internal/engine"
	"github.com/argusvision/dashsync/internal/gateway"
	"github.com/argusvision/dashsync/internal/infra"
	"github.com/argusvision/dashsync/internal/journal"
	"github.com/argusvision/dashsync/internal/repository/postgres"
	"github.com/argusvision/dashsync/internal/store"
	"github.com/argusvision/dashsync/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Конфигурация и логгер
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer logger.Sync()

	// Контекст для управления жизненным циклом фоновых горутин
	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Remote Data Gateway
	// Без base_url поднимаем мок — удобно для локальной разработки
	var gw gateway.RemoteGateway
	if cfg.Gateway.BaseURL == "" {
		logger.Warn("gateway.base_url is empty, using mock gateway")
		gw = gateway.NewMockGateway()
	} else {
		tokens := gateway.NewStaticTokenSource(cfg.Gateway.Token, logger)
		rel := gateway.NewReliability(gateway.ReliabilityOptions{
			Attempts:       cfg.Gateway.RetryAttempts,
			AttemptTimeout: cfg.Gateway.RequestTimeout,
			RateLimit:      cfg.Gateway.RateLimit,
			RateBurst:      cfg.Gateway.RateBurst,
			CBMaxRequests:  cfg.Gateway.CBMaxRequests,
			CBInterval:     cfg.Gateway.CBInterval,
			CBTimeout:      cfg.Gateway.CBTimeout,
		})
		gw = gateway.NewHTTPGateway(cfg.Gateway.BaseURL, tokens, rel, logger)
	}

	// 3. Транспорт живого канала: websocket или redis pub/sub
	var dialer transport.Dialer
	switch cfg.Channel.Kind {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		dialer = &transport.RedisDialer{
			Client:   rdb,
			Events:   cfg.Channel.EventsChannel,
			Commands: cfg.Channel.CommandsChannel,
			Logger:   logger,
		}
	case "websocket":
		dialer = &transport.WSDialer{URL: cfg.Channel.URL, Logger: logger}
	default:
		logger.Fatal("unknown channel.kind", zap.String("kind", cfg.Channel.Kind))
	}

	// 4. Журнал действий (опционален: пустой database.url выключает)
	var storeOpts []store.Option
	var jrn *journal.Journal
	if cfg.Database.URL != "" {
		repo, err := postgres.NewJournalRepo(cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			logger.Fatal("journal repo init failed", zap.Error(err))
		}
		pingCtx, pingCancel := context.WithTimeout(appCtx, 5*time.Second)
		if err := repo.Ping(pingCtx); err != nil {
			logger.Fatal("database unreachable", zap.Error(err))
		}
		pingCancel()

		jrn = journal.New(repo, cfg.Engine.JournalBufferSize, cfg.Engine.JournalFlushInterval, logger)
		jrn.Start()
		storeOpts = append(storeOpts, store.WithRecorder(jrn))
	}

	// 5. Метрики и сборка ядра
	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	initial := store.NewState(cfg.Engine.DetectionCapacity)
	initial.AutoRefresh = cfg.Engine.AutoRefresh
	initial.RefreshInterval = cfg.Engine.RefreshInterval

	eng := engine.New(engine.Options{
		Gateway: gw,
		Dialer:  dialer,
		Metrics: metrics,
		ReconnectPolicy: engine.ReconnectPolicy{
			InitialDelay: cfg.Engine.ReconnectInitialDelay,
			MaxDelay:     cfg.Engine.ReconnectMaxDelay,
			Multiplier:   cfg.Engine.ReconnectMultiplier,
			MaxAttempts:  cfg.Engine.ReconnectMaxAttempts,
		},
		InitialState: initial,
		StoreOptions: storeOpts,
	}, logger)

	eng.Start(appCtx)

	// 6. Локальный HTTP: снапшот состояния + health + метрики.
	// UI получает read-only доступ, транспортные объекты наружу не отдаем.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/api/v1/state", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(eng.Store.State())
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("dashboard sync daemon started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 7. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}

	cancel()
	eng.Stop()
	if jrn != nil {
		jrn.Stop()
	}
	logger.Info("exited properly")
}
