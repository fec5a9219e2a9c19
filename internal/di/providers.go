package di

import (
	"fmt"

	"finbot/internal/domain/repository"
	apihandler "finbot/internal/handler/api"
	ws "finbot/internal/handler/ws"
	mid "finbot/internal/middleware"
	internalrepo "finbot/internal/repository"
	"finbot/internal/service/binance"
	"finbot/internal/services/analytics"
	"finbot/internal/usecase"
	"finbot/pkg/config"
	xhttp "finbot/pkg/http"
	pkgkafka "finbot/pkg/kafka"
	applogger "finbot/pkg/logger"
	"finbot/pkg/metrics"
	"finbot/pkg/server"

	goredis "github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSnapshotStore creates the Redis snapshot repository.
func ProvideSnapshotStore(cfg *config.Config) (repository.SnapshotRepository, error) {
	store, err := internalrepo.NewRedisSnapshotStore(internalrepo.RedisOptions{
		Addr:        cfg.Redis.Addr,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
		ReadTimeout: cfg.Redis.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot store: %w", err)
	}
	return store, nil
}

// ProvideTickBus creates the bus adapter selected by bus.type.
func ProvideTickBus(cfg *config.Config, log *applogger.Logger) (repository.TickBus, error) {
	switch cfg.Bus.Type {
	case "kafka":
		producer, err := pkgkafka.NewProducer(
			pkgkafka.WithBrokers(cfg.Kafka.Brokers),
			pkgkafka.WithCompression(cfg.Kafka.Compression),
			pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
			pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
			pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
			pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
			pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
			pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
			pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
			pkgkafka.WithHashByKey(true),
		)
		if err != nil {
			return nil, fmt.Errorf("kafka producer: %w", err)
		}
		return internalrepo.NewKafkaBus(producer, internalrepo.KafkaBusOptions{
			Brokers:    cfg.Kafka.Brokers,
			GroupID:    cfg.Kafka.Consumer.GroupID,
			Workers:    cfg.Kafka.Consumer.Workers,
			BufferSize: cfg.Kafka.Consumer.BufferSize,
			RetryMax:   cfg.Kafka.Consumer.RetryMax,
			BackoffMin: cfg.Kafka.Consumer.BackoffMin,
			BackoffMax: cfg.Kafka.Consumer.BackoffMax,
			MinBytes:   cfg.Kafka.Consumer.MinBytes,
			MaxBytes:   cfg.Kafka.Consumer.MaxBytes,
		}, log), nil
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return internalrepo.NewRedisBus(client, log), nil
	case "memory":
		return internalrepo.NewMemoryBus(), nil
	default:
		return nil, fmt.Errorf("unknown bus type %q", cfg.Bus.Type)
	}
}

// ProvideMarketStream creates the Binance WebSocket stream.
func ProvideMarketStream(cfg *config.Config, log *applogger.Logger) repository.MarketStream {
	return binance.New(
		cfg.Binance.WebSocketURL,
		cfg.Binance.Symbols,
		cfg.Binance.ReconnectDelay,
		cfg.Binance.PingInterval,
		cfg.Binance.InsecureSkipVerify,
		log,
	)
}

// ProvideTickCollector builds the ingest path: stream -> pipeline -> bus.
func ProvideTickCollector(
	stream repository.MarketStream,
	bus repository.TickBus,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.TickCollector {
	publisher := usecase.NewTickPublisher(bus, cfg.Bus.Channel, cfg.Bus.Type, metrics)
	pipe := mid.NewIngestPipeline(publisher, metrics,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, pipe, metrics, log)
}

// ProvideAnalysisEngine builds the analytics stack.
func ProvideAnalysisEngine(
	snapshots repository.SnapshotRepository,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.AnalysisEngine {
	simulator := analytics.NewMonteCarloSimulator(cfg.MonteCarlo.Simulations, cfg.MonteCarlo.HorizonDays)
	analyzer := analytics.NewABCAnalyzer(simulator, log)
	forecaster := analytics.NewArimaForecaster(cfg.Arima.HorizonPeriods)

	return usecase.NewAnalysisEngine(analyzer, forecaster, simulator, snapshots, metrics, log, usecase.AnalysisOptions{
		Symbols:    cfg.Analytics.Symbols,
		Interval:   cfg.Analytics.SnapshotInterval,
		WindowSize: cfg.Analytics.MaxWindow,
	})
}

// ProvideHub creates the WebSocket session hub.
func ProvideHub(log *applogger.Logger) *ws.Hub {
	return ws.NewHub(log)
}

// ProvideBroadcaster creates the snapshot broadcaster.
func ProvideBroadcaster(
	snapshots repository.SnapshotRepository,
	hub *ws.Hub,
	metrics repository.Metrics,
	log *applogger.Logger,
	cfg *config.Config,
) *usecase.Broadcaster {
	return usecase.NewBroadcaster(snapshots, hub, metrics, log, cfg.Broadcast.Symbols, cfg.Broadcast.Interval)
}

// ProvideHandlers assembles the HTTP route handlers.
func ProvideHandlers(
	snapshots repository.SnapshotRepository,
	hub *ws.Hub,
	collector *usecase.TickCollector,
	metrics repository.Metrics,
	log *applogger.Logger,
) []xhttp.Handler {
	return []xhttp.Handler{
		ws.NewMarketHandler(hub, snapshots, metrics, log),
		apihandler.NewMarketHandler(snapshots, collector, log),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	bus repository.TickBus,
	snapshots repository.SnapshotRepository,
	collector *usecase.TickCollector,
	engine *usecase.AnalysisEngine,
	broadcaster *usecase.Broadcaster,
	hub *ws.Hub,
	handlers []xhttp.Handler,
) *server.App {
	return server.New(cfg, log, bus, snapshots, collector, engine, broadcaster, hub, handlers)
}
