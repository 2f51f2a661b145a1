package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"TradeForge/internal/domain/models"
	domrepo "TradeForge/internal/domain/repository"
	"TradeForge/internal/engine"
	"TradeForge/internal/handler/api"
	mid "TradeForge/internal/middleware"
	"TradeForge/internal/paper"
	internalrepo "TradeForge/internal/repository"
	icache "TradeForge/internal/service/cache"
	"TradeForge/internal/service/marketdata"
	"TradeForge/internal/service/news"
	"TradeForge/internal/service/notify"
	"TradeForge/internal/strategy"
	"TradeForge/internal/symbol"
	"TradeForge/internal/usecase"
	pkgcache "TradeForge/pkg/cache"
	pkgch "TradeForge/pkg/clickhouse"
	"TradeForge/pkg/config"
	pkgkafka "TradeForge/pkg/kafka"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/metrics"
	"TradeForge/pkg/queue"
	"TradeForge/pkg/server"
)

// ProvideLogger builds the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	lc := &applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "info"
	}
	if lc.Format == "" {
		lc.Format = "console"
	}
	if lc.Output == "" {
		lc.Output = "stdout"
	}
	return applogger.New(lc)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideSymbols normalizes the configured symbols to canonical form.
func ProvideSymbols(cfg *config.Config) ([]string, error) {
	out := make([]string, 0, len(cfg.Kraken.Symbols))
	seen := make(map[string]bool, len(cfg.Kraken.Symbols))
	for _, raw := range cfg.Kraken.Symbols {
		sym, err := symbol.Normalize(raw)
		if err != nil {
			return nil, fmt.Errorf("kraken.symbols: %w", err)
		}
		if seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}

// ProvideClickHouseClient creates a ClickHouse client. The memory backend
// needs no database, so it gets a nil client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type == "memory" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideTraceStore creates the decision-trace store for the configured
// backend and initializes its schema.
func ProvideTraceStore(cfg *config.Config, chClient *pkgch.Client) (domrepo.TraceStore, error) {
	if cfg.Backend.Type == "memory" {
		return internalrepo.NewMemoryTraceStore(), nil
	}

	store := internalrepo.NewClickHouseTraceStore(chClient.DB())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("trace store schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer when the kafka backend is
// selected.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
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
	return producer, nil
}

// ProvideTracePublisher creates the Kafka trace publisher.
func ProvideTracePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTracePublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaConsumer creates the trace ingest consumer for kafka mode.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideTraceIngestHandler persists traces arriving from Kafka.
func ProvideTraceIngestHandler(store domrepo.TraceStore, m domrepo.Metrics, cfg *config.Config) *usecase.TraceIngestHandler {
	return usecase.NewTraceIngestHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRedisCache connects to Redis when enabled.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port, err := splitAddr(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis.addr: %w", err)
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideBytesCache picks the byte cache used for headline dedup and
// dashboard response caching: Redis when configured, in-process TTL cache
// otherwise.
func ProvideBytesCache(cfg *config.Config, rc *pkgcache.RedisCache) icache.BytesCache {
	if rc != nil {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideNotifier publishes trade alerts through the Redis queue when Redis
// is available.
func ProvideNotifier(rc *pkgcache.RedisCache, log *applogger.Logger) domrepo.Notifier {
	if rc == nil {
		return notify.NopNotifier{}
	}
	q := queue.NewRedisPublisher(log, rc.Client(), queue.WithKeyPrefix("tradeforge:queue"))
	return notify.NewQueueNotifier(q)
}

// ProvideAlertWorker consumes queued trade alerts.
func ProvideAlertWorker(rc *pkgcache.RedisCache, log *applogger.Logger) *queue.RedisQueue {
	if rc == nil {
		return nil
	}
	jobs := []queue.Job{notify.NewTradeAlertJob(log)}
	return queue.NewRedisConsumer(log,
		&queue.QueueConfig{Workers: 1, QueueSize: 100, RetryLimit: 3, RetryDelay: 5 * time.Second},
		rc.Client(), jobs, queue.WithKeyPrefix("tradeforge:queue"))
}

// ProvideMarketStream creates the Kraken WebSocket stream.
func ProvideMarketStream(cfg *config.Config, symbols []string) domrepo.MarketStream {
	url := cfg.Kraken.WebSocketURL
	if url == "" {
		url = "wss://ws.kraken.com"
	}
	reconnect := cfg.Kraken.ReconnectDelay
	if reconnect <= 0 {
		reconnect = 5 * time.Second
	}
	ping := cfg.Kraken.PingInterval
	if ping <= 0 {
		ping = 30 * time.Second
	}
	return marketdata.New(url, symbols, reconnect, ping)
}

// ProvideContextBuilder creates the per-symbol market context builder.
func ProvideContextBuilder(dedup icache.BytesCache) *usecase.ContextBuilder {
	return usecase.NewContextBuilder(dedup)
}

// ProvideTickCollector wires the stream into the context builder through the
// throttling pipeline.
func ProvideTickCollector(
	stream domrepo.MarketStream,
	builder *usecase.ContextBuilder,
	m domrepo.Metrics,
	cfg *config.Config,
) *usecase.TickCollector {
	maxRPS := int(cfg.Kraken.MaxTicksPerSec)
	if maxRPS <= 0 {
		maxRPS = 50
	}
	pipe := mid.NewTickPipeline(builder, m,
		mid.WithMaxRPS(maxRPS),
		mid.WithBufferSize(2000),
	)
	return usecase.NewTickCollector(stream, builder, m, pipe)
}

// ProvideRegistry registers the built-in strategies and applies per-strategy
// config overrides.
func ProvideRegistry(cfg *config.Config) (*strategy.Registry, error) {
	reg := strategy.NewRegistry()
	if err := reg.Register(strategy.NewSentiment(), 1.0); err != nil {
		return nil, err
	}
	if err := reg.Register(strategy.NewTechnical(), 1.0); err != nil {
		return nil, err
	}
	if err := reg.Register(strategy.NewVolume(), 1.0); err != nil {
		return nil, err
	}
	for _, sc := range cfg.Engine.Strategies {
		if err := reg.Configure(sc.Name, sc.Enabled, sc.Weight); err != nil {
			return nil, fmt.Errorf("engine.strategies[%s]: %w", sc.Name, err)
		}
	}
	return reg, nil
}

// ProvideLedger creates the in-memory position ledger.
func ProvideLedger() *paper.Ledger {
	return paper.NewLedger()
}

// ProvideTrader creates the paper trader.
func ProvideTrader(ledger *paper.Ledger, log *applogger.Logger) *paper.Trader {
	return paper.NewTrader(ledger, log)
}

// ProvideRiskGuard creates the daily-drawdown guard.
func ProvideRiskGuard(cfg *config.Config, log *applogger.Logger) (*paper.RiskGuard, error) {
	raw := cfg.Engine.StartingCapital
	if raw == "" {
		raw = "10000"
	}
	capital, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("engine.starting_capital: %w", err)
	}
	if capital.Sign() <= 0 {
		return nil, fmt.Errorf("engine.starting_capital must be positive, got %s", raw)
	}
	return paper.NewRiskGuard(capital, log), nil
}

// ProvideEvaluator creates the fan-out strategy evaluator.
func ProvideEvaluator(log *applogger.Logger) *engine.Evaluator {
	return engine.NewEvaluator(log)
}

// ProvideAggregator creates the vote aggregator.
func ProvideAggregator() *engine.Aggregator {
	return engine.NewAggregator()
}

// ProvideTraceRouter routes telemetry to the configured backend.
func ProvideTraceRouter(pub domrepo.Publisher, store domrepo.TraceStore, m domrepo.Metrics, cfg *config.Config) *usecase.TraceRouter {
	return usecase.NewTraceRouter(pub, store, m, cfg.Backend.Type)
}

// ProvideCycleConfig builds the per-cycle engine settings.
func ProvideCycleConfig(cfg *config.Config) (usecase.CycleConfig, error) {
	feeRate := paper.DefaultFeeRate
	if cfg.Engine.FeeRate != "" {
		f, err := decimal.NewFromString(cfg.Engine.FeeRate)
		if err != nil {
			return usecase.CycleConfig{}, fmt.Errorf("engine.fee_rate: %w", err)
		}
		feeRate = f
	}
	return usecase.CycleConfig{
		Policy:    models.Policy(cfg.Engine.Policy),
		Threshold: cfg.Engine.ConfidenceThreshold,
		FeeRate:   feeRate,
	}, nil
}

// ProvideCycleRunner creates the evaluation cycle runner.
func ProvideCycleRunner(
	reg *strategy.Registry,
	ev *engine.Evaluator,
	agg *engine.Aggregator,
	builder *usecase.ContextBuilder,
	ledger *paper.Ledger,
	trader *paper.Trader,
	risk *paper.RiskGuard,
	router *usecase.TraceRouter,
	notifier domrepo.Notifier,
	m domrepo.Metrics,
	log *applogger.Logger,
) *usecase.CycleRunner {
	return usecase.NewCycleRunner(reg, ev, agg, builder, ledger, trader, risk, router, notifier, m, log)
}

// ProvideNewsClient polls the news feed into the context builder.
func ProvideNewsClient(cfg *config.Config, builder *usecase.ContextBuilder, symbols []string, log *applogger.Logger) *news.Client {
	if !cfg.News.Enabled || cfg.News.BaseURL == "" {
		return nil
	}
	interval := cfg.News.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	return news.New(cfg.News.BaseURL, cfg.News.APIKey, symbols, interval, builder, log)
}

// ProvideApp creates the application server and its HTTP handler.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	runner *usecase.CycleRunner,
	router *usecase.TraceRouter,
	cycleCfg usecase.CycleConfig,
	symbols []string,
	consumer *pkgkafka.Consumer,
	ingest *usecase.TraceIngestHandler,
	chClient *pkgch.Client,
	newsClient *news.Client,
	alerts *queue.RedisQueue,
	store domrepo.TraceStore,
	ledger *paper.Ledger,
	risk *paper.RiskGuard,
	stream domrepo.MarketStream,
	bytesCache icache.BytesCache,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, log, collector, runner, router, cycleCfg, symbols, consumer, ingest, chClient, newsClient, alerts)
	app.SetHTTPHandler(api.NewDashboardHandler(log, store, ledger, risk, stream, app, bytesCache))
	return app
}

func splitAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, err
	}
	return host, port, nil
}
