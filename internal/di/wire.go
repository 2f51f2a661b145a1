//go:build wireinject
// +build wireinject

package di

import (
	"TradeForge/pkg/config"
	"TradeForge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideSymbols,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisCache,
		ProvideBytesCache,

		// Repositories
		ProvideTraceStore,
		ProvideTracePublisher,
		ProvideMarketStream,

		// Engine
		ProvideRegistry,
		ProvideEvaluator,
		ProvideAggregator,

		// Paper trading
		ProvideLedger,
		ProvideTrader,
		ProvideRiskGuard,

		// Use cases
		ProvideContextBuilder,
		ProvideTickCollector,
		ProvideTraceRouter,
		ProvideTraceIngestHandler,
		ProvideCycleConfig,
		ProvideCycleRunner,

		// Services
		ProvideNotifier,
		ProvideAlertWorker,
		ProvideNewsClient,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
