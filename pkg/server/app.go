package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeForge/internal/service/news"
	"TradeForge/internal/usecase"
	pkgch "TradeForge/pkg/clickhouse"
	"TradeForge/pkg/config"
	xhttp "TradeForge/pkg/http"
	pkgkafka "TradeForge/pkg/kafka"
	applogger "TradeForge/pkg/logger"
	"TradeForge/pkg/queue"

	"github.com/google/uuid"
)

// App encapsulates the entire application lifecycle: market data collector,
// evaluation scheduler, trace ingest consumer, alert worker and HTTP server.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.TickCollector
	runner    *usecase.CycleRunner
	router    *usecase.TraceRouter
	cycleCfg  usecase.CycleConfig
	symbols   []string

	consumer *pkgkafka.Consumer
	ingest   pkgkafka.MessageHandler
	chClient *pkgch.Client
	news     *news.Client
	alerts   *queue.RedisQueue

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler

	runNow chan string
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	runner *usecase.CycleRunner,
	router *usecase.TraceRouter,
	cycleCfg usecase.CycleConfig,
	symbols []string,
	consumer *pkgkafka.Consumer,
	ingest pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	newsClient *news.Client,
	alerts *queue.RedisQueue,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		runner:    runner,
		router:    router,
		cycleCfg:  cycleCfg,
		symbols:   symbols,
		consumer:  consumer,
		ingest:    ingest,
		chClient:  chClient,
		news:      newsClient,
		alerts:    alerts,
		runNow:    make(chan string, 1),
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// TriggerRun requests an immediate evaluation cycle for one symbol, or for
// all configured symbols when symbol is empty. Returns false when a manual
// run is already pending.
func (a *App) TriggerRun(symbol string) bool {
	select {
	case a.runNow <- symbol:
		return true
	default:
		return false
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		}
	}()
	a.log.Info("collector started", applogger.Strings("symbols", a.symbols))

	if a.news != nil {
		a.news.Start(ctx)
		a.log.Info("news poller started")
	}

	if a.consumer != nil && a.ingest != nil {
		a.consumer.RegisterHandler(a.ingest)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.ingest.Topic()))
	}

	if a.alerts != nil {
		if err := a.alerts.Start(); err != nil {
			a.log.Warn("alert worker start error", applogger.Error(err))
		} else {
			a.log.Info("alert worker started")
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	go a.schedule(ctx)
	a.log.Info("scheduler started",
		applogger.String("policy", string(a.cycleCfg.Policy)),
		applogger.String("interval", a.cfg.Engine.CycleInterval.String()),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// schedule runs evaluation cycles on a fixed interval, plus manual runs.
// Cycles run on one goroutine so each commits fully before the next starts.
func (a *App) schedule(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Engine.CycleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runner.RunAll(ctx, a.symbols, a.cycleCfg)
		case sym := <-a.runNow:
			if sym == "" {
				a.runner.RunAll(ctx, a.symbols, a.cycleCfg)
				continue
			}
			if _, err := a.runner.RunCycle(ctx, uuid.NewString(), sym, a.cycleCfg); err != nil {
				a.log.Warn("manual cycle failed",
					applogger.String("symbol", sym), applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.alerts != nil {
		if err := a.alerts.Stop(shutdownCtx); err != nil {
			a.log.Warn("alert worker stop error", applogger.Error(err))
		}
	}

	if a.router != nil {
		a.router.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
