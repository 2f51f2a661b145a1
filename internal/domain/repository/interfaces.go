package repository

import (
	"context"
	"errors"
	"time"

	"TradeForge/internal/domain/models"
)

// ErrNotFound is returned by read accessors when nothing matches.
var ErrNotFound = errors.New("not found")

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher streams decision traces to a broker for downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, tr *models.DecisionTrace) error
	Close() error
}

// TraceStore is the single owner of the decision-trace stream and the trade
// ledger records. Writes are append-only; a trade whose DecisionID does not
// resolve is rejected with ReferentialIntegrityError.
type TraceStore interface {
	Init(ctx context.Context) error
	AppendTrace(ctx context.Context, tr *models.DecisionTrace) error
	AppendTrade(ctx context.Context, rec *models.TradeRecord) error

	LatestDecision(ctx context.Context, symbol string) (*models.DecisionTrace, error)
	History(ctx context.Context, symbol string, from, to time.Time, limit int) ([]models.DecisionTrace, error)
	Trades(ctx context.Context, symbol string, limit int) ([]models.TradeRecord, error)
	StrategyStats(ctx context.Context, lookback time.Duration) (map[string]models.StrategyStats, error)
	Agreement(ctx context.Context, lookback time.Duration) (models.AgreementMatrix, error)

	Health(ctx context.Context) error
	Close() error
}

// Notifier delivers trade alerts to an external channel. Implementations must
// not block the trading cycle on delivery.
type Notifier interface {
	NotifyTrade(ctx context.Context, rec *models.TradeRecord) error
}

type Metrics interface {
	RecordDecision(symbol, direction, policy string)
	RecordTrade(symbol, action string)
	RecordError(kind string)
	RecordConfidence(symbol string, confidence float64)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
