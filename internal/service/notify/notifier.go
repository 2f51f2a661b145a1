package notify

import (
	"context"

	"TradeForge/internal/domain/models"
	"TradeForge/pkg/logger"
	"TradeForge/pkg/queue"
)

// MsgTradeExecuted is the queue message type for trade alerts.
const MsgTradeExecuted = "trade_executed"

// QueueNotifier pushes trade alerts onto the Redis queue so delivery never
// blocks the trading cycle.
type QueueNotifier struct {
	q queue.QueueService
}

func NewQueueNotifier(q queue.QueueService) *QueueNotifier {
	return &QueueNotifier{q: q}
}

func (n *QueueNotifier) NotifyTrade(ctx context.Context, rec *models.TradeRecord) error {
	return n.q.PublishMessage(ctx, MsgTradeExecuted, rec)
}

// NopNotifier drops alerts. Used when no queue backend is configured.
type NopNotifier struct{}

func (NopNotifier) NotifyTrade(context.Context, *models.TradeRecord) error { return nil }

// TradeAlertJob consumes trade alerts from the queue and writes them to the
// structured log. A chat or webhook sink would slot in here.
type TradeAlertJob struct {
	log *logger.Logger
}

func NewTradeAlertJob(log *logger.Logger) *TradeAlertJob {
	return &TradeAlertJob{log: log}
}

func (j *TradeAlertJob) Name() string { return "trade_alert" }

func (j *TradeAlertJob) Type() string { return MsgTradeExecuted }

func (j *TradeAlertJob) Handle(_ context.Context, payload interface{}) error {
	rec, err := queue.ParsePayload[models.TradeRecord](payload)
	if err != nil {
		return err
	}
	j.log.Info("trade alert",
		logger.String("symbol", rec.Symbol),
		logger.String("action", string(rec.Action)),
		logger.String("amount", rec.Amount.String()),
		logger.String("price", rec.Price.String()),
		logger.String("decision_id", rec.DecisionID),
		logger.Bool("closed", rec.Closed))
	return nil
}
