package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TradeForge/internal/domain/models"
	domrepo "TradeForge/internal/domain/repository"
	pkgkafka "TradeForge/pkg/kafka"
)

// TraceIngestHandler consumes decision traces from Kafka and persists them.
// It runs when the telemetry backend is "kafka": the trading process
// publishes, this consumer owns the ClickHouse writes.
type TraceIngestHandler struct {
	topic   string
	store   domrepo.TraceStore
	metrics domrepo.Metrics
}

func NewTraceIngestHandler(topic string, store domrepo.TraceStore, metrics domrepo.Metrics) *TraceIngestHandler {
	return &TraceIngestHandler{topic: topic, store: store, metrics: metrics}
}

func (h *TraceIngestHandler) Topic() string { return h.topic }

func (h *TraceIngestHandler) Handle(ctx context.Context, b []byte) error {
	var tr models.DecisionTrace
	if err := json.Unmarshal(b, &tr); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}

	// E2E latency from decision time to persistence (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(tr.Decision.ComputedAt).Seconds())

	rec := tr.Trade
	tr.Trade = nil

	start := time.Now()
	if err := h.store.AppendTrace(ctx, &tr); err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	if rec != nil {
		if err := h.store.AppendTrade(ctx, rec); err != nil {
			h.metrics.RecordError("consumer_store")
			return err
		}
	}
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	return nil
}

var _ pkgkafka.MessageHandler = (*TraceIngestHandler)(nil)
