package usecase

import (
	"context"
	"fmt"
	"time"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
)

// TraceRouter sends each cycle's telemetry to the configured backend: the
// trace store directly, or Kafka for the ingest consumer to persist. The
// trace and its trade record travel together so the store always sees the
// decision before the trade that references it, in both modes.
type TraceRouter struct {
	pub     drepo.Publisher
	store   drepo.TraceStore
	metrics drepo.Metrics
	backend string
}

func NewTraceRouter(pub drepo.Publisher, store drepo.TraceStore, metrics drepo.Metrics, backend string) *TraceRouter {
	return &TraceRouter{pub: pub, store: store, metrics: metrics, backend: backend}
}

// Record persists one cycle's decision trace plus its trade record, if the
// cycle executed one. Referential-integrity rejections from the store
// propagate to the caller untouched.
func (r *TraceRouter) Record(ctx context.Context, tr *models.DecisionTrace, rec *models.TradeRecord) error {
	if tr == nil {
		return fmt.Errorf("trace is nil")
	}
	start := time.Now()
	var err error

	switch r.backend {
	case "kafka":
		tr.Trade = rec
		err = r.pub.Publish(ctx, tr)
	case "clickhouse", "memory":
		err = r.appendBoth(ctx, tr, rec)
	default:
		err = fmt.Errorf("unknown telemetry backend: %s", r.backend)
	}

	if err != nil {
		r.metrics.RecordError("trace_record")
		return err
	}
	r.metrics.RecordLatency("trace_record", time.Since(start).Seconds())
	return nil
}

// Close releases the publisher and the store.
func (r *TraceRouter) Close() {
	if r.pub != nil {
		_ = r.pub.Close()
	}
	if r.store != nil {
		_ = r.store.Close()
	}
}

func (r *TraceRouter) appendBoth(ctx context.Context, tr *models.DecisionTrace, rec *models.TradeRecord) error {
	if err := r.store.AppendTrace(ctx, tr); err != nil {
		return fmt.Errorf("append trace: %w", err)
	}
	if rec == nil {
		return nil
	}
	return r.store.AppendTrade(ctx, rec)
}
