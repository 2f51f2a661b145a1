package usecase

import (
	"context"

	"TradeForge/internal/domain/models"
	drepo "TradeForge/internal/domain/repository"
	mid "TradeForge/internal/middleware"
)

// TickCollector consumes the market stream and feeds ticks through the
// pipeline into the context builder.
type TickCollector struct {
	stream  drepo.MarketStream
	builder *ContextBuilder
	metrics drepo.Metrics
	pipe    *mid.TickPipeline
}

func NewTickCollector(stream drepo.MarketStream, builder *ContextBuilder, metrics drepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{stream: stream, builder: builder, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.builder.Process(ctx, t)
			}
			c.metrics.RecordLastPrice(t.Symbol, t.Price)
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *TickCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
