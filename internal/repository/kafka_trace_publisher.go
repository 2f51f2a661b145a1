package repository

import (
	"context"

	"TradeForge/internal/domain/models"
	"TradeForge/internal/domain/repository"
	pkgkafka "TradeForge/pkg/kafka"
)

// KafkaTracePublisher streams decision traces to a Kafka topic, keyed by
// symbol so each symbol's traces stay ordered within a partition.
type KafkaTracePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaTracePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaTracePublisher{producer: producer, topic: topic}
}

func (p *KafkaTracePublisher) Publish(ctx context.Context, tr *models.DecisionTrace) error {
	return p.producer.Publish(ctx, p.topic, []byte(tr.Decision.Symbol), tr)
}

func (p *KafkaTracePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
