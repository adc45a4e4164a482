package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/fakturan-dev/catalog-service/internal/domain"
)

const (
	TypeProductCreated = "product.created"
	TypeProductUpdated = "product.updated"
	TypeProductDeleted = "product.deleted"
)

// ProductEvent is the envelope published for every catalog mutation.
// Product is omitted for deletions.
type ProductEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	ProductID int64           `json:"product_id"`
	Product   *domain.Product `json:"product,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewProductEvent(eventType string, productID int64, p *domain.Product) ProductEvent {
	return ProductEvent{
		EventID:   uuid.NewString(),
		Type:      eventType,
		ProductID: productID,
		Product:   p,
		Timestamp: time.Now().UTC(),
	}
}

type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers []string, topic string, logger *zap.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{
		writer: writer,
		logger: logger,
	}
}

func (p *Producer) Publish(event ProductEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.EventID),
		Value: eventBytes,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			zap.String("event_id", event.EventID),
			zap.String("type", event.Type),
			zap.Error(err))
		return err
	}

	p.logger.Info("Event published",
		zap.String("event_id", event.EventID),
		zap.String("type", event.Type),
		zap.Int64("product_id", event.ProductID))

	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
