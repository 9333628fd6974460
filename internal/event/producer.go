// Package event publishes cart domain events to Kafka.
package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/electroshop/internal/domain"
	pkgkafka "github.com/utafrali/electroshop/pkg/kafka"
)

// Event type constants for cart domain events.
const (
	TypeCartUpdated = "cart.updated"
	TypeCartCleared = "cart.cleared"
)

// DefaultTopic receives every cart event unless configured otherwise.
const DefaultTopic = "electroshop.cart.events"

// AggregateTypeCart is the aggregate type of cart events.
const AggregateTypeCart = "cart"

// SourceStorefront identifies events originating from the storefront server.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID  string         `json:"session_id"`
	Items      []CartItemData `json:"items"`
	ItemCount  int            `json:"item_count"`
	TotalPrice float64        `json:"total_price"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size,omitempty"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// EventPublisher writes an envelope to a topic. *pkgkafka.Producer implements it.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes cart domain events. It satisfies cart.Publisher.
type Producer struct {
	kafka  EventPublisher
	topic  string
	logger *slog.Logger
}

// NewProducer creates a cart event producer writing to topic.
func NewProducer(kafka EventPublisher, topic string, logger *slog.Logger) *Producer {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Producer{
		kafka:  kafka,
		topic:  topic,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, snap domain.CartSnapshot) error {
	items := make([]CartItemData, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = CartItemData{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Qty,
			Size:      item.Size,
		}
	}

	data := CartUpdatedData{
		SessionID:  snap.SessionID,
		Items:      items,
		ItemCount:  snap.ItemCount,
		TotalPrice: snap.TotalPrice,
	}

	if err := p.publish(ctx, TypeCartUpdated, snap.SessionID, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", snap.SessionID),
		slog.Int("item_count", snap.ItemCount),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	if err := p.publish(ctx, TypeCartCleared, sessionID, CartClearedData{SessionID: sessionID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event", slog.String("session_id", sessionID))
	return nil
}

func (p *Producer) publish(ctx context.Context, eventType, sessionID string, data any) error {
	event, err := pkgkafka.NewEvent(eventType, sessionID, AggregateTypeCart, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}

	if err := p.kafka.Publish(ctx, p.topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", eventType, err)
	}
	return nil
}
