package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/logger"
)

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) publishResult
}

// PubSubPublisher sends order events to a Pub/Sub topic.
type PubSubPublisher struct {
	publisher messagePublisher
	logg      *logger.Logger
	now       func() time.Time
}

// NewPubSubPublisher wraps a topic publisher.
func NewPubSubPublisher(p *gcppubsub.Publisher, logg *logger.Logger) (*PubSubPublisher, error) {
	if p == nil {
		return nil, errors.New("pubsub publisher required")
	}
	return newPubSubPublisher(&gcpPublisher{Publisher: p}, logg), nil
}

func newPubSubPublisher(p messagePublisher, logg *logger.Logger) *PubSubPublisher {
	return &PubSubPublisher{publisher: p, logg: logg, now: time.Now}
}

func (p *PubSubPublisher) PublishPlaced(ctx context.Context, order *models.Order) error {
	event := NewPlacedEvent(order, p.now())
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":   event.EventID,
			"event_type": event.EventType,
			"order_id":   event.OrderID.String(),
		},
	}
	serverID, err := p.publisher.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return fmt.Errorf("publish order event: %w", err)
	}

	ctx = p.logg.WithFields(ctx, map[string]any{
		"order_id":   event.OrderID.String(),
		"message_id": serverID,
	})
	p.logg.Info(ctx, "order event published")
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.Publisher.Publish(ctx, msg)
}

// LogPublisher records order events in the log only. It stands in when
// Pub/Sub is not configured.
type LogPublisher struct {
	logg *logger.Logger
}

func NewLogPublisher(logg *logger.Logger) *LogPublisher {
	return &LogPublisher{logg: logg}
}

func (p *LogPublisher) PublishPlaced(ctx context.Context, order *models.Order) error {
	ctx = p.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"event_type": EventOrderPlaced,
		"total":      order.TotalPrice.String(),
		"items":      len(order.Items),
	})
	p.logg.Info(ctx, "order event recorded")
	return nil
}
