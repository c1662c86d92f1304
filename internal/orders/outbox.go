package orders

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/outbox"
)

// AggregateOrder is the outbox aggregate type for order events.
const AggregateOrder = "order"

type emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OutboxQueue stores order events in the transactional outbox so they
// commit together with the order row.
type OutboxQueue struct {
	outbox emitter
	now    func() time.Time
}

func NewOutboxQueue(svc *outbox.Service) *OutboxQueue {
	return &OutboxQueue{outbox: svc, now: time.Now}
}

func (q *OutboxQueue) QueuePlaced(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	event := NewPlacedEvent(order, q.now())
	return q.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventID:       event.EventID,
		EventType:     event.EventType,
		AggregateType: AggregateOrder,
		AggregateID:   order.ID,
		Data:          event,
		Version:       1,
		OccurredAt:    event.OccurredAt,
	})
}
