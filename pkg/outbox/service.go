package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/moritea/storefront/pkg/db"
	"github.com/moritea/storefront/pkg/db/models"
	"github.com/moritea/storefront/pkg/logger"
)

const uniqueEventConstraint = "ux_outbox_events_event_aggregate"

type DomainEvent struct {
	EventID       string
	EventType     string
	AggregateType string
	AggregateID   uuid.UUID
	Data          any
	Version       int
	OccurredAt    time.Time
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues event inside tx. An event already queued for the same type and
// aggregate is ignored.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errTxRequired
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return err
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Version <= 0 {
		event.Version = 1
	}
	envelope := PayloadEnvelope{
		Version:    event.Version,
		EventID:    event.EventID,
		OccurredAt: event.OccurredAt,
		Data:       payload,
	}
	payloadJSON, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := &models.OutboxEvent{
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       json.RawMessage(payloadJSON),
	}

	// The savepoint keeps a duplicate from aborting the caller's transaction.
	err = tx.SavePoint("outbox_emit").Error
	if err == nil {
		if err = s.repo.Insert(tx, row); err != nil {
			if rbErr := tx.RollbackTo("outbox_emit").Error; rbErr != nil {
				return errors.Join(err, rbErr)
			}
		}
	}
	if err != nil {
		if dbpkg.IsUniqueViolation(err, uniqueEventConstraint) || dbpkg.IsUniqueViolation(err, "outbox_events.event_type") {
			return nil
		}
		return err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"event_id":       envelope.EventID,
		"event_type":     event.EventType,
		"aggregate_id":   event.AggregateID.String(),
		"aggregate_type": event.AggregateType,
	}), "outbox event queued")
	return nil
}
