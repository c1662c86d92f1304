package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/moritea/storefront/internal/repo"
	"github.com/moritea/storefront/pkg/db/models"
)

// DBBackend stores payloads in the cart_slots table.
type DBBackend struct {
	base repo.Base
	now  func() time.Time
}

func NewDBBackend(db *gorm.DB) *DBBackend {
	return &DBBackend{base: repo.NewBase(db), now: time.Now}
}

func (b *DBBackend) Name() string { return "db" }

func (b *DBBackend) Get(ctx context.Context, key SlotKey) ([]byte, error) {
	var row models.CartSlot
	err := b.base.DB(ctx).
		Where("slot = ? AND session_id = ?", key.Slot, key.SessionID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSlotEmpty
	}
	if err != nil {
		return nil, err
	}
	return []byte(row.Payload), nil
}

func (b *DBBackend) Put(ctx context.Context, key SlotKey, payload []byte) error {
	row := models.CartSlot{
		Slot:      key.Slot,
		SessionID: key.SessionID,
		Payload:   string(payload),
		UpdatedAt: b.now().UTC(),
	}
	return b.base.DB(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}, {Name: "session_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}
