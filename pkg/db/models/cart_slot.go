package models

import "time"

// CartSlot holds the serialized cart of one session under a named slot.
type CartSlot struct {
	Slot      string    `gorm:"column:slot;primaryKey"`
	SessionID string    `gorm:"column:session_id;primaryKey"`
	Payload   string    `gorm:"column:payload;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (CartSlot) TableName() string { return "cart_slots" }
