package models

import (
	"time"
)

// AuditLog records who did what to which billing entity. Actor is the
// authenticated identity string supplied by the caller (JWT subject); user
// accounts themselves are managed outside this service.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:255;not null;index" json:"actor"`
	Action    string    `gorm:"size:50;not null" json:"action"` // CREATE, UPDATE, DELETE, SEND, CANCEL
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Invoice, Receipt, Payment
	EntityID  uint      `json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
