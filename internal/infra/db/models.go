package db

import "time"

type AuditEventModel struct {
	ID            string `gorm:"type:varchar(36);primaryKey"`
	Seq           int64  `gorm:"uniqueIndex;not null"`
	EventType     string `gorm:"column:event_type;not null"`
	PayloadJSON   string `gorm:"type:text;not null"`
	PayloadHash   string `gorm:"not null"`
	ActorType     string `gorm:"not null"`
	ActorIDHash   *string
	TargetType    string `gorm:"not null"`
	TargetID      *string
	Result        string `gorm:"not null"`
	ErrorCode     *string
	PrevEventHash string    `gorm:"not null"`
	EventHash     string    `gorm:"not null"`
	CreatedAt     time.Time `gorm:"column:created_at;not null"`
}

func (AuditEventModel) TableName() string {
	return "audit_events"
}
