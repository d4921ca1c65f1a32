package content

import (
	"time"

	"gorm.io/datatypes"
)

// AuditEntry records one lifecycle transition. Entries outlive the record
// so deletions stay traceable.
type AuditEntry struct {
	ID         string            `gorm:"column:id;primaryKey" json:"id"`
	RecordID   string            `gorm:"column:record_id;index;not null" json:"record_id"`
	Kind       Kind              `gorm:"column:kind" json:"kind"`
	Action     Action            `gorm:"column:action;not null" json:"action"`
	ActorID    string            `gorm:"column:actor_id" json:"actor_id,omitempty"`
	ActorTier  string            `gorm:"column:actor_tier" json:"actor_tier"`
	FromStatus Status            `gorm:"column:from_status" json:"from_status,omitempty"`
	ToStatus   Status            `gorm:"column:to_status" json:"to_status,omitempty"`
	Reason     string            `gorm:"column:reason" json:"reason,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at" json:"created_at"`
}

func (AuditEntry) TableName() string { return "content_audit_entries" }
