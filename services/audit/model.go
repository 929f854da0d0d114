package audit

import (
	"time"

	"gorm.io/datatypes"
)

// Log is an append-only record of a state-changing operation. Rows are never
// updated or deleted.
type Log struct {
	ID        string         `gorm:"column:id;primaryKey"`
	ActorID   string         `gorm:"column:actor_id;index"`
	ActorRole string         `gorm:"column:actor_role"`
	Action    string         `gorm:"column:action;index"`
	Subject   string         `gorm:"column:subject;index"`
	Detail    datatypes.JSON `gorm:"column:detail"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (Log) TableName() string {
	return "audit_logs"
}
