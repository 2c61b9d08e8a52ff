package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskHistory rows are append-only: one row per status change, never
// updated afterwards. They disappear only through the Task cascade.
type TaskHistory struct {
	gorm.Model

	TaskID      uint   `gorm:"not null;index"`
	Status      string `gorm:"not null"`
	ChangedByID uint   `gorm:"not null;index"`
	Notes       string
	Detail      datatypes.JSON `gorm:"type:jsonb"` // from/to status, rejection reason

	// Relationships
	Task      Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	ChangedBy User `gorm:"foreignKey:ChangedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
