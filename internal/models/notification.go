package models

import "gorm.io/gorm"

const (
	NotificationTypeTask    = "task"
	NotificationTypeProject = "project"
)

// Notification rows are immutable apart from ReadStatus flips.
type Notification struct {
	gorm.Model

	UserID      uint   `gorm:"not null;index"` // Recipient
	Message     string `gorm:"not null"`
	ReadStatus  bool   `gorm:"not null;default:false"`
	Type        string `gorm:"not null"`
	ProjectID   *uint  `gorm:"index"`
	TaskID      *uint  `gorm:"index"`
	CreatedByID *uint  `gorm:"index"` // Actor who triggered it, null for system actions

	// Relationships
	User      User     `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project   *Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Task      *Task    `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	CreatedBy *User    `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
