package models

import "gorm.io/gorm"

type TaskImage struct {
	gorm.Model

	TaskID uint   `gorm:"not null;index"`
	URL    string `gorm:"not null"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
