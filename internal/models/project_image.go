package models

import "gorm.io/gorm"

type ProjectImage struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;index"`
	URL       string `gorm:"not null"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
