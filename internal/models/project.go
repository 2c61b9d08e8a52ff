package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	ProjectStatusPending   = "pending"
	ProjectStatusApproved  = "approved"
	ProjectStatusCompleted = "completed"
)

type Project struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Department  string
	ClientName  string
	DueDate     time.Time `gorm:"not null"`
	StartDate   time.Time `gorm:"not null"`
	Status      string    `gorm:"not null;default:pending;index"`
	Priority    string    `gorm:"not null;default:medium"`
	TeamLeadID  uint      `gorm:"not null;index"`
	CreatedByID uint      `gorm:"not null;index"`

	// Relationships
	TeamLead  User            `gorm:"foreignKey:TeamLeadID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	CreatedBy User            `gorm:"foreignKey:CreatedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tickets   []Task          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Images    []ProjectImage  `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
