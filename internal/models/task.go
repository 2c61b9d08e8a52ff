package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	StatusPending  = "pending"
	StatusInReview = "in_review"
	StatusApproved = "approved"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInReview, StatusApproved:
		return true
	}
	return false
}

func ValidPriority(priority string) bool {
	switch priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	gorm.Model

	Title        string `gorm:"not null"`
	Description  string
	DueDate      time.Time `gorm:"not null;index"`
	StartDate    *time.Time
	Priority     string `gorm:"not null;default:medium"`
	Status       string `gorm:"not null;default:pending;index"`
	IsTicket     bool   `gorm:"not null;default:false;index"`
	UserID       uint   `gorm:"not null;index"` // Assignee
	AssignedByID uint   `gorm:"not null;index"` // Creator
	ProjectID    *uint  `gorm:"index"`          // Required when IsTicket is true
	ReviewDate   *time.Time
	ApprovedDate *time.Time

	// Relationships
	User       User          `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedBy User          `gorm:"foreignKey:AssignedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Project    *Project      `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Images     []TaskImage   `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	History    []TaskHistory `gorm:"foreignKey:TaskID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
