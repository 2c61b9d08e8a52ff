package models

import "gorm.io/gorm"

const (
	RoleStaff   = "Staff"
	RoleManager = "Manager"
	RoleAdmin   = "Admin"
)

var Departments = []string{
	"Digital Marketing",
	"Web Development",
	"Graphic Designing",
	"Social Media",
}

type User struct {
	gorm.Model

	FullName     string `gorm:"not null"`
	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PhoneNumber  string
	Position     string
	Department   string
	Role         string `gorm:"not null;default:Staff"`
	Avatar       string
	PasswordHash string `gorm:"not null"`
	IsActive     bool   `gorm:"default:true"`

	// Relationships
	Tasks         []Task          `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTasks []Task          `gorm:"foreignKey:AssignedByID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Notifications []Notification  `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}

func (u *User) IsReviewer() bool {
	return u.Role == RoleManager || u.Role == RoleAdmin
}
