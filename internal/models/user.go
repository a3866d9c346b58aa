package models

import (
	"time"

	"gorm.io/gorm"
)

// User is the local record for an externally-authenticated identity.
// ExternalID is the subject id the identity provider reports; sync keeps
// the rest of the row fresh on every login.
type User struct {
	gorm.Model

	ExternalID string `gorm:"uniqueIndex;not null"`
	Email      string `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"uniqueIndex;not null"`
	FullName   string
	AvatarURL  string
	IsActive   bool `gorm:"default:true"`
	IsVerified bool
	LastLogin  *time.Time

	// Relationships
	OwnedProjects []Project       `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	AssignedTasks []Task          `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
