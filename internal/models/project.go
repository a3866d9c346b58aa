package models

import "gorm.io/gorm"

type Project struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string
	Visibility  string `gorm:"not null;default:PRIVATE"` // "PUBLIC" or "PRIVATE"
	IsActive    bool   `gorm:"default:true"`
	IsDefault   bool
	OwnerID     uint `gorm:"not null;index"`

	GithubRepoID    string
	GithubRepoName  string
	GithubRepoOwner string

	// Relationships
	Owner     User            `gorm:"foreignKey:OwnerID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Members   []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Pipelines []Pipeline      `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks     []Task          `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
}
