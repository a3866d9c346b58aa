package models

import "gorm.io/gorm"

type Task struct {
	gorm.Model

	Title       string `gorm:"not null"`
	Description string
	Points      *int
	ProjectID   uint  `gorm:"not null;index"`
	PipelineID  *uint `gorm:"index"`
	AssigneeID  *uint `gorm:"index"`

	// Relationships
	Project  Project   `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Pipeline *Pipeline `gorm:"foreignKey:PipelineID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
	Assignee *User     `gorm:"foreignKey:AssigneeID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
