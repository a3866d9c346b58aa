package models

import "gorm.io/gorm"

// Pipeline is a board column. Deleting one only flips IsActive so tasks
// keep their references.
type Pipeline struct {
	gorm.Model

	Name        string `gorm:"not null"`
	Description string
	Position    int  `gorm:"not null"`
	IsActive    bool `gorm:"default:true"`
	ProjectID   uint `gorm:"not null;index"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnUpdate:Cascade,OnDelete:CASCADE"`
	Tasks   []Task  `gorm:"foreignKey:PipelineID;constraint:OnUpdate:Cascade,OnDelete:SET NULL"`
}
