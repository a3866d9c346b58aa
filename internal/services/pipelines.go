package services

import (
	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/models"
)

var defaultPipelines = []models.Pipeline{
	{Name: "To Do", Description: "Tasks that need to be done", Position: 0},
	{Name: "In Progress", Description: "Tasks currently being worked on", Position: 1},
	{Name: "Done", Description: "Completed tasks", Position: 2},
}

// CreateDefaultPipelines seeds the three standard columns for a new
// project. Runs after the project row is committed, not inside that
// transaction; a failure here leaves the project without columns and the
// caller reports it as an internal error.
func CreateDefaultPipelines(projectID uint) ([]models.Pipeline, error) {
	pipelines := make([]models.Pipeline, 0, len(defaultPipelines))

	for _, p := range defaultPipelines {
		pipeline := models.Pipeline{
			Name:        p.Name,
			Description: p.Description,
			Position:    p.Position,
			IsActive:    true,
			ProjectID:   projectID,
		}

		if err := db.DB.Create(&pipeline).Error; err != nil {
			return nil, err
		}

		pipelines = append(pipelines, pipeline)
	}

	return pipelines, nil
}
