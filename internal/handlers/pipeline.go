package handlers

import (
	"errors"
	"net/http"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/access"
	"github.com/flowboard/flowboard/internal/logger"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreatePipelineRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdatePipelineRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Position    *int    `json:"position"`
	IsActive    *bool   `json:"isActive"`
}

// requireProjectAccess parses the project id, resolves the caller and runs
// the access check, writing the error response itself on failure. A
// project the caller may not see reads as 404, same as one that does not
// exist.
func requireProjectAccess(ctx *gin.Context, requireAdmin bool) (*models.User, *models.Project, bool) {
	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, false
	}

	identity, err := utils.GetCurrentIdentity(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, nil, false
	}

	user, project, err := access.CheckProjectAccess(projectID, identity, requireAdmin)

	if err != nil {
		switch {
		case errors.Is(err, access.ErrUserNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, access.ErrProjectNotFound):
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		default:
			logger.Error("project access check failed", "project_id", projectID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return nil, nil, false
	}

	return user, project, true
}

func pipelineWithTasks(query *gorm.DB) *gorm.DB {
	return query.
		Preload("Tasks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("tasks.created_at ASC")
		}).
		Preload("Tasks.Assignee")
}

func ListPipelines(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, false)

	if !ok {
		return
	}

	var pipelines []models.Pipeline

	if err := pipelineWithTasks(db.DB).
		Where("project_id = ? AND is_active = ?", project.ID, true).
		Order("position ASC").
		Find(&pipelines).Error; err != nil {
		logger.Error("failed to list pipelines", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]PipelineView, 0, len(pipelines))

	for _, pipeline := range pipelines {
		views = append(views, newPipelineView(pipeline))
	}

	ctx.JSON(http.StatusOK, gin.H{"pipelines": views})
}

// GetPipeline returns the pipeline regardless of IsActive so an archived
// column can still be opened by id; only the list endpoint filters.
func GetPipeline(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, false)

	if !ok {
		return
	}

	pipelineID, err := utils.GetPipelineID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pipeline models.Pipeline

	if err := pipelineWithTasks(db.DB).
		Where("id = ? AND project_id = ?", pipelineID, project.ID).
		First(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Pipeline not found"})
		} else {
			logger.Error("failed to fetch pipeline", "pipeline_id", pipelineID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"pipeline": newPipelineView(pipeline)})
}

func CreatePipeline(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, true)

	if !ok {
		return
	}

	var body CreatePipelineRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	// Next position is max existing + 1. Inactive pipelines still count so
	// a revived column cannot collide with a later one.
	position := 0

	var last models.Pipeline

	err := db.DB.Where("project_id = ?", project.ID).
		Order("position DESC").
		First(&last).Error

	if err == nil {
		position = last.Position
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("failed to read pipeline positions", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	pipeline := models.Pipeline{
		Name:        body.Name,
		Description: body.Description,
		Position:    position + 1,
		IsActive:    true,
		ProjectID:   project.ID,
	}

	if err := db.DB.Create(&pipeline).Error; err != nil {
		logger.Error("failed to create pipeline", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"pipeline": newPipelineView(pipeline)})
}

func UpdatePipeline(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, true)

	if !ok {
		return
	}

	pipelineID, err := utils.GetPipelineID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body UpdatePipelineRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var pipeline models.Pipeline

	if err := db.DB.Where("id = ? AND project_id = ?", pipelineID, project.ID).
		First(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Pipeline not found"})
		} else {
			logger.Error("failed to fetch pipeline", "pipeline_id", pipelineID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	updates := make(map[string]interface{})

	if body.Name != nil && *body.Name != "" {
		updates["name"] = *body.Name
	}

	if body.Description != nil {
		updates["description"] = *body.Description
	}

	if body.Position != nil {
		updates["position"] = *body.Position
	}

	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&pipeline).Updates(updates).Error; err != nil {
			logger.Error("failed to update pipeline", "pipeline_id", pipeline.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := pipelineWithTasks(db.DB).First(&pipeline, pipeline.ID).Error; err != nil {
		logger.Error("failed to reload pipeline", "pipeline_id", pipeline.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"pipeline": newPipelineView(pipeline)})
}

// DeletePipeline flips IsActive instead of removing the row; tasks keep
// pointing at the inactive pipeline.
func DeletePipeline(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, true)

	if !ok {
		return
	}

	pipelineID, err := utils.GetPipelineID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pipeline models.Pipeline

	if err := db.DB.Where("id = ? AND project_id = ?", pipelineID, project.ID).
		First(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Pipeline not found"})
		} else {
			logger.Error("failed to fetch pipeline", "pipeline_id", pipelineID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Model(&pipeline).Update("is_active", false).Error; err != nil {
		logger.Error("failed to soft delete pipeline", "pipeline_id", pipeline.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
