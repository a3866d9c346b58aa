package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/logger"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Points      *int   `json:"points" binding:"omitempty,min=0,max=100"`
	PipelineID  *uint  `json:"pipelineId"`
	AssigneeID  *uint  `json:"assigneeId"`
}

func taskWithRefs(query *gorm.DB) *gorm.DB {
	return query.Preload("Assignee").Preload("Pipeline")
}

// validatePipelineRef confirms the referenced pipeline is active and lives
// in the same project. Cross-project and archived references are rejected.
func validatePipelineRef(projectID, pipelineID uint) (bool, error) {
	var pipeline models.Pipeline

	err := db.DB.Where("id = ? AND project_id = ? AND is_active = ?", pipelineID, projectID, true).
		First(&pipeline).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func ListTasks(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, false)

	if !ok {
		return
	}

	var tasks []models.Task

	if err := taskWithRefs(db.DB).
		Where("project_id = ?", project.ID).
		Order("created_at ASC").
		Find(&tasks).Error; err != nil {
		logger.Error("failed to list tasks", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]TaskView, 0, len(tasks))

	for _, task := range tasks {
		views = append(views, newTaskView(task))
	}

	ctx.JSON(http.StatusOK, gin.H{"tasks": views})
}

func CreateTask(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, false)

	if !ok {
		return
	}

	var body CreateTaskRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.PipelineID != nil {
		valid, err := validatePipelineRef(project.ID, *body.PipelineID)

		if err != nil {
			logger.Error("failed to validate pipeline reference", "project_id", project.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		if !valid {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pipeline"})
			return
		}
	}

	task := models.Task{
		Title:       body.Title,
		Description: body.Description,
		Points:      body.Points,
		ProjectID:   project.ID,
		PipelineID:  body.PipelineID,
		AssigneeID:  body.AssigneeID,
	}

	if err := db.DB.Create(&task).Error; err != nil {
		logger.Error("failed to create task", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := taskWithRefs(db.DB).First(&task, task.ID).Error; err != nil {
		logger.Error("failed to reload task", "task_id", task.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"task": newTaskView(task)})
}

// UpdateTask applies only the fields present in the request body. The
// body is decoded as raw JSON so an explicit null (clear the field) can
// be told apart from an absent key.
func UpdateTask(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, true)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body map[string]json.RawMessage

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND project_id = ?", taskID, project.ID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			logger.Error("failed to fetch task", "task_id", taskID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	updates := make(map[string]interface{})

	if raw, ok := body["title"]; ok {
		var title string
		if err := json.Unmarshal(raw, &title); err != nil || title == "" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid title"})
			return
		}
		updates["title"] = title
	}

	if raw, ok := body["description"]; ok {
		var description string
		if string(raw) != "null" {
			if err := json.Unmarshal(raw, &description); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid description"})
				return
			}
		}
		updates["description"] = description
	}

	if raw, ok := body["points"]; ok {
		if string(raw) == "null" {
			updates["points"] = nil
		} else {
			var points int
			if err := json.Unmarshal(raw, &points); err != nil || points < 0 || points > 100 {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Points must be between 0 and 100"})
				return
			}
			updates["points"] = points
		}
	}

	if raw, ok := body["pipelineId"]; ok {
		if string(raw) == "null" {
			updates["pipeline_id"] = nil
		} else {
			var pipelineID uint
			if err := json.Unmarshal(raw, &pipelineID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pipeline"})
				return
			}

			valid, err := validatePipelineRef(project.ID, pipelineID)

			if err != nil {
				logger.Error("failed to validate pipeline reference", "project_id", project.ID, "error", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			if !valid {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pipeline"})
				return
			}

			updates["pipeline_id"] = pipelineID
		}
	}

	if raw, ok := body["assigneeId"]; ok {
		if string(raw) == "null" {
			updates["assignee_id"] = nil
		} else {
			var assigneeID uint
			if err := json.Unmarshal(raw, &assigneeID); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assignee"})
				return
			}
			updates["assignee_id"] = assigneeID
		}
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&task).Updates(updates).Error; err != nil {
			logger.Error("failed to update task", "task_id", task.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err := taskWithRefs(db.DB).First(&task, task.ID).Error; err != nil {
		logger.Error("failed to reload task", "task_id", task.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"task": newTaskView(task)})
}

// DeleteTask removes the row outright; tasks have no inactive state to
// keep around.
func DeleteTask(ctx *gin.Context) {
	_, project, ok := requireProjectAccess(ctx, true)

	if !ok {
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var task models.Task

	if err := db.DB.Where("id = ? AND project_id = ?", taskID, project.ID).
		First(&task).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			logger.Error("failed to fetch task", "task_id", taskID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := db.DB.Unscoped().Delete(&task).Error; err != nil {
		logger.Error("failed to delete task", "task_id", task.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	BroadcastBoardUpdate(project.ID)
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}
