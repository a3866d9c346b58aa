package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/flowboard/flowboard/db"
	"github.com/flowboard/flowboard/internal/access"
	"github.com/flowboard/flowboard/internal/logger"
	"github.com/flowboard/flowboard/internal/models"
	"github.com/flowboard/flowboard/internal/services"
	"github.com/flowboard/flowboard/internal/types"
	"github.com/flowboard/flowboard/internal/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Visibility  string `json:"visibility" binding:"required,oneof=public private"`
}

// currentUser resolves the request identity to its local user record.
// Routes without a project scope treat a missing record the same as a
// missing identity.
func currentUser(ctx *gin.Context) (*models.User, error) {
	identity, err := utils.GetCurrentIdentity(ctx)

	if err != nil {
		return nil, err
	}

	return access.ResolveUser(identity)
}

func memberCount(projectID uint) (int64, error) {
	var count int64

	err := db.DB.Model(&models.ProjectMember{}).
		Where("project_id = ?", projectID).
		Count(&count).Error

	return count, err
}

func ListProjects(ctx *gin.Context) {
	user, err := currentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	skip, err := strconv.Atoi(ctx.DefaultQuery("skip", "0"))
	if err != nil || skip < 0 {
		skip = 0
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	membership := db.DB.Model(&models.ProjectMember{}).
		Select("1").
		Where("project_members.project_id = projects.id AND project_members.user_id = ?", user.ID)

	var projects []models.Project

	if err := db.DB.Model(&models.Project{}).
		Where("projects.owner_id = ? OR EXISTS (?)", user.ID, membership).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		Find(&projects).Error; err != nil {
		logger.Error("failed to list projects", "user_id", user.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := make([]ProjectView, 0, len(projects))

	for _, project := range projects {
		count, err := memberCount(project.ID)

		if err != nil {
			logger.Error("failed to count members", "project_id", project.ID, "error", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		response = append(response, newProjectView(project, count))
	}

	ctx.JSON(http.StatusOK, response)
}

func CreateProject(ctx *gin.Context) {
	user, err := currentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var body CreateProjectRequest

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation error", "details": err.Error()})
		return
	}

	project := models.Project{
		Name:        body.Name,
		Description: body.Description,
		Visibility:  strings.ToUpper(body.Visibility),
		IsActive:    true,
		OwnerID:     user.ID,
	}

	// Project and the creator's OWNER membership commit together.
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}

		member := models.ProjectMember{
			UserID:    user.ID,
			ProjectID: project.ID,
			Role:      types.RoleOwner,
		}

		return tx.Create(&member).Error
	})

	if err != nil {
		logger.Error("failed to create project", "user_id", user.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	// Seeding runs after the commit; if it fails the project is left
	// without columns and the caller sees a 500.
	if _, err := services.CreateDefaultPipelines(project.ID); err != nil {
		logger.Error("failed to seed default pipelines", "project_id", project.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, newProjectView(project, 1))
}
