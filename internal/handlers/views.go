package handlers

import (
	"strings"
	"time"

	"github.com/flowboard/flowboard/internal/models"
)

// View types mirror the JSON contracts the web client consumes. Dates are
// RFC3339 strings, visibility is lower-cased on the way out.

type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl"`
}

type PipelineSummary struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type TaskView struct {
	ID          uint             `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Points      *int             `json:"points"`
	ProjectID   uint             `json:"projectId"`
	PipelineID  *uint            `json:"pipelineId"`
	AssigneeID  *uint            `json:"assigneeId"`
	CreatedAt   string           `json:"createdAt"`
	UpdatedAt   string           `json:"updatedAt"`
	Assignee    *UserSummary     `json:"assignee,omitempty"`
	Pipeline    *PipelineSummary `json:"pipeline,omitempty"`
}

type PipelineView struct {
	ID          uint       `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Position    int        `json:"position"`
	IsActive    bool       `json:"isActive"`
	ProjectID   uint       `json:"projectId"`
	CreatedAt   string     `json:"createdAt"`
	UpdatedAt   string     `json:"updatedAt"`
	Tasks       []TaskView `json:"tasks"`
}

type ProjectView struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Visibility      string `json:"visibility"`
	IsActive        bool   `json:"isActive"`
	IsDefault       bool   `json:"isDefault"`
	GithubRepoID    string `json:"githubRepoId"`
	GithubRepoName  string `json:"githubRepoName"`
	GithubRepoOwner string `json:"githubRepoOwner"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	MemberCount     int64  `json:"memberCount"`
}

type UserRecord struct {
	ID         uint    `json:"id"`
	Email      string  `json:"email"`
	Username   string  `json:"username"`
	FullName   string  `json:"fullName"`
	AvatarURL  string  `json:"avatarUrl"`
	IsActive   bool    `json:"isActive"`
	IsVerified bool    `json:"isVerified"`
	CreatedAt  string  `json:"createdAt"`
	UpdatedAt  string  `json:"updatedAt"`
	LastLogin  *string `json:"lastLogin"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func newUserSummary(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:        user.ID,
		Username:  user.Username,
		FullName:  user.FullName,
		AvatarURL: user.AvatarURL,
	}
}

func newTaskView(task models.Task) TaskView {
	view := TaskView{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Points:      task.Points,
		ProjectID:   task.ProjectID,
		PipelineID:  task.PipelineID,
		AssigneeID:  task.AssigneeID,
		CreatedAt:   formatTime(task.CreatedAt),
		UpdatedAt:   formatTime(task.UpdatedAt),
		Assignee:    newUserSummary(task.Assignee),
	}

	if task.Pipeline != nil {
		view.Pipeline = &PipelineSummary{ID: task.Pipeline.ID, Name: task.Pipeline.Name}
	}

	return view
}

func newPipelineView(pipeline models.Pipeline) PipelineView {
	tasks := make([]TaskView, 0, len(pipeline.Tasks))

	for _, task := range pipeline.Tasks {
		tasks = append(tasks, newTaskView(task))
	}

	return PipelineView{
		ID:          pipeline.ID,
		Name:        pipeline.Name,
		Description: pipeline.Description,
		Position:    pipeline.Position,
		IsActive:    pipeline.IsActive,
		ProjectID:   pipeline.ProjectID,
		CreatedAt:   formatTime(pipeline.CreatedAt),
		UpdatedAt:   formatTime(pipeline.UpdatedAt),
		Tasks:       tasks,
	}
}

func newProjectView(project models.Project, memberCount int64) ProjectView {
	return ProjectView{
		ID:              project.ID,
		Name:            project.Name,
		Description:     project.Description,
		Visibility:      strings.ToLower(project.Visibility),
		IsActive:        project.IsActive,
		IsDefault:       project.IsDefault,
		GithubRepoID:    project.GithubRepoID,
		GithubRepoName:  project.GithubRepoName,
		GithubRepoOwner: project.GithubRepoOwner,
		CreatedAt:       formatTime(project.CreatedAt),
		UpdatedAt:       formatTime(project.UpdatedAt),
		MemberCount:     memberCount,
	}
}

func newUserRecord(user models.User) UserRecord {
	record := UserRecord{
		ID:         user.ID,
		Email:      user.Email,
		Username:   user.Username,
		FullName:   user.FullName,
		AvatarURL:  user.AvatarURL,
		IsActive:   user.IsActive,
		IsVerified: user.IsVerified,
		CreatedAt:  formatTime(user.CreatedAt),
		UpdatedAt:  formatTime(user.UpdatedAt),
	}

	if user.LastLogin != nil {
		formatted := formatTime(*user.LastLogin)
		record.LastLogin = &formatted
	}

	return record
}
