package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/middleware"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/workflow"
	"github.com/gin-gonic/gin"
)

type TaskResponse struct {
	ID           uint       `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	DueDate      time.Time  `json:"due_date"`
	StartDate    *time.Time `json:"start_date"`
	Priority     string     `json:"priority"`
	Status       string     `json:"status"`
	IsTicket     bool       `json:"is_ticket"`
	UserID       uint       `json:"user_id"`
	AssignedByID uint       `json:"assigned_by_id"`
	ProjectID    *uint      `json:"project_id,omitempty"`
	ReviewDate   *time.Time `json:"review_date"`
	ApprovedDate *time.Time `json:"approved_date"`
	Images       []string   `json:"images,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func taskResponse(task models.Task) TaskResponse {
	images := make([]string, 0, len(task.Images))

	for _, image := range task.Images {
		images = append(images, image.URL)
	}

	return TaskResponse{
		ID:           task.ID,
		Title:        task.Title,
		Description:  task.Description,
		DueDate:      task.DueDate,
		StartDate:    task.StartDate,
		Priority:     task.Priority,
		Status:       task.Status,
		IsTicket:     task.IsTicket,
		UserID:       task.UserID,
		AssignedByID: task.AssignedByID,
		ProjectID:    task.ProjectID,
		ReviewDate:   task.ReviewDate,
		ApprovedDate: task.ApprovedDate,
		Images:       images,
		CreatedAt:    task.CreatedAt,
	}
}

func taskResponses(tasks []models.Task) []TaskResponse {
	responses := make([]TaskResponse, 0, len(tasks))

	for _, task := range tasks {
		responses = append(responses, taskResponse(task))
	}

	return responses
}

// actorFor resolves the workflow actor for a task, including whether the
// actor leads the ticket's project.
func actorFor(user middleware.AuthenticatedUser, task *models.Task) (workflow.Actor, error) {
	actor := workflow.Actor{
		ID:       user.ID,
		Username: user.Username,
		Role:     user.Role,
	}

	if task.IsTicket && task.ProjectID != nil {
		var project models.Project

		if err := db.DB.Select("id", "team_lead_id").First(&project, *task.ProjectID).Error; err != nil {
			return actor, err
		}

		actor.TeamLead = project.TeamLeadID == user.ID
	}

	return actor, nil
}

// canViewTask gates task detail reads: reviewers see everything, staff only
// tasks they are assignee or creator of, plus tickets of projects they lead.
func canViewTask(user middleware.AuthenticatedUser, task *models.Task) bool {
	if user.Role == models.RoleAdmin || user.Role == models.RoleManager {
		return true
	}

	if task.UserID == user.ID || task.AssignedByID == user.ID {
		return true
	}

	if task.IsTicket && task.ProjectID != nil {
		var project models.Project

		if err := db.DB.Select("id", "team_lead_id").First(&project, *task.ProjectID).Error; err == nil {
			return project.TeamLeadID == user.ID
		}
	}

	return false
}

func respondTransitionError(ctx *gin.Context, err error) {
	var invalid *workflow.InvalidTransitionError

	switch {
	case errors.Is(err, workflow.ErrUnknownStatus):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrForbidden):
		ctx.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, workflow.ErrConflict):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &invalid):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": invalid.Error()})
	default:
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
