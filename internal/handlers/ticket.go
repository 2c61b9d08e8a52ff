package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/authz"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/notify"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/adil-shabab/Project-Management-API/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTicketRequest struct {
	ProjectID   uint   `json:"project_id" binding:"required"`
	UserID      uint   `json:"user_id"` // Assignee, defaults to the caller
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" binding:"required"` // dd-mm-yyyy
	StartDate   string `json:"start_date"`
	Priority    string `json:"priority"`
}

type ChangeTicketStatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// CreateTicket creates a project ticket. The caller needs visibility of the
// project; assigning the ticket to someone else additionally needs reviewer
// authority.
func CreateTicket(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTicketRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, body.ProjectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	relationship, err := authz.RelationshipTo(db.DB, &project, currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
		return
	}

	if !authz.Allowed(currentUser.Role, relationship, authz.ActionViewProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project."})
		return
	}

	assigneeID := body.UserID

	if assigneeID == 0 {
		assigneeID = currentUser.ID
	}

	if assigneeID != currentUser.ID {
		reviewer := currentUser.Role == models.RoleManager ||
			currentUser.Role == models.RoleAdmin ||
			relationship == authz.RelTeamLead

		if !reviewer {
			ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to assign tickets."})
			return
		}
	}

	task, err := buildTask(CreateTaskRequest{
		Title:       body.Title,
		Description: body.Description,
		DueDate:     body.DueDate,
		StartDate:   body.StartDate,
		Priority:    body.Priority,
	}, assigneeID, currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task.IsTicket = true
	task.ProjectID = &project.ID

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create ticket: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create ticket"})
		return
	}

	if task.UserID != currentUser.ID {
		var actor models.User

		if err := db.DB.First(&actor, currentUser.ID).Error; err == nil {
			notify.TaskAssigned(db.DB, &task, actor)
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Ticket created successfully!",
		"data":    taskResponse(task),
	})
}

// ProjectTickets lists a project's tickets grouped by status, high priority
// first, closest due date first within a priority.
func ProjectTickets(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID, err := utils.GetProjectID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var project models.Project

	if err := db.DB.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve project"})
		}
		return
	}

	relationship, err := authz.RelationshipTo(db.DB, &project, currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
		return
	}

	if !authz.Allowed(currentUser.Role, relationship, authz.ActionViewProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this project."})
		return
	}

	var tickets []models.Task

	err = db.DB.Preload("Images").
		Where("project_id = ? AND is_ticket = ?", project.ID, true).
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END, due_date asc").
		Find(&tickets).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tickets"})
		return
	}

	grouped := map[string][]TaskResponse{
		models.StatusPending:  {},
		models.StatusInReview: {},
		models.StatusApproved: {},
	}

	for _, ticket := range tickets {
		grouped[ticket.Status] = append(grouped[ticket.Status], taskResponse(ticket))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tickets fetched successfully!",
		"data": gin.H{
			"pending":   grouped[models.StatusPending],
			"in_review": grouped[models.StatusInReview],
			"approved":  grouped[models.StatusApproved],
		},
	})
}

// ChangeTicketStatus drives the ticket review workflow: submit, approve, or
// reject back to pending with a reason.
func ChangeTicketStatus(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	taskID, err := utils.GetTaskID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var body ChangeTicketStatusRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target := strings.ToLower(strings.TrimSpace(body.Status))

	if target == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Status is required."})
		return
	}

	var task models.Task

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	actor, err := actorFor(currentUser, &task)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve permissions"})
		return
	}

	result, err := workflow.Transition(db.DB, &task, target, actor, body.Reason)

	if err != nil {
		respondTransitionError(ctx, err)
		return
	}

	notify.Dispatch(db.DB, result.Events)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task status changed to " + target + " successfully.",
		"data":    taskResponse(task),
	})
}
