package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/authz"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/notify"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/adil-shabab/Project-Management-API/internal/workflow"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	DueDate     string `json:"due_date" binding:"required"` // dd-mm-yyyy
	StartDate   string `json:"start_date"`                  // dd-mm-yyyy, optional
	Priority    string `json:"priority"`
}

type TaskHistoryResponse struct {
	Status      string    `json:"status"`
	ChangedByID uint      `json:"changed_by_id"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func parseTaskDates(body CreateTaskRequest) (due time.Time, start *time.Time, err error) {
	due, err = utils.ParseDate(body.DueDate)

	if err != nil {
		return time.Time{}, nil, err
	}

	if body.StartDate != "" {
		parsed, parseErr := utils.ParseDate(body.StartDate)

		if parseErr != nil {
			return time.Time{}, nil, parseErr
		}

		start = &parsed
	}

	return due, start, nil
}

func buildTask(body CreateTaskRequest, assigneeID uint, assignedByID uint) (models.Task, error) {
	due, start, err := parseTaskDates(body)

	if err != nil {
		return models.Task{}, err
	}

	priority := body.Priority

	if priority == "" {
		priority = models.PriorityMedium
	}

	if !models.ValidPriority(priority) {
		return models.Task{}, errors.New("Invalid priority provided.")
	}

	return models.Task{
		Title:        body.Title,
		Description:  body.Description,
		DueDate:      due,
		StartDate:    start,
		Priority:     priority,
		Status:       models.StatusPending,
		UserID:       assigneeID,
		AssignedByID: assignedByID,
	}, nil
}

func CreateTaskForMe(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := buildTask(body, currentUser.ID, currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully!",
		"data":    taskResponse(task),
	})
}

// CreateTaskForUser lets managers and admins assign a task to someone else.
// The assignee is notified.
func CreateTaskForUser(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionAssignTask) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to assign tasks."})
		return
	}

	targetID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var target models.User

	if err := db.DB.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	var body CreateTaskRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	task, err := buildTask(body, target.ID, currentUser.ID)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := db.DB.Create(&task).Error; err != nil {
		log.Printf("Failed to create task: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	var actor models.User

	if err := db.DB.First(&actor, currentUser.ID).Error; err == nil {
		notify.TaskAssigned(db.DB, &task, actor)
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Task created successfully!",
		"data":    taskResponse(task),
	})
}

// ListPendingTasks returns the caller's unfinished work: tasks whose window
// covers this instant, plus overdue tasks whose due day has passed. Overdue
// tasks stay visible until approved.
func ListPendingTasks(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	now := time.Now()
	today := utils.StartOfDay(now)

	var tasks []models.Task

	err = db.DB.Preload("Images").
		Where("user_id = ? AND status != ?", currentUser.ID, models.StatusApproved).
		Where("(start_date IS NOT NULL AND start_date <= ? AND due_date >= ?) OR due_date < ?", now, now, today).
		Order("due_date asc").
		Find(&tasks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Pending tasks retrieved successfully!",
		"data":    taskResponses(tasks),
	})
}

func ListTodayStartTasks(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	today := utils.StartOfDay(time.Now())
	tomorrow := utils.EndOfDay(time.Now())

	var tasks []models.Task

	err = db.DB.Preload("Images").
		Where("user_id = ? AND start_date >= ? AND start_date < ?", currentUser.ID, today, tomorrow).
		Find(&tasks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tasks with today's start date retrieved successfully!",
		"data":    taskResponses(tasks),
	})
}

// TasksForDate returns the caller's tasks whose start/due window covers the
// given calendar day.
func TasksForDate(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	day, err := utils.ParseDate(ctx.Param("date"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dayStart := utils.StartOfDay(day)
	dayEnd := utils.EndOfDay(day)

	var tasks []models.Task

	err = db.DB.Preload("Images").
		Where("user_id = ? AND start_date < ? AND due_date >= ?", currentUser.ID, dayEnd, dayStart).
		Find(&tasks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tasks for the specified date retrieved successfully!",
		"data":    taskResponses(tasks),
	})
}

// TasksForDateRange returns tasks contained in the inclusive calendar range.
// An inverted range is not an error, it just matches nothing.
func TasksForDateRange(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	start, err := utils.ParseDate(ctx.Param("start_date"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	end, err := utils.ParseDate(ctx.Param("end_date"))

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tasks []models.Task

	err = db.DB.Preload("Images").
		Where("user_id = ? AND start_date >= ? AND due_date < ?", currentUser.ID, utils.StartOfDay(start), utils.EndOfDay(end)).
		Find(&tasks).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tasks for the specified date range retrieved successfully!",
		"data":    taskResponses(tasks),
	})
}

func GetTask(ctx *gin.Context) {
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

	var task models.Task

	if err := db.DB.Preload("Images").Preload("History").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if !canViewTask(currentUser, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this task."})
		return
	}

	history := make([]TaskHistoryResponse, 0, len(task.History))

	for _, entry := range task.History {
		history = append(history, TaskHistoryResponse{
			Status:      entry.Status,
			ChangedByID: entry.ChangedByID,
			Notes:       entry.Notes,
			CreatedAt:   entry.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"data":    taskResponse(task),
		"history": history,
	})
}

// ChangeTaskStatus submits the caller's own task for review. Plain tasks only
// ever move pending -> in_review through this endpoint; the workflow guard
// rejects everything else.
func ChangeTaskStatus(ctx *gin.Context) {
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

	result, err := workflow.Transition(db.DB, &task, models.StatusInReview, actor, "")

	if err != nil {
		respondTransitionError(ctx, err)
		return
	}

	notify.Dispatch(db.DB, result.Events)

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Task status changed to 'In Review' successfully.",
		"data":    taskResponse(task),
	})
}

// UserScheduledTasks lists another user's tasks. Staff may not inspect other
// people's schedules.
func UserScheduledTasks(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	targetID, err := utils.GetUserID(ctx)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if targetID != currentUser.ID && !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionViewUserTasks) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this user's tasks."})
		return
	}

	var target models.User

	if err := db.DB.First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	var tasks []models.Task

	if err := db.DB.Preload("Images").Where("user_id = ?", target.ID).Order("due_date asc").Find(&tasks).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve tasks"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Tasks retrieved successfully!",
		"data":    taskResponses(tasks),
	})
}

// UploadTaskImage attaches an image to a task the caller can see.
func UploadTaskImage(ctx *gin.Context) {
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

	var task models.Task

	if err := db.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		}
		return
	}

	if !canViewTask(currentUser, &task) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to modify this task."})
		return
	}

	file, err := ctx.FormFile("image")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No image provided."})
		return
	}

	url, err := utils.StoreImage(ctx, file, "tasks")

	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedFileType) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to store task image: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	image := models.TaskImage{TaskID: task.ID, URL: url}

	if err := db.DB.Create(&image).Error; err != nil {
		log.Printf("Failed to save task image: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully.",
		"data":    gin.H{"url": url},
	})
}
