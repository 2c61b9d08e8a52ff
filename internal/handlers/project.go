package handlers

import (
	"errors"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/authz"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/notify"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Department  string `json:"department"`
	ClientName  string `json:"client_name"`
	DueDate     string `json:"due_date" binding:"required"`   // dd-mm-yyyy
	StartDate   string `json:"start_date" binding:"required"` // dd-mm-yyyy
	Priority    string `json:"priority"`
	TeamLeadID  uint   `json:"team_lead_id" binding:"required"`
}

type UpdateProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Department  string `json:"department"`
	ClientName  string `json:"client_name"`
	DueDate     string `json:"due_date"`
	StartDate   string `json:"start_date"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
}

type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

type ProjectResponse struct {
	ID          uint      `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Department  string    `json:"department"`
	ClientName  string    `json:"client_name"`
	DueDate     time.Time `json:"due_date"`
	StartDate   time.Time `json:"start_date"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	TeamLeadID  uint      `json:"team_lead_id"`
	CreatedByID uint      `json:"created_by_id"`
	CreatedAt   time.Time `json:"created_at"`
	Percentage  float64   `json:"percentage"`
}

// completionPercentage derives progress from ticket statuses on every read.
// Tickets in review count as done alongside approved ones. A project with no
// tickets is 0%, never a division error.
func completionPercentage(projectID uint) (float64, error) {
	var total, completed int64

	err := db.DB.Model(&models.Task{}).
		Where("project_id = ? AND is_ticket = ?", projectID, true).
		Count(&total).Error

	if err != nil {
		return 0, err
	}

	if total == 0 {
		return 0, nil
	}

	err = db.DB.Model(&models.Task{}).
		Where("project_id = ? AND is_ticket = ? AND status IN ?", projectID, true,
			[]string{models.StatusInReview, models.StatusApproved}).
		Count(&completed).Error

	if err != nil {
		return 0, err
	}

	percentage := float64(completed) / float64(total) * 100

	return math.Round(percentage*100) / 100, nil
}

func projectResponse(project models.Project) (ProjectResponse, error) {
	percentage, err := completionPercentage(project.ID)

	if err != nil {
		return ProjectResponse{}, err
	}

	return ProjectResponse{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		Department:  project.Department,
		ClientName:  project.ClientName,
		DueDate:     project.DueDate,
		StartDate:   project.StartDate,
		Status:      project.Status,
		Priority:    project.Priority,
		TeamLeadID:  project.TeamLeadID,
		CreatedByID: project.CreatedByID,
		CreatedAt:   project.CreatedAt,
		Percentage:  percentage,
	}, nil
}

// visibleProjects scopes a query to projects the user may see: everything for
// admins, otherwise projects they lead, created, or belong to.
func visibleProjects(user uint, role string) *gorm.DB {
	query := db.DB.Model(&models.Project{})

	if role == models.RoleAdmin {
		return query
	}

	memberOf := db.DB.Model(&models.ProjectMember{}).
		Select("project_id").
		Where("user_id = ?", user)

	return query.Where("team_lead_id = ? OR created_by_id = ? OR id IN (?)", user, user, memberOf)
}

func CreateProject(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if !authz.Allowed(currentUser.Role, authz.RelNone, authz.ActionCreateProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to create projects."})
		return
	}

	var body CreateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	dueDate, err := utils.ParseDate(body.DueDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startDate, err := utils.ParseDate(body.StartDate)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var teamLead models.User

	if err := db.DB.First(&teamLead, body.TeamLeadID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Team lead not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	priority := body.Priority

	if priority == "" {
		priority = models.PriorityMedium
	}

	if !models.ValidPriority(priority) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority provided."})
		return
	}

	project := models.Project{
		Title:       body.Title,
		Description: body.Description,
		Department:  body.Department,
		ClientName:  body.ClientName,
		DueDate:     dueDate,
		StartDate:   startDate,
		Status:      models.ProjectStatusPending,
		Priority:    priority,
		TeamLeadID:  teamLead.ID,
		CreatedByID: currentUser.ID,
	}

	if err := db.DB.Create(&project).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	response, err := projectResponse(project)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Project created successfully!",
		"data":    response,
	})
}

func ListProjects(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	if err := visibleProjects(currentUser.ID, currentUser.Role).Find(&projects).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response, err := projectResponse(project)

		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
			return
		}

		responses = append(responses, response)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Projects fetched successfully!",
		"data":    responses,
	})
}

func GetProject(ctx *gin.Context) {
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
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found."})
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

	response, err := projectResponse(project)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Project fetched successfully!",
		"data":    response,
	})
}

func UpdateProject(ctx *gin.Context) {
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
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found."})
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

	if !authz.Allowed(currentUser.Role, relationship, authz.ActionUpdateProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to update this project."})
		return
	}

	var body UpdateProjectRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if body.Title != "" {
		project.Title = body.Title
	}

	if body.Description != "" {
		project.Description = body.Description
	}

	if body.Department != "" {
		project.Department = body.Department
	}

	if body.ClientName != "" {
		project.ClientName = body.ClientName
	}

	if body.Status != "" {
		switch body.Status {
		case models.ProjectStatusPending, models.ProjectStatusApproved, models.ProjectStatusCompleted:
			project.Status = body.Status
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status provided."})
			return
		}
	}

	if body.Priority != "" {
		if !models.ValidPriority(body.Priority) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid priority provided."})
			return
		}
		project.Priority = body.Priority
	}

	if body.DueDate != "" {
		dueDate, err := utils.ParseDate(body.DueDate)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		project.DueDate = dueDate
	}

	if body.StartDate != "" {
		startDate, err := utils.ParseDate(body.StartDate)

		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		project.StartDate = startDate
	}

	if err := db.DB.Save(&project).Error; err != nil {
		log.Printf("Failed to update project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	response, err := projectResponse(project)

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Project updated successfully!",
		"data":    response,
	})
}

func DeleteProject(ctx *gin.Context) {
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
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found."})
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

	if !authz.Allowed(currentUser.Role, relationship, authz.ActionDeleteProject) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to delete this project."})
		return
	}

	if err := db.DB.Delete(&project).Error; err != nil {
		log.Printf("Failed to delete project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.Status(http.StatusNoContent)
}

// AddMember adds a user to a project. The team lead is implicitly a member,
// so adding them is rejected as a duplicate too.
func AddMember(ctx *gin.Context) {
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
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found."})
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

	if !authz.Allowed(currentUser.Role, relationship, authz.ActionAddMember) {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "You do not have the required permissions to add a member."})
		return
	}

	var body AddMemberRequest

	if err := ctx.BindJSON(&body); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User ID is required."})
		return
	}

	var userToAdd models.User

	if err := db.DB.First(&userToAdd, body.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve user"})
		}
		return
	}

	if userToAdd.ID == project.TeamLeadID {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member of this project."})
		return
	}

	var count int64

	if err := db.DB.Model(&models.ProjectMember{}).Where("project_id = ? AND user_id = ?", project.ID, userToAdd.ID).Count(&count).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check membership"})
		return
	}

	if count > 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member of this project."})
		return
	}

	member := models.ProjectMember{
		ProjectID: project.ID,
		UserID:    userToAdd.ID,
		Role:      "staff",
	}

	if err := db.DB.Create(&member).Error; err != nil {
		// A concurrent insert can slip past the existence check; the unique
		// index reports it as a duplicate.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "User is already a member of this project."})
			return
		}
		log.Printf("Failed to add project member: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	var actor models.User

	if err := db.DB.First(&actor, currentUser.ID).Error; err == nil {
		notify.MemberAdded(db.DB, &project, &userToAdd, actor)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User " + userToAdd.Username + " added to the project successfully.",
	})
}

// LatestHighPriorityProjects returns up to three visible pending projects
// with the closest deadlines.
func LatestHighPriorityProjects(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var projects []models.Project

	err = visibleProjects(currentUser.ID, currentUser.Role).
		Where("status = ?", models.ProjectStatusPending).
		Order("due_date asc").
		Limit(3).
		Find(&projects).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve projects"})
		return
	}

	responses := make([]ProjectResponse, 0, len(projects))

	for _, project := range projects {
		response, err := projectResponse(project)

		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build response"})
			return
		}

		responses = append(responses, response)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Latest high-priority pending projects fetched successfully!",
		"data":    responses,
	})
}

func UploadProjectImage(ctx *gin.Context) {
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
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found."})
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

	file, err := ctx.FormFile("image")

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No image provided."})
		return
	}

	url, err := utils.StoreImage(ctx, file, "projects")

	if err != nil {
		if errors.Is(err, utils.ErrUnsupportedFileType) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("Failed to store project image: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	image := models.ProjectImage{ProjectID: project.ID, URL: url}

	if err := db.DB.Create(&image).Error; err != nil {
		log.Printf("Failed to save project image: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully.",
		"data":    gin.H{"url": url},
	})
}
