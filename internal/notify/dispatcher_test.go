package notify

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/workflow"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupNotifyDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.AutoMigrate(&models.User{}, &models.Project{}, &models.Task{}, &models.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func seedUser(t *testing.T, database *gorm.DB, username, role string) models.User {
	t.Helper()
	user := models.User{
		FullName:     username,
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return user
}

func seedNotifyTask(t *testing.T, database *gorm.DB, assignee models.User) *models.Task {
	t.Helper()
	task := models.Task{
		Title:        "Banner artwork",
		DueDate:      time.Now().AddDate(0, 0, 3),
		Priority:     models.PriorityHigh,
		Status:       models.StatusInReview,
		IsTicket:     true,
		UserID:       assignee.ID,
		AssignedByID: assignee.ID,
	}
	if err := database.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}
	return &task
}

func recipientIDs(t *testing.T, database *gorm.DB) map[uint]int {
	t.Helper()
	var notifications []models.Notification
	if err := database.Find(&notifications).Error; err != nil {
		t.Fatalf("load notifications: %v", err)
	}
	counts := make(map[uint]int)
	for _, n := range notifications {
		counts[n.UserID]++
	}
	return counts
}

func TestSubmittedFansOutToManagersAndAdmins(t *testing.T) {
	database := setupNotifyDB(t)
	staff := seedUser(t, database, "dana", models.RoleStaff)
	bystander := seedUser(t, database, "kim", models.RoleStaff)
	manager := seedUser(t, database, "boss", models.RoleManager)
	admin := seedUser(t, database, "root", models.RoleAdmin)
	task := seedNotifyTask(t, database, staff)

	Dispatch(database, []workflow.Event{{
		Type:  workflow.EventSubmitted,
		Task:  task,
		Actor: workflow.Actor{ID: staff.ID, Username: staff.Username, Role: staff.Role},
	}})

	counts := recipientIDs(t, database)
	if counts[manager.ID] != 1 || counts[admin.ID] != 1 {
		t.Fatalf("managers and admins should each get one notification: %v", counts)
	}
	if counts[bystander.ID] != 0 {
		t.Fatalf("uninvolved staff must not be notified: %v", counts)
	}
	if counts[staff.ID] != 0 {
		t.Fatalf("submitting staff should not self-notify: %v", counts)
	}

	var notification models.Notification
	if err := database.Where("user_id = ?", manager.ID).First(&notification).Error; err != nil {
		t.Fatalf("manager notification: %v", err)
	}
	if !strings.Contains(notification.Message, staff.Username) || !strings.Contains(notification.Message, task.Title) {
		t.Fatalf("message missing actor or title: %q", notification.Message)
	}
	if notification.Type != models.NotificationTypeTask {
		t.Fatalf("wrong type: %s", notification.Type)
	}
	if notification.CreatedByID == nil || *notification.CreatedByID != staff.ID {
		t.Fatalf("created_by should be the actor: %+v", notification.CreatedByID)
	}
}

func TestApprovedNotifiesAssigneeAndAdmins(t *testing.T) {
	database := setupNotifyDB(t)
	staff := seedUser(t, database, "dana", models.RoleStaff)
	manager := seedUser(t, database, "boss", models.RoleManager)
	admin := seedUser(t, database, "root", models.RoleAdmin)
	task := seedNotifyTask(t, database, staff)

	Dispatch(database, []workflow.Event{{
		Type:  workflow.EventApproved,
		Task:  task,
		Actor: workflow.Actor{ID: manager.ID, Username: manager.Username, Role: manager.Role},
	}})

	counts := recipientIDs(t, database)
	if counts[staff.ID] != 1 || counts[admin.ID] != 1 {
		t.Fatalf("assignee and admin should each get one notification: %v", counts)
	}
	if counts[manager.ID] != 0 {
		t.Fatalf("approving manager should not be notified: %v", counts)
	}
}

func TestRejectedMessageCarriesReason(t *testing.T) {
	database := setupNotifyDB(t)
	staff := seedUser(t, database, "dana", models.RoleStaff)
	manager := seedUser(t, database, "boss", models.RoleManager)
	task := seedNotifyTask(t, database, staff)

	Dispatch(database, []workflow.Event{{
		Type:   workflow.EventRejected,
		Task:   task,
		Actor:  workflow.Actor{ID: manager.ID, Username: manager.Username, Role: manager.Role},
		Reason: "wrong dimensions",
	}})

	var notification models.Notification
	if err := database.Where("user_id = ?", staff.ID).First(&notification).Error; err != nil {
		t.Fatalf("assignee notification: %v", err)
	}
	if !strings.Contains(notification.Message, "wrong dimensions") {
		t.Fatalf("rejection reason missing from message: %q", notification.Message)
	}
}

func TestApprovedAdminAssigneeNotDoubled(t *testing.T) {
	database := setupNotifyDB(t)
	admin := seedUser(t, database, "root", models.RoleAdmin)
	task := seedNotifyTask(t, database, admin)

	Dispatch(database, []workflow.Event{{
		Type:  workflow.EventApproved,
		Task:  task,
		Actor: workflow.Actor{ID: admin.ID, Username: admin.Username, Role: admin.Role},
	}})

	counts := recipientIDs(t, database)
	if counts[admin.ID] != 1 {
		t.Fatalf("admin assignee should get exactly one notification, got %d", counts[admin.ID])
	}
}

func TestTaskAssignedNotifiesAssigneeOnly(t *testing.T) {
	database := setupNotifyDB(t)
	staff := seedUser(t, database, "dana", models.RoleStaff)
	manager := seedUser(t, database, "boss", models.RoleManager)
	seedUser(t, database, "root", models.RoleAdmin)

	task := models.Task{
		Title:        "Quarterly report",
		DueDate:      time.Now().AddDate(0, 0, 1),
		Priority:     models.PriorityMedium,
		Status:       models.StatusPending,
		UserID:       staff.ID,
		AssignedByID: manager.ID,
	}
	if err := database.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	TaskAssigned(database, &task, manager)

	counts := recipientIDs(t, database)
	if len(counts) != 1 || counts[staff.ID] != 1 {
		t.Fatalf("only the assignee should be notified: %v", counts)
	}

	var notification models.Notification
	if err := database.Where("user_id = ?", staff.ID).First(&notification).Error; err != nil {
		t.Fatalf("notification: %v", err)
	}
	if notification.Type != models.NotificationTypeTask {
		t.Fatalf("wrong type: %s", notification.Type)
	}
}

func TestMemberAddedNotifiesNewMember(t *testing.T) {
	database := setupNotifyDB(t)
	staff := seedUser(t, database, "dana", models.RoleStaff)
	manager := seedUser(t, database, "boss", models.RoleManager)

	project := models.Project{
		Title:       "Site relaunch",
		DueDate:     time.Now().AddDate(0, 1, 0),
		StartDate:   time.Now(),
		Status:      models.ProjectStatusPending,
		Priority:    models.PriorityHigh,
		TeamLeadID:  manager.ID,
		CreatedByID: manager.ID,
	}
	if err := database.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}

	MemberAdded(database, &project, &staff, manager)

	var notification models.Notification
	if err := database.Where("user_id = ?", staff.ID).First(&notification).Error; err != nil {
		t.Fatalf("notification: %v", err)
	}
	if notification.Type != models.NotificationTypeProject {
		t.Fatalf("wrong type: %s", notification.Type)
	}
	if !strings.Contains(notification.Message, project.Title) {
		t.Fatalf("message missing project title: %q", notification.Message)
	}
	if notification.ProjectID == nil || *notification.ProjectID != project.ID {
		t.Fatalf("project reference missing: %+v", notification.ProjectID)
	}
}
