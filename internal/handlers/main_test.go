package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/middleware"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/types"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupTestDB points the package-global connection at a fresh in-memory
// database named after the test.
func setupTestDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = database.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectMember{},
		&models.ProjectImage{},
		&models.Task{},
		&models.TaskImage{},
		&models.TaskHistory{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.DB = database
}

func createUser(t *testing.T, username, role string) models.User {
	t.Helper()
	user := models.User{
		FullName:     username,
		Username:     username,
		Email:        username + "@example.com",
		Role:         role,
		PasswordHash: "$2a$10$abcdefghijklmnopqrstuv",
		IsActive:     true,
	}
	if err := db.DB.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createProject(t *testing.T, teamLead, createdBy models.User) models.Project {
	t.Helper()
	project := models.Project{
		Title:       "Site relaunch",
		ClientName:  "Acme",
		DueDate:     time.Now().AddDate(0, 1, 0),
		StartDate:   time.Now(),
		Status:      models.ProjectStatusPending,
		Priority:    models.PriorityHigh,
		TeamLeadID:  teamLead.ID,
		CreatedByID: createdBy.ID,
	}
	if err := db.DB.Create(&project).Error; err != nil {
		t.Fatalf("create project: %v", err)
	}
	return project
}

func createTicket(t *testing.T, project models.Project, assignee models.User, status string) models.Task {
	t.Helper()
	task := models.Task{
		Title:        "Banner artwork",
		DueDate:      time.Now().AddDate(0, 0, 7),
		Priority:     models.PriorityMedium,
		Status:       status,
		IsTicket:     true,
		UserID:       assignee.ID,
		AssignedByID: assignee.ID,
		ProjectID:    &project.ID,
	}
	if status != models.StatusPending {
		now := time.Now()
		task.ReviewDate = &now
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("create ticket: %v", err)
	}
	return task
}

// request builds an authenticated test context for a handler invocation.
func request(t *testing.T, user models.User, method, target string, body any, params gin.Params) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(method, target, reader)
	ctx.Request.Header.Set("Content-Type", "application/json")
	ctx.Params = params
	ctx.Set(types.ContextUserKey, middleware.AuthenticatedUser{
		ID:         user.ID,
		Username:   user.Username,
		FullName:   user.FullName,
		Email:      user.Email,
		Role:       user.Role,
		Department: user.Department,
	})

	return ctx, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return decoded
}

func idParam(name string, id uint) gin.Params {
	return gin.Params{{Key: name, Value: fmt.Sprint(id)}}
}

func notificationCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var count int64
	if err := db.DB.Model(&models.Notification{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		t.Fatalf("count notifications: %v", err)
	}
	return count
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d body=%s", want, w.Code, w.Body.String())
	}
}
