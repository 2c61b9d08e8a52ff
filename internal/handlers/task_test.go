package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/gin-gonic/gin"
)

func rangeParams(start, end string) gin.Params {
	return gin.Params{
		{Key: "start_date", Value: start},
		{Key: "end_date", Value: end},
	}
}

func TestCreateTaskForMe(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)

	body := CreateTaskRequest{
		Title:     "Quarterly report",
		DueDate:   "01-12-2026",
		StartDate: "20-11-2026",
	}

	ctx, w := request(t, staff, http.MethodPost, "/api/tasks/create/me", body, nil)
	CreateTaskForMe(ctx)
	expectStatus(t, w, http.StatusCreated)

	var task models.Task
	if err := db.DB.First(&task).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if task.Status != models.StatusPending {
		t.Fatalf("new task should be pending, got %s", task.Status)
	}
	if task.Priority != models.PriorityMedium {
		t.Fatalf("priority should default to medium, got %s", task.Priority)
	}
	if task.UserID != staff.ID || task.AssignedByID != staff.ID {
		t.Fatalf("self-created task has wrong ownership: %+v", task)
	}
	if task.StartDate == nil || task.StartDate.Day() != 20 {
		t.Fatalf("start date not parsed: %+v", task.StartDate)
	}
	if got := notificationCount(t, staff.ID); got != 0 {
		t.Fatalf("self-created task must not notify, got %d", got)
	}
}

func TestCreateTaskMalformedDate(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)

	body := CreateTaskRequest{
		Title:   "Quarterly report",
		DueDate: "2026-12-01",
	}

	ctx, w := request(t, staff, http.MethodPost, "/api/tasks/create/me", body, nil)
	CreateTaskForMe(ctx)
	expectStatus(t, w, http.StatusBadRequest)

	response := decodeBody(t, w)
	if response["error"] != "Invalid date format. Please use 'dd-mm-yyyy'." {
		t.Fatalf("unexpected error message: %v", response["error"])
	}
}

func TestManagerAssignsTaskToStaff(t *testing.T) {
	setupTestDB(t)
	manager := createUser(t, "boss", models.RoleManager)
	staff := createUser(t, "dana", models.RoleStaff)

	body := CreateTaskRequest{
		Title:   "Quarterly report",
		DueDate: "01-12-2026",
	}

	ctx, w := request(t, manager, http.MethodPost, "/api/users/2/tasks", body, idParam("user_id", staff.ID))
	CreateTaskForUser(ctx)
	expectStatus(t, w, http.StatusCreated)

	var task models.Task
	if err := db.DB.First(&task).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if task.Status != models.StatusPending {
		t.Fatalf("assigned task should start pending, got %s", task.Status)
	}
	if task.UserID != staff.ID || task.AssignedByID != manager.ID {
		t.Fatalf("wrong assignment: %+v", task)
	}

	if got := notificationCount(t, staff.ID); got != 1 {
		t.Fatalf("assignee should get exactly one notification, got %d", got)
	}

	var notification models.Notification
	if err := db.DB.Where("user_id = ?", staff.ID).First(&notification).Error; err != nil {
		t.Fatalf("notification: %v", err)
	}
	if notification.Type != models.NotificationTypeTask {
		t.Fatalf("wrong notification type: %s", notification.Type)
	}
}

func TestStaffCannotAssignTasks(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	other := createUser(t, "kim", models.RoleStaff)

	body := CreateTaskRequest{
		Title:   "Quarterly report",
		DueDate: "01-12-2026",
	}

	ctx, w := request(t, staff, http.MethodPost, "/api/users/2/tasks", body, idParam("user_id", other.ID))
	CreateTaskForUser(ctx)
	expectStatus(t, w, http.StatusForbidden)

	var count int64
	db.DB.Model(&models.Task{}).Count(&count)
	if count != 0 {
		t.Fatalf("forbidden request must not create a task, got %d", count)
	}
}

func TestChangeTaskStatusSubmitsOwnTask(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	manager := createUser(t, "boss", models.RoleManager)

	task := models.Task{
		Title:        "Quarterly report",
		DueDate:      time.Now().AddDate(0, 0, 7),
		Priority:     models.PriorityMedium,
		Status:       models.StatusPending,
		UserID:       staff.ID,
		AssignedByID: manager.ID,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	ctx, w := request(t, staff, http.MethodPut, "/api/tasks/1/status", nil, idParam("task_id", task.ID))
	ChangeTaskStatus(ctx)
	expectStatus(t, w, http.StatusOK)

	reloaded := reloadTask(t, task.ID)
	if reloaded.Status != models.StatusInReview || reloaded.ReviewDate == nil {
		t.Fatalf("submit failed: %+v", reloaded)
	}
	if got := notificationCount(t, manager.ID); got != 1 {
		t.Fatalf("manager should be notified of the submission, got %d", got)
	}
}

func TestChangeTaskStatusManagerCannotSubmitPlainTask(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	manager := createUser(t, "boss", models.RoleManager)

	task := models.Task{
		Title:        "Quarterly report",
		DueDate:      time.Now().AddDate(0, 0, 7),
		Priority:     models.PriorityMedium,
		Status:       models.StatusPending,
		UserID:       staff.ID,
		AssignedByID: manager.ID,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	ctx, w := request(t, manager, http.MethodPut, "/api/tasks/1/status", nil, idParam("task_id", task.ID))
	ChangeTaskStatus(ctx)
	expectStatus(t, w, http.StatusForbidden)
}

func seedScheduledTask(t *testing.T, user models.User, title string, start, due time.Time, status string) models.Task {
	t.Helper()
	task := models.Task{
		Title:        title,
		DueDate:      due,
		StartDate:    &start,
		Priority:     models.PriorityMedium,
		Status:       status,
		UserID:       user.ID,
		AssignedByID: user.ID,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("seed task %s: %v", title, err)
	}
	return task
}

func TestListPendingTasks(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	now := time.Now()

	seedScheduledTask(t, staff, "active",
		now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), models.StatusPending)
	seedScheduledTask(t, staff, "overdue",
		now.AddDate(0, 0, -5), now.AddDate(0, 0, -1), models.StatusInReview)
	seedScheduledTask(t, staff, "overdue approved",
		now.AddDate(0, 0, -5), now.AddDate(0, 0, -1), models.StatusApproved)
	seedScheduledTask(t, staff, "future",
		now.AddDate(0, 0, 1), now.AddDate(0, 0, 3), models.StatusPending)

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/pending", nil, nil)
	ListPendingTasks(ctx)
	expectStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data := body["data"].([]any)

	titles := make(map[string]bool)
	for _, entry := range data {
		titles[entry.(map[string]any)["title"].(string)] = true
	}

	if len(data) != 2 || !titles["active"] || !titles["overdue"] {
		t.Fatalf("expected exactly the active and overdue tasks, got %v", titles)
	}
}

func TestListPendingTasksScopedToCaller(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	other := createUser(t, "kim", models.RoleStaff)
	now := time.Now()

	seedScheduledTask(t, other, "someone else's",
		now.AddDate(0, 0, -1), now.AddDate(0, 0, 1), models.StatusPending)

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/pending", nil, nil)
	ListPendingTasks(ctx)
	expectStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	if data := body["data"].([]any); len(data) != 0 {
		t.Fatalf("another user's tasks must not appear, got %d", len(data))
	}
}

func TestListTodayStartTasks(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	now := time.Now()

	seedScheduledTask(t, staff, "starts today",
		now, now.AddDate(0, 0, 5), models.StatusPending)
	seedScheduledTask(t, staff, "started yesterday",
		now.AddDate(0, 0, -1), now.AddDate(0, 0, 5), models.StatusPending)
	seedScheduledTask(t, staff, "starts tomorrow",
		now.AddDate(0, 0, 1), now.AddDate(0, 0, 5), models.StatusPending)

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/today", nil, nil)
	ListTodayStartTasks(ctx)
	expectStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	data := body["data"].([]any)
	if len(data) != 1 {
		t.Fatalf("only the task starting today should match, got %d", len(data))
	}
	if title := data[0].(map[string]any)["title"]; title != "starts today" {
		t.Fatalf("wrong task returned: %v", title)
	}
}

func TestTasksForDateRangeInvertedIsEmpty(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)

	start := time.Date(2026, time.November, 20, 0, 0, 0, 0, time.Local)
	due := time.Date(2026, time.November, 25, 0, 0, 0, 0, time.Local)
	task := models.Task{
		Title:        "Quarterly report",
		DueDate:      due,
		StartDate:    &start,
		Priority:     models.PriorityMedium,
		Status:       models.StatusPending,
		UserID:       staff.ID,
		AssignedByID: staff.ID,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/range/x/y", nil, rangeParams("01-12-2026", "01-11-2026"))
	TasksForDateRange(ctx)
	expectStatus(t, w, http.StatusOK)

	body := decodeBody(t, w)
	if data := body["data"].([]any); len(data) != 0 {
		t.Fatalf("inverted range should match nothing, got %d tasks", len(data))
	}

	ctx, w = request(t, staff, http.MethodGet, "/api/tasks/range/x/y", nil, rangeParams("01-11-2026", "01-12-2026"))
	TasksForDateRange(ctx)
	expectStatus(t, w, http.StatusOK)

	body = decodeBody(t, w)
	if data := body["data"].([]any); len(data) != 1 {
		t.Fatalf("containing range should match the task, got %d", len(data))
	}
}

func TestTasksForDateRangeMalformed(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/range/x/y", nil, rangeParams("2026-11-01", "01-12-2026"))
	TasksForDateRange(ctx)
	expectStatus(t, w, http.StatusBadRequest)
}

func TestGetTaskVisibility(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)
	stranger := createUser(t, "kim", models.RoleStaff)
	manager := createUser(t, "boss", models.RoleManager)

	task := models.Task{
		Title:        "Quarterly report",
		DueDate:      time.Now().AddDate(0, 0, 7),
		Priority:     models.PriorityMedium,
		Status:       models.StatusPending,
		UserID:       staff.ID,
		AssignedByID: staff.ID,
	}
	if err := db.DB.Create(&task).Error; err != nil {
		t.Fatalf("seed task: %v", err)
	}

	cases := []struct {
		user models.User
		want int
	}{
		{staff, http.StatusOK},
		{manager, http.StatusOK},
		{stranger, http.StatusForbidden},
	}

	for _, tc := range cases {
		ctx, w := request(t, tc.user, http.MethodGet, "/api/tasks/1", nil, idParam("task_id", task.ID))
		GetTask(ctx)
		if w.Code != tc.want {
			t.Errorf("GetTask as %s = %d, want %d", tc.user.Username, w.Code, tc.want)
		}
	}
}

func TestGetTaskNotFoundBeforeForbidden(t *testing.T) {
	setupTestDB(t)
	staff := createUser(t, "dana", models.RoleStaff)

	ctx, w := request(t, staff, http.MethodGet, "/api/tasks/99", nil, idParam("task_id", 99))
	GetTask(ctx)
	expectStatus(t, w, http.StatusNotFound)
}
