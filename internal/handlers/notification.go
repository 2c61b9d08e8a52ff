package handlers

import (
	"net/http"
	"time"

	"github.com/adil-shabab/Project-Management-API/db"
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/utils"
	"github.com/gin-gonic/gin"
)

type MarkNotificationsReadRequest struct {
	NotificationIDs []uint `json:"notification_ids"`
}

type NotificationResponse struct {
	ID         uint      `json:"id"`
	Message    string    `json:"message"`
	ReadStatus bool      `json:"read_status"`
	Type       string    `json:"type"`
	ProjectID  *uint     `json:"project_id,omitempty"`
	TaskID     *uint     `json:"task_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func ListNotifications(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var notifications []models.Notification

	err = db.DB.Where("user_id = ?", currentUser.ID).
		Order("created_at desc").
		Find(&notifications).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))

	for _, notification := range notifications {
		responses = append(responses, NotificationResponse{
			ID:         notification.ID,
			Message:    notification.Message,
			ReadStatus: notification.ReadStatus,
			Type:       notification.Type,
			ProjectID:  notification.ProjectID,
			TaskID:     notification.TaskID,
			CreatedAt:  notification.CreatedAt,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Notifications fetched successfully!",
		"data":    responses,
	})
}

// MarkNotificationsRead flips read_status on the given ids. Ids belonging to
// other users are silently ignored, so the filter doubles as the ownership
// check.
func MarkNotificationsRead(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body MarkNotificationsReadRequest

	if err := ctx.BindJSON(&body); err != nil || len(body.NotificationIDs) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "No notification IDs provided."})
		return
	}

	result := db.DB.Model(&models.Notification{}).
		Where("id IN ? AND user_id = ?", body.NotificationIDs, currentUser.ID).
		Update("read_status", true)

	if result.Error != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	if result.RowsAffected == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No notifications found."})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Notifications marked as read."})
}

func UnreadNotificationCheck(ctx *gin.Context) {
	currentUser, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var count int64

	err = db.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read_status = ?", currentUser.ID, false).
		Count(&count).Error

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check notifications"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"has_unread": count > 0})
}
