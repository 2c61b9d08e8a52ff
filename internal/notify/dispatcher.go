package notify

import (
	"fmt"
	"log"

	"github.com/adil-shabab/Project-Management-API/internal/models"
	"github.com/adil-shabab/Project-Management-API/internal/workflow"
	"gorm.io/gorm"
)

// Dispatch fans out workflow events to their recipient sets. Delivery is
// best-effort: a failed insert is logged and skipped, never returned, so the
// underlying state change stays committed regardless.
func Dispatch(database *gorm.DB, events []workflow.Event) {
	for _, event := range events {
		recipients, message, err := expand(database, event)

		if err != nil {
			log.Printf("Failed to compute notification recipients: %v", err)
			continue
		}

		for _, recipient := range recipients {
			create(database, models.Notification{
				UserID:      recipient,
				Message:     message,
				Type:        models.NotificationTypeTask,
				TaskID:      &event.Task.ID,
				ProjectID:   event.Task.ProjectID,
				CreatedByID: &event.Actor.ID,
			})
		}
	}
}

// TaskAssigned notifies the assignee of a task created on their behalf.
func TaskAssigned(database *gorm.DB, task *models.Task, actor models.User) {
	create(database, models.Notification{
		UserID:      task.UserID,
		Message:     fmt.Sprintf("%s assigned you a new task '%s'.", actor.Username, task.Title),
		Type:        models.NotificationTypeTask,
		TaskID:      &task.ID,
		ProjectID:   task.ProjectID,
		CreatedByID: &actor.ID,
	})
}

// MemberAdded notifies a user who has just been added to a project.
func MemberAdded(database *gorm.DB, project *models.Project, member *models.User, actor models.User) {
	create(database, models.Notification{
		UserID:      member.ID,
		Message:     fmt.Sprintf("You have been added to the project '%s' as a member.", project.Title),
		Type:        models.NotificationTypeProject,
		ProjectID:   &project.ID,
		CreatedByID: &actor.ID,
	})
}

func expand(database *gorm.DB, event workflow.Event) ([]uint, string, error) {
	switch event.Type {
	case workflow.EventSubmitted:
		recipients, err := usersWithRoles(database, models.RoleManager, models.RoleAdmin)
		message := fmt.Sprintf("%s submitted '%s' for review.", event.Actor.Username, event.Task.Title)
		return recipients, message, err

	case workflow.EventApproved:
		recipients, err := usersWithRoles(database, models.RoleAdmin)
		recipients = appendUnique(recipients, event.Task.UserID)
		message := fmt.Sprintf("%s approved '%s'.", event.Actor.Username, event.Task.Title)
		return recipients, message, err

	case workflow.EventRejected:
		recipients, err := usersWithRoles(database, models.RoleAdmin)
		recipients = appendUnique(recipients, event.Task.UserID)
		message := fmt.Sprintf("%s sent '%s' back to pending.", event.Actor.Username, event.Task.Title)
		if event.Reason != "" {
			message = fmt.Sprintf("%s sent '%s' back to pending: %s", event.Actor.Username, event.Task.Title, event.Reason)
		}
		return recipients, message, err
	}

	return nil, "", fmt.Errorf("unknown event type %q", event.Type)
}

func usersWithRoles(database *gorm.DB, roles ...string) ([]uint, error) {
	var ids []uint

	err := database.Model(&models.User{}).
		Where("role IN ? AND is_active = ?", roles, true).
		Pluck("id", &ids).Error

	return ids, err
}

func appendUnique(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

func create(database *gorm.DB, notification models.Notification) {
	if err := database.Create(&notification).Error; err != nil {
		log.Printf("Failed to create notification for user %d: %v", notification.UserID, err)
		return
	}

	Push(notification.UserID, StreamMessage{
		Type:           "notification",
		NotificationID: notification.ID,
		Message:        notification.Message,
	})
}
