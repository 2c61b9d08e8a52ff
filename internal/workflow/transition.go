package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adil-shabab/Project-Management-API/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrUnknownStatus = errors.New("Invalid status provided.")
	ErrForbidden     = errors.New("You don't have permission to change this task's status.")
	ErrConflict      = errors.New("The task was changed by another request. Please try again.")
)

// InvalidTransitionError reports a requested transition that matches no row
// of the transition table. Distinct from ErrForbidden so callers can tell a
// status mismatch from a permission mismatch.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("Invalid status transition: cannot move from '%s' to '%s'.", e.From, e.To)
}

// Actor is the authenticated user attempting a transition. TeamLead is true
// when the actor leads the project the ticket belongs to; always false for
// plain tasks.
type Actor struct {
	ID       uint
	Username string
	Role     string
	TeamLead bool
}

func (a Actor) hasReviewerAuthority() bool {
	return a.Role == models.RoleManager || a.Role == models.RoleAdmin || a.TeamLead
}

type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventApproved  EventType = "approved"
	EventRejected  EventType = "rejected"
)

// Event describes a committed state change for the notification dispatcher.
type Event struct {
	Type   EventType
	Task   *models.Task
	Actor  Actor
	Reason string
}

type Result struct {
	Task   *models.Task
	Events []Event
}

type transition struct {
	from  string
	to    string
	event EventType
	guard func(task *models.Task, actor Actor) bool
	apply func(task *models.Task, now time.Time) map[string]interface{}
}

// The full transition table. Every status change in the system goes through
// exactly these rows.
var transitions = []transition{
	{
		from:  models.StatusPending,
		to:    models.StatusInReview,
		event: EventSubmitted,
		guard: canSubmit,
		apply: func(task *models.Task, now time.Time) map[string]interface{} {
			task.ReviewDate = &now
			return map[string]interface{}{"status": models.StatusInReview, "review_date": now}
		},
	},
	{
		from:  models.StatusInReview,
		to:    models.StatusApproved,
		event: EventApproved,
		guard: canReview,
		apply: func(task *models.Task, now time.Time) map[string]interface{} {
			task.ApprovedDate = &now
			return map[string]interface{}{"status": models.StatusApproved, "approved_date": now}
		},
	},
	{
		from:  models.StatusInReview,
		to:    models.StatusPending,
		event: EventRejected,
		guard: canReview,
		apply: func(task *models.Task, now time.Time) map[string]interface{} {
			task.ReviewDate = nil
			return map[string]interface{}{"status": models.StatusPending, "review_date": nil}
		},
	},
}

// The assignee submits their own work. A ticket may also be submitted by
// anyone with reviewer authority over it.
func canSubmit(task *models.Task, actor Actor) bool {
	if actor.ID == task.UserID {
		return true
	}
	return task.IsTicket && actor.hasReviewerAuthority()
}

// Once work has left pending, only reviewer authority may act.
func canReview(task *models.Task, actor Actor) bool {
	return actor.hasReviewerAuthority()
}

// Transition applies one row of the transition table to the task. The status
// update and the audit row commit in a single transaction; the update is
// guarded on the expected current status so a lost race surfaces as
// ErrConflict instead of silently applying twice. Notification events are
// returned to the caller and are not part of the transaction.
func Transition(database *gorm.DB, task *models.Task, target string, actor Actor, reason string) (*Result, error) {
	if !models.ValidStatus(target) {
		return nil, ErrUnknownStatus
	}

	var match *transition

	for i := range transitions {
		if transitions[i].from == task.Status && transitions[i].to == target {
			match = &transitions[i]
			break
		}
	}

	if match == nil {
		return nil, &InvalidTransitionError{From: task.Status, To: target}
	}

	if !match.guard(task, actor) {
		return nil, ErrForbidden
	}

	now := time.Now()
	updates := match.apply(task, now)

	err := database.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Task{}).
			Where("id = ? AND status = ?", task.ID, match.from).
			Updates(updates)

		if result.Error != nil {
			return result.Error
		}

		if result.RowsAffected == 0 {
			return ErrConflict
		}

		detail, err := json.Marshal(map[string]string{
			"from":   match.from,
			"to":     match.to,
			"reason": reason,
		})

		if err != nil {
			return err
		}

		history := models.TaskHistory{
			TaskID:      task.ID,
			Status:      match.to,
			ChangedByID: actor.ID,
			Notes:       reason,
			Detail:      datatypes.JSON(detail),
		}

		return tx.Create(&history).Error
	})

	if err != nil {
		return nil, err
	}

	task.Status = match.to

	return &Result{
		Task: task,
		Events: []Event{{
			Type:   match.event,
			Task:   task,
			Actor:  actor,
			Reason: reason,
		}},
	}, nil
}
