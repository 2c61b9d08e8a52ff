package authz

import (
	"github.com/adil-shabab/Project-Management-API/internal/models"
	"gorm.io/gorm"
)

type Action string

const (
	ActionViewProject   Action = "project.view"
	ActionCreateProject Action = "project.create"
	ActionUpdateProject Action = "project.update"
	ActionDeleteProject Action = "project.delete"
	ActionAddMember     Action = "project.add_member"
	ActionCreateUser    Action = "user.create"
	ActionEditUser      Action = "user.edit"
	ActionDeleteUser    Action = "user.delete"
	ActionViewUserTasks Action = "user.view_tasks"
	ActionAssignTask    Action = "task.assign"
	ActionReviewTicket  Action = "task.review"
)

type Relationship string

const (
	RelTeamLead Relationship = "team_lead"
	RelCreator  Relationship = "creator"
	RelMember   Relationship = "member"
	RelNone     Relationship = "none"
)

type grant struct {
	roles         []string
	relationships []Relationship
}

// One declarative table instead of inline role checks per handler. A role or
// relationship grants the action; anything not listed is denied.
var policy = map[Action]grant{
	ActionViewProject:   {roles: []string{models.RoleAdmin}, relationships: []Relationship{RelTeamLead, RelCreator, RelMember}},
	ActionCreateProject: {roles: []string{models.RoleAdmin, models.RoleManager}},
	ActionUpdateProject: {roles: []string{models.RoleAdmin}, relationships: []Relationship{RelTeamLead, RelCreator}},
	ActionDeleteProject: {roles: []string{models.RoleAdmin}, relationships: []Relationship{RelCreator}},
	ActionAddMember:     {roles: []string{models.RoleAdmin, models.RoleManager}, relationships: []Relationship{RelTeamLead}},
	ActionCreateUser:    {roles: []string{models.RoleAdmin, models.RoleManager}},
	ActionEditUser:      {roles: []string{models.RoleAdmin}},
	ActionDeleteUser:    {roles: []string{models.RoleAdmin}},
	ActionViewUserTasks: {roles: []string{models.RoleAdmin, models.RoleManager}},
	ActionAssignTask:    {roles: []string{models.RoleAdmin, models.RoleManager}},
	ActionReviewTicket:  {roles: []string{models.RoleAdmin, models.RoleManager}, relationships: []Relationship{RelTeamLead}},
}

// Allowed reports whether an actor with the given role and project
// relationship may perform the action. Fails closed.
func Allowed(role string, relationship Relationship, action Action) bool {
	g, ok := policy[action]

	if !ok {
		return false
	}

	for _, r := range g.roles {
		if r == role {
			return true
		}
	}

	for _, rel := range g.relationships {
		if rel == relationship {
			return true
		}
	}

	return false
}

// RelationshipTo derives the actor's relationship to a project. Team lead
// takes precedence over creator, creator over plain membership.
func RelationshipTo(database *gorm.DB, project *models.Project, userID uint) (Relationship, error) {
	if project.TeamLeadID == userID {
		return RelTeamLead, nil
	}

	if project.CreatedByID == userID {
		return RelCreator, nil
	}

	var count int64

	err := database.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		Count(&count).Error

	if err != nil {
		return RelNone, err
	}

	if count > 0 {
		return RelMember, nil
	}

	return RelNone, nil
}
