package models

import "time"

// ProjectStatus represents the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectStatusOngoing   ProjectStatus = "ongoing"
	ProjectStatusHold      ProjectStatus = "hold"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

const (
	TaskStatusNotStarted TaskStatus = "not_started"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusHold       TaskStatus = "hold"
	TaskStatusBlocked    TaskStatus = "blocked"
	TaskStatusReview     TaskStatus = "review"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskPriority represents task urgency.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// UserRole controls which views a user may access.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleUser    UserRole = "user"
)

// UserStatus marks whether an account is active.
type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// GoalStatus tracks whether a weekly goal was achieved.
const (
	GoalStatusPending     = "pending"
	GoalStatusAchieved    = "achieved"
	GoalStatusNotAchieved = "not_achieved"
)

// Goal is a weekly goal attached to a task or project.
type Goal struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Status string `json:"status"`
}

// Achievement is a reply recorded against a goal. GoalID links back to the
// goal it answers; zero means unlinked.
type Achievement struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	GoalID int    `json:"goal_id,omitempty"`
}

// Group is a top-level container of projects.
type Group struct {
	ID          string    `json:"id" badgerhold:"key"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	OwnerID     string    `json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project belongs to a group and carries tasks.
type Project struct {
	ID                 string        `json:"id" badgerhold:"key"`
	GroupID            string        `json:"group_id" badgerhold:"index"`
	Name               string        `json:"name"`
	Description        string        `json:"description,omitempty"`
	Status             ProjectStatus `json:"status"`
	OwnerID            string        `json:"owner_id"`
	CollaboratorIDs    []string      `json:"collaborator_ids,omitempty"`
	AccessUserIDs      []string      `json:"access_user_ids,omitempty"`
	WeeklyGoals        []Goal        `json:"weekly_goals,omitempty"`
	WeeklyAchievements []Achievement `json:"weekly_achievements,omitempty"`
	HealthScore        int           `json:"health_score"`
	StartDate          *time.Time    `json:"start_date,omitempty"`
	EndDate            *time.Time    `json:"end_date,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Task is a unit of work within a project.
type Task struct {
	ID                 string        `json:"id" badgerhold:"key"`
	ProjectID          string        `json:"project_id" badgerhold:"index"`
	GroupID            string        `json:"group_id"`
	Title              string        `json:"title"`
	Description        string        `json:"description,omitempty"`
	Status             TaskStatus    `json:"status"`
	Priority           TaskPriority  `json:"priority"`
	AssignedByID       string        `json:"assigned_by_id"`
	AssigneeIDs        []string      `json:"assignee_ids,omitempty"`
	CollaboratorIDs    []string      `json:"collaborator_ids,omitempty"`
	DueDate            *time.Time    `json:"due_date,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	WeeklyGoals        []Goal        `json:"weekly_goals,omitempty"`
	WeeklyAchievements []Achievement `json:"weekly_achievements,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// AccessGrant is the set of group and project ids a user may reach directly.
type AccessGrant struct {
	GroupIDs   []string `json:"group_ids,omitempty"`
	ProjectIDs []string `json:"project_ids,omitempty"`
}

// NotificationPreferences controls which notifications a user receives.
type NotificationPreferences struct {
	InApp        bool `json:"in_app"`
	Email        bool `json:"email"`
	WeeklyDigest bool `json:"weekly_digest"`
}

// User is an account in the tracker. Credential fields never pass through
// this struct; the snapshot path only ever sees this projection.
type User struct {
	ID               string                  `json:"id" badgerhold:"key"`
	Name             string                  `json:"name"`
	Email            string                  `json:"email"`
	Role             UserRole                `json:"role"`
	Status           UserStatus              `json:"status"`
	Access           AccessGrant             `json:"access"`
	Preferences      NotificationPreferences `json:"notification_preferences"`
	DigestLastSentAt *time.Time              `json:"digest_last_sent_at,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// Comment is attached to either a task or a project (one of the two ids set).
type Comment struct {
	ID        string    `json:"id" badgerhold:"key"`
	TaskID    string    `json:"task_id,omitempty" badgerhold:"index"`
	ProjectID string    `json:"project_id,omitempty" badgerhold:"index"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification is an in-app message delivered to a user.
type Notification struct {
	ID        string    `json:"id" badgerhold:"key"`
	UserID    string    `json:"user_id" badgerhold:"index"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	SenderID  string    `json:"sender_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SortTimestamp returns the most recent of UpdatedAt and CreatedAt, used to
// rank projects by recency. A zero result sorts last.
func (p *Project) SortTimestamp() time.Time {
	if p.UpdatedAt.After(p.CreatedAt) {
		return p.UpdatedAt
	}
	return p.CreatedAt
}
