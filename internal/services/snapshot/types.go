package snapshot

import "time"

// CommentSample is a trimmed comment carried into a snapshot.
type CommentSample struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UserID    string    `json:"user_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
}

// TaskSample is the serialized form of one sampled task.
type TaskSample struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	Health        TaskHealth `json:"health"`
	HealthLabel   string     `json:"health_label"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	AssigneeCount int        `json:"assignee_count"`
	GoalsTotal    int        `json:"goals_total"`
	GoalsAchieved int        `json:"goals_achieved"`
}

// GoalStats summarizes weekly goals vs achievement replies for a project.
type GoalStats struct {
	Total        int `json:"total"`
	Matched      int `json:"matched"`
	MatchRatePct int `json:"match_rate_pct"`
}

// ProjectSnapshot is the bounded context for one project-scope generation.
// SampledTasks is capped; TaskTotal always carries the true count.
type ProjectSnapshot struct {
	ProjectID       string          `json:"project_id"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Status          string          `json:"status"`
	HealthScore     int             `json:"health_score"`
	TaskTotal       int             `json:"task_total"`
	SampledTasks    []TaskSample    `json:"sampled_tasks"`
	CompletedCount  int             `json:"completed_count"`
	OverdueCount    int             `json:"overdue_count"`
	HoldCount       int             `json:"hold_count"`
	DueSoonCount    int             `json:"due_soon_count"`
	Goals           GoalStats       `json:"goals"`
	ProjectComments []CommentSample `json:"project_comments"`
	TaskComments    []CommentSample `json:"task_comments"`
	TakenAt         time.Time       `json:"taken_at"`
}

// GroupStat aggregates one group for the admin snapshot.
type GroupStat struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	ProjectCount int     `json:"project_count"`
	AvgHealth    float64 `json:"avg_health"`
}

// ProjectStat aggregates one project for the admin snapshot.
type ProjectStat struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GroupID      string `json:"group_id,omitempty"`
	Status       string `json:"status"`
	HealthScore  int    `json:"health_score"`
	TaskCount    int    `json:"task_count"`
	OverdueCount int    `json:"overdue_count"`
	HoldCount    int    `json:"hold_count"`
}

// UserStat aggregates one user for the admin snapshot. Secrets never enter
// this projection.
type UserStat struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	TaskCount    int    `json:"task_count"`
	OverdueCount int    `json:"overdue_count"`
}

// AdminSnapshot is the bounded context for the organization-wide generation.
type AdminSnapshot struct {
	GroupCount     int           `json:"group_count"`
	ProjectCount   int           `json:"project_count"`
	TaskCount      int           `json:"task_count"`
	UserCount      int           `json:"user_count"`
	CompletedTasks int           `json:"completed_tasks"`
	OverdueTasks   int           `json:"overdue_tasks"`
	HoldTasks      int           `json:"hold_tasks"`
	Groups         []GroupStat   `json:"groups"`
	Projects       []ProjectStat `json:"projects"`
	Users          []UserStat    `json:"users"`
	TakenAt        time.Time     `json:"taken_at"`
}
