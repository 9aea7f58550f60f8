package scope

import (
	"sort"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/taskpulse/internal/interfaces"
	"github.com/ternarybob/taskpulse/internal/models"
)

const defaultTrimLimit = 5

// Entities is one bundle of record-store lists flowing through the filter.
type Entities struct {
	Groups   []*models.Group
	Projects []*models.Project
	Tasks    []*models.Task
	Users    []*models.User
	Comments []*models.Comment
}

// Filter computes the subset of entities visible to an actor and bounds
// default views to a recent-project sample.
type Filter struct {
	trimLimit int
	logger    arbor.ILogger
}

// NewFilter creates a scope filter. trimLimit bounds the default (unfiltered)
// view to the N most-recently-updated projects.
func NewFilter(trimLimit int, logger arbor.ILogger) *Filter {
	if trimLimit <= 0 {
		trimLimit = defaultTrimLimit
	}
	return &Filter{
		trimLimit: trimLimit,
		logger:    logger,
	}
}

// Closure computes the reachability closure from the actor's grants:
// granted/owned groups, then reachable projects (grant, ownership,
// collaboration, access), expanded by task involvement, then the groups of
// every reachable project, then tasks/users/comments restricted to that set.
func (f *Filter) Closure(actor *models.User, in Entities) Entities {
	actorID := actor.ID

	groupIDs := make(map[string]bool)
	for _, id := range actor.Access.GroupIDs {
		if id != "" {
			groupIDs[id] = true
		}
	}
	for _, group := range in.Groups {
		if group.OwnerID == actorID {
			groupIDs[group.ID] = true
		}
	}

	grantedProjects := make(map[string]bool)
	for _, id := range actor.Access.ProjectIDs {
		if id != "" {
			grantedProjects[id] = true
		}
	}

	projectIDs := make(map[string]bool)
	for _, project := range in.Projects {
		if grantedProjects[project.ID] || groupIDs[project.GroupID] {
			projectIDs[project.ID] = true
		}
		if project.OwnerID == actorID {
			projectIDs[project.ID] = true
		}
		if containsID(project.AccessUserIDs, actorID) || containsID(project.CollaboratorIDs, actorID) {
			projectIDs[project.ID] = true
		}
	}

	// Task involvement pulls the owning project into scope.
	for _, task := range in.Tasks {
		if task.ProjectID == "" {
			continue
		}
		if task.AssignedByID == actorID ||
			containsID(task.AssigneeIDs, actorID) ||
			containsID(task.CollaboratorIDs, actorID) {
			projectIDs[task.ProjectID] = true
		}
	}

	// Close the loop: the group of every reachable project is reachable.
	for _, project := range in.Projects {
		if projectIDs[project.ID] && project.GroupID != "" {
			groupIDs[project.GroupID] = true
		}
	}

	out := Entities{}
	for _, group := range in.Groups {
		if groupIDs[group.ID] {
			out.Groups = append(out.Groups, group)
		}
	}
	for _, project := range in.Projects {
		if projectIDs[project.ID] {
			out.Projects = append(out.Projects, project)
		}
	}
	for _, task := range in.Tasks {
		if projectIDs[task.ProjectID] {
			out.Tasks = append(out.Tasks, task)
		}
	}

	out.Users = scopeUsers(in.Users, out.Projects, out.Tasks, groupKeys(out.Groups), projectKeys(out.Projects))
	out.Comments = scopeComments(in.Comments, out.Tasks, out.Projects)

	return out
}

// Trim bounds a closure result to the most-recently-updated projects and
// recomputes the downstream sets from that sample.
func (f *Filter) Trim(in Entities) Entities {
	if len(in.Projects) == 0 {
		return in
	}

	projects := make([]*models.Project, len(in.Projects))
	copy(projects, in.Projects)
	sort.SliceStable(projects, func(i, j int) bool {
		return projects[i].SortTimestamp().After(projects[j].SortTimestamp())
	})
	if len(projects) > f.trimLimit {
		projects = projects[:f.trimLimit]
	}

	keep := make(map[string]bool, len(projects))
	for _, p := range projects {
		keep[p.ID] = true
	}
	return f.restrictToProjects(in, keep)
}

// ApplyExplicit narrows a closure result to the caller-supplied id sets.
// Projects survive when named directly or via their group; users are
// additionally narrowed by the user id set when one is given.
func (f *Filter) ApplyExplicit(in Entities, filters interfaces.InsightFilters) Entities {
	groupSet := idSet(filters.GroupIDs)
	projectSet := idSet(filters.ProjectIDs)
	userSet := idSet(filters.UserIDs)

	keep := make(map[string]bool)
	for _, project := range in.Projects {
		if len(groupSet) == 0 && len(projectSet) == 0 {
			// Only a user filter: keep all reachable projects.
			keep[project.ID] = true
			continue
		}
		if projectSet[project.ID] || groupSet[project.GroupID] {
			keep[project.ID] = true
		}
	}

	out := f.restrictToProjects(in, keep)

	if len(userSet) > 0 {
		users := out.Users[:0]
		for _, user := range out.Users {
			if userSet[user.ID] {
				users = append(users, user)
			}
		}
		out.Users = users
	}

	return out
}

// IntersectFilters drops filter ids outside the actor's reachable sets.
// An explicit filter that survives empty falls back to the default view.
func IntersectFilters(filters interfaces.InsightFilters, allowed Entities) interfaces.InsightFilters {
	groupSet := groupKeys(allowed.Groups)
	projectSet := projectKeys(allowed.Projects)
	userSet := make(map[string]bool, len(allowed.Users))
	for _, u := range allowed.Users {
		userSet[u.ID] = true
	}

	out := interfaces.InsightFilters{}
	for _, id := range filters.GroupIDs {
		if groupSet[id] {
			out.GroupIDs = append(out.GroupIDs, id)
		}
	}
	for _, id := range filters.ProjectIDs {
		if projectSet[id] {
			out.ProjectIDs = append(out.ProjectIDs, id)
		}
	}
	for _, id := range filters.UserIDs {
		if userSet[id] {
			out.UserIDs = append(out.UserIDs, id)
		}
	}
	return out
}

// restrictToProjects recomputes groups/tasks/users/comments against a kept
// project id set, using the same rules as the closure's final steps.
func (f *Filter) restrictToProjects(in Entities, keep map[string]bool) Entities {
	out := Entities{}
	for _, project := range in.Projects {
		if keep[project.ID] {
			out.Projects = append(out.Projects, project)
		}
	}

	groupIDs := make(map[string]bool)
	for _, project := range out.Projects {
		if project.GroupID != "" {
			groupIDs[project.GroupID] = true
		}
	}
	for _, group := range in.Groups {
		if groupIDs[group.ID] {
			out.Groups = append(out.Groups, group)
		}
	}

	for _, task := range in.Tasks {
		if keep[task.ProjectID] {
			out.Tasks = append(out.Tasks, task)
		}
	}

	out.Users = scopeUsers(in.Users, out.Projects, out.Tasks, groupIDs, keep)
	out.Comments = scopeComments(in.Comments, out.Tasks, out.Projects)

	return out
}

// scopeUsers selects users connected to the scoped projects and tasks:
// owners, access users, collaborators, task creators/assignees, plus any
// user whose own grants intersect the scoped group/project sets.
func scopeUsers(users []*models.User, projects []*models.Project, tasks []*models.Task, groupIDs, projectIDs map[string]bool) []*models.User {
	if users == nil {
		return nil
	}

	userIDs := make(map[string]bool)
	for _, project := range projects {
		if project.OwnerID != "" {
			userIDs[project.OwnerID] = true
		}
		for _, id := range project.AccessUserIDs {
			userIDs[id] = true
		}
		for _, id := range project.CollaboratorIDs {
			userIDs[id] = true
		}
	}
	for _, task := range tasks {
		if task.AssignedByID != "" {
			userIDs[task.AssignedByID] = true
		}
		for _, id := range task.AssigneeIDs {
			userIDs[id] = true
		}
		for _, id := range task.CollaboratorIDs {
			userIDs[id] = true
		}
	}
	for _, user := range users {
		for _, gid := range user.Access.GroupIDs {
			if groupIDs[gid] {
				userIDs[user.ID] = true
			}
		}
		for _, pid := range user.Access.ProjectIDs {
			if projectIDs[pid] {
				userIDs[user.ID] = true
			}
		}
	}

	scoped := make([]*models.User, 0, len(userIDs))
	for _, user := range users {
		if userIDs[user.ID] {
			scoped = append(scoped, user)
		}
	}
	return scoped
}

// scopeComments keeps comments attached to an in-scope task or project.
func scopeComments(comments []*models.Comment, tasks []*models.Task, projects []*models.Project) []*models.Comment {
	if comments == nil {
		return nil
	}

	taskIDs := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		taskIDs[t.ID] = true
	}
	projectIDs := projectKeys(projects)

	scoped := make([]*models.Comment, 0)
	for _, comment := range comments {
		if comment.TaskID != "" && taskIDs[comment.TaskID] {
			scoped = append(scoped, comment)
			continue
		}
		if comment.ProjectID != "" && projectIDs[comment.ProjectID] {
			scoped = append(scoped, comment)
		}
	}
	return scoped
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
	return set
}

func groupKeys(groups []*models.Group) map[string]bool {
	set := make(map[string]bool, len(groups))
	for _, g := range groups {
		set[g.ID] = true
	}
	return set
}

func projectKeys(projects []*models.Project) map[string]bool {
	set := make(map[string]bool, len(projects))
	for _, p := range projects {
		set[p.ID] = true
	}
	return set
}
