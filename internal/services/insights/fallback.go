package insights

import (
	"fmt"
	"strings"

	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

// The fallback synthesizer produces fully-shaped payloads from snapshot
// statistics alone. Every narrative field is populated so callers never see a
// partial shape, whatever the provider did.

// projectStatParagraphs is the fixed expansion pool for project prose fields.
// The normalizer draws from it round-robin to satisfy word-count floors.
func projectStatParagraphs(snap *snapshot.ProjectSnapshot) []string {
	active := snap.TaskTotal - snap.CompletedCount
	paragraphs := []string{
		fmt.Sprintf(
			"The project currently tracks %d tasks in total, of which %d are completed and %d remain active. "+
				"Within the active set, %d tasks are overdue, %d are on hold or blocked, and %d are due within the next two days. "+
				"These counts are computed directly from the task records at the time of this report and reflect the live state of the board.",
			snap.TaskTotal, snap.CompletedCount, active, snap.OverdueCount, snap.HoldCount, snap.DueSoonCount),
		fmt.Sprintf(
			"Weekly goal tracking shows %d goals recorded for this project, with %d of them matched by at least one achievement reply, "+
				"a match rate of %d percent. Goal follow-through is a leading indicator of delivery discipline: a rising match rate "+
				"usually precedes an improvement in completion counts, while a falling one points to planning that has outpaced execution.",
			snap.Goals.Total, snap.Goals.Matched, snap.Goals.MatchRatePct),
		fmt.Sprintf(
			"The project is in status %q with a recorded health score of %d. Health is derived from task completion arithmetic, "+
				"so sustained movement in the overdue and on-hold counts above will show up in this score over the coming cycles. "+
				"Comment activity sampled for this report covers %d project-level and %d task-level entries.",
			snap.Status, snap.HealthScore, len(snap.ProjectComments), len(snap.TaskComments)),
		fmt.Sprintf(
			"Of the task sample serialized for this analysis, %d of %d tasks were included, prioritized so that incomplete and "+
				"at-risk work appears first. Counts reported here always refer to the full task set, not the sample, so the figures "+
				"remain comparable between reports even as the sample contents change.",
			len(snap.SampledTasks), snap.TaskTotal),
	}
	return paragraphs
}

// adminStatParagraphs is the fixed expansion pool for admin prose fields.
func adminStatParagraphs(snap *snapshot.AdminSnapshot) []string {
	paragraphs := []string{
		fmt.Sprintf(
			"The portfolio spans %d groups, %d projects, and %d tasks worked by %d members. Of those tasks, %d are completed, "+
				"%d are overdue, and %d are on hold or blocked. These totals are computed from the record store at report time "+
				"and form the baseline every other observation in this analysis is drawn from.",
			snap.GroupCount, snap.ProjectCount, snap.TaskCount, snap.UserCount,
			snap.CompletedTasks, snap.OverdueTasks, snap.HoldTasks),
		fmt.Sprintf(
			"Overdue work is the clearest pressure signal in the data: %d of %d tasks have passed their due date without completion. "+
				"Clearing overdue items ahead of starting new work is the single most reliable way to move the portfolio's health "+
				"figures, because every overdue task depresses both its project's score and its assignees' capacity.",
			snap.OverdueTasks, snap.TaskCount),
		fmt.Sprintf(
			"Hold and blocked states account for %d tasks. Unlike overdue work, held work usually signals an external dependency or "+
				"an unresolved decision rather than a capacity problem, so these items respond better to escalation than to "+
				"reassignment. Reviewing each held task's age is the recommended first step.",
			snap.HoldTasks),
		fmt.Sprintf(
			"Group-level distribution matters as much as the totals: the %d groups in scope do not carry projects evenly, and average "+
				"health varies between them. Rebalancing attention toward the groups with the lowest average health protects the "+
				"portfolio more cheaply than broad initiatives, because health decay concentrates before it spreads.",
			snap.GroupCount),
		fmt.Sprintf(
			"Member workload derived from task assignment shows %d members carrying the %d active and completed tasks in scope. "+
				"Where a single member accumulates a disproportionate overdue count, redistributing their queue is a faster fix than "+
				"deadline extensions, which tend only to defer the same congestion by one cycle.",
			snap.UserCount, snap.TaskCount),
	}
	return paragraphs
}

// fallbackProjectPayload synthesizes a complete project payload from the
// snapshot. Prose fields are base narratives; the normalizer applies the
// word-count floors and ceilings.
func fallbackProjectPayload(snap *snapshot.ProjectSnapshot) *models.ProjectPayload {
	active := snap.TaskTotal - snap.CompletedCount
	summary := fmt.Sprintf(
		"%s is a %s project carrying %d tasks, %d of which are complete and %d still active. "+
			"Current risk indicators show %d overdue tasks, %d on hold or blocked, and %d approaching their due date. "+
			"The recorded health score stands at %d.",
		snap.Name, snap.Status, snap.TaskTotal, snap.CompletedCount, active,
		snap.OverdueCount, snap.HoldCount, snap.DueSoonCount, snap.HealthScore)

	recommendation := recommendationFor(snap)

	goalsSummary := fmt.Sprintf(
		"Of %d weekly goals recorded, %d have at least one achievement reply, a match rate of %d percent. ",
		snap.Goals.Total, snap.Goals.Matched, snap.Goals.MatchRatePct)
	if snap.Goals.Total == 0 {
		goalsSummary = "No weekly goals are recorded for this project yet, so goal follow-through cannot be measured this cycle. "
	}

	return &models.ProjectPayload{
		Summary:        summary,
		Recommendation: recommendation,
		GoalsSummary:   goalsSummary,
		Citations:      fallbackCitations(snap),
		TaskInsights:   fallbackTaskInsights(snap),
	}
}

func recommendationFor(snap *snapshot.ProjectSnapshot) string {
	switch {
	case snap.OverdueCount > 0:
		return fmt.Sprintf(
			"Prioritize the %d overdue tasks before admitting new work. Overdue items depress the health score and block "+
				"downstream tasks; clearing them first restores predictability faster than any other intervention.",
			snap.OverdueCount)
	case snap.HoldCount > 0:
		return fmt.Sprintf(
			"Review the %d tasks currently on hold or blocked. Held work usually waits on a decision or dependency rather "+
				"than capacity, so a short escalation pass will release more throughput than adding assignees.",
			snap.HoldCount)
	case snap.DueSoonCount > 0:
		return fmt.Sprintf(
			"Confirm owners and remaining effort for the %d tasks due within the next two days to avoid a new overdue cluster.",
			snap.DueSoonCount)
	default:
		return "The board shows no overdue, held, or imminently due work. Use the slack to close out remaining active tasks " +
			"and to record weekly goals so the next cycle's follow-through can be measured."
	}
}

// fallbackCitations derives the citation list straight from the statistics.
func fallbackCitations(snap *snapshot.ProjectSnapshot) []models.Citation {
	return []models.Citation{
		{Label: "total_tasks", Value: fmt.Sprintf("%d", snap.TaskTotal)},
		{Label: "completed_tasks", Value: fmt.Sprintf("%d", snap.CompletedCount)},
		{Label: "overdue_tasks", Value: fmt.Sprintf("%d", snap.OverdueCount)},
		{Label: "on_hold_tasks", Value: fmt.Sprintf("%d", snap.HoldCount)},
		{Label: "goal_match_rate", Value: fmt.Sprintf("%d%%", snap.Goals.MatchRatePct)},
		{Label: "health_score", Value: fmt.Sprintf("%d", snap.HealthScore)},
	}
}

// fallbackTaskInsights produces one deterministic entry per sampled task.
func fallbackTaskInsights(snap *snapshot.ProjectSnapshot) []models.TaskInsight {
	insights := make([]models.TaskInsight, 0, len(snap.SampledTasks))
	for _, task := range snap.SampledTasks {
		var insight, rec string
		switch task.HealthLabel {
		case "completed":
			insight = "Task is complete and no longer contributes risk."
			rec = "No action required."
		case "on_hold":
			insight = "Task is parked in a hold or blocked state and is not progressing."
			rec = "Identify the blocking dependency and escalate or re-plan the task."
		case "overdue":
			insight = "Task has passed its due date without completion."
			rec = "Re-confirm the owner and either finish or re-schedule the task this cycle."
		case "due_soon":
			insight = "Task is due within the next two days and has not been completed."
			rec = "Verify remaining effort now to avoid the task slipping overdue."
		default:
			insight = "Task is progressing with no risk indicators."
			rec = "Keep the current cadence."
		}
		insights = append(insights, models.TaskInsight{
			TaskID:         task.ID,
			TaskTitle:      task.Title,
			Health:         string(task.Health),
			Insight:        insight,
			Recommendation: rec,
		})
	}
	return insights
}

// fallbackAdminPayload synthesizes the organization-wide payload.
func fallbackAdminPayload(snap *snapshot.AdminSnapshot) *models.AdminPayload {
	analysis := fmt.Sprintf(
		"The organization currently operates %d groups containing %d projects, with %d tasks assigned across %d members. "+
			"%d tasks are complete, %d are overdue, and %d sit in hold or blocked states. ",
		snap.GroupCount, snap.ProjectCount, snap.TaskCount, snap.UserCount,
		snap.CompletedTasks, snap.OverdueTasks, snap.HoldTasks)

	recommendations := adminRecommendationsBase(snap)

	return &models.AdminPayload{
		Analysis:         analysis,
		Recommendations:  recommendations,
		FocusArea:        fallbackFocusArea(snap),
		TeamBalance:      fallbackTeamBalance(snap),
		QuickWin:         fallbackQuickWin(snap),
		GroupSummaries:   fallbackGroupSummaries(snap),
		ProjectSummaries: fallbackProjectSummaries(snap),
	}
}

func adminRecommendationsBase(snap *snapshot.AdminSnapshot) string {
	var b strings.Builder
	if snap.OverdueTasks > 0 {
		fmt.Fprintf(&b,
			"First, clear the overdue backlog: %d tasks have passed their due dates. Triage them by project, close what is "+
				"already done but unrecorded, and re-schedule the remainder with explicit owners. ", snap.OverdueTasks)
	}
	if snap.HoldTasks > 0 {
		fmt.Fprintf(&b,
			"Second, review the %d held or blocked tasks. Each one should name the dependency it waits on; any that cannot "+
				"name one should be returned to the active queue or closed. ", snap.HoldTasks)
	}
	if b.Len() == 0 {
		b.WriteString(
			"No overdue or held work is visible in the current data, which makes this the right moment to invest in " +
				"preventative structure: confirm every project records weekly goals, and review assignment spread before " +
				"new intake concentrates load on the same members again. ")
	}
	return b.String()
}

func fallbackFocusArea(snap *snapshot.AdminSnapshot) string {
	if snap.OverdueTasks > 0 {
		return fmt.Sprintf("The overdue backlog of %d tasks is the area needing the most immediate attention.", snap.OverdueTasks)
	}
	if snap.HoldTasks > 0 {
		return fmt.Sprintf("The %d tasks parked in hold or blocked states need a dependency review.", snap.HoldTasks)
	}
	return "No acute pressure is visible; attention is best spent on goal coverage and planning hygiene."
}

func fallbackTeamBalance(snap *snapshot.AdminSnapshot) string {
	if snap.UserCount == 0 {
		return "No members are recorded in the current scope, so workload balance cannot be assessed."
	}
	perUser := float64(snap.TaskCount) / float64(snap.UserCount)
	return fmt.Sprintf("Task load averages %.1f tasks per member across %d members; check individual overdue counts for outliers.",
		perUser, snap.UserCount)
}

func fallbackQuickWin(snap *snapshot.AdminSnapshot) string {
	if snap.OverdueTasks > 0 {
		return "Closing already-finished but unrecorded overdue tasks is the cheapest available improvement."
	}
	return "Enabling weekly goal tracking on projects that lack it is the cheapest available improvement."
}

func fallbackGroupSummaries(snap *snapshot.AdminSnapshot) []models.EntitySummary {
	summaries := make([]models.EntitySummary, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		summaries = append(summaries, models.EntitySummary{
			ID:   g.ID,
			Name: g.Name,
			Insight: fmt.Sprintf("Carries %d projects with an average health of %.0f.",
				g.ProjectCount, g.AvgHealth),
		})
	}
	return summaries
}

func fallbackProjectSummaries(snap *snapshot.AdminSnapshot) []models.EntitySummary {
	summaries := make([]models.EntitySummary, 0, len(snap.Projects))
	for _, p := range snap.Projects {
		summaries = append(summaries, models.EntitySummary{
			ID:   p.ID,
			Name: p.Name,
			Insight: fmt.Sprintf("%d tasks, %d overdue, %d on hold; health score %d.",
				p.TaskCount, p.OverdueCount, p.HoldCount, p.HealthScore),
		})
	}
	return summaries
}
