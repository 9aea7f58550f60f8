package insights

import (
	"encoding/json"
	"fmt"

	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

const projectSystemPrompt = `You are a project delivery analyst embedded in a task-tracking tool.
You receive a JSON snapshot of one project and respond with a single JSON object, no markdown, no commentary.
Ground every statement in the snapshot statistics. Do not invent task names, people, or numbers.`

const adminSystemPrompt = `You are an operations analyst reviewing an entire organization's project portfolio.
You receive a JSON snapshot of groups, projects, tasks, and members and respond with a single JSON object, no markdown, no commentary.
Ground every statement in the snapshot statistics. Do not invent names or numbers.`

const repairInstruction = `Your previous reply could not be parsed as the required JSON schema.
Return ONLY a valid JSON object matching the schema exactly. No markdown fences, no explanation, no trailing text.`

// projectSchemaHint returns the field/length contract for a project request.
// The compact variant drops the per-item lists to fit tighter output budgets.
func projectSchemaHint(variant SchemaVariant) string {
	base := `{
  "summary": "narrative project summary, 200-300 words",
  "recommendation": "actionable recommendation, 80-120 words",
  "goals_summary": "weekly goals vs achievements summary, 40-60 words"`
	if variant == VariantCompact {
		return base + "\n}"
	}
	return base + `,
  "citations": [{"label": "statistic name", "value": "statistic value"}],
  "task_insights": [{"task_id": "id from snapshot", "task_title": "title", "health": "on_track|at_risk|needs_attention", "insight": "one sentence", "recommendation": "one sentence"}]
}`
}

// adminSchemaHint returns the field/length contract for an admin request.
func adminSchemaHint(variant SchemaVariant) string {
	base := `{
  "analysis": "portfolio analysis, 400-600 words",
  "recommendations": "detailed recommendations, 1000-1500 words",
  "focus_area": "one sentence naming the area needing most attention",
  "team_balance": "one sentence on workload distribution",
  "quick_win": "one sentence naming the cheapest improvement"`
	if variant == VariantCompact {
		return base + "\n}"
	}
	return base + `,
  "group_summaries": [{"id": "group id", "name": "group name", "insight": "one sentence"}],
  "project_summaries": [{"id": "project id", "name": "project name", "insight": "one sentence"}]
}`
}

// buildProjectPrompt serializes the snapshot and schema hint into the user
// instruction for one provider request.
func buildProjectPrompt(snap *snapshot.ProjectSnapshot, variant SchemaVariant) (string, error) {
	context, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to serialize project snapshot: %w", err)
	}
	return fmt.Sprintf(
		"Project snapshot (%d of %d tasks sampled):\n%s\n\nRespond with a JSON object of exactly this shape:\n%s",
		len(snap.SampledTasks), snap.TaskTotal, string(context), projectSchemaHint(variant),
	), nil
}

// buildAdminPrompt serializes the admin snapshot for one provider request.
func buildAdminPrompt(snap *snapshot.AdminSnapshot, variant SchemaVariant) (string, error) {
	context, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to serialize admin snapshot: %w", err)
	}
	return fmt.Sprintf(
		"Organization snapshot (%d groups, %d projects, %d tasks, %d members):\n%s\n\nRespond with a JSON object of exactly this shape:\n%s",
		snap.GroupCount, snap.ProjectCount, snap.TaskCount, snap.UserCount, string(context), adminSchemaHint(variant),
	), nil
}
