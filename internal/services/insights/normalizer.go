package insights

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/taskpulse/internal/models"
	"github.com/ternarybob/taskpulse/internal/services/snapshot"
)

// Word-count bounds per prose field.
const (
	projectSummaryMin = 200
	projectSummaryMax = 300
	projectRecMin     = 80
	projectRecMax     = 120
	goalsSummaryMin   = 40
	goalsSummaryMax   = 60
	adminAnalysisMin  = 400
	adminAnalysisMax  = 600
	adminRecsMin      = 1000
	adminRecsMax      = 1500
)

var (
	fencedBlockRe   = regexp.MustCompile("(?s)```.*?```")
	arrayFragmentRe = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)
	objectFragRe    = regexp.MustCompile(`(?s)\{\s*".*?\}`)
	blankLinesRe    = regexp.MustCompile(`\n{3,}`)
)

// normalizeProjectPayload coerces a raw provider output into the canonical
// payload: prose fields bounded and sanitized, list fields coerced with the
// deterministic equivalents substituted when coercion yields nothing.
func normalizeProjectPayload(out *projectOutput, snap *snapshot.ProjectSnapshot) *models.ProjectPayload {
	pool := projectStatParagraphs(snap)
	fb := fallbackProjectPayload(snap)

	return &models.ProjectPayload{
		Summary:        normalizeProse(out.Summary, projectSummaryMin, projectSummaryMax, pool),
		Recommendation: normalizeProse(out.Recommendation, projectRecMin, projectRecMax, pool),
		GoalsSummary:   normalizeProse(out.GoalsSummary, goalsSummaryMin, goalsSummaryMax, pool),
		Citations:      coerceCitations(out.Citations, fb.Citations),
		TaskInsights:   coerceTaskInsights(out.TaskInsights, fb.TaskInsights),
	}
}

// normalizeAdminPayload coerces a raw admin output into canonical form.
func normalizeAdminPayload(out *adminOutput, snap *snapshot.AdminSnapshot) *models.AdminPayload {
	pool := adminStatParagraphs(snap)
	fb := fallbackAdminPayload(snap)

	return &models.AdminPayload{
		Analysis:         normalizeProse(out.Analysis, adminAnalysisMin, adminAnalysisMax, pool),
		Recommendations:  normalizeProse(out.Recommendations, adminRecsMin, adminRecsMax, pool),
		FocusArea:        sentenceOr(out.FocusArea, fb.FocusArea),
		TeamBalance:      sentenceOr(out.TeamBalance, fb.TeamBalance),
		QuickWin:         sentenceOr(out.QuickWin, fb.QuickWin),
		GroupSummaries:   coerceEntitySummaries(out.GroupSummaries, fb.GroupSummaries),
		ProjectSummaries: coerceEntitySummaries(out.ProjectSummaries, fb.ProjectSummaries),
	}
}

// normalizedFallbackProject runs the deterministic payload through the same
// bounds so fallback prose honors the contract too.
func normalizedFallbackProject(snap *snapshot.ProjectSnapshot) *models.ProjectPayload {
	pool := projectStatParagraphs(snap)
	payload := fallbackProjectPayload(snap)
	payload.Summary = normalizeProse(payload.Summary, projectSummaryMin, projectSummaryMax, pool)
	payload.Recommendation = normalizeProse(payload.Recommendation, projectRecMin, projectRecMax, pool)
	payload.GoalsSummary = normalizeProse(payload.GoalsSummary, goalsSummaryMin, goalsSummaryMax, pool)
	return payload
}

// normalizedFallbackAdmin is the admin-scope counterpart.
func normalizedFallbackAdmin(snap *snapshot.AdminSnapshot) *models.AdminPayload {
	pool := adminStatParagraphs(snap)
	payload := fallbackAdminPayload(snap)
	payload.Analysis = normalizeProse(payload.Analysis, adminAnalysisMin, adminAnalysisMax, pool)
	payload.Recommendations = normalizeProse(payload.Recommendations, adminRecsMin, adminRecsMax, pool)
	return payload
}

// normalizeProse sanitizes a prose field, expands it round-robin from the
// statistic paragraph pool until the word floor is met, then truncates at a
// word boundary to the ceiling.
func normalizeProse(text string, min, max int, pool []string) string {
	cleaned := sanitizeProse(text)

	if len(pool) > 0 {
		i := 0
		for wordCount(cleaned) < min {
			if cleaned != "" {
				cleaned += "\n\n"
			}
			cleaned += pool[i%len(pool)]
			i++
		}
	}

	return truncateWords(cleaned, max)
}

// sanitizeProse strips embedded structured-data fragments (fenced blocks,
// serialized arrays/objects) from prose and collapses leftover blank lines.
func sanitizeProse(text string) string {
	cleaned := fencedBlockRe.ReplaceAllString(text, "")
	cleaned = arrayFragmentRe.ReplaceAllString(cleaned, "")
	cleaned = objectFragRe.ReplaceAllString(cleaned, "")
	cleaned = blankLinesRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

// sentenceOr sanitizes a one-sentence field, substituting the deterministic
// equivalent when nothing survives.
func sentenceOr(text, fallback string) string {
	cleaned := sanitizeProse(text)
	if cleaned == "" {
		return fallback
	}
	return cleaned
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// truncateWords cuts text to at most max words at a word boundary.
func truncateWords(text string, max int) string {
	words := strings.Fields(text)
	if len(words) <= max {
		return text
	}
	return strings.Join(words[:max], " ")
}

// coerceList normalizes a possibly-malformed list value: a native JSON list,
// a JSON-encoded string, or a dict wrapping the list under a hinted key.
// Anything else yields nil.
func coerceList(raw json.RawMessage, hintKeys ...string) []map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}

	// Native list
	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}

	// JSON-encoded string
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		encoded = strings.TrimSpace(encoded)
		if encoded == "" {
			return nil
		}
		return coerceList(json.RawMessage(encoded), hintKeys...)
	}

	// Dict wrapping the list under a hinted key
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err == nil {
		for _, key := range hintKeys {
			if inner, ok := wrapper[key]; ok {
				if items := coerceList(inner); items != nil {
					return items
				}
			}
		}
		// Any list-valued member as a last resort
		for _, inner := range wrapper {
			var candidate []map[string]interface{}
			if err := json.Unmarshal(inner, &candidate); err == nil && len(candidate) > 0 {
				return candidate
			}
		}
	}

	return nil
}

// coerceCitations shapes a raw list into citations, substituting the
// deterministic equivalent when coercion yields nothing.
func coerceCitations(raw json.RawMessage, fallback []models.Citation) []models.Citation {
	items := coerceList(raw, "citations", "items")
	citations := make([]models.Citation, 0, len(items))
	for _, item := range items {
		label := stringify(item["label"])
		value := stringify(item["value"])
		if label == "" && value == "" {
			continue
		}
		citations = append(citations, models.Citation{Label: label, Value: value})
	}
	if len(citations) == 0 {
		return fallback
	}
	return citations
}

// coerceTaskInsights shapes a raw list into task insights.
func coerceTaskInsights(raw json.RawMessage, fallback []models.TaskInsight) []models.TaskInsight {
	items := coerceList(raw, "task_insights", "tasks", "items")
	insights := make([]models.TaskInsight, 0, len(items))
	for _, item := range items {
		entry := models.TaskInsight{
			TaskID:         stringify(item["task_id"]),
			TaskTitle:      stringify(item["task_title"]),
			Health:         stringify(item["health"]),
			Insight:        stringify(item["insight"]),
			Recommendation: stringify(item["recommendation"]),
		}
		if entry.TaskID == "" && entry.Insight == "" {
			continue
		}
		insights = append(insights, entry)
	}
	if len(insights) == 0 {
		return fallback
	}
	return insights
}

// coerceEntitySummaries shapes a raw list into group/project summaries.
func coerceEntitySummaries(raw json.RawMessage, fallback []models.EntitySummary) []models.EntitySummary {
	items := coerceList(raw, "group_summaries", "project_summaries", "summaries", "items")
	summaries := make([]models.EntitySummary, 0, len(items))
	for _, item := range items {
		entry := models.EntitySummary{
			ID:      stringify(item["id"]),
			Name:    stringify(item["name"]),
			Insight: stringify(item["insight"]),
		}
		if entry.ID == "" && entry.Name == "" {
			continue
		}
		summaries = append(summaries, entry)
	}
	if len(summaries) == 0 {
		return fallback
	}
	return summaries
}

// stringify normalizes loosely-typed ids and values to string form.
func stringify(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(value)
	default:
		data, err := json.Marshal(value)
		if err != nil {
			return ""
		}
		return string(data)
	}
}
