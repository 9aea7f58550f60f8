package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrCoercionFailed marks provider output that could not be shaped into the
// declared schema. It feeds the repair/downgrade/fallback ladder.
var ErrCoercionFailed = errors.New("structured output coercion failed")

// SchemaVariant selects between the full output schema and a compact one
// without the per-item summary lists, used as a cheaper retry.
type SchemaVariant string

const (
	VariantFull    SchemaVariant = "full"
	VariantCompact SchemaVariant = "compact"
)

// projectOutput is the raw provider payload for a project scope. List fields
// stay raw so the normalizer can coerce loosely-shaped values.
type projectOutput struct {
	Summary        string          `json:"summary" validate:"required"`
	Recommendation string          `json:"recommendation" validate:"required"`
	GoalsSummary   string          `json:"goals_summary" validate:"required"`
	Citations      json.RawMessage `json:"citations,omitempty"`
	TaskInsights   json.RawMessage `json:"task_insights,omitempty"`
}

// adminOutput is the raw provider payload for the admin scope.
type adminOutput struct {
	Analysis         string          `json:"analysis" validate:"required"`
	Recommendations  string          `json:"recommendations" validate:"required"`
	FocusArea        string          `json:"focus_area" validate:"required"`
	TeamBalance      string          `json:"team_balance" validate:"required"`
	QuickWin         string          `json:"quick_win" validate:"required"`
	GroupSummaries   json.RawMessage `json:"group_summaries,omitempty"`
	ProjectSummaries json.RawMessage `json:"project_summaries,omitempty"`
}

var schemaValidator = validator.New()

// parseProjectOutput coerces provider text into a projectOutput. Any failure
// is reported as ErrCoercionFailed so the caller can branch explicitly.
func parseProjectOutput(text string) (*projectOutput, error) {
	cleaned := extractStructuredBlock(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrCoercionFailed)
	}

	var out projectOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoercionFailed, err)
	}
	if err := schemaValidator.Struct(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoercionFailed, err)
	}
	return &out, nil
}

// parseAdminOutput coerces provider text into an adminOutput.
func parseAdminOutput(text string) (*adminOutput, error) {
	cleaned := extractStructuredBlock(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no JSON object in reply", ErrCoercionFailed)
	}

	var out adminOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoercionFailed, err)
	}
	if err := schemaValidator.Struct(&out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCoercionFailed, err)
	}
	return &out, nil
}

// extractStructuredBlock strips markdown fences and isolates the outermost
// JSON object. Providers often wrap JSON in ``` fences or add prose around it.
func extractStructuredBlock(text string) string {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		if idx := strings.LastIndex(cleaned, "```"); idx >= 0 {
			cleaned = cleaned[:idx]
		}
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start < 0 || end <= start {
		return ""
	}
	return cleaned[start : end+1]
}
