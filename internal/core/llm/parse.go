package llm

import (
	"encoding/json"
	"fmt"

	"clauselens/internal/models"
)

// ParseAnalysis decodes the model's inner text into an AnalysisResult. The
// text must be a single JSON object matching the schema the prompt asks
// for; anything else is an error so the caller can downgrade to a failed
// analysis.
func ParseAnalysis(text string) (*models.AnalysisResult, error) {
	var res models.AnalysisResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, fmt.Errorf("decode analysis: %w", err)
	}
	for i, r := range res.Risks {
		if r.Level != models.RiskHigh && r.Level != models.RiskAttention {
			return nil, fmt.Errorf("risk %d: unknown level %q", i, r.Level)
		}
	}
	return &res, nil
}
