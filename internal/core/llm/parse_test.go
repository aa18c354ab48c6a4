package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clauselens/internal/models"
)

func TestParseAnalysisWellFormed(t *testing.T) {
	text := `{
		"summaries": {"summary": "A one-sided rental agreement."},
		"risks": [
			{"level": "high", "clause": "Tenant shall forfeit the entire deposit for any reason.", "explanation": "You could lose your full deposit."},
			{"level": "attention", "clause": "Rent may be revised annually.", "explanation": "Ask for a cap on increases."}
		],
		"checklist": ["Confirm the deposit refund terms in writing."]
	}`

	res, err := ParseAnalysis(text)
	require.NoError(t, err)
	assert.Equal(t, "A one-sided rental agreement.", res.Summaries.Summary)
	require.Len(t, res.Risks, 2)
	assert.Equal(t, models.RiskHigh, res.Risks[0].Level)
	assert.Equal(t, "Tenant shall forfeit the entire deposit for any reason.", res.Risks[0].Clause)
	assert.Equal(t, models.RiskAttention, res.Risks[1].Level)
	assert.Equal(t, []string{"Confirm the deposit refund terms in writing."}, res.Checklist)
}

func TestParseAnalysisRejectsInvalidJSON(t *testing.T) {
	for _, text := range []string{
		"",
		"I could not analyze this document.",
		"```json\n{\"summaries\":{\"summary\":\"x\"}}\n```", // fenced output is not raw JSON
		`{"summaries": {"summary": "x"`,
	} {
		res, err := ParseAnalysis(text)
		assert.Error(t, err, "text %q should not parse", text)
		assert.Nil(t, res)
	}
}

func TestParseAnalysisRejectsUnknownRiskLevel(t *testing.T) {
	res, err := ParseAnalysis(`{"summaries":{"summary":"x"},"risks":[{"level":"medium","clause":"c","explanation":"e"}],"checklist":[]}`)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestParseAnalysisEmptySections(t *testing.T) {
	res, err := ParseAnalysis(`{"summaries":{"summary":""},"risks":[],"checklist":[]}`)
	require.NoError(t, err)
	assert.Empty(t, res.Summaries.Summary)
	assert.Empty(t, res.Risks)
	assert.Empty(t, res.Checklist)
}
