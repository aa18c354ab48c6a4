// Package render maps an analysis result (or its absence) to a
// deterministic view tree, and turns that tree into HTML fragments. It
// performs no I/O of its own; checklist completion state is passed in and
// toggles are persisted by the caller.
package render

import (
	"fmt"

	"clauselens/internal/models"
)

// Report is the full view tree for one analyzed document.
type Report struct {
	Title     string           `json:"title"`
	FileName  string           `json:"file_name"`
	Failed    bool             `json:"failed"`
	Summary   string           `json:"summary,omitempty"`
	Risks     []RiskPanel      `json:"risks,omitempty"`
	NoRisks   bool             `json:"no_risks,omitempty"`
	Checklist []ChecklistEntry `json:"checklist,omitempty"`
	Chat      *ChatPanel       `json:"chat,omitempty"`
}

// RiskPanel renders one flagged clause. The clause is always quoted
// verbatim; Level selects the high/attention highlight.
type RiskPanel struct {
	Level       models.RiskLevel `json:"level"`
	Clause      string           `json:"clause"`
	Explanation string           `json:"explanation"`
}

// ChecklistEntry is one togglable completion control.
type ChecklistEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

// ChatPanel describes the Q&A section appended to every successful report.
type ChatPanel struct {
	Language  string   `json:"language"`
	Languages []string `json:"languages"`
}

// ChecklistKey derives the persistence key for one checklist item. Keyed by
// file name and index only, so two documents sharing a name and item count
// share state; a known gap carried over from the product's design.
func ChecklistKey(fileName string, index int) string {
	return fmt.Sprintf("checklist-%s-%d", fileName, index)
}

// ChecklistPrefix is the shared key prefix of every checklist item of one
// file, usable for prefix queries against the state store.
func ChecklistPrefix(fileName string) string {
	return fmt.Sprintf("checklist-%s-", fileName)
}

// BuildReport maps an analysis result to its view tree. A nil result yields
// a failure-only report: no summary, risks, checklist or chat sections.
// done holds the persisted checklist completion flags keyed by ChecklistKey.
func BuildReport(fileName string, result *models.AnalysisResult, done map[string]bool) Report {
	rep := Report{
		Title:    "Analysis for: " + fileName,
		FileName: fileName,
	}

	if result == nil {
		rep.Failed = true
		return rep
	}

	rep.Summary = result.Summaries.Summary
	if rep.Summary == "" {
		rep.Summary = "N/A"
	}

	if len(result.Risks) == 0 {
		rep.NoRisks = true
	} else {
		rep.Risks = make([]RiskPanel, 0, len(result.Risks))
		for _, r := range result.Risks {
			rep.Risks = append(rep.Risks, RiskPanel{
				Level:       r.Level,
				Clause:      r.Clause,
				Explanation: r.Explanation,
			})
		}
	}

	if len(result.Checklist) > 0 {
		rep.Checklist = make([]ChecklistEntry, 0, len(result.Checklist))
		for i, item := range result.Checklist {
			key := ChecklistKey(fileName, i)
			rep.Checklist = append(rep.Checklist, ChecklistEntry{
				Key:   key,
				Label: item,
				Done:  done[key],
			})
		}
	}

	rep.Chat = &ChatPanel{
		Language:  DefaultLanguage,
		Languages: Languages(),
	}
	return rep
}
