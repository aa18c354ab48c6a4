package core

import (
	"context"

	"clauselens/internal/models"
)

// Analyzer runs one structured risk analysis. A nil result means the
// analysis is unavailable for this attempt; callers render a failure view
// and never persist.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult
}

// ChatProvider answers one ad hoc question against already loaded document
// text. It always returns renderable text; failures come back as a
// user-facing fallback string rather than an error.
type ChatProvider interface {
	Ask(ctx context.Context, question, documentText, language string) string
}
