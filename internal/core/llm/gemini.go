package llm

import (
	"context"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"clauselens/internal/core"
	"clauselens/internal/models"
	"clauselens/internal/prompt"
)

// Sent back whenever a chat exchange fails; the caller always needs text to
// render.
const chatFallback = "Sorry, there was an error."

const chatEmpty = "Sorry, I couldn't generate a response."

// GeminiClient backs both the analysis and chat sides of the product with a
// single generative model. Analysis calls constrain the response to JSON;
// chat calls leave the output free-form.
type GeminiClient struct {
	client    *genai.Client
	modelName string
	log       *zap.SugaredLogger
}

func NewGeminiClient(ctx context.Context, apiKey, modelName string, log *zap.SugaredLogger) (*GeminiClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiClient{client: cl, modelName: modelName, log: log}, nil
}

func (g *GeminiClient) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// Analyze issues one best-effort request for a structured risk analysis.
// Transport failures, empty candidates and malformed inner JSON all
// downgrade to nil; there are no retries. Callers must treat nil as
// "analysis unavailable".
func (g *GeminiClient) Analyze(ctx context.Context, req models.AnalysisRequest) *models.AnalysisResult {
	m := g.client.GenerativeModel(g.modelName)
	m.ResponseMIMEType = "application/json"

	p := prompt.Analysis(req.DocumentType, req.DocumentText)
	resp, err := m.GenerateContent(ctx, genai.Text(p))
	if err != nil {
		g.log.Errorw("gemini analysis call failed", "error", err)
		return nil
	}

	text := firstCandidateText(resp)
	if text == "" {
		g.log.Errorw("gemini analysis returned no candidates")
		return nil
	}

	result, err := ParseAnalysis(text)
	if err != nil {
		g.log.Errorw("gemini analysis response was not valid JSON", "error", err)
		return nil
	}
	return result
}

// Ask answers one question against the loaded document text. The document
// text goes into the prompt only; the return value is always just the
// answer (or a fallback), never the context.
func (g *GeminiClient) Ask(ctx context.Context, question, documentText, language string) string {
	m := g.client.GenerativeModel(g.modelName)

	p := prompt.Chat(question, documentText, language)
	resp, err := m.GenerateContent(ctx, genai.Text(p))
	if err != nil {
		g.log.Errorw("gemini chat call failed", "error", err)
		return chatFallback
	}

	text := firstCandidateText(resp)
	if text == "" {
		return chatEmpty
	}
	return text
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

var (
	_ core.Analyzer     = (*GeminiClient)(nil)
	_ core.ChatProvider = (*GeminiClient)(nil)
)
