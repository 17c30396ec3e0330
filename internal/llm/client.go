// Package llm turns a finished risk analysis into natural-language review
// prose. It is strictly optional: without an API key the pre-rendered
// summary from the engine is used verbatim.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/riskradar/riskradar/internal/risk"
)

const defaultModel = "gpt-4o-mini"

// Client generates review narratives from risk analyses.
type Client struct {
	client  *openai.Client
	logger  *logrus.Logger
	model   string
	enabled bool
}

// NewClient creates a narrative generator. An empty API key returns a
// disabled client; callers fall back to the engine's rendered summary.
func NewClient(logger *logrus.Logger, apiKey, model string) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	if model == "" {
		model = defaultModel
	}
	if apiKey == "" {
		logger.Debug("No OpenAI key configured, narrative generation disabled")
		return &Client{logger: logger, model: model}
	}
	return &Client{
		client:  openai.NewClient(apiKey),
		logger:  logger,
		model:   model,
		enabled: true,
	}
}

// Enabled reports whether narrative generation is available.
func (c *Client) Enabled() bool {
	return c.enabled
}

// GenerateReviewBody produces a reviewer-facing narrative for the analysis.
// On any failure the engine's own summary is returned so a review is always
// postable.
func (c *Client) GenerateReviewBody(ctx context.Context, analysis *risk.RiskAnalysis) (string, error) {
	if !c.enabled {
		return analysis.Summary, nil
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0.3,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "You are a senior code reviewer. Rewrite the following risk " +
					"report as a short, direct review comment. Keep every score and " +
					"file reference exactly as given; do not invent findings.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(analysis),
			},
		},
	})
	if err != nil {
		c.logger.WithError(err).Warn("Narrative generation failed, using rendered summary")
		return analysis.Summary, nil
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return analysis.Summary, nil
	}

	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(analysis *risk.RiskAnalysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall risk: %s (%.3f)\n\n", analysis.Level, analysis.Score)
	for _, name := range risk.SignalOrder {
		result, ok := analysis.Signals[name]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %.3f (%s)\n", name, result.Score, result.Explanation)
		for _, citation := range result.Citations {
			if citation.File != "" {
				fmt.Fprintf(&sb, "  evidence: %s (%s)\n", citation.File, citation.Note)
			}
		}
	}
	if len(analysis.Mitigations) > 0 {
		sb.WriteString("\nSuggested mitigations:\n")
		for _, m := range analysis.Mitigations {
			for _, s := range m.Suggestions {
				fmt.Fprintf(&sb, "- [%s] %s\n", m.Signal, s)
			}
		}
	}
	return sb.String()
}
