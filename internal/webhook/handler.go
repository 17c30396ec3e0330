// Package webhook receives GitHub pull_request events, runs the risk
// analysis pipeline, posts the review, and persists the audit trace.
package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"

	"github.com/riskradar/riskradar/internal/diffpos"
	"github.com/riskradar/riskradar/internal/github"
	"github.com/riskradar/riskradar/internal/risk"
)

const maxBodyBytes = 10 << 20

// GitHubService is the slice of the GitHub client the handler needs.
type GitHubService interface {
	FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]risk.ChangedFile, error)
	PostReview(ctx context.Context, owner, repo string, number int, summary string, comments []github.InlineComment, files []risk.ChangedFile) (*github.ReviewResult, error)
}

// HistorySource supplies the historical datasets the signals consume. An
// error degrades the analysis to empty history instead of failing it.
type HistorySource interface {
	History(ctx context.Context, owner, repo string, since time.Time) (*risk.HistoryData, error)
}

// TraceStore persists audit traces.
type TraceStore interface {
	Save(ctx context.Context, repository string, prNumber int, trace *risk.AuditTrace) error
}

// Narrator rewrites the rendered summary as review prose.
type Narrator interface {
	GenerateReviewBody(ctx context.Context, analysis *risk.RiskAnalysis) (string, error)
}

// Handler is the webhook endpoint. Analysis runs synchronously within the
// request so that GitHub delivery status reflects the real outcome.
type Handler struct {
	logger   *logrus.Logger
	secret   []byte
	analyzer *risk.Analyzer
	github   GitHubService
	history  HistorySource
	store    TraceStore
	narrator Narrator
	lookback time.Duration
}

// handledActions are the pull_request actions that trigger an analysis.
var handledActions = map[string]bool{
	"opened":      true,
	"synchronize": true,
	"reopened":    true,
}

// NewHandler wires the pipeline. An empty secret disables signature
// verification; only do that in local development.
func NewHandler(logger *logrus.Logger, secret string, analyzer *risk.Analyzer, gh GitHubService, history HistorySource, store TraceStore, narrator Narrator, lookbackDays int) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	if secret == "" {
		logger.Warn("No webhook secret configured, signature verification disabled")
	}
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	return &Handler{
		logger:   logger,
		secret:   []byte(secret),
		analyzer: analyzer,
		github:   gh,
		history:  history,
		store:    store,
		narrator: narrator,
		lookback: time.Duration(lookbackDays) * 24 * time.Hour,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	// ValidatePayload performs the constant-time HMAC-SHA256 check against
	// X-Hub-Signature-256; with no secret configured it only reads the body.
	body, err := gh.ValidatePayload(r, h.secret)
	if err != nil {
		h.logger.WithError(err).Warn("Rejected webhook delivery with invalid signature")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid signature"})
		return
	}

	switch eventType := gh.WebHookType(r); eventType {
	case "ping":
		writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
		return
	case "pull_request":
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"message": fmt.Sprintf("ignoring event %q", eventType)})
		return
	}

	parsed, err := gh.ParseWebHook("pull_request", body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		return
	}
	event, ok := parsed.(*gh.PullRequestEvent)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed payload"})
		return
	}

	if !handledActions[event.GetAction()] {
		writeJSON(w, http.StatusAccepted, map[string]string{"message": fmt.Sprintf("ignoring action %q", event.GetAction())})
		return
	}

	result, err := h.process(r.Context(), event)
	if err != nil {
		h.logger.WithError(err).Error("Webhook analysis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type processResult struct {
	TraceID        string  `json:"trace_id"`
	Score          float64 `json:"score"`
	Level          string  `json:"level"`
	ReviewURL      string  `json:"review_url,omitempty"`
	InlineComments int     `json:"inline_comments"`
}

func (h *Handler) process(ctx context.Context, event *gh.PullRequestEvent) (*processResult, error) {
	owner := event.GetRepo().GetOwner().GetLogin()
	repo := event.GetRepo().GetName()
	fullName := event.GetRepo().GetFullName()
	number := event.GetPullRequest().GetNumber()
	if number == 0 {
		number = event.GetNumber()
	}

	log := h.logger.WithFields(logrus.Fields{
		"repo":   fullName,
		"pr":     number,
		"action": event.GetAction(),
	})
	log.Info("Processing pull request event")

	pr := risk.PullRequestMeta{
		Number:    number,
		Title:     event.GetPullRequest().GetTitle(),
		Body:      event.GetPullRequest().GetBody(),
		Author:    event.GetPullRequest().GetUser().GetLogin(),
		CreatedAt: event.GetPullRequest().GetCreatedAt().Time,
	}

	files, err := h.github.FetchChangedFiles(ctx, owner, repo, number)
	if err != nil {
		return nil, fmt.Errorf("fetch changed files: %w", err)
	}
	files = github.FilterReviewable(files)

	history, err := h.history.History(ctx, owner, repo, time.Now().Add(-h.lookback))
	if err != nil {
		log.WithError(err).Warn("History fetch failed, analyzing without history")
		history = &risk.HistoryData{}
	}

	analysis, err := h.analyzer.Analyze(ctx, files, pr, history)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	reviewBody, err := h.narrator.GenerateReviewBody(ctx, analysis)
	if err != nil || strings.TrimSpace(reviewBody) == "" {
		reviewBody = analysis.Summary
	}

	result := &processResult{
		TraceID: analysis.AuditTrace.TraceID,
		Score:   analysis.Score,
		Level:   analysis.Level.String(),
	}

	review, err := h.github.PostReview(ctx, owner, repo, number, reviewBody, BuildInlineComments(analysis, files), files)
	if err != nil {
		// The trace must still be stored; a posting failure is logged, not
		// returned, so GitHub does not redeliver and double-post.
		log.WithError(err).Error("Failed to post review")
	} else {
		result.ReviewURL = review.ReviewURL
		result.InlineComments = review.InlineComments
	}

	if err := h.store.Save(ctx, fullName, number, analysis.AuditTrace); err != nil {
		log.WithError(err).Error("Failed to persist audit trace")
	}

	log.WithFields(logrus.Fields{
		"score": analysis.Score,
		"level": analysis.Level,
		"trace": analysis.AuditTrace.TraceID,
	}).Info("Pull request analyzed")

	return result, nil
}

// BuildInlineComments anchors each mitigation to the first added line of
// every file it cites, at most one comment per file.
func BuildInlineComments(analysis *risk.RiskAnalysis, files []risk.ChangedFile) []github.InlineComment {
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Filename] = f.Patch
	}

	seen := make(map[string]bool)
	var comments []github.InlineComment
	for _, m := range analysis.Mitigations {
		for _, citation := range m.Citations {
			if citation.File == "" || seen[citation.File] {
				continue
			}
			patch, ok := patches[citation.File]
			if !ok {
				continue
			}
			line, ok := firstAddedLine(patch)
			if !ok {
				continue
			}
			seen[citation.File] = true
			comments = append(comments, github.InlineComment{
				Path: citation.File,
				Line: line,
				Body: formatComment(m, citation),
			})
		}
	}
	return comments
}

func firstAddedLine(patch string) (int, bool) {
	first := 0
	for line := range diffpos.Build(patch) {
		if first == 0 || line < first {
			first = line
		}
	}
	return first, first > 0
}

func formatComment(m risk.Mitigation, citation risk.Citation) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s** scored %.3f: %s", m.Signal, m.Score, citation.Note)
	for _, s := range m.Suggestions {
		fmt.Fprintf(&sb, "\n- %s", s)
	}
	return sb.String()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
