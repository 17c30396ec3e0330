package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/riskradar/riskradar/internal/auditstore"
	"github.com/riskradar/riskradar/internal/config"
	"github.com/riskradar/riskradar/internal/github"
	"github.com/riskradar/riskradar/internal/llm"
	"github.com/riskradar/riskradar/internal/risk"
	"github.com/riskradar/riskradar/internal/webhook"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [owner/repo pr-number]",
	Short: "Score a pull request across the six risk signals",
	Long: `Analyzes a pull request and prints the risk summary. The target is
either a live GitHub PR (owner/repo and number) or a local JSON fixture
with --fixture, which runs fully offline.

Every analysis writes an audit trace to the local store; --post
additionally publishes the review on the PR.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("fixture", "", "analyze a local JSON fixture instead of a live PR")
	analyzeCmd.Flags().String("history", "", "JSON file with history data (commits, incidents, flakes, coverage)")
	analyzeCmd.Flags().Bool("json", false, "print the full analysis as JSON")
	analyzeCmd.Flags().Bool("post", false, "post the review to the pull request")
	analyzeCmd.Flags().Bool("no-save", false, "skip writing the audit trace")
}

// analysisFixture is the offline input format: the same shapes the live
// fetch produces, loaded from disk.
type analysisFixture struct {
	PullRequest risk.PullRequestMeta `json:"pull_request"`
	Files       []risk.ChangedFile   `json:"files"`
	History     *risk.HistoryData    `json:"history,omitempty"`
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if result := cfg.Validate(config.ValidationContextAnalyze); result.HasErrors() {
		return fmt.Errorf("%s", result.Error())
	}

	fixturePath, _ := cmd.Flags().GetString("fixture")
	historyPath, _ := cmd.Flags().GetString("history")
	asJSON, _ := cmd.Flags().GetBool("json")
	post, _ := cmd.Flags().GetBool("post")
	noSave, _ := cmd.Flags().GetBool("no-save")

	var (
		pr         risk.PullRequestMeta
		files      []risk.ChangedFile
		history    *risk.HistoryData
		repository string
		client     *github.Client
	)

	switch {
	case fixturePath != "":
		fixture, err := loadFixture(fixturePath)
		if err != nil {
			return err
		}
		pr, files, history = fixture.PullRequest, fixture.Files, fixture.History
		if post {
			return fmt.Errorf("--post requires a live PR, not a fixture")
		}

	case len(args) == 2:
		owner, repo, err := splitRepo(args[0])
		if err != nil {
			return err
		}
		number, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid PR number %q: %w", args[1], err)
		}
		if cfg.GitHub.Token == "" {
			return fmt.Errorf("a GitHub token is required for live analysis (set GITHUB_TOKEN)")
		}
		repository = args[0]

		client = github.NewClient(cfg.GitHub.Token, cfg.GitHub.RateLimit)
		pr, err = client.FetchPullRequest(ctx, owner, repo, number)
		if err != nil {
			return err
		}
		files, err = client.FetchChangedFiles(ctx, owner, repo, number)
		if err != nil {
			return err
		}
		files = github.FilterReviewable(files)

		since := time.Now().AddDate(0, 0, -cfg.Risk.LookbackDays)
		commits, err := client.FetchCommitHistory(ctx, owner, repo, since)
		if err != nil {
			logger.WithError(err).Warn("Commit history unavailable, churn will score zero")
		} else {
			history = &risk.HistoryData{Commits: commits}
		}

	default:
		return fmt.Errorf("expected owner/repo and a PR number, or --fixture")
	}

	if historyPath != "" {
		loaded, err := loadHistory(historyPath)
		if err != nil {
			return err
		}
		history = mergeHistory(history, loaded)
	}

	analyzer := risk.NewAnalyzer(logger, cfg.Risk)
	analysis, err := analyzer.Analyze(ctx, files, pr, history)
	if err != nil {
		return err
	}

	if !noSave {
		store, err := auditstore.Open(cfg.Audit.DatabasePath)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Save(ctx, repository, pr.Number, analysis.AuditTrace); err != nil {
			return err
		}
	}

	if post {
		owner, repo, _ := splitRepo(repository)
		narrator := llm.NewClient(logger, cfg.API.OpenAIKey, cfg.API.OpenAIModel)
		body, err := narrator.GenerateReviewBody(ctx, analysis)
		if err != nil || strings.TrimSpace(body) == "" {
			body = analysis.Summary
		}
		review, err := client.PostReview(ctx, owner, repo, pr.Number, body, webhook.BuildInlineComments(analysis, files), files)
		if err != nil {
			return fmt.Errorf("post review: %w", err)
		}
		logger.WithField("url", review.ReviewURL).Info("Review posted")
	}

	if asJSON {
		out, err := json.MarshalIndent(analysis, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Println(analysis.Summary)
	return nil
}

func loadFixture(path string) (*analysisFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var fixture analysisFixture
	if err := json.Unmarshal(data, &fixture); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &fixture, nil
}

func loadHistory(path string) (*risk.HistoryData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	var history risk.HistoryData
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return &history, nil
}

// mergeHistory overlays a loaded history file on top of fetched data,
// dataset by dataset.
func mergeHistory(base, overlay *risk.HistoryData) *risk.HistoryData {
	if base == nil {
		return overlay
	}
	if overlay == nil {
		return base
	}
	merged := *base
	if len(overlay.Commits) > 0 {
		merged.Commits = overlay.Commits
	}
	if len(overlay.Incidents) > 0 {
		merged.Incidents = overlay.Incidents
	}
	if len(overlay.Flakes) > 0 {
		merged.Flakes = overlay.Flakes
	}
	if len(overlay.Coverage) > 0 {
		merged.Coverage = overlay.Coverage
	}
	return &merged
}

func splitRepo(full string) (owner, repo string, err error) {
	parts := strings.SplitN(full, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected owner/repo, got %q", full)
	}
	return parts[0], parts[1], nil
}
