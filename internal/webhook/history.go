package webhook

import (
	"context"
	"time"

	"github.com/riskradar/riskradar/internal/github"
	"github.com/riskradar/riskradar/internal/risk"
)

// CommitHistory adapts the GitHub client into a HistorySource backed by
// commit history alone. Incidents, flake telemetry, and coverage come from
// external systems and stay empty here; the corresponding signals score zero.
type CommitHistory struct {
	Client *github.Client
}

func (c *CommitHistory) History(ctx context.Context, owner, repo string, since time.Time) (*risk.HistoryData, error) {
	commits, err := c.Client.FetchCommitHistory(ctx, owner, repo, since)
	if err != nil {
		return nil, err
	}
	return &risk.HistoryData{Commits: commits}, nil
}
