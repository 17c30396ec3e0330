// Package github wraps the GitHub API for the analysis pipeline: listing
// changed files, pulling commit history, and posting the finished review.
// Everything here is a thin collaborator; no scoring logic lives in this
// package.
package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/riskradar/riskradar/internal/risk"
)

// Client wraps the GitHub API client with rate limiting.
type Client struct {
	client      *gh.Client
	rateLimiter *rate.Limiter
	maxWorkers  int
}

// NewClient creates a new GitHub client with rate limiting.
func NewClient(token string, rateLimit int) *Client {
	if rateLimit <= 0 {
		rateLimit = 10
	}
	return &Client{
		client:      gh.NewClient(nil).WithAuthToken(token),
		rateLimiter: rate.NewLimiter(rate.Limit(rateLimit), 1),
		maxWorkers:  10,
	}
}

// FetchPullRequest gets the metadata the time-pressure signal and the audit
// trace need.
func (c *Client) FetchPullRequest(ctx context.Context, owner, repo string, number int) (risk.PullRequestMeta, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return risk.PullRequestMeta{}, fmt.Errorf("rate limiter: %w", err)
	}

	pr, _, err := c.client.PullRequests.Get(ctx, owner, repo, number)
	if err != nil {
		return risk.PullRequestMeta{}, fmt.Errorf("fetch pull request: %w", err)
	}

	return risk.PullRequestMeta{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		Author:    pr.GetUser().GetLogin(),
		CreatedAt: pr.GetCreatedAt().Time,
	}, nil
}

// FetchChangedFiles lists every file changed by the pull request, including
// patch text where GitHub provides it.
func (c *Client) FetchChangedFiles(ctx context.Context, owner, repo string, number int) ([]risk.ChangedFile, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var files []risk.ChangedFile
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		page, resp, err := c.client.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, fmt.Errorf("list pull request files: %w", err)
		}

		for _, f := range page {
			files = append(files, risk.ChangedFile{
				Filename:  f.GetFilename(),
				Status:    risk.FileStatus(f.GetStatus()),
				Additions: f.GetAdditions(),
				Deletions: f.GetDeletions(),
				Patch:     f.GetPatch(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return files, nil
}

// FetchCommitHistory retrieves commits since the given time, reduced to the
// file lists the churn signal consumes. Commit detail lookups run
// concurrently because the list endpoint does not include files.
func (c *Client) FetchCommitHistory(ctx context.Context, owner, repo string, since time.Time) ([]risk.CommitRecord, error) {
	opts := &gh.CommitsListOptions{
		Since:       since,
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	var shas []string
	var dates []time.Time
	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		commits, resp, err := c.client.Repositories.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list commits: %w", err)
		}
		for _, commit := range commits {
			shas = append(shas, commit.GetSHA())
			dates = append(dates, commit.GetCommit().GetAuthor().GetDate().Time)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	records := make([]risk.CommitRecord, len(shas))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.maxWorkers)

	for i, sha := range shas {
		i, sha := i, sha
		g.Go(func() error {
			if err := c.rateLimiter.Wait(gctx); err != nil {
				return fmt.Errorf("rate limiter: %w", err)
			}
			detail, _, err := c.client.Repositories.GetCommit(gctx, owner, repo, sha, nil)
			if err != nil {
				return fmt.Errorf("get commit %s: %w", sha, err)
			}
			record := risk.CommitRecord{Date: dates[i]}
			for _, f := range detail.Files {
				record.Files = append(record.Files, f.GetFilename())
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}
