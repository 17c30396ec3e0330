package github

import (
	"context"
	"fmt"

	gh "github.com/google/go-github/v57/github"

	"github.com/riskradar/riskradar/internal/diffpos"
	"github.com/riskradar/riskradar/internal/risk"
)

// InlineComment is a review comment targeted at a new-file line number.
type InlineComment struct {
	Path string
	Line int // line number in the new version of the file
	Body string
}

// ReviewResult reports what was actually posted.
type ReviewResult struct {
	ReviewURL       string
	InlineComments  int
	DroppedComments int
	Fallback        bool
}

// PostReview posts the summary and inline comments as one PR review.
// Comments are anchored by translating each new-file line to its diff
// position; comments whose line is not addressable in the diff are dropped
// rather than failing the review. If the review API rejects the batch, the
// summary is posted alone as an issue comment.
func (c *Client) PostReview(ctx context.Context, owner, repo string, number int, summary string, comments []InlineComment, files []risk.ChangedFile) (*ReviewResult, error) {
	patches := make(map[string]string, len(files))
	for _, f := range files {
		patches[f.Filename] = f.Patch
	}

	var drafts []*gh.DraftReviewComment
	dropped := 0
	for _, comment := range comments {
		positions := diffpos.Build(patches[comment.Path])
		position, ok := positions.Position(comment.Line)
		if !ok {
			dropped++
			continue
		}
		drafts = append(drafts, &gh.DraftReviewComment{
			Path:     gh.String(comment.Path),
			Position: gh.Int(position),
			Body:     gh.String(comment.Body),
		})
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	review, _, err := c.client.PullRequests.CreateReview(ctx, owner, repo, number, &gh.PullRequestReviewRequest{
		Body:     gh.String(summary),
		Event:    gh.String("COMMENT"),
		Comments: drafts,
	})
	if err == nil {
		return &ReviewResult{
			ReviewURL:       review.GetHTMLURL(),
			InlineComments:  len(drafts),
			DroppedComments: dropped,
		}, nil
	}

	// Anchoring failures surface as 422s from the review endpoint. The
	// summary still carries the full analysis, so fall back to a plain
	// issue comment rather than losing the review entirely.
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	issueComment, _, fallbackErr := c.client.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: gh.String(summary),
	})
	if fallbackErr != nil {
		return nil, fmt.Errorf("post review: %w (fallback also failed: %v)", err, fallbackErr)
	}

	return &ReviewResult{
		ReviewURL:       issueComment.GetHTMLURL(),
		DroppedComments: dropped + len(drafts),
		Fallback:        true,
	}, nil
}
