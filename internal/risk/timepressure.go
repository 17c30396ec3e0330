package risk

import (
	"fmt"
	"strings"
	"time"
)

// TimePressureCalculator scores circumstantial rush indicators: weekend or
// late-night creation times and urgency wording in the PR title or body.
// The clock components come from the PR creation timestamp in the caller's
// local time.
type TimePressureCalculator struct {
	cfg *Config
}

const (
	rushHourRisk = 0.2
	urgencyRisk  = 0.3
)

func NewTimePressureCalculator(cfg *Config) *TimePressureCalculator {
	return &TimePressureCalculator{cfg: cfg}
}

func (c *TimePressureCalculator) Name() string { return SignalTimePressure }

func (c *TimePressureCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalTimePressure, Raw: map[string]int{}}

	if pr.CreatedAt.IsZero() {
		result.Explanation = "Pull request creation time unknown; time pressure treated as zero"
		return result, nil
	}

	risk := 0.0
	var citations []Citation

	hour := pr.CreatedAt.Hour()
	weekday := pr.CreatedAt.Weekday()

	if weekday == time.Saturday || weekday == time.Sunday {
		risk += c.cfg.WeekendPenalty
		citations = append(citations, Citation{
			Note: fmt.Sprintf("Opened on a %s", weekday),
		})
	}

	switch {
	case hour >= c.cfg.LateNightStartHour || hour < c.cfg.LateNightEndHour:
		risk += c.cfg.LateNightPenalty
		citations = append(citations, Citation{
			Note: fmt.Sprintf("Opened late at night (%02d:00)", hour),
		})
	case hour >= c.cfg.RushHourStart:
		risk += rushHourRisk
		citations = append(citations, Citation{
			Note: fmt.Sprintf("Opened after hours (%02d:00)", hour),
		})
	}

	// First urgency keyword only; repeated keywords do not stack.
	text := strings.ToLower(pr.Title + " " + pr.Body)
	urgencyHits := 0
	for _, keyword := range c.cfg.UrgencyKeywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			risk += urgencyRisk
			urgencyHits = 1
			citations = append(citations, Citation{
				Note: fmt.Sprintf("Urgency keyword %q in title or body", keyword),
			})
			break
		}
	}

	result.Score = Round3(clamp01(risk))
	result.Raw["hour"] = hour
	result.Raw["weekday"] = int(weekday)
	result.Raw["urgency_hits"] = urgencyHits
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"Opened %s %02d:00; urgency wording: %v",
		weekday, hour, urgencyHits > 0,
	)
	return result, nil
}
