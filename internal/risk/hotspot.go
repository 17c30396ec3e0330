package risk

import (
	"fmt"
	"time"
)

// IncidentHotspotCalculator scores the fraction of changed files that are
// incident hotspots: files referenced by at least the threshold number of
// incidents within the lookback window.
type IncidentHotspotCalculator struct {
	cfg *Config
}

func NewIncidentHotspotCalculator(cfg *Config) *IncidentHotspotCalculator {
	return &IncidentHotspotCalculator{cfg: cfg}
}

func (c *IncidentHotspotCalculator) Name() string { return SignalIncidentHotspot }

func (c *IncidentHotspotCalculator) Calculate(files []ChangedFile, pr PullRequestMeta, history *HistoryData) (SignalResult, error) {
	result := SignalResult{Signal: SignalIncidentHotspot, Raw: map[string]int{}}

	if history == nil || len(history.Incidents) == 0 || len(files) == 0 {
		result.Explanation = "No incident history available; hotspot risk treated as zero"
		return result, nil
	}

	cutoff := time.Now().AddDate(0, 0, -c.cfg.LookbackDays)

	hotspots := 0
	var citations []Citation

	for _, f := range files {
		count := 0
		for _, incident := range history.Incidents {
			if incident.Date.Before(cutoff) {
				continue
			}
			for _, name := range incident.Files {
				if name == f.Filename {
					count++
					break
				}
			}
		}
		if count >= c.cfg.HotspotThreshold {
			hotspots++
			citations = append(citations, Citation{
				File:  f.Filename,
				Count: count,
				Note:  fmt.Sprintf("Hotspot: %d incidents in last %d days", count, c.cfg.LookbackDays),
			})
		}
	}

	result.Score = Round3(clamp01(float64(hotspots) / float64(len(files))))
	result.Raw["hotspot_files"] = hotspots
	result.Raw["total_files"] = len(files)
	result.Citations = citations
	result.Explanation = fmt.Sprintf(
		"%d of %d changed files are incident hotspots (≥%d incidents in %d days)",
		hotspots, len(files), c.cfg.HotspotThreshold, c.cfg.LookbackDays,
	)
	return result, nil
}
