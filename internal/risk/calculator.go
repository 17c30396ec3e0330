package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Analyzer aggregates the six signal calculators into one risk analysis.
// It holds no per-call state; Analyze may be called concurrently.
type Analyzer struct {
	logger      *logrus.Logger
	cfg         *Config
	calculators []SignalCalculator
}

// NewAnalyzer creates an analyzer with the six standard calculators. A
// weight configuration that does not sum to 1.0 is logged as a warning and
// used unchanged: a policy error must not take the analysis down.
func NewAnalyzer(logger *logrus.Logger, cfg *Config) *Analyzer {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}
	if err := cfg.ValidateWeights(); err != nil {
		logger.WithError(err).Warn("Risk weights are misconfigured, proceeding unnormalized")
	}
	return &Analyzer{
		logger: logger,
		cfg:    cfg,
		calculators: []SignalCalculator{
			NewChurnCalculator(cfg),
			NewCoverageGapCalculator(cfg),
			NewIncidentHotspotCalculator(cfg),
			NewFlakeProximityCalculator(cfg),
			NewDiffRiskCalculator(cfg),
			NewTimePressureCalculator(cfg),
		},
	}
}

// Analyze runs all signals, aggregates the weighted score, and builds
// mitigations, the audit trace, and the rendered summary. The calculators
// run concurrently; the result is identical to sequential execution.
func (a *Analyzer) Analyze(ctx context.Context, files []ChangedFile, pr PullRequestMeta, history *HistoryData) (*RiskAnalysis, error) {
	start := time.Now()
	a.logger.WithFields(logrus.Fields{
		"pr":    pr.Number,
		"files": len(files),
	}).Info("Starting risk analysis")

	if history == nil {
		history = &HistoryData{}
	}

	results := make([]SignalResult, len(a.calculators))
	g, _ := errgroup.WithContext(ctx)
	for i, calc := range a.calculators {
		i, calc := i, calc
		g.Go(func() error {
			results[i] = a.runCalculator(calc, files, pr, history)
			return nil
		})
	}
	// Calculator faults are absorbed into zero-score results, so the group
	// never returns an error.
	_ = g.Wait()

	signals := make(map[string]SignalResult, len(results))
	for _, r := range results {
		signals[r.Signal] = r
	}

	var score float64
	for _, name := range SignalOrder {
		score += a.cfg.Weights[name] * signals[name].Score
	}
	score = Round3(clamp01(score))
	level := a.classify(score)

	mitigations := GenerateMitigations(signals, a.cfg)
	trace := BuildTrace(pr, len(files), a.cfg, signals, score, level, len(mitigations), time.Since(start))
	summary := RenderSummary(pr, score, level, signals, mitigations, trace.TraceID)

	a.logger.WithFields(logrus.Fields{
		"score":    score,
		"level":    level,
		"duration": time.Since(start),
	}).Info("Risk analysis complete")

	return &RiskAnalysis{
		Score:       score,
		Level:       level,
		Signals:     signals,
		Mitigations: mitigations,
		AuditTrace:  trace,
		Summary:     summary,
	}, nil
}

// runCalculator executes one calculator, converting an error or panic into
// a zero-score result with an explanatory citation. One failing signal must
// not cost the other five or the composite score.
func (a *Analyzer) runCalculator(calc SignalCalculator, files []ChangedFile, pr PullRequestMeta, history *HistoryData) (result SignalResult) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.WithField("signal", calc.Name()).Errorf("Signal calculator panicked: %v", r)
			result = failedSignal(calc.Name(), fmt.Errorf("panic: %v", r))
		}
	}()

	result, err := calc.Calculate(files, pr, history)
	if err != nil {
		a.logger.WithField("signal", calc.Name()).WithError(err).Error("Signal calculator failed")
		return failedSignal(calc.Name(), err)
	}
	return result
}

func failedSignal(name string, err error) SignalResult {
	return SignalResult{
		Signal:      name,
		Score:       0,
		Citations:   []Citation{{Note: fmt.Sprintf("Signal could not be computed: %v", err)}},
		Explanation: "Signal failed and was scored as zero",
	}
}

// classify maps a score onto a risk level. Boundaries are inclusive-low,
// exclusive-high; HIGH is open-ended.
func (a *Analyzer) classify(score float64) RiskLevel {
	switch {
	case score < a.cfg.MediumThreshold:
		return RiskLevelLow
	case score < a.cfg.HighThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelHigh
	}
}
