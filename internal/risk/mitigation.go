package risk

const (
	// mitigationTrigger is the fixed score at or above which a signal
	// produces a mitigation entry. Not configurable per call.
	mitigationTrigger = 0.5

	maxSuggestionsShown = 2
	maxCitationsShown   = 3
)

// GenerateMitigations emits one mitigation per triggered signal, in the
// canonical signal order rather than sorted by score. Every mitigation
// requires human approval; nothing here is ever enforced automatically.
func GenerateMitigations(signals map[string]SignalResult, cfg *Config) []Mitigation {
	var mitigations []Mitigation

	for _, name := range SignalOrder {
		result, ok := signals[name]
		if !ok || result.Score < mitigationTrigger {
			continue
		}

		suggestions := cfg.suggestionsFor(name)
		if len(suggestions) > maxSuggestionsShown {
			suggestions = suggestions[:maxSuggestionsShown]
		}
		citations := result.Citations
		if len(citations) > maxCitationsShown {
			citations = citations[:maxCitationsShown]
		}

		mitigations = append(mitigations, Mitigation{
			Signal:           name,
			Score:            result.Score,
			RequiresApproval: true,
			Suggestions:      suggestions,
			Citations:        citations,
		})
	}

	return mitigations
}
