package evaluation

import "fmt"

// GuardrailConfig holds minimum quality thresholds for an evaluation
// run. A zero threshold disables that check.
type GuardrailConfig struct {
	MinIntentAccuracy float64
	MinRecallAt10     float64
	MinMRRAt10        float64
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	return &Guardrails{config: config}
}

// Check returns one violation message per threshold the summary misses.
func (g *Guardrails) Check(summary *EvalSummary) []string {
	var violations []string

	if g.config.MinIntentAccuracy > 0 && summary.IntentAccuracy < g.config.MinIntentAccuracy {
		violations = append(violations, fmt.Sprintf(
			"intent accuracy %.3f below threshold %.3f",
			summary.IntentAccuracy, g.config.MinIntentAccuracy))
	}
	if g.config.MinRecallAt10 > 0 && summary.AvgRecallAt10 < g.config.MinRecallAt10 {
		violations = append(violations, fmt.Sprintf(
			"recall@10 %.3f below threshold %.3f",
			summary.AvgRecallAt10, g.config.MinRecallAt10))
	}
	if g.config.MinMRRAt10 > 0 && summary.AvgMRRAt10 < g.config.MinMRRAt10 {
		violations = append(violations, fmt.Sprintf(
			"mrr@10 %.3f below threshold %.3f",
			summary.AvgMRRAt10, g.config.MinMRRAt10))
	}

	return violations
}
