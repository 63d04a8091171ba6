package apm

import "github.com/tphakala/go-audio-apm/engine"

// Stats is a flat statistics snapshot. A metric the engine cannot report
// is zero.
type Stats struct {
	ResidualEchoLikelihood    float64
	EchoReturnLoss            float64
	EchoReturnLossEnhancement float64
	DivergentFilterFraction   float64
	DelayMedianMs             int
	DelayStdMs                int
	DelayMs                   int
}

func extractStats(s engine.Stats) Stats {
	return Stats{
		ResidualEchoLikelihood:    s.ResidualEchoLikelihood.ValueOr(0),
		EchoReturnLoss:            s.EchoReturnLoss.ValueOr(0),
		EchoReturnLossEnhancement: s.EchoReturnLossEnhancement.ValueOr(0),
		DivergentFilterFraction:   s.DivergentFilterFraction.ValueOr(0),
		DelayMedianMs:             s.DelayMedianMs.ValueOr(0),
		DelayStdMs:                s.DelayStandardDeviationMs.ValueOr(0),
		DelayMs:                   s.DelayMs.ValueOr(0),
	}
}
