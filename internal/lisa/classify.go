// Package lisa assigns cluster labels from local Moran's I statistics.
package lisa

import "github.com/terrastat/lisa-cli/internal/model"

// DefaultAlpha is the significance threshold used when none is configured.
// The reference pipelines for this dataset run at 0.01 and 0.05.
const DefaultAlpha = 0.05

// Classify returns the LISA cluster label for a unit given its standardized
// attribute value z, the standardized local statistic Z, the significance
// estimate p, and the threshold alpha.
// Rules, first match wins:
//   - z > 0 and Z > 0 and p <= alpha: High-High
//   - z < 0 and Z > 0 and p <= alpha: Low-Low
//   - z > 0 and Z < 0 and p <= alpha: High-Low
//   - z < 0 and Z < 0 and p <= alpha: Low-High
//   - otherwise: Not Significant
//
// The inequalities are strict: a unit at exactly the mean value or with a
// zero local statistic is never assigned a directional cluster.
func Classify(z, zScore, p, alpha float64) model.ClusterLabel {
	if p > alpha {
		return model.LabelNotSignificant
	}
	switch {
	case z > 0 && zScore > 0:
		return model.LabelHighHigh
	case z < 0 && zScore > 0:
		return model.LabelLowLow
	case z > 0 && zScore < 0:
		return model.LabelHighLow
	case z < 0 && zScore < 0:
		return model.LabelLowHigh
	}
	return model.LabelNotSignificant
}
