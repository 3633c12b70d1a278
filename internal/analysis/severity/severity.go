// Package severity maps drawdown results to ordinal severity and risk labels.
package severity

import (
	"derivscan/internal/models"
)

// Classify maps a drawdown result to its severity and risk labels. It is a
// pure function of the result; a sentinel insufficient-data result classifies
// as minimal on both axes.
func Classify(r models.DrawdownResult) (models.Severity, models.RiskLevel) {
	return classifySeverity(r.Reduction()), classifyRisk(r)
}

// classifySeverity buckets total reduction; lower bounds are inclusive.
func classifySeverity(reductionPct float64) models.Severity {
	switch {
	case reductionPct >= 90:
		return models.SeverityExtreme
	case reductionPct >= 75:
		return models.SeveritySevere
	case reductionPct >= 50:
		return models.SeverityHigh
	case reductionPct >= 25:
		return models.SeverityModerate
	case reductionPct >= 10:
		return models.SeverityLow
	default:
		return models.SeverityMinimal
	}
}

func classifyRisk(r models.DrawdownResult) models.RiskLevel {
	reduction := r.Reduction()
	switch {
	case reduction >= 75 && r.MaxSingleStepDropPct >= 20:
		return models.RiskCritical
	case reduction >= 50 && r.MaxSingleStepDropPct >= 15:
		return models.RiskHigh
	case reduction >= 50 || r.MaxConsecutiveDeclineLen >= 3:
		return models.RiskMedium
	case reduction >= 25:
		return models.RiskLow
	default:
		return models.RiskMinimal
	}
}
