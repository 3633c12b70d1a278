// Package tiebreak resolves ties among contract rows competing for one slot.
package tiebreak

import (
	"derivscan/internal/models"
)

// Resolve picks the best contract among candidates by completeness score:
// the count of priority fields that are populated (non-zero). Remaining ties
// fall back to the first candidate in input order, so resolution is stable.
// An empty priorityFields list degrades to the first-in-order rule; ok is
// false only when candidates is empty.
func Resolve(candidates []models.Contract, priorityFields []string) (best models.Contract, ok bool) {
	if len(candidates) == 0 {
		return models.Contract{}, false
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}

	bestIdx := 0
	bestScore := Score(candidates[0], priorityFields)
	for i := 1; i < len(candidates); i++ {
		if s := Score(candidates[i], priorityFields); s > bestScore {
			bestIdx, bestScore = i, s
		}
	}
	return candidates[bestIdx], true
}

// Score counts how many of the priority fields are populated on the contract.
// Unknown field names contribute nothing.
func Score(c models.Contract, priorityFields []string) int {
	score := 0
	for _, f := range priorityFields {
		if fieldPopulated(c, f) {
			score++
		}
	}
	return score
}

func fieldPopulated(c models.Contract, field string) bool {
	switch field {
	case "close":
		return c.Close != 0
	case "open":
		return c.Open != 0
	case "high":
		return c.High != 0
	case "low":
		return c.Low != 0
	case "last":
		return c.LastPrice != 0
	case "settle":
		return c.Settle != 0
	case "volume":
		return c.Volume != 0
	case "open_interest":
		return c.OpenInterest != 0
	}
	return false
}
