// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

// defaultWeights is the built-in category weight table. Policy may override
// individual categories; everything else keeps these values.
var defaultWeights = map[Category]float64{
	CategorySecurity:     40,
	CategoryAPI:          35,
	CategoryArchitecture: 25,
	CategoryBehavioral:   25,
	CategoryDependency:   20,
	CategoryTest:         25,
	CategoryPerformance:  15,
	CategoryStyle:        5,
	CategoryDocs:         3,
	CategoryConfigInfra:  15,
}

// severityMultipliers is fixed and not policy-configurable.
var severityMultipliers = map[Severity]float64{
	SeverityLow:      0.5,
	SeverityMedium:   1.0,
	SeverityHigh:     1.5,
	SeverityCritical: 2.0,
}

// EffectiveWeights merges the policy's per-category overrides over the
// default weight table.
func EffectiveWeights(overrides map[string]float64) map[Category]float64 {
	weights := make(map[Category]float64, len(defaultWeights))
	for cat, w := range defaultWeights {
		weights[cat] = w
	}
	for cat, w := range overrides {
		if _, known := weights[Category(cat)]; known {
			weights[Category(cat)] = w
		}
	}
	return weights
}

// Totals is the scored aggregate over one finding list.
type Totals struct {
	DriftScore     float64
	CategoryScores map[Category]float64
	CategoryCounts map[Category]int
}

// ScoreFindings recomputes every finding's score as weight[category] *
// multiplier[severity] and returns the exact aggregate. No rounding happens
// here; display formatting owns that.
func ScoreFindings(findings []Finding, weights map[Category]float64) Totals {
	totals := Totals{
		CategoryScores: make(map[Category]float64),
		CategoryCounts: make(map[Category]int),
	}
	for i := range findings {
		f := &findings[i]
		f.Score = weights[f.Category] * severityMultipliers[f.Severity]
		totals.DriftScore += f.Score
		totals.CategoryScores[f.Category] += f.Score
		totals.CategoryCounts[f.Category]++
	}
	return totals
}

// GateResult returns "fail" when score meets or exceeds the threshold.
func GateResult(score, threshold float64) string {
	if score >= threshold {
		return "fail"
	}
	return "pass"
}
