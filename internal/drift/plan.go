// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import "sort"

// categoryPriority fixes the remediation order; lower sorts first.
var categoryPriority = map[Category]int{
	CategorySecurity:     1,
	CategoryBehavioral:   1,
	CategoryAPI:          2,
	CategoryArchitecture: 3,
	CategoryDependency:   4,
	CategoryConfigInfra:  4,
	CategoryTest:         5,
	CategoryPerformance:  5,
	CategoryStyle:        6,
	CategoryDocs:         6,
}

// CategoryPriority exposes the plan priority of cat for report grouping.
func CategoryPriority(cat Category) int { return categoryPriority[cat] }

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// planApproach is the generic two-phase note attached to every plan entry.
const planApproach = "Apply deterministic fixes first (formatters, lockfile regeneration), then manual refactors"

// BuildPlan orders the findings into an actionable fix plan: category
// priority, then severity descending, then score descending.
func BuildPlan(findings []Finding) []PlanEntry {
	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := categoryPriority[ordered[i].Category], categoryPriority[ordered[j].Category]
		if pi != pj {
			return pi < pj
		}
		si, sj := severityRank[ordered[i].Severity], severityRank[ordered[j].Severity]
		if si != sj {
			return si < sj
		}
		return ordered[i].Score > ordered[j].Score
	})

	plan := make([]PlanEntry, 0, len(ordered))
	for _, f := range ordered {
		plan = append(plan, PlanEntry{
			Priority:     categoryPriority[f.Category],
			Category:     f.Category,
			Severity:     f.Severity,
			Title:        f.Title,
			Action:       f.Remediation,
			Approach:     planApproach,
			Risk:         f.Risk,
			Verification: f.Verification,
		})
	}
	return plan
}
