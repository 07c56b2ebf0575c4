// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bartekus/driftwatch/internal/execx"
)

var loopStartRe = regexp.MustCompile(`\b(?:for|while)\b\s*[(\w]|\.forEach\s*\(|\.map\s*\(`)

var ioCallRe = regexp.MustCompile(`(?i)(?:select\s+.+\s+from\s|\.query\s*\(|\.execute\s*\(|\bfetch\s*\(|requests\.(?:get|post|put|delete)|http\.(?:Get|Post)|axios\.|\.findOne\s*\(|\.save\s*\()`)

// ioWindow is how many added lines after a loop header still count as "inside
// the loop" for the N+1 heuristic. Diff hunks give no block structure, so a
// short window stands in for it.
const ioWindow = 5

// PerformanceDetector flags query/network calls introduced inside loop-like
// constructs and a failed benchmark gate.
type PerformanceDetector struct{}

func (d *PerformanceDetector) Name() string { return "performance" }

func (d *PerformanceDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	var files []string
	var evidence []string
	for _, fd := range in.Diff.Files {
		if !isCodeFile(fd.Path) {
			continue
		}
		hit := false
		for i, line := range fd.Added {
			if !loopStartRe.MatchString(line) {
				continue
			}
			for j := i + 1; j < len(fd.Added) && j <= i+ioWindow; j++ {
				if ioCallRe.MatchString(fd.Added[j]) {
					hit = true
					evidence = append(evidence, line, fd.Added[j])
					break
				}
			}
		}
		if hit {
			files = append(files, fd.Path)
		}
	}
	if len(files) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryPerformance,
			Severity:    SeverityLow,
			Confidence:  0.5,
			Title:       "Possible I/O inside a loop",
			Expected:    "Queries and network calls are batched outside loops",
			Observed:    fmt.Sprintf("Added code in %d file(s) issues query/network calls shortly after a loop header", len(files)),
			Files:       files,
			Evidence:    boundEvidence(evidence),
			Remediation: "Hoist the call out of the loop or batch the requests",
			Risk:        "low",
			Verification: []string{
				"profile or benchmark the changed code path",
			},
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	for _, gate := range in.GateResults("benchmark") {
		if gate.Status != execx.StatusFailed {
			continue
		}
		findings = append(findings, Finding{
			Category:    CategoryPerformance,
			Severity:    SeverityMedium,
			Confidence:  0.85,
			Title:       "Benchmark gate failed",
			Expected:    fmt.Sprintf("`%s` passes", gate.Command),
			Observed:    "The configured benchmark command exited non-zero",
			Evidence:    boundEvidence([]string{gate.OutputExcerpt}),
			Remediation: "Investigate the regression the benchmark reports",
			Risk:        "medium",
			Verification: []string{
				fmt.Sprintf("re-run `%s`", gate.Command),
			},
		})
	}

	return findings
}
