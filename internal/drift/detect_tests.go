// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"

	"github.com/bartekus/driftwatch/internal/execx"
)

var testDefRe = regexp.MustCompile(`^\s*(?:func\s+Test[A-Z_]|def\s+test_|it\s*\(|test\s*\(|describe\s*\(|#\[test\]|@Test\b)`)

var assertionRe = regexp.MustCompile(`\b(?:assert|expect|require\.|should\.)`)

// TestDetector covers the behavioral/test drift rules: failed test gates,
// removed test definitions or assertions, and code changes with no
// corresponding test changes.
type TestDetector struct{}

func (d *TestDetector) Name() string { return "tests" }

func (d *TestDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	for _, gate := range in.GateResults("test") {
		if gate.Status != execx.StatusFailed {
			continue
		}
		findings = append(findings, Finding{
			Category:    CategoryBehavioral,
			Severity:    SeverityHigh,
			Confidence:  0.95,
			Title:       "Test gate failed",
			Expected:    fmt.Sprintf("`%s` passes", gate.Command),
			Observed:    "The configured test command exited non-zero",
			Evidence:    boundEvidence([]string{gate.OutputExcerpt}),
			Remediation: "Fix the failing tests before merging; the change's behavior is unverified",
			Risk:        "high",
			Verification: []string{
				fmt.Sprintf("re-run `%s`", gate.Command),
			},
		})
	}

	var removedFrom []string
	var removedEvidence []string
	for _, fd := range in.Diff.Files {
		if !isTestFile(fd.Path) {
			continue
		}
		for _, line := range fd.Removed {
			if testDefRe.MatchString(line) || assertionRe.MatchString(line) {
				removedFrom = appendUnique(removedFrom, fd.Path)
				removedEvidence = append(removedEvidence, line)
			}
		}
	}
	if len(removedFrom) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryTest,
			Severity:    SeverityHigh,
			Confidence:  0.8,
			Title:       "Test coverage removed",
			Expected:    "Existing tests and assertions survive the change",
			Observed:    fmt.Sprintf("Test definitions or assertions removed in %d file(s)", len(removedFrom)),
			Files:       removedFrom,
			Evidence:    boundEvidence(removedEvidence),
			Remediation: "Restore the removed tests, or replace them with equivalent coverage in the same change",
			Risk:        "medium",
			Verification: []string{
				"compare test counts before and after the change",
			},
			Attribution: in.Changes.Attribution(removedFrom, attributionDepth),
		})
	}

	var codeChanged, testChanged []string
	for _, file := range in.Changes.Files {
		switch {
		case isTestFile(file):
			testChanged = append(testChanged, file)
		case isCodeFile(file):
			codeChanged = append(codeChanged, file)
		}
	}
	if len(codeChanged) > 0 && len(testChanged) == 0 {
		findings = append(findings, Finding{
			Category:    CategoryTest,
			Severity:    SeverityMedium,
			Confidence:  0.6,
			Title:       "Code changed without test changes",
			Expected:    "Behavior changes land with test changes",
			Observed:    fmt.Sprintf("%d code file(s) changed and no test file did", len(codeChanged)),
			Files:       codeChanged,
			Remediation: "Add or update tests covering the changed code paths",
			Risk:        "low",
			Verification: []string{
				"run the test suite with coverage and inspect the changed files",
			},
			Attribution: in.Changes.Attribution(codeChanged, attributionDepth),
		})
	}

	return findings
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
