// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/bartekus/driftwatch/internal/execx"
)

var trailingWhitespaceRe = regexp.MustCompile(`\S[ \t]+$`)

// StyleDetector flags whitespace violations in added lines and failed
// format/lint gates.
type StyleDetector struct{}

func (d *StyleDetector) Name() string { return "style" }

func (d *StyleDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	var files []string
	var evidence []string
	for _, fd := range in.Diff.Files {
		if !isCodeFile(fd.Path) {
			continue
		}
		hit := false
		for _, line := range fd.Added {
			if trailingWhitespaceRe.MatchString(line) || mixedIndent(line) {
				hit = true
				evidence = append(evidence, strings.ReplaceAll(line, "\t", `\t`))
			}
		}
		if hit {
			files = append(files, fd.Path)
		}
	}
	if len(files) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryStyle,
			Severity:    SeverityMedium,
			Confidence:  0.9,
			Title:       "Whitespace violations added",
			Expected:    "Added lines carry no trailing whitespace or mixed indentation",
			Observed:    fmt.Sprintf("Whitespace violations in %d file(s)", len(files)),
			Files:       files,
			Evidence:    boundEvidence(evidence),
			Remediation: "Run the project formatter over the changed files",
			Risk:        "low",
			Verification: []string{
				"re-run the format gate",
			},
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	for _, role := range []string{"format", "lint"} {
		for _, gate := range in.GateResults(role) {
			if gate.Status != execx.StatusFailed {
				continue
			}
			findings = append(findings, Finding{
				Category:    CategoryStyle,
				Severity:    SeverityMedium,
				Confidence:  0.9,
				Title:       fmt.Sprintf("%s gate failed", strings.ToUpper(role[:1])+role[1:]),
				Expected:    fmt.Sprintf("`%s` passes", gate.Command),
				Observed:    fmt.Sprintf("The configured %s command exited non-zero", role),
				Evidence:    boundEvidence([]string{gate.OutputExcerpt}),
				Remediation: fmt.Sprintf("Fix the %s violations, or run the fix variant of the tool", role),
				Risk:        "low",
				Verification: []string{
					fmt.Sprintf("re-run `%s`", gate.Command),
				},
			})
		}
	}

	return findings
}

// mixedIndent reports indentation that mixes tabs after spaces.
func mixedIndent(line string) bool {
	indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
	return strings.Contains(indent, " \t")
}
