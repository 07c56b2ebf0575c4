// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var gateToolingRe = regexp.MustCompile(`(?i)\b(?:lint|golangci|eslint|ruff|flake8|typecheck|tsc|mypy|pytest|go test|jest|vitest|bandit|gosec|trivy|snyk|audit)\b`)

// configChurnThreshold is the lookback commit count that flags config churn.
const configChurnThreshold = 6

// ConfigInfraDetector flags CI/deploy/config changes, elevated when the diff
// removes references to gate tooling, plus config churn over the lookback
// window and workflow files that no longer parse.
type ConfigInfraDetector struct{}

func (d *ConfigInfraDetector) Name() string { return "config-infra" }

func (d *ConfigInfraDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	var changed []string
	for _, file := range in.Changes.Files {
		if isConfigInfraFile(file) {
			changed = append(changed, file)
		}
	}

	if len(changed) > 0 {
		severity := SeverityMedium
		observed := fmt.Sprintf("%d CI/deploy/config file(s) changed", len(changed))
		var evidence []string
		for _, file := range changed {
			fd := in.Diff.For(file)
			if fd == nil {
				continue
			}
			for _, line := range fd.Removed {
				if gateToolingRe.MatchString(line) {
					severity = SeverityHigh
					evidence = append(evidence, "-"+line)
				}
			}
		}
		if severity == SeverityHigh {
			observed += "; removed lines reference lint/typecheck/test/security tooling (weakened gate)"
		}
		findings = append(findings, Finding{
			Category:    CategoryConfigInfra,
			Severity:    severity,
			Confidence:  0.75,
			Title:       "CI or infrastructure configuration changed",
			Expected:    "Pipeline and deployment configuration changes keep the quality gates intact",
			Observed:    observed,
			Files:       changed,
			Evidence:    boundEvidence(evidence),
			Remediation: "Review each pipeline change; restore any removed quality-gate step",
			Risk:        "medium",
			Verification: []string{
				"run the pipeline on a branch before merging",
			},
			Attribution: in.Changes.Attribution(changed, attributionDepth),
		})
	}

	for _, file := range changed {
		if !isWorkflowFile(file) {
			continue
		}
		content, err := in.Files.ReadWorkFile(file)
		if err != nil {
			continue
		}
		var doc map[string]any
		if yaml.Unmarshal([]byte(content), &doc) != nil {
			findings = append(findings, Finding{
				Category:    CategoryConfigInfra,
				Severity:    SeverityHigh,
				Confidence:  0.95,
				Title:       fmt.Sprintf("Workflow %s no longer parses", file),
				Expected:    "CI workflow files are valid YAML mappings",
				Observed:    "The changed workflow fails to parse, which disables the pipeline silently",
				Files:       []string{file},
				Remediation: "Fix the workflow YAML before merging",
				Risk:        "low",
				Verification: []string{
					"validate the workflow with the CI provider's linter",
				},
			})
		}
	}

	churn := 0
	for _, c := range in.Changes.Commits {
		for _, file := range c.Files {
			if isConfigInfraFile(file) {
				churn++
				break
			}
		}
	}
	if churn >= configChurnThreshold {
		findings = append(findings, Finding{
			Category:    CategoryConfigInfra,
			Severity:    SeverityMedium,
			Confidence:  0.65,
			Title:       "Sustained configuration churn",
			Expected:    "Pipeline and configuration settle after setup; repeated rework signals instability",
			Observed:    fmt.Sprintf("%d commits in the lookback window touch configuration files", churn),
			Remediation: "Consolidate the configuration changes and agree on a stable pipeline shape",
			Risk:        "low",
			Verification: []string{
				"re-run the audit after the next lookback window",
			},
		})
	}

	return findings
}
