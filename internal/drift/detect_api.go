// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"
)

// signatureRe matches declaration-shaped lines across the common syntaxes:
// Go/Rust funcs, Python defs, JS/TS functions and classes, Java-style methods,
// and type/interface declarations.
var signatureRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:pub(?:lic)?\s+|private\s+|protected\s+)?(?:static\s+)?(?:async\s+)?(?:def|func|fn|function|class|interface|trait|enum|struct|type)\s+[A-Za-z_][A-Za-z0-9_]*`)

// APIDetector flags signature-level changes in files on the configured public
// surface. Removals are breaking; under a strict policy they are critical.
type APIDetector struct{}

func (d *APIDetector) Name() string { return "api" }

func (d *APIDetector) Detect(_ context.Context, in *Input) []Finding {
	public := NewMatcher(in.Policy.API.PublicPaths)
	strict := in.Policy.API.BreakingChangePolicy == "strict"

	var findings []Finding
	for _, fd := range in.Diff.Files {
		if !public.Match(fd.Path) {
			continue
		}
		added := matchLines(fd.Added, signatureRe)
		removed := matchLines(fd.Removed, signatureRe)
		if len(added) == 0 && len(removed) == 0 {
			continue
		}

		severity := SeverityMedium
		observed := fmt.Sprintf("%d signature(s) added", len(added))
		remediation := "Document the new public surface and add coverage for it"
		if len(removed) > 0 {
			severity = SeverityHigh
			if strict {
				severity = SeverityCritical
			}
			observed = fmt.Sprintf("%d signature(s) removed, %d added", len(removed), len(added))
			remediation = "Restore the removed signatures or publish a deprecation path and version bump"
		}

		evidence := append(prefixLines("-", removed), prefixLines("+", added)...)
		findings = append(findings, Finding{
			Category:    CategoryAPI,
			Severity:    severity,
			Confidence:  0.75,
			Title:       fmt.Sprintf("Public API surface changed in %s", fd.Path),
			Expected:    "The public surface evolves additively, with breaking changes gated by policy",
			Observed:    observed,
			Files:       []string{fd.Path},
			Evidence:    boundEvidence(evidence),
			Remediation: remediation,
			Risk:        "medium",
			Verification: []string{
				"run the full test suite",
				"check downstream consumers of the changed signatures",
			},
			Attribution: in.Changes.Attribution([]string{fd.Path}, attributionDepth),
		})
	}
	return findings
}

func matchLines(lines []string, re *regexp.Regexp) []string {
	var out []string
	for _, line := range lines {
		if re.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

func prefixLines(prefix string, lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = prefix + line
	}
	return out
}
