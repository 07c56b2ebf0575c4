// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/bartekus/driftwatch/internal/execx"
)

// attributionDepth caps commit subjects recorded per finding file.
const attributionDepth = 3

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`AKIA[0-9A-Z]{16}`),
	regexp.MustCompile(`(?i)(password|passwd|pwd|api[_-]?key|secret|auth[_-]?token)\s*[:=]\s*["'][^"']{6,}["']`),
	regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY`),
}

var insecurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:md5|sha1)\s*\(`),
	regexp.MustCompile(`(?i)hashlib\.(?:md5|sha1)\b`),
	regexp.MustCompile(`\b(?:md5|sha1)\.New\(`),
	regexp.MustCompile(`\bmath/rand\b`),
	regexp.MustCompile(`\bMath\.random\(`),
	regexp.MustCompile(`\brandom\.random\(`),
	regexp.MustCompile(`InsecureSkipVerify\s*:\s*true`),
	regexp.MustCompile(`(?i)verify\s*=\s*false`),
	regexp.MustCompile(`rejectUnauthorized\s*:\s*false`),
}

// SecurityDetector flags secret material and insecure primitives in added
// lines, changes to protected paths, and a failed security gate.
type SecurityDetector struct{}

func (d *SecurityDetector) Name() string { return "security" }

func (d *SecurityDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	if files, evidence := matchAdded(in.Diff, secretPatterns); len(files) > 0 {
		findings = append(findings, Finding{
			Category:    CategorySecurity,
			Severity:    SeverityCritical,
			Confidence:  0.9,
			Title:       "Possible secret material added",
			Expected:    "Credentials and private keys are never committed to the repository",
			Observed:    fmt.Sprintf("Added lines in %d file(s) match secret patterns", len(files)),
			Files:       files,
			Evidence:    boundEvidence(evidence),
			Remediation: "Remove the secret, rotate the credential, and load it from the environment or a secret store",
			Risk:        "high",
			Verification: []string{
				"git diff --cached for remaining secret patterns",
				"confirm the credential was rotated",
			},
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	if files, evidence := matchAdded(in.Diff, insecurePatterns); len(files) > 0 {
		findings = append(findings, Finding{
			Category:    CategorySecurity,
			Severity:    SeverityHigh,
			Confidence:  0.7,
			Title:       "Insecure primitive introduced",
			Expected:    "New code uses modern hashes, secure randomness, and verified TLS",
			Observed:    fmt.Sprintf("Added lines in %d file(s) use weak hashing, insecure randomness, or disabled TLS verification", len(files)),
			Files:       files,
			Evidence:    boundEvidence(evidence),
			Remediation: "Replace weak hashes with SHA-256+, use a CSPRNG, and re-enable certificate verification",
			Risk:        "medium",
			Verification: []string{
				"re-run the security gate",
			},
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	protected := NewMatcher(in.Policy.RiskControls.ProtectedGlobs)
	var protectedHits []string
	for _, f := range in.Changes.Files {
		if protected.Match(f) {
			protectedHits = append(protectedHits, f)
		}
	}
	if len(protectedHits) > 0 {
		findings = append(findings, Finding{
			Category:    CategorySecurity,
			Severity:    SeverityHigh,
			Confidence:  0.8,
			Title:       "Protected path modified",
			Expected:    "Files matching protected globs change only through deliberate review",
			Observed:    fmt.Sprintf("%d protected file(s) changed in this range", len(protectedHits)),
			Files:       protectedHits,
			Remediation: "Confirm each protected-path change with its owner before merging",
			Risk:        "medium",
			Verification: []string{
				"review the diff for each protected path",
			},
			Attribution: in.Changes.Attribution(protectedHits, attributionDepth),
		})
	}

	for _, gate := range in.GateResults("security") {
		if gate.Status != execx.StatusFailed {
			continue
		}
		findings = append(findings, Finding{
			Category:    CategorySecurity,
			Severity:    SeverityCritical,
			Confidence:  0.95,
			Title:       "Security gate failed",
			Expected:    fmt.Sprintf("`%s` passes", gate.Command),
			Observed:    "The configured security scanner reported findings",
			Evidence:    boundEvidence([]string{gate.OutputExcerpt}),
			Remediation: "Fix every issue the security scanner reports before merging",
			Risk:        "high",
			Verification: []string{
				fmt.Sprintf("re-run `%s`", gate.Command),
			},
		})
	}

	return findings
}

// matchAdded returns the files whose added lines match any pattern, with the
// matching lines as evidence. Files come back sorted for determinism.
func matchAdded(idx *DiffIndex, patterns []*regexp.Regexp) ([]string, []string) {
	var evidence []string
	fileSet := make(map[string]bool)
	for _, fd := range idx.Files {
		for _, line := range fd.Added {
			for _, re := range patterns {
				if re.MatchString(line) {
					fileSet[fd.Path] = true
					evidence = append(evidence, line)
					break
				}
			}
		}
	}
	if len(fileSet) == 0 {
		return nil, nil
	}
	files := make([]string, 0, len(fileSet))
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, evidence
}
