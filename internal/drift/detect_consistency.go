// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// The consistency detector looks for the fingerprints of uncoordinated
// authorship across one change set: the same concern solved with competing
// idioms, duplicated helpers, and a crowd of near-synonym abstractions.

var errorIdioms = map[string]*regexp.Regexp{
	"exceptions":     regexp.MustCompile(`\b(?:throw|raise)\b|\bcatch\s*\(|^\s*except\b`),
	"result-objects": regexp.MustCompile(`\bResult<|\bEither<|\bOk\(|\bErr\(|if err != nil|errors\.New\(|fmt\.Errorf\(`),
	"sentinels":      regexp.MustCompile(`\breturn\s+(?:-1|null|None|undefined)\b`),
}

var testStyles = map[string]*regexp.Regexp{
	"snapshot":    regexp.MustCompile(`toMatchSnapshot|\bgolden\b|__snapshots__`),
	"mock-heavy":  regexp.MustCompile(`(?i)\b(?:mock|stub|spy|fake)\w*\b`),
	"integration": regexp.MustCompile(`(?i)\b(?:integration|e2e|testcontainers|docker)\b`),
}

var helperNameRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:def|func|fn|function)\s+([A-Za-z_][A-Za-z0-9_]*)`)

var abstractionRe = regexp.MustCompile(`^\s*(?:export\s+)?(?:pub\s+)?(?:class|type|struct|interface)\s+(\w+(?:Service|Manager|Client|Wrapper|Provider|Facade))\b`)

// abstractionChurnThreshold is the lookback config-commit count that flags
// low-grade churn, below the config/infra detector's own threshold.
const abstractionChurnThreshold = 4

// ConsistencyDetector flags divergent idioms across one change set.
type ConsistencyDetector struct{}

func (d *ConsistencyDetector) Name() string { return "consistency" }

func (d *ConsistencyDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding

	if idioms := observedIdioms(in.Diff, errorIdioms, false); len(idioms) >= 2 {
		findings = append(findings, Finding{
			Category:    CategoryArchitecture,
			Severity:    SeverityMedium,
			Confidence:  0.6,
			Title:       "Competing error-handling idioms in one change",
			Expected:    "A change set keeps to the codebase's single error-handling style",
			Observed:    fmt.Sprintf("Added code mixes %s", strings.Join(idioms, ", ")),
			Remediation: "Pick the project's established idiom and rework the outliers",
			Risk:        "low",
			Verification: []string{
				"review the changed files for one consistent error-handling style",
			},
		})
	}

	if dupes, files := duplicatedHelpers(in.Diff); len(dupes) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryArchitecture,
			Severity:    SeverityMedium,
			Confidence:  0.65,
			Title:       "Helper functions duplicated across files",
			Expected:    "Shared helpers live in one place",
			Observed:    fmt.Sprintf("Helper name(s) defined in multiple changed files: %s", strings.Join(dupes, ", ")),
			Files:       files,
			Evidence:    boundEvidence(dupes),
			Remediation: "Extract the duplicated helpers into a shared package",
			Risk:        "low",
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	if names, files := introducedAbstractions(in.Diff); len(names) >= 2 {
		findings = append(findings, Finding{
			Category:    CategoryArchitecture,
			Severity:    SeverityMedium,
			Confidence:  0.55,
			Title:       "Multiple overlapping abstractions introduced",
			Expected:    "One change introduces at most one new service/manager/client abstraction per concern",
			Observed:    fmt.Sprintf("New abstractions: %s", strings.Join(names, ", ")),
			Files:       files,
			Evidence:    boundEvidence(names),
			Remediation: "Consolidate the overlapping abstractions before they ossify",
			Risk:        "low",
			Attribution: in.Changes.Attribution(files, attributionDepth),
		})
	}

	if styles := observedIdioms(in.Diff, testStyles, true); len(styles) >= 2 {
		findings = append(findings, Finding{
			Category:    CategoryTest,
			Severity:    SeverityLow,
			Confidence:  0.5,
			Title:       "Divergent test styles in one change",
			Expected:    "New tests follow the suite's established style",
			Observed:    fmt.Sprintf("Changed tests mix %s styles", strings.Join(styles, ", ")),
			Remediation: "Align the new tests with the dominant style of the suite",
			Risk:        "low",
		})
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
	if churn >= abstractionChurnThreshold {
		findings = append(findings, Finding{
			Category:    CategoryConfigInfra,
			Severity:    SeverityLow,
			Confidence:  0.5,
			Title:       "Repeated configuration adjustments in the lookback window",
			Expected:    "Configuration stabilizes between audits",
			Observed:    fmt.Sprintf("%d recent commits touch configuration files", churn),
			Remediation: "Batch configuration changes and review them together",
			Risk:        "low",
		})
	}

	return findings
}

// observedIdioms returns the sorted idiom names whose pattern matches any
// added line, optionally restricted to test files.
func observedIdioms(idx *DiffIndex, idioms map[string]*regexp.Regexp, testsOnly bool) []string {
	seen := make(map[string]bool)
	for _, fd := range idx.Files {
		if testsOnly && !isTestFile(fd.Path) {
			continue
		}
		if !testsOnly && !isCodeFile(fd.Path) {
			continue
		}
		for _, line := range fd.Added {
			for name, re := range idioms {
				if !seen[name] && re.MatchString(line) {
					seen[name] = true
				}
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// duplicatedHelpers returns helper names defined in more than one changed
// file, with the files involved.
func duplicatedHelpers(idx *DiffIndex) ([]string, []string) {
	definedIn := make(map[string]map[string]bool)
	for _, fd := range idx.Files {
		if !isCodeFile(fd.Path) || isTestFile(fd.Path) {
			continue
		}
		for _, line := range fd.Added {
			if m := helperNameRe.FindStringSubmatch(line); m != nil {
				if definedIn[m[1]] == nil {
					definedIn[m[1]] = make(map[string]bool)
				}
				definedIn[m[1]][fd.Path] = true
			}
		}
	}

	var dupes []string
	fileSet := make(map[string]bool)
	for name, files := range definedIn {
		if len(files) < 2 {
			continue
		}
		dupes = append(dupes, name)
		for f := range files {
			fileSet[f] = true
		}
	}
	sort.Strings(dupes)
	var files []string
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)
	return dupes, files
}

// introducedAbstractions returns new service/manager/client-suffixed type
// names added by the diff.
func introducedAbstractions(idx *DiffIndex) ([]string, []string) {
	seen := make(map[string]bool)
	fileSet := make(map[string]bool)
	for _, fd := range idx.Files {
		if !isCodeFile(fd.Path) || isTestFile(fd.Path) {
			continue
		}
		for _, line := range fd.Added {
			if m := abstractionRe.FindStringSubmatch(line); m != nil {
				seen[m[1]] = true
				fileSet[fd.Path] = true
			}
		}
	}
	var names []string
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	var files []string
	for f := range fileSet {
		files = append(files, f)
	}
	sort.Strings(files)
	return names, files
}
