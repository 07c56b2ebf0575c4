// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"
)

// DependencyDetector compares each changed manifest's declared dependency set
// against the baseline version of the file. Gained entries are checked against
// the deny- and allow-lists; manifest changes without a lockfile change are
// flagged when lockfile sync is required.
type DependencyDetector struct{}

func (d *DependencyDetector) Name() string { return "dependency" }

func (d *DependencyDetector) Detect(ctx context.Context, in *Input) []Finding {
	var findings []Finding
	manifestChanged := false
	lockChanged := false

	for _, file := range in.Changes.Files {
		if isLockFile(file) {
			lockChanged = true
		}
		if !isManifestFile(file) {
			continue
		}
		manifestChanged = true

		current, err := in.Files.ReadWorkFile(file)
		if err != nil {
			continue // manifest was deleted; nothing gained
		}
		baseline := in.Files.ShowFile(ctx, in.Baseline.From, file)
		gained := subtract(parseManifest(file, current), parseManifest(file, baseline))
		if len(gained) == 0 {
			continue
		}

		findings = append(findings, classifyGained(in, file, gained)...)
	}

	if manifestChanged && !lockChanged && in.Policy.Dependencies.RequireLockfileSync {
		findings = append(findings, Finding{
			Category:    CategoryDependency,
			Severity:    SeverityMedium,
			Confidence:  0.7,
			Title:       "Manifest changed without a lockfile update",
			Expected:    "Dependency manifests and lockfiles change together",
			Observed:    "A manifest changed in this range but no known lockfile did",
			Remediation: "Regenerate the lockfile and commit it with the manifest change",
			Risk:        "low",
			Verification: []string{
				"run the package manager's install/lock step and check for a clean diff",
			},
		})
	}

	return findings
}

func classifyGained(in *Input, file string, gained []string) []Finding {
	deny := toSet(in.Policy.Dependencies.Denylist)
	allow := toSet(in.Policy.Dependencies.Allowlist)

	var denied, outside, informational []string
	for _, dep := range gained {
		switch {
		case deny[strings.ToLower(dep)]:
			denied = append(denied, dep)
		case len(allow) > 0 && !allow[strings.ToLower(dep)]:
			outside = append(outside, dep)
		default:
			informational = append(informational, dep)
		}
	}

	var findings []Finding
	if len(denied) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryDependency,
			Severity:    SeverityCritical,
			Confidence:  0.95,
			Title:       fmt.Sprintf("Denylisted dependency added to %s", file),
			Expected:    "Dependencies on the denylist are never introduced",
			Observed:    fmt.Sprintf("%s gained: %s", file, strings.Join(denied, ", ")),
			Files:       []string{file},
			Evidence:    boundEvidence(denied),
			Remediation: "Remove the denylisted dependency and use the sanctioned alternative",
			Risk:        "medium",
			Verification: []string{
				fmt.Sprintf("confirm %s no longer declares: %s", file, strings.Join(denied, ", ")),
			},
			Attribution: in.Changes.Attribution([]string{file}, attributionDepth),
		})
	}
	if len(outside) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryDependency,
			Severity:    SeverityHigh,
			Confidence:  0.85,
			Title:       fmt.Sprintf("Dependency outside the allow-list added to %s", file),
			Expected:    "New dependencies come from the configured allow-list",
			Observed:    fmt.Sprintf("%s gained: %s", file, strings.Join(outside, ", ")),
			Files:       []string{file},
			Evidence:    boundEvidence(outside),
			Remediation: "Get the dependency approved and added to the allow-list, or drop it",
			Risk:        "low",
			Verification: []string{
				"re-run the audit after updating the policy or the manifest",
			},
			Attribution: in.Changes.Attribution([]string{file}, attributionDepth),
		})
	}
	if len(informational) > 0 {
		findings = append(findings, Finding{
			Category:    CategoryDependency,
			Severity:    SeverityLow,
			Confidence:  0.9,
			Title:       fmt.Sprintf("New dependencies declared in %s", file),
			Expected:    "Dependency growth is visible to reviewers",
			Observed:    fmt.Sprintf("%s gained: %s", file, strings.Join(informational, ", ")),
			Files:       []string{file},
			Evidence:    boundEvidence(informational),
			Remediation: "Confirm each new dependency is maintained and license-compatible",
			Risk:        "low",
			Attribution: in.Changes.Attribution([]string{file}, attributionDepth),
		})
	}
	return findings
}

var (
	goRequireRe   = regexp.MustCompile(`^\s*require\s+([^\s]+)\s+v`)
	goBlockDepRe  = regexp.MustCompile(`^\s+([^\s/]+\.[^\s/]+/[^\s]+)\s+v`)
	pipNameRe     = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)`)
	tomlKeyRe     = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*=`)
	gemRe         = regexp.MustCompile(`^\s*gem\s+["']([^"']+)["']`)
	pomArtifactRe = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>`)
	pepDepRe      = regexp.MustCompile(`^\s*["']([A-Za-z0-9][A-Za-z0-9._-]*)`)
)

// parseManifest extracts the declared dependency names from a manifest body.
// Empty content (e.g. the file does not exist at the baseline) yields nil.
func parseManifest(file, content string) []string {
	if strings.TrimSpace(content) == "" {
		return nil
	}
	switch strings.ToLower(path.Base(file)) {
	case "go.mod":
		return parseGoMod(content)
	case "package.json":
		return parsePackageJSON(content)
	case "requirements.txt":
		return parseLinewise(content, pipNameRe)
	case "cargo.toml":
		return parseTOMLDeps(content, "dependencies", "dev-dependencies", "build-dependencies")
	case "pyproject.toml":
		return parsePyproject(content)
	case "gemfile":
		return parseLinewise(content, gemRe)
	case "pom.xml":
		return parseLinewise(content, pomArtifactRe)
	}
	return nil
}

func parseGoMod(content string) []string {
	var deps []string
	inBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "require ("):
			inBlock = true
		case inBlock && trimmed == ")":
			inBlock = false
		case inBlock:
			if m := goBlockDepRe.FindStringSubmatch(line); m != nil {
				deps = append(deps, m[1])
			}
		default:
			if m := goRequireRe.FindStringSubmatch(line); m != nil {
				deps = append(deps, m[1])
			}
		}
	}
	return deps
}

func parsePackageJSON(content string) []string {
	var doc struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil
	}
	var deps []string
	for name := range doc.Dependencies {
		deps = append(deps, name)
	}
	for name := range doc.DevDependencies {
		deps = append(deps, name)
	}
	sort.Strings(deps)
	return deps
}

// parseTOMLDeps reads the keys of the named TOML tables. A line-level scan is
// enough for dependency tables; values are irrelevant here.
func parseTOMLDeps(content string, sections ...string) []string {
	wanted := make(map[string]bool, len(sections))
	for _, s := range sections {
		wanted[s] = true
	}
	var deps []string
	inWanted := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			name := strings.Trim(trimmed, "[]")
			inWanted = wanted[name]
			continue
		}
		if !inWanted || trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := tomlKeyRe.FindStringSubmatch(line); m != nil {
			deps = append(deps, m[1])
		}
	}
	return deps
}

func parsePyproject(content string) []string {
	deps := parseTOMLDeps(content, "tool.poetry.dependencies", "tool.poetry.dev-dependencies")
	// PEP 621 lists dependencies as quoted strings under the [project] table.
	inArray := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "dependencies") && strings.Contains(trimmed, "[") {
			inArray = true
			continue
		}
		if inArray {
			if strings.HasPrefix(trimmed, "]") {
				inArray = false
				continue
			}
			if m := pepDepRe.FindStringSubmatch(trimmed); m != nil {
				deps = append(deps, m[1])
			}
		}
	}
	return deps
}

func parseLinewise(content string, re *regexp.Regexp) []string {
	var deps []string
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "-") {
			continue
		}
		if m := re.FindStringSubmatch(line); m != nil {
			deps = append(deps, m[1])
		}
	}
	return deps
}

func subtract(current, baseline []string) []string {
	base := toSet(baseline)
	var gained []string
	for _, dep := range dedupe(current) {
		if !base[strings.ToLower(dep)] {
			gained = append(gained, dep)
		}
	}
	sort.Strings(gained)
	return gained
}

func toSet(in []string) map[string]bool {
	set := make(map[string]bool, len(in))
	for _, s := range in {
		set[strings.ToLower(s)] = true
	}
	return set
}
