// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Import extraction across the common syntaxes. Go imports are quoted paths
// inside an import block, so they get their own pass.
var importRes = []*regexp.Regexp{
	regexp.MustCompile(`^\s*import\s+.*?from\s+["']([^"']+)["']`), // ES modules
	regexp.MustCompile(`^\s*import\s+["']([^"']+)["']`),           // bare ES import
	regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\b`),          // Python
	regexp.MustCompile(`^\s*import\s+([\w.]+)\s*$`),               // Python / Java
	regexp.MustCompile(`require\(["']([^"']+)["']\)`),             // CommonJS
	regexp.MustCompile(`^\s*use\s+([\w:]+)`),                      // Rust
}

var goImportRe = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"$`)

// ArchitectureDetector enforces the policy's layer rules: a changed file
// matching a layer glob must not import a forbidden prefix, and when the
// layer has an allow-list, everything outside it is a violation.
type ArchitectureDetector struct{}

func (d *ArchitectureDetector) Name() string { return "architecture" }

func (d *ArchitectureDetector) Detect(_ context.Context, in *Input) []Finding {
	var findings []Finding
	for _, rule := range in.Policy.Architecture {
		matcher := NewMatcher([]string{rule.Path})
		for _, file := range in.Changes.Files {
			if !matcher.Match(file) {
				continue
			}
			content, err := in.Files.ReadWorkFile(file)
			if err != nil {
				continue // deleted files have no imports to check
			}
			violations := layerViolations(content, rule.ForbiddenImports, rule.AllowedImports)
			if len(violations) == 0 {
				continue
			}
			findings = append(findings, Finding{
				Category:    CategoryArchitecture,
				Severity:    SeverityHigh,
				Confidence:  0.8,
				Title:       fmt.Sprintf("Layer %q import rule violated by %s", rule.Name, file),
				Expected:    fmt.Sprintf("Files in layer %q import only what the layer rule allows", rule.Name),
				Observed:    fmt.Sprintf("%d import(s) violate the rule", len(violations)),
				Files:       []string{file},
				Evidence:    boundEvidence(violations),
				Remediation: "Move the dependency behind an interface owned by an allowed layer, or move the code to the layer that owns it",
				Risk:        "medium",
				Verification: []string{
					"re-run the audit after restructuring the imports",
				},
				Attribution: in.Changes.Attribution([]string{file}, attributionDepth),
			})
		}
	}
	return findings
}

// layerViolations returns the imports in content that the rule rejects.
func layerViolations(content string, forbidden, allowed []string) []string {
	var violations []string
	for _, imp := range extractImports(content) {
		for _, prefix := range forbidden {
			if strings.HasPrefix(imp, prefix) {
				violations = append(violations, imp)
			}
		}
		if len(allowed) > 0 && !importAllowed(imp, allowed) {
			violations = append(violations, imp)
		}
	}
	return dedupe(violations)
}

func importAllowed(imp string, allowed []string) bool {
	for _, prefix := range allowed {
		if strings.HasPrefix(imp, prefix) {
			return true
		}
	}
	return false
}

// extractImports pulls module references out of source text. Inside a Go
// import block the quoted-path form applies; everywhere else the per-language
// patterns do.
func extractImports(content string) []string {
	var imports []string
	inGoBlock := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "import ("):
			inGoBlock = true
			continue
		case inGoBlock && trimmed == ")":
			inGoBlock = false
			continue
		case inGoBlock:
			if m := goImportRe.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
			}
			continue
		}
		for _, re := range importRes {
			if m := re.FindStringSubmatch(line); m != nil {
				imports = append(imports, m[1])
				break
			}
		}
	}
	return imports
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
