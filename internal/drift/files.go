// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"path"
	"strings"
)

// codeExtensions marks files the behavioral/docs detectors treat as code.
var codeExtensions = map[string]bool{
	".go": true, ".py": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".java": true, ".kt": true, ".rb": true, ".rs": true, ".c": true, ".h": true,
	".cc": true, ".cpp": true, ".cs": true, ".php": true, ".scala": true, ".swift": true,
}

// manifestFiles are the dependency manifests the dependency detector parses.
var manifestFiles = map[string]bool{
	"go.mod": true, "package.json": true, "requirements.txt": true,
	"cargo.toml": true, "pyproject.toml": true, "gemfile": true, "pom.xml": true,
}

// lockFiles are the lockfiles recognized for manifest/lockfile sync checks.
var lockFiles = map[string]bool{
	"go.sum": true, "package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true,
	"cargo.lock": true, "poetry.lock": true, "gemfile.lock": true, "uv.lock": true,
}

func isCodeFile(p string) bool {
	return codeExtensions[strings.ToLower(path.Ext(p))]
}

func isTestFile(p string) bool {
	base := strings.ToLower(path.Base(p))
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(base, "_test.go"),
		strings.HasPrefix(base, "test_"),
		strings.Contains(base, ".test."),
		strings.Contains(base, ".spec."):
		return true
	}
	for _, dir := range []string{"test/", "tests/", "__tests__/", "spec/"} {
		if strings.HasPrefix(lower, dir) || strings.Contains(lower, "/"+dir) {
			return true
		}
	}
	return false
}

func isDocFile(p string) bool {
	lower := strings.ToLower(p)
	if strings.HasSuffix(lower, ".md") || strings.HasSuffix(lower, ".rst") || strings.HasSuffix(lower, ".adoc") {
		return true
	}
	return strings.HasPrefix(lower, "docs/") || strings.Contains(lower, "/docs/")
}

func isManifestFile(p string) bool {
	return manifestFiles[strings.ToLower(path.Base(p))]
}

func isLockFile(p string) bool {
	return lockFiles[strings.ToLower(path.Base(p))]
}

// isConfigInfraFile marks CI, deployment, and build configuration paths.
func isConfigInfraFile(p string) bool {
	lower := strings.ToLower(p)
	base := path.Base(lower)
	switch {
	case strings.HasPrefix(lower, ".github/workflows/"),
		strings.HasPrefix(lower, ".circleci/"),
		strings.HasPrefix(lower, ".gitlab/"),
		strings.HasPrefix(lower, "helm/"),
		strings.HasPrefix(lower, "deploy/"),
		strings.HasPrefix(lower, "terraform/"):
		return true
	}
	switch base {
	case ".gitlab-ci.yml", "jenkinsfile", "dockerfile", "docker-compose.yml",
		"docker-compose.yaml", "makefile", ".pre-commit-config.yaml", "netlify.toml",
		"vercel.json", "procfile":
		return true
	}
	if strings.HasSuffix(base, ".tf") {
		return true
	}
	// Tool configuration at the repository root.
	if !strings.Contains(p, "/") {
		for _, suffix := range []string{".toml", ".ini", ".cfg", ".yml", ".yaml"} {
			if strings.HasSuffix(base, suffix) {
				return true
			}
		}
	}
	return false
}

func isWorkflowFile(p string) bool {
	lower := strings.ToLower(p)
	return strings.HasPrefix(lower, ".github/workflows/") &&
		(strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".yaml"))
}
