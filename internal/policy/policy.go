// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Driftwatch - Driftwatch audits a working branch against a baseline, classifies the
differences into drift categories, scores the aggregate risk, and optionally applies
bounded automatic fixes with guaranteed rollback.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package policy defines the merged audit policy and its built-in defaults.
package policy

// Policy is the fully merged configuration for one audit run. Every section is
// populated after loading: user documents override defaults field by field, so
// callers never need nil checks.
type Policy struct {
	Baseline        BaselineConfig        `mapstructure:"baseline" yaml:"baseline"`
	Standards       StandardsConfig       `mapstructure:"standards" yaml:"standards"`
	Architecture    []LayerRule           `mapstructure:"architecture" yaml:"architecture"`
	Dependencies    DependencyPolicy      `mapstructure:"dependencies" yaml:"dependencies"`
	API             APIPolicy             `mapstructure:"api" yaml:"api"`
	Thresholds      Thresholds            `mapstructure:"thresholds" yaml:"thresholds"`
	AutoRemediation AutoRemediationPolicy `mapstructure:"auto_remediation" yaml:"auto_remediation"`
	RiskControls    RiskControls          `mapstructure:"risk_controls" yaml:"risk_controls"`
	Reporting       ReportingConfig       `mapstructure:"reporting" yaml:"reporting"`
	LookbackDays    int                   `mapstructure:"lookback_days" yaml:"lookback_days"`
}

// BaselineConfig selects the comparison anchor when no CLI override is given.
type BaselineConfig struct {
	Commit string `mapstructure:"commit" yaml:"commit"`
	Tag    string `mapstructure:"tag" yaml:"tag"`
	Branch string `mapstructure:"branch" yaml:"branch"`
}

// StandardsConfig lists the external commands for each quality-gate role.
type StandardsConfig struct {
	Format    []string `mapstructure:"format" yaml:"format"`
	FormatFix []string `mapstructure:"format_fix" yaml:"format_fix"`
	Lint      []string `mapstructure:"lint" yaml:"lint"`
	LintFix   []string `mapstructure:"lint_fix" yaml:"lint_fix"`
	Typecheck []string `mapstructure:"typecheck" yaml:"typecheck"`
	Test      []string `mapstructure:"test" yaml:"test"`
	TestFull  []string `mapstructure:"test_full" yaml:"test_full"`
	Security  []string `mapstructure:"security" yaml:"security"`
	Benchmark []string `mapstructure:"benchmark" yaml:"benchmark"`
}

// LayerRule constrains what files matching Path may import.
// If AllowedImports is non-empty it is an exhaustive allow-list; otherwise only
// the ForbiddenImports prefixes are rejected.
type LayerRule struct {
	Name             string   `mapstructure:"name" yaml:"name"`
	Path             string   `mapstructure:"path" yaml:"path"`
	ForbiddenImports []string `mapstructure:"forbidden_imports" yaml:"forbidden_imports"`
	AllowedImports   []string `mapstructure:"allowed_imports" yaml:"allowed_imports"`
}

// DependencyPolicy governs manifest changes.
type DependencyPolicy struct {
	Allowlist           []string `mapstructure:"allowlist" yaml:"allowlist"`
	Denylist            []string `mapstructure:"denylist" yaml:"denylist"`
	RequireLockfileSync bool     `mapstructure:"require_lockfile_sync" yaml:"require_lockfile_sync"`
}

// APIPolicy marks the public surface and how strictly breaking changes are treated.
type APIPolicy struct {
	PublicPaths          []string `mapstructure:"public_paths" yaml:"public_paths"`
	BreakingChangePolicy string   `mapstructure:"breaking_change_policy" yaml:"breaking_change_policy"`
}

// Thresholds controls the pass/fail verdict and per-category weight overrides.
type Thresholds struct {
	FailScore       float64            `mapstructure:"fail_score" yaml:"fail_score"`
	CategoryWeights map[string]float64 `mapstructure:"category_weights" yaml:"category_weights"`
}

// AutoRemediationPolicy bounds what the auto-remediate mode may touch.
type AutoRemediationPolicy struct {
	Enabled         bool     `mapstructure:"enabled" yaml:"enabled"`
	MaxFilesChanged int      `mapstructure:"max_files_changed" yaml:"max_files_changed"`
	SafeDirectories []string `mapstructure:"safe_directories" yaml:"safe_directories"`
	FixCommands     []string `mapstructure:"fix_commands" yaml:"fix_commands"`
}

// RiskControls holds repository-wide guard rails.
type RiskControls struct {
	ProtectedGlobs              []string `mapstructure:"protected_globs" yaml:"protected_globs"`
	RequireTestsBeforeAutomerge bool     `mapstructure:"require_tests_before_automerge" yaml:"require_tests_before_automerge"`
}

// ReportingConfig names the output artifacts, relative to the repository root.
type ReportingConfig struct {
	MarkdownPath string `mapstructure:"markdown_path" yaml:"markdown_path"`
	JSONPath     string `mapstructure:"json_path" yaml:"json_path"`
	PatchPath    string `mapstructure:"patch_path" yaml:"patch_path"`
}

// ArtifactPaths lists every path the tool itself writes. Change collection and
// remediation ignore these so the tool never treats its own output as drift.
func (r ReportingConfig) ArtifactPaths() []string {
	return []string{r.MarkdownPath, r.JSONPath, r.PatchPath}
}

// Default returns the built-in policy. Every field a detector reads has a value
// here, so a Policy is usable even when no configuration file exists.
func Default() *Policy {
	return &Policy{
		Baseline: BaselineConfig{},
		Standards: StandardsConfig{
			Format:    []string{},
			FormatFix: []string{},
			Lint:      []string{},
			LintFix:   []string{},
			Typecheck: []string{},
			Test:      []string{},
			TestFull:  []string{},
			Security:  []string{},
			Benchmark: []string{},
		},
		Architecture: []LayerRule{},
		Dependencies: DependencyPolicy{
			Allowlist:           []string{},
			Denylist:            []string{},
			RequireLockfileSync: true,
		},
		API: APIPolicy{
			PublicPaths:          []string{},
			BreakingChangePolicy: "default",
		},
		Thresholds: Thresholds{
			FailScore:       35,
			CategoryWeights: map[string]float64{},
		},
		AutoRemediation: AutoRemediationPolicy{
			Enabled:         false,
			MaxFilesChanged: 10,
			SafeDirectories: []string{},
			FixCommands:     []string{},
		},
		RiskControls: RiskControls{
			ProtectedGlobs:              []string{},
			RequireTestsBeforeAutomerge: true,
		},
		Reporting: ReportingConfig{
			MarkdownPath: "drift-report.md",
			JSONPath:     "drift-report.json",
			PatchPath:    "drift-fixes.patch",
		},
		LookbackDays: 14,
	}
}
