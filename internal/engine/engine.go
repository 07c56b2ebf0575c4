// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Driftwatch - Driftwatch audits a working branch against a baseline, classifies the
differences into drift categories, scores the aggregate risk, and optionally applies
bounded automatic fixes with guaranteed rollback.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package engine sequences one audit run: baseline resolution, change
// collection, quality gates, detection, scoring, remediation, reporting.
// Each phase completes fully before the next begins.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bartekus/driftwatch/internal/drift"
	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
	"github.com/bartekus/driftwatch/internal/policy"
	"github.com/bartekus/driftwatch/internal/remedy"
	"github.com/bartekus/driftwatch/internal/report"
)

// Run modes.
const (
	ModeAudit         = "audit"
	ModeRecommend     = "recommend"
	ModeAutoRemediate = "auto-remediate"
)

// PR-head environment variables, in lookup order. The second name keeps
// GitHub Actions working without configuration.
var prHeadEnvVars = []string{"DRIFTWATCH_PR_HEAD", "GITHUB_HEAD_REF"}

// Options configures one run.
type Options struct {
	RepoRoot         string
	ConfigPath       string
	Mode             string
	BaselineRef      string
	ForceCI          bool
	PRHead           string
	SkipQualityGates bool
	IncludeFullTests bool
	Quiet            bool

	// Out receives the console summary; defaults to stdout.
	Out io.Writer
}

// Run executes the full pipeline and returns the assembled report. Only two
// conditions fail a run: the path is not a repository, or the baseline cannot
// be resolved at all (an empty repository).
func Run(ctx context.Context, opts Options) (*drift.Report, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel(opts.Quiet)}))

	git := gitio.New(opts.RepoRoot)
	if !git.IsRepo(ctx) {
		return nil, fmt.Errorf("%s is not inside a git repository", opts.RepoRoot)
	}

	ci := opts.ForceCI || envTruthy(os.Getenv("CI"))
	phases := report.NewPhases(!opts.Quiet && !ci, 6)
	defer phases.Done()

	phases.Step("loading policy")
	pol, policyIssues := policy.Load(opts.ConfigPath, opts.RepoRoot)
	if len(policyIssues) > 0 {
		log.Warn("policy loaded with issues", "count", len(policyIssues))
	}

	phases.Step("resolving baseline")
	ref, commit, reason, err := gitio.ResolveBaseline(ctx, git, pol.Baseline, opts.BaselineRef)
	if err != nil {
		return nil, err
	}
	baseline := &gitio.Baseline{
		RequestedRef: opts.BaselineRef,
		ResolvedRef:  ref,
		Commit:       commit,
		Reason:       reason,
		CIContext:    ci,
	}
	if err := gitio.ResolveRange(ctx, git, baseline, prHead(opts.PRHead)); err != nil {
		return nil, err
	}
	log.Info("baseline resolved", "ref", ref, "reason", reason, "ci", ci)

	phases.Step("collecting changes")
	changes, err := gitio.Collect(ctx, git, baseline, pol.LookbackDays, pol.Reporting.ArtifactPaths())
	if err != nil {
		return nil, fmt.Errorf("collecting change set: %w", err)
	}
	log.Info("change set collected", "files", len(changes.Files), "commits", len(changes.Commits))

	phases.Step("running quality gates")
	runner := execx.NewShellRunner(opts.RepoRoot)
	gates := execx.RunGates(ctx, runner, execx.GatesFor(pol.Standards, opts.IncludeFullTests), opts.SkipQualityGates)

	phases.Step("detecting drift")
	input := drift.NewInput(baseline, changes, gates, pol, git)
	findings := drift.RunDetectors(ctx, input)
	findings = appendPolicyIssueFinding(findings, policyIssues)

	totals := drift.ScoreFindings(findings, drift.EffectiveWeights(pol.Thresholds.CategoryWeights))
	hotspots := drift.RankHotspots(findings)
	plan := drift.BuildPlan(findings)

	rep := &drift.Report{
		GeneratedAt:      time.Now(),
		Mode:             opts.Mode,
		Baseline:         baseline,
		DriftScore:       totals.DriftScore,
		CategoryScores:   totals.CategoryScores,
		CategoryCounts:   totals.CategoryCounts,
		Hotspots:         hotspots,
		Findings:         findings,
		SuggestedActions: plan,
		ToolRunStatus:    gates,
		Thresholds:       drift.ReportThresholds{FailScore: pol.Thresholds.FailScore},
		GateResult:       drift.GateResult(totals.DriftScore, pol.Thresholds.FailScore),
		ChangedFiles:     changes.Files,
	}

	switch opts.Mode {
	case ModeRecommend:
		rep.PatchPreview = drift.BuildPreview(input.Diff, hotspots)
	case ModeAutoRemediate:
		remediator := &remedy.Remediator{
			WS:        git,
			Runner:    runner,
			Policy:    pol,
			RepoRoot:  opts.RepoRoot,
			Artifacts: pol.Reporting.ArtifactPaths(),
			RerunGates: func(ctx context.Context) []execx.Result {
				return execx.RunGates(ctx, runner, execx.GatesFor(pol.Standards, true), false)
			},
		}
		rep.AutoRemediation = remediator.Run(ctx)
		log.Info("auto-remediation finished", "status", rep.AutoRemediation.Status, "reason", rep.AutoRemediation.Reason)
	}

	phases.Step("writing reports")
	if err := report.WriteMarkdown(opts.RepoRoot, pol.Reporting.MarkdownPath, rep); err != nil {
		log.Warn("could not write markdown report", "err", err)
	}
	if err := report.WriteJSON(opts.RepoRoot, pol.Reporting.JSONPath, rep); err != nil {
		log.Warn("could not write json report", "err", err)
	}
	phases.Done()
	if !opts.Quiet {
		report.Console(out, rep)
	}
	return rep, nil
}

// appendPolicyIssueFinding is the one late append: recoverable configuration
// problems become a low-severity finding so misconfiguration is itself
// visible in the report.
func appendPolicyIssueFinding(findings []drift.Finding, issues []string) []drift.Finding {
	if len(issues) == 0 {
		return findings
	}
	return append(findings, drift.Finding{
		Category:    drift.CategoryConfigInfra,
		Severity:    drift.SeverityLow,
		Confidence:  1.0,
		Title:       "Policy configuration has problems",
		Expected:    "The policy document loads cleanly",
		Observed:    fmt.Sprintf("%d problem(s) during configuration loading; built-in defaults are in effect for the affected sections", len(issues)),
		Evidence:    issues,
		Remediation: "Fix the policy file so the configured values actually apply",
		Risk:        "low",
		Verification: []string{
			"re-run the audit and confirm this finding disappears",
		},
	})
}

func prHead(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	for _, name := range prHeadEnvVars {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func envTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func logLevel(quiet bool) slog.Level {
	if quiet {
		return slog.LevelError
	}
	return slog.LevelInfo
}
