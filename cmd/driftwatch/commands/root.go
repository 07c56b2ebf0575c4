// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Driftwatch - Driftwatch audits a working branch against a baseline, classifies the
differences into drift categories, scores the aggregate risk, and optionally applies
bounded automatic fixes with guaranteed rollback.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bartekus/driftwatch/cmd/driftwatch/internal/clierr"
	"github.com/bartekus/driftwatch/internal/engine"
)

// Exit codes of the audit run.
const (
	exitPrecondition = 1
	exitGateFailed   = 2
	exitRemediation  = 3
)

type rootFlags struct {
	repo             string
	config           string
	mode             string
	baselineRef      string
	ci               bool
	prHead           string
	skipQualityGates bool
	includeFullTests bool
	quiet            bool
}

// NewRootCmd constructs the driftwatch root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("DRIFTWATCH_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	var flags rootFlags

	cmd := &cobra.Command{
		Use:           "driftwatch",
		Short:         "Driftwatch - drift detection and safe remediation for working branches",
		Long:          "Driftwatch compares a working branch against a baseline ref, classifies the differences into drift categories, scores the aggregate risk against a policy threshold, and can apply bounded automatic fixes with guaranteed rollback.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.repo, "repo", ".", "repository root to audit")
	cmd.Flags().StringVar(&flags.config, "config", "", "path to the policy file (default: discover driftwatch.yaml)")
	cmd.Flags().StringVar(&flags.mode, "mode", engine.ModeAudit, "run mode: audit, recommend, or auto-remediate")
	cmd.Flags().StringVar(&flags.baselineRef, "baseline-ref", "", "override the baseline ref")
	cmd.Flags().BoolVar(&flags.ci, "ci", false, "force CI comparison semantics")
	cmd.Flags().StringVar(&flags.prHead, "pr-head", "", "head ref of the pull request under review")
	cmd.Flags().BoolVar(&flags.skipQualityGates, "skip-quality-gates", false, "record quality gates as skipped instead of running them")
	cmd.Flags().BoolVar(&flags.includeFullTests, "include-full-tests", false, "run the full test commands instead of the fast ones")
	cmd.Flags().BoolVar(&flags.quiet, "quiet", false, "suppress the console summary and progress output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of driftwatch",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "driftwatch version %s\n", version)
		},
	})
	cmd.AddCommand(newInitCmd())

	return cmd
}

func runAudit(cmd *cobra.Command, flags rootFlags) error {
	switch flags.mode {
	case engine.ModeAudit, engine.ModeRecommend, engine.ModeAutoRemediate:
	default:
		return clierr.Newf(exitPrecondition, "unknown mode %q", flags.mode)
	}

	rep, err := engine.Run(cmd.Context(), engine.Options{
		RepoRoot:         flags.repo,
		ConfigPath:       flags.config,
		Mode:             flags.mode,
		BaselineRef:      flags.baselineRef,
		ForceCI:          flags.ci,
		PRHead:           flags.prHead,
		SkipQualityGates: flags.skipQualityGates,
		IncludeFullTests: flags.includeFullTests,
		Quiet:            flags.quiet,
		Out:              cmd.OutOrStdout(),
	})
	if err != nil {
		return clierr.Wrap(exitPrecondition, "audit aborted", err)
	}

	if rep.AutoRemediation != nil && rep.AutoRemediation.Failed() {
		return clierr.Newf(exitRemediation, "auto-remediation %s: %s", rep.AutoRemediation.Status, rep.AutoRemediation.Reason)
	}
	if rep.GateResult == "fail" {
		return clierr.Newf(exitGateFailed, "drift gate failed: score %.1f meets threshold %.1f", rep.DriftScore, rep.Thresholds.FailScore)
	}
	return nil
}
