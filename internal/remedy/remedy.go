// SPDX-License-Identifier: AGPL-3.0-or-later

// Package remedy applies the policy's fix commands under a strict safety
// protocol: clean-tree precondition, bounded change surface, gate re-check,
// and a single idempotent rollback before any non-applied outcome.
package remedy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
	"github.com/bartekus/driftwatch/internal/policy"
)

// Status is a terminal state of the remediation state machine.
type Status string

const (
	StatusSkipped        Status = "skipped"
	StatusBlocked        Status = "blocked"
	StatusFailed         Status = "failed"
	StatusNoChanges      Status = "no_changes"
	StatusFailedReverted Status = "failed_reverted"
	StatusApplied        Status = "applied"
)

// Result reports the remediation outcome. Every non-applied status other than
// skipped, blocked, and no_changes is preceded by a full rollback.
type Result struct {
	Status                 Status         `json:"status"`
	Reason                 string         `json:"reason"`
	Commands               []execx.Result `json:"commands,omitempty"`
	FilesChanged           []string       `json:"files_changed,omitempty"`
	GateResults            []execx.Result `json:"gate_results,omitempty"`
	PatchPath              string         `json:"patch_path,omitempty"`
	SuggestedCommitMessage string         `json:"suggested_commit_message,omitempty"`
}

// Failed reports whether the outcome maps to process exit code 3.
func (r *Result) Failed() bool {
	return r.Status == StatusFailed || r.Status == StatusFailedReverted
}

// Workspace is the slice of the git gateway the remediator mutates through.
type Workspace interface {
	DirtyPaths(ctx context.Context) ([]string, error)
	ChangedFromHead(ctx context.Context) ([]string, error)
	WorkingDiff(ctx context.Context) (string, error)
	Restore(ctx context.Context) error
}

// Remediator runs the auto-remediation protocol for one repository.
type Remediator struct {
	WS       Workspace
	Runner   execx.Runner
	Policy   *policy.Policy
	RepoRoot string

	// Artifacts are the tool's own output paths. They neither block the
	// clean-tree precondition nor count toward the change surface.
	Artifacts []string

	// RerunGates re-executes the full quality-gate suite (full tests
	// included) after fixes landed. Injected so tests stay hermetic.
	RerunGates func(ctx context.Context) []execx.Result
}

// Run drives the state machine to one terminal status. It never returns an
// error: every failure mode is a status, and rollback has already happened by
// the time a failing status is reported.
func (r *Remediator) Run(ctx context.Context) *Result {
	auto := r.Policy.AutoRemediation
	if !auto.Enabled {
		return &Result{Status: StatusSkipped, Reason: "auto-remediation disabled by policy"}
	}
	commands := auto.FixCommands
	if len(commands) == 0 {
		commands = append(append([]string{}, r.Policy.Standards.FormatFix...), r.Policy.Standards.LintFix...)
	}
	if len(commands) == 0 {
		return &Result{Status: StatusSkipped, Reason: "no fix commands configured"}
	}

	dirty, err := r.WS.DirtyPaths(ctx)
	if err != nil {
		return &Result{Status: StatusBlocked, Reason: fmt.Sprintf("could not inspect working tree: %v", err)}
	}
	if len(gitio.ExcludePaths(dirty, r.Artifacts)) > 0 {
		return &Result{Status: StatusBlocked, Reason: "working tree is not clean; commit or stash before auto-remediation"}
	}

	var ran []execx.Result
	for _, command := range commands {
		res := r.Runner.Run(ctx, "fix", command)
		ran = append(ran, res)
		if res.Status != execx.StatusPassed {
			return r.revert(ctx, &Result{
				Status:   StatusFailed,
				Reason:   fmt.Sprintf("fix command failed: %s", command),
				Commands: ran,
			})
		}
	}

	changed, err := r.WS.ChangedFromHead(ctx)
	if err != nil {
		return r.revert(ctx, &Result{
			Status:   StatusFailed,
			Reason:   fmt.Sprintf("could not list changed files: %v", err),
			Commands: ran,
		})
	}
	changed = gitio.ExcludePaths(changed, r.Artifacts)
	if len(changed) == 0 {
		return &Result{Status: StatusNoChanges, Reason: "fix commands ran but changed nothing", Commands: ran}
	}

	if reason := r.postConditionViolation(changed); reason != "" {
		return r.revert(ctx, &Result{
			Status:       StatusFailedReverted,
			Reason:       reason,
			Commands:     ran,
			FilesChanged: changed,
		})
	}

	gates := r.RerunGates(ctx)
	for _, gate := range gates {
		if gate.Status == execx.StatusFailed {
			return r.revert(ctx, &Result{
				Status:       StatusFailedReverted,
				Reason:       fmt.Sprintf("quality gate %q failed after fixes", gate.Name),
				Commands:     ran,
				FilesChanged: changed,
				GateResults:  gates,
			})
		}
	}

	patch, err := r.WS.WorkingDiff(ctx)
	if err == nil {
		err = r.writePatch(patch)
	}
	if err != nil {
		return r.revert(ctx, &Result{
			Status:       StatusFailedReverted,
			Reason:       fmt.Sprintf("could not write patch artifact: %v", err),
			Commands:     ran,
			FilesChanged: changed,
			GateResults:  gates,
		})
	}

	return &Result{
		Status:                 StatusApplied,
		Reason:                 "fixes applied and verified",
		Commands:               ran,
		FilesChanged:           changed,
		GateResults:            gates,
		PatchPath:              r.Policy.Reporting.PatchPath,
		SuggestedCommitMessage: commitMessage(commands, len(changed)),
	}
}

// postConditionViolation checks the change surface against the policy bounds.
// Empty return means every bound holds.
func (r *Remediator) postConditionViolation(changed []string) string {
	auto := r.Policy.AutoRemediation
	if len(changed) > auto.MaxFilesChanged {
		return fmt.Sprintf("%d files changed, policy allows at most %d", len(changed), auto.MaxFilesChanged)
	}

	if len(auto.SafeDirectories) > 0 {
		for _, file := range changed {
			if !inSafeDirectory(file, auto.SafeDirectories) {
				return fmt.Sprintf("%s is outside every configured safe directory", file)
			}
		}
	}

	if globs := r.Policy.RiskControls.ProtectedGlobs; len(globs) > 0 {
		protected := ignore.CompileIgnoreLines(globs...)
		for _, file := range changed {
			if protected.MatchesPath(file) {
				return fmt.Sprintf("%s matches a protected glob", file)
			}
		}
	}
	return ""
}

func inSafeDirectory(file string, dirs []string) bool {
	for _, dir := range dirs {
		dir = strings.TrimSuffix(dir, "/") + "/"
		if strings.HasPrefix(file, dir) {
			return true
		}
	}
	return false
}

// revert runs the compensator and annotates the result. Rollback failure is
// appended to the reason; there is nothing safer left to do at that point.
func (r *Remediator) revert(ctx context.Context, res *Result) *Result {
	if err := r.WS.Restore(ctx); err != nil {
		res.Reason += fmt.Sprintf("; ROLLBACK FAILED: %v (repository may hold partial changes)", err)
	}
	return res
}

func (r *Remediator) writePatch(patch string) error {
	path := r.Policy.Reporting.PatchPath
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.RepoRoot, path)
	}
	return os.WriteFile(path, []byte(patch), 0o644)
}

func commitMessage(commands []string, fileCount int) string {
	return fmt.Sprintf("Apply automated fixes (%s) across %d file(s)", strings.Join(commands, "; "), fileCount)
}
