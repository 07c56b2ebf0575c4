// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/driftwatch/internal/drift"
	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, out)
	}
}

func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()
	fullPath := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(fullPath), 0o755))
	require.NoError(t, os.WriteFile(fullPath, []byte(content), 0o644))
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	t.Setenv("CI", "")
	t.Setenv("GITHUB_HEAD_REF", "")
	t.Setenv("DRIFTWATCH_PR_HEAD", "")

	dir := t.TempDir()
	runGit(t, dir, "init", "-b", "main")
	writeFile(t, dir, "README.md", "hello\n")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "initial commit")
	return dir
}

func TestRun_NotARepository(t *testing.T) {
	t.Setenv("CI", "")
	_, err := Run(context.Background(), Options{RepoRoot: t.TempDir(), Mode: ModeAudit, Quiet: true})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not inside a git repository")
}

func TestRun_CleanTreePasses(t *testing.T) {
	dir := initRepo(t)
	var out bytes.Buffer

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true, Out: &out})

	require.NoError(t, err)
	assert.Equal(t, "pass", rep.GateResult)
	assert.Zero(t, rep.DriftScore)
	assert.Equal(t, "main", rep.Baseline.ResolvedRef)
	assert.False(t, rep.Baseline.CIContext)

	// Both report artifacts land at the default paths.
	assert.FileExists(t, filepath.Join(dir, "drift-report.md"))
	assert.FileExists(t, filepath.Join(dir, "drift-report.json"))
}

func TestRun_LocalAuditSeesWorktree(t *testing.T) {
	dir := initRepo(t)

	// Uncommitted code change without tests and without docs.
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { run() }\n")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})

	require.NoError(t, err)
	assert.Equal(t, []string{"main.go"}, rep.ChangedFiles)
	assert.Greater(t, rep.DriftScore, 0.0)
	assert.NotEmpty(t, rep.Findings)
	assert.NotEmpty(t, rep.Hotspots)
	assert.NotEmpty(t, rep.SuggestedActions)
}

func TestRun_PolicyIssueSurfacesAsFinding(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml", "thresholds:\n  fail_score: -1\n")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})

	require.NoError(t, err)
	var found bool
	for _, f := range rep.Findings {
		if f.Title == "Policy configuration has problems" {
			found = true
			assert.Equal(t, drift.CategoryConfigInfra, f.Category)
			assert.Equal(t, drift.SeverityLow, f.Severity)
			assert.Equal(t, 7.5, f.Score) // config_infra 15 * low 0.5
		}
	}
	assert.True(t, found, "expected the policy-issue finding")
	// The defaults still applied.
	assert.Equal(t, 35.0, rep.Thresholds.FailScore)
}

func TestRun_SkipQualityGates(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml", "standards:\n  lint:\n    - \"false\"\n")

	rep, err := Run(context.Background(), Options{
		RepoRoot: dir, Mode: ModeAudit, Quiet: true, SkipQualityGates: true,
	})

	require.NoError(t, err)
	for _, res := range rep.ToolRunStatus {
		assert.Equal(t, execx.StatusSkipped, res.Status)
	}
}

func TestRun_GateFailureBecomesFinding(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml", "standards:\n  test:\n    - \"exit 1\"\n")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})

	require.NoError(t, err)
	var titles []string
	for _, f := range rep.Findings {
		titles = append(titles, f.Title)
	}
	assert.Contains(t, titles, "Test gate failed")
}

func TestRun_RecommendModeBuildsPreview(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { changed() }\n")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeRecommend, Quiet: true})

	require.NoError(t, err)
	assert.Contains(t, rep.PatchPreview, "main.go")

	// Audit mode leaves the preview empty for the same tree.
	rep, err = Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})
	require.NoError(t, err)
	assert.Empty(t, rep.PatchPreview)
}

func TestRun_AutoRemediateMode(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml",
		"auto_remediation:\n  enabled: true\n  fix_commands:\n    - \"printf fixed > main.go\"\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "add policy")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAutoRemediate, Quiet: true})

	require.NoError(t, err)
	require.NotNil(t, rep.AutoRemediation)
	assert.Equal(t, "applied", string(rep.AutoRemediation.Status))
	assert.Equal(t, []string{"main.go"}, rep.AutoRemediation.FilesChanged)
	assert.FileExists(t, filepath.Join(dir, "drift-fixes.patch"))
}

func TestRun_AutoRemediateBlockedOnDirtyTree(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml",
		"auto_remediation:\n  enabled: true\n  fix_commands:\n    - \"true\"\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "add policy")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { dirty() }\n")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAutoRemediate, Quiet: true})

	require.NoError(t, err)
	require.NotNil(t, rep.AutoRemediation)
	assert.Equal(t, "blocked", string(rep.AutoRemediation.Status))
}

func TestRun_RepeatedRunsAreIdempotent(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "main.go", "package main\n\nfunc main() { run() }\n")

	first, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})
	require.NoError(t, err)
	second, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAudit, Quiet: true})
	require.NoError(t, err)

	// The first run left drift-report.md and drift-report.json behind; the
	// second run must not see them as changed files or docs updates.
	assert.Equal(t, []string{"main.go"}, second.ChangedFiles)
	assert.Equal(t, first.DriftScore, second.DriftScore)
	assert.Len(t, second.Findings, len(first.Findings))
}

func TestRun_AutoRemediateRevertRestoresTree(t *testing.T) {
	dir := initRepo(t)
	writeFile(t, dir, "driftwatch.yaml",
		"auto_remediation:\n  enabled: true\n  max_files_changed: 1\n"+
			"  fix_commands:\n    - \"printf x > new1.go\"\n    - \"printf x > new2.go\"\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "add policy")

	rep, err := Run(context.Background(), Options{RepoRoot: dir, Mode: ModeAutoRemediate, Quiet: true})

	require.NoError(t, err)
	require.NotNil(t, rep.AutoRemediation)
	assert.Equal(t, "failed_reverted", string(rep.AutoRemediation.Status))

	// Rollback removed everything the fix commands created; only the report
	// artifacts written after remediation remain.
	assert.NoFileExists(t, filepath.Join(dir, "new1.go"))
	assert.NoFileExists(t, filepath.Join(dir, "new2.go"))
	dirty, err := gitio.New(dir).DirtyPaths(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"drift-report.md", "drift-report.json"}, dirty)
}

func TestRun_ForcedCIUsesMergeBase(t *testing.T) {
	dir := initRepo(t)
	runGit(t, dir, "checkout", "-b", "feature")
	writeFile(t, dir, "feature.go", "package main\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "feature work")

	rep, err := Run(context.Background(), Options{
		RepoRoot: dir, Mode: ModeAudit, Quiet: true, ForceCI: true, PRHead: "feature",
	})

	require.NoError(t, err)
	assert.True(t, rep.Baseline.CIContext)
	assert.Equal(t, []string{"feature.go"}, rep.ChangedFiles)
}

func TestEnvTruthy(t *testing.T) {
	assert.True(t, envTruthy("1"))
	assert.True(t, envTruthy("true"))
	assert.True(t, envTruthy(" YES "))
	assert.False(t, envTruthy(""))
	assert.False(t, envTruthy("0"))
	assert.False(t, envTruthy("false"))
}
