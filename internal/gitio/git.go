// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gitio is the read gateway to the repository under audit, plus the
// few mutating calls the remediator needs for rollback. All other packages go
// through it instead of invoking git directly.
package gitio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// contextTimeout bounds every git invocation. Optional context queries degrade
// to empty results on failure; see the *Soft methods.
const contextTimeout = 15 * time.Second

// Git runs git commands rooted at a single repository.
type Git struct {
	repoRoot string
}

// New creates a gateway for the repository at repoRoot.
func New(repoRoot string) *Git {
	return &Git{repoRoot: repoRoot}
}

// Root returns the repository root the gateway was created with.
func (g *Git) Root() string { return g.repoRoot }

func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, contextTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.repoRoot
	stderr := new(bytes.Buffer)
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w (%s)", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return string(out), nil
}

// runSoft is for optional context queries: any failure degrades to "".
func (g *Git) runSoft(ctx context.Context, args ...string) string {
	out, err := g.run(ctx, args...)
	if err != nil {
		return ""
	}
	return out
}

// IsRepo reports whether the gateway's root is inside a git work tree.
func (g *Git) IsRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// ResolveCommit resolves ref to a commit SHA, or returns an error if the ref
// does not name a commit in this repository.
func (g *Git) ResolveCommit(ctx context.Context, ref string) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{commit}")
	if err != nil {
		return "", fmt.Errorf("ref %q does not resolve to a commit: %w", ref, err)
	}
	return strings.TrimSpace(out), nil
}

// Head returns the SHA of the current HEAD.
func (g *Git) Head(ctx context.Context) (string, error) {
	return g.ResolveCommit(ctx, "HEAD")
}

// MergeBase returns the merge base of a and b.
func (g *Git) MergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := g.run(ctx, "merge-base", a, b)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// LatestTag returns the most recent reachable tag, or "" when none exists.
func (g *Git) LatestTag(ctx context.Context) string {
	return strings.TrimSpace(g.runSoft(ctx, "describe", "--tags", "--abbrev=0"))
}

// RootCommit returns the repository's first commit. Every non-empty repository
// has one, which is what makes baseline resolution total.
func (g *Git) RootCommit(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-list", "--max-parents=0", "HEAD")
	if err != nil {
		return "", err
	}
	lines := strings.Fields(strings.TrimSpace(out))
	if len(lines) == 0 {
		return "", fmt.Errorf("repository has no commits")
	}
	// Multiple roots are possible after unrelated-history merges; any is a
	// valid unconditional fallback. Take the last listed (the oldest).
	return lines[len(lines)-1], nil
}

// ChangedFiles lists paths changed between from and to. With includeWorktree
// set, to is ignored and the comparison runs against the working tree so
// uncommitted and staged changes are included.
func (g *Git) ChangedFiles(ctx context.Context, from, to string, includeWorktree bool) ([]string, error) {
	args := []string{"diff", "--name-only", "--no-ext-diff"}
	if includeWorktree {
		args = append(args, from)
	} else {
		args = append(args, from+".."+to)
	}
	out, err := g.run(ctx, args...)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	if includeWorktree {
		files = mergeUnique(files, g.untrackedFiles(ctx))
	}
	return files, nil
}

// untrackedFiles lists files present in the work tree but unknown to git.
// Soft: local audits should still work if the listing fails.
func (g *Git) untrackedFiles(ctx context.Context) []string {
	out := g.runSoft(ctx, "ls-files", "--others", "--exclude-standard")
	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files
}

// ChangedFromHead lists every path that differs from HEAD, staged, unstaged,
// and untracked alike. The remediator inspects fix-command results with it.
func (g *Git) ChangedFromHead(ctx context.Context) ([]string, error) {
	return g.ChangedFiles(ctx, "HEAD", "", true)
}

// Diff returns the unified diff for the compare range, worktree-inclusive when
// includeWorktree is set.
func (g *Git) Diff(ctx context.Context, from, to string, includeWorktree bool) (string, error) {
	args := []string{"diff", "--no-ext-diff", "--unified=3"}
	if includeWorktree {
		args = append(args, from)
	} else {
		args = append(args, from+".."+to)
	}
	return g.run(ctx, args...)
}

// WorkingDiff returns the full diff of the working tree (staged and unstaged)
// against HEAD. Used for the remediation patch artifact.
func (g *Git) WorkingDiff(ctx context.Context) (string, error) {
	return g.run(ctx, "diff", "--no-ext-diff", "HEAD")
}

// Commit is one entry of the bounded recent history used by churn heuristics
// and finding attribution.
type Commit struct {
	SHA     string
	Subject string
	Files   []string
}

// Log returns up to limit commits from the last sinceDays days, newest first,
// each with the files it touched. Soft: history is optional context, so any
// failure yields an empty log.
func (g *Git) Log(ctx context.Context, sinceDays, limit int) []Commit {
	out := g.runSoft(ctx,
		"log",
		fmt.Sprintf("--since=%d.days", sinceDays),
		fmt.Sprintf("--max-count=%d", limit),
		"--name-only",
		"--pretty=format:%x01%H%x00%s",
	)
	return parseLog(out)
}

func parseLog(out string) []Commit {
	var commits []Commit
	for _, block := range strings.Split(out, "\x01") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.Split(block, "\n")
		head := strings.SplitN(lines[0], "\x00", 2)
		if len(head) != 2 {
			continue
		}
		c := Commit{SHA: head[0], Subject: head[1]}
		for _, line := range lines[1:] {
			if line = strings.TrimSpace(line); line != "" {
				c.Files = append(c.Files, line)
			}
		}
		commits = append(commits, c)
	}
	return commits
}

// ShowFile returns the content of path at ref, or "" when the file does not
// exist there (a new file has no baseline version; that is not an error).
func (g *Git) ShowFile(ctx context.Context, ref, path string) string {
	return g.runSoft(ctx, "show", ref+":"+path)
}

// ReadWorkFile reads path from the working tree.
func (g *Git) ReadWorkFile(path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(g.repoRoot, path))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// IsClean reports whether the working tree has no staged, unstaged, or
// untracked changes.
func (g *Git) IsClean(ctx context.Context) (bool, error) {
	dirty, err := g.DirtyPaths(ctx)
	if err != nil {
		return false, err
	}
	return len(dirty) == 0, nil
}

// DirtyPaths lists every path git status reports as staged, unstaged, or
// untracked. Renames report the new name.
func (g *Git) DirtyPaths(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "status", "--porcelain")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, line := range strings.Split(out, "\n") {
		if len(line) < 4 {
			continue
		}
		p := strings.TrimSpace(line[3:])
		if i := strings.Index(p, " -> "); i >= 0 {
			p = p[i+4:]
		}
		if p = strings.Trim(p, `"`); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}

// Restore reverts the repository to its pre-run state: tracked paths back to
// HEAD (staged and worktree), newly created untracked files removed. It is the
// single compensator for auto-remediation and is safe to call more than once.
func (g *Git) Restore(ctx context.Context) error {
	if _, err := g.run(ctx, "reset", "--hard", "HEAD"); err != nil {
		return fmt.Errorf("reverting tracked changes: %w", err)
	}
	if _, err := g.run(ctx, "clean", "-fd"); err != nil {
		return fmt.Errorf("removing untracked files: %w", err)
	}
	return nil
}

// ExcludePaths returns files with every path in exclude removed. Both sides
// are compared as cleaned slash-separated repository-relative paths, so the
// tool's own report artifacts never enter a change set.
func ExcludePaths(files, exclude []string) []string {
	if len(files) == 0 || len(exclude) == 0 {
		return files
	}
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		if p == "" {
			continue
		}
		skip[path.Clean(filepath.ToSlash(p))] = true
	}
	var kept []string
	for _, f := range files {
		if !skip[path.Clean(filepath.ToSlash(f))] {
			kept = append(kept, f)
		}
	}
	return kept
}

func mergeUnique(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var merged []string
	for _, s := range append(a, b...) {
		if !seen[s] {
			seen[s] = true
			merged = append(merged, s)
		}
	}
	return merged
}
