// SPDX-License-Identifier: AGPL-3.0-or-later

package gitio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/driftwatch/internal/policy"
)

func TestResolveBaseline_Override(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()
	runGit(t, dir, "tag", "pinned")

	ref, commit, reason, err := ResolveBaseline(ctx, g, policy.BaselineConfig{}, "pinned")

	require.NoError(t, err)
	assert.Equal(t, "pinned", ref)
	assert.Len(t, commit, 40)
	assert.Equal(t, "explicit --baseline-ref", reason)
}

func TestResolveBaseline_ConfiguredBranchBeatsConvention(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()
	runGit(t, dir, "branch", "release")

	ref, _, reason, err := ResolveBaseline(ctx, g, policy.BaselineConfig{Branch: "release"}, "")

	require.NoError(t, err)
	assert.Equal(t, "release", ref)
	assert.Equal(t, "configured baseline branch", reason)
}

func TestResolveBaseline_UnresolvableCandidatesFallThrough(t *testing.T) {
	_, g := initRepo(t)
	ctx := context.Background()

	// Neither the configured tag nor branch exists, so resolution falls
	// through to the conventional main branch.
	ref, _, reason, err := ResolveBaseline(ctx, g, policy.BaselineConfig{Tag: "v9.9.9", Branch: "develop"}, "")

	require.NoError(t, err)
	assert.Equal(t, "main", ref)
	assert.Equal(t, "conventional default branch", reason)
}

func TestResolveBaseline_RootCommitFallback(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()

	// Rename the branch away from every conventional name so only the root
	// commit remains.
	runGit(t, dir, "branch", "-m", "main", "trunk")

	ref, commit, reason, err := ResolveBaseline(ctx, g, policy.BaselineConfig{}, "")

	require.NoError(t, err)
	root, err := g.RootCommit(ctx)
	require.NoError(t, err)
	assert.Equal(t, root, ref)
	assert.Equal(t, root, commit)
	assert.Equal(t, "repository root commit (unconditional fallback)", reason)
}

func TestResolveRange_Local(t *testing.T) {
	_, g := initRepo(t)
	ctx := context.Background()

	head, err := g.Head(ctx)
	require.NoError(t, err)

	b := &Baseline{ResolvedRef: "main", Commit: head}
	require.NoError(t, ResolveRange(ctx, g, b, ""))

	assert.Equal(t, head, b.From)
	assert.Equal(t, head, b.To)
}

func TestResolveRange_CIMergeBase(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()

	base, err := g.Head(ctx)
	require.NoError(t, err)

	// Diverge: one commit on main, one on a feature branch.
	runGit(t, dir, "checkout", "-b", "feature")
	createFile(t, dir, "feature.go", "package feature\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "feature work")

	runGit(t, dir, "checkout", "main")
	createFile(t, dir, "mainline.go", "package mainline\n")
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-m", "mainline work")

	mainHead, err := g.Head(ctx)
	require.NoError(t, err)

	b := &Baseline{ResolvedRef: "main", Commit: mainHead, CIContext: true}
	require.NoError(t, ResolveRange(ctx, g, b, "feature"))

	// The from side is the merge base, so unrelated mainline drift is
	// excluded from the comparison.
	assert.Equal(t, base, b.From)
	featureHead, err := g.ResolveCommit(ctx, "feature")
	require.NoError(t, err)
	assert.Equal(t, featureHead, b.To)
}
