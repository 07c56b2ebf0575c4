// SPDX-License-Identifier: AGPL-3.0-or-later

package gitio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_LocalIncludesWorktree(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()

	head, err := g.Head(ctx)
	require.NoError(t, err)

	createFile(t, dir, "b.go", "package b\n")
	createFile(t, dir, "a.go", "package a\n")

	cs, err := Collect(ctx, g, &Baseline{Commit: head, From: head, To: head}, 14, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"a.go", "b.go"}, cs.Files) // sorted
	assert.NotEmpty(t, cs.Commits)
}

func TestCollect_CIExcludesWorktree(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()

	head, err := g.Head(ctx)
	require.NoError(t, err)
	createFile(t, dir, "uncommitted.go", "package uncommitted\n")

	cs, err := Collect(ctx, g, &Baseline{Commit: head, From: head, To: head, CIContext: true}, 14, nil)
	require.NoError(t, err)

	assert.Empty(t, cs.Files)
	assert.Empty(t, cs.Diff)
}

func TestCollect_ExcludesReportArtifacts(t *testing.T) {
	dir, g := initRepo(t)
	ctx := context.Background()

	head, err := g.Head(ctx)
	require.NoError(t, err)

	createFile(t, dir, "main.go", "package main\n")
	createFile(t, dir, "drift-report.md", "# old report\n")
	createFile(t, dir, "drift-report.json", "{}\n")

	artifacts := []string{"drift-report.md", "drift-report.json", "drift-fixes.patch"}
	cs, err := Collect(ctx, g, &Baseline{Commit: head, From: head, To: head}, 14, artifacts)
	require.NoError(t, err)

	assert.Equal(t, []string{"main.go"}, cs.Files)
}

func TestExcludePaths(t *testing.T) {
	files := []string{"a.go", "drift-report.md", "sub/b.go"}

	assert.Equal(t, []string{"a.go", "sub/b.go"}, ExcludePaths(files, []string{"./drift-report.md"}))
	assert.Equal(t, files, ExcludePaths(files, nil))
	assert.Equal(t, files, ExcludePaths(files, []string{""}))
	assert.Nil(t, ExcludePaths(nil, []string{"a.go"}))
}

func TestAttribution(t *testing.T) {
	cs := &ChangeSet{Commits: []Commit{
		{SHA: "c3", Subject: "third touch", Files: []string{"core.go"}},
		{SHA: "c2", Subject: "second touch", Files: []string{"core.go", "other.go"}},
		{SHA: "c1", Subject: "first touch", Files: []string{"core.go"}},
	}}

	attribution := cs.Attribution([]string{"core.go", "never.go"}, 2)

	require.NotNil(t, attribution)
	assert.Equal(t, []string{"third touch", "second touch"}, attribution["core.go"])
	assert.NotContains(t, attribution, "never.go")

	assert.Nil(t, cs.Attribution(nil, 2))
	empty := &ChangeSet{}
	assert.Nil(t, empty.Attribution([]string{"core.go"}, 2))
}
