// SPDX-License-Identifier: AGPL-3.0-or-later

package drift

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/driftwatch/internal/gitio"
)

func TestConsistencyDetector_CompetingErrorIdioms(t *testing.T) {
	diff := fileDiff("a.ts", []string{"throw new Error('nope')"}, nil) +
		fileDiff("b.go", []string{"if err != nil {"}, nil)

	findings := (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, diff, nil, nil, nil))

	f := findByTitle(t, findings, "Competing error-handling idioms in one change")
	assert.Equal(t, CategoryArchitecture, f.Category)
	assert.Equal(t, SeverityMedium, f.Severity)
	assert.Contains(t, f.Observed, "exceptions")
	assert.Contains(t, f.Observed, "result-objects")
}

func TestConsistencyDetector_SingleIdiomIsQuiet(t *testing.T) {
	diff := fileDiff("a.go", []string{"if err != nil {"}, nil) +
		fileDiff("b.go", []string{"return errors.New(\"bad\")"}, nil)

	findings := (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, diff, nil, nil, nil))

	assert.Empty(t, findings)
}

func TestConsistencyDetector_DuplicatedHelpers(t *testing.T) {
	diff := fileDiff("pkg/a.go", []string{"func normalizePath(p string) string {"}, nil) +
		fileDiff("pkg/b.go", []string{"func normalizePath(p string) string {"}, nil)

	findings := (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, diff, nil, nil, nil))

	f := findByTitle(t, findings, "Helper functions duplicated across files")
	assert.Equal(t, []string{"normalizePath"}, f.Evidence)
	assert.Equal(t, []string{"pkg/a.go", "pkg/b.go"}, f.Files)
}

func TestConsistencyDetector_OverlappingAbstractions(t *testing.T) {
	diff := fileDiff("svc.go", []string{
		"type OrderService struct {",
		"type OrderManager struct {",
	}, nil)

	findings := (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, diff, nil, nil, nil))

	f := findByTitle(t, findings, "Multiple overlapping abstractions introduced")
	assert.Equal(t, []string{"OrderManager", "OrderService"}, f.Evidence)

	// One new abstraction on its own is normal growth.
	single := fileDiff("svc.go", []string{"type OrderService struct {"}, nil)
	for _, f := range (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, single, nil, nil, nil)) {
		assert.NotEqual(t, "Multiple overlapping abstractions introduced", f.Title)
	}
}

func TestConsistencyDetector_TestStyles(t *testing.T) {
	diff := fileDiff("a_test.go", []string{"golden.Assert(t, dir, \"out\", got)"}, nil) +
		fileDiff("b.spec.ts", []string{"expect(tree).toMatchSnapshot()", "const api = mockServer()"}, nil)

	findings := (&ConsistencyDetector{}).Detect(context.Background(), testInput(nil, diff, nil, nil, nil))

	f := findByTitle(t, findings, "Divergent test styles in one change")
	assert.Equal(t, CategoryTest, f.Category)
	assert.Equal(t, SeverityLow, f.Severity)
}

func TestConsistencyDetector_ConfigChurn(t *testing.T) {
	in := testInput(nil, "", []string{}, nil, nil)
	for i := 0; i < 4; i++ {
		in.Changes.Commits = append(in.Changes.Commits, gitio.Commit{Files: []string{"Makefile"}})
	}

	findings := (&ConsistencyDetector{}).Detect(context.Background(), in)

	require.Len(t, findings, 1)
	assert.Equal(t, CategoryConfigInfra, findings[0].Category)
	assert.Equal(t, SeverityLow, findings[0].Severity)
}
