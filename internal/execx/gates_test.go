// SPDX-License-Identifier: AGPL-3.0-or-later

package execx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bartekus/driftwatch/internal/policy"
)

// fakeRunner records invocations and plays back canned results.
type fakeRunner struct {
	calls   []string
	results map[string]Result
}

func (f *fakeRunner) Run(ctx context.Context, name, command string) Result {
	f.calls = append(f.calls, name+": "+command)
	if res, ok := f.results[command]; ok {
		res.Name = name
		res.Command = command
		return res
	}
	code := 0
	return Result{Name: name, Command: command, Status: StatusPassed, ExitCode: &code}
}

func TestGatesFor_Order(t *testing.T) {
	std := policy.StandardsConfig{
		Format: []string{"gofmt -l ."},
		Test:   []string{"go test ./..."},
	}

	gates := GatesFor(std, false)

	roles := make([]string, len(gates))
	for i, g := range gates {
		roles[i] = g.Role
	}
	assert.Equal(t, []string{"format", "lint", "typecheck", "test", "security", "benchmark"}, roles)
}

func TestGatesFor_FullTestsSwap(t *testing.T) {
	std := policy.StandardsConfig{
		Test:     []string{"go test -short ./..."},
		TestFull: []string{"go test -race ./..."},
	}

	fast := GatesFor(std, false)
	full := GatesFor(std, true)

	assert.Equal(t, []string{"go test -short ./..."}, fast[3].Commands)
	assert.Equal(t, []string{"go test -race ./..."}, full[3].Commands)

	// Without full commands configured, the fast ones stay in place.
	std.TestFull = nil
	assert.Equal(t, []string{"go test -short ./..."}, GatesFor(std, true)[3].Commands)
}

func TestRunGates(t *testing.T) {
	r := &fakeRunner{results: map[string]Result{
		"golangci-lint run": {Status: StatusFailed},
	}}
	gates := []Gate{
		{Role: "format"},
		{Role: "lint", Commands: []string{"golangci-lint run"}},
		{Role: "test", Commands: []string{"go test ./...", "go vet ./..."}},
	}

	results := RunGates(context.Background(), r, gates, false)

	require.Len(t, results, 4)
	assert.Equal(t, StatusSkipped, results[0].Status) // nothing configured
	assert.Equal(t, StatusFailed, results[1].Status)
	assert.Equal(t, StatusPassed, results[2].Status)
	assert.Equal(t, StatusPassed, results[3].Status)
	assert.Equal(t, []string{
		"lint: golangci-lint run",
		"test: go test ./...",
		"test: go vet ./...",
	}, r.calls)
}

func TestRunGates_SkipAll(t *testing.T) {
	r := &fakeRunner{}
	gates := []Gate{{Role: "lint", Commands: []string{"golangci-lint run"}}}

	results := RunGates(context.Background(), r, gates, true)

	require.Len(t, results, 1)
	assert.Equal(t, StatusSkipped, results[0].Status)
	assert.Equal(t, "golangci-lint run", results[0].Command)
	assert.Empty(t, r.calls)
}
