// SPDX-License-Identifier: AGPL-3.0-or-later
package execx

import (
	"context"

	"github.com/bartekus/driftwatch/internal/policy"
)

// Gate is one quality-gate role with its configured commands.
type Gate struct {
	Role     string
	Commands []string
}

// GatesFor returns the gate roles in execution order. With includeFullTests
// set, the full test commands stand in for the fast ones when configured.
func GatesFor(std policy.StandardsConfig, includeFullTests bool) []Gate {
	test := std.Test
	if includeFullTests && len(std.TestFull) > 0 {
		test = std.TestFull
	}
	return []Gate{
		{Role: "format", Commands: std.Format},
		{Role: "lint", Commands: std.Lint},
		{Role: "typecheck", Commands: std.Typecheck},
		{Role: "test", Commands: test},
		{Role: "security", Commands: std.Security},
		{Role: "benchmark", Commands: std.Benchmark},
	}
}

// RunGates executes every gate command in order and records one Result per
// command. Roles with nothing configured, and every role when skip is set,
// are recorded as skipped so the report still accounts for them. A failed
// gate never aborts the run; failures are data for the detectors.
func RunGates(ctx context.Context, r Runner, gates []Gate, skip bool) []Result {
	var results []Result
	for _, gate := range gates {
		if len(gate.Commands) == 0 {
			results = append(results, Result{Name: gate.Role, Status: StatusSkipped})
			continue
		}
		for _, command := range gate.Commands {
			if skip {
				results = append(results, Result{Name: gate.Role, Command: command, Status: StatusSkipped})
				continue
			}
			results = append(results, r.Run(ctx, gate.Role, command))
		}
	}
	return results
}
