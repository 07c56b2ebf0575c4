// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Detector is one side-effect-free analyzer. Implementations read only the
// Input bundle and emit zero or more findings.
type Detector interface {
	// Name returns the detector identifier used in logs.
	Name() string

	// Detect analyzes the input bundle.
	Detect(ctx context.Context, in *Input) []Finding
}

// Registry is the fixed detector suite in report order.
var Registry = []Detector{
	&SecurityDetector{},
	&APIDetector{},
	&ArchitectureDetector{},
	&DependencyDetector{},
	&TestDetector{},
	&PerformanceDetector{},
	&StyleDetector{},
	&DocsDetector{},
	&ConfigInfraDetector{},
	&ConsistencyDetector{},
}

// detectConcurrency bounds the detector goroutines.
const detectConcurrency = 4

// RunDetectors executes every registered detector and concatenates their
// findings in registry order, which keeps repeated runs byte-identical. All
// detectors complete before the result is returned (the scoring barrier).
func RunDetectors(ctx context.Context, in *Input) []Finding {
	results := make([][]Finding, len(Registry))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(detectConcurrency)
	for i, d := range Registry {
		i, d := i, d
		g.Go(func() error {
			results[i] = d.Detect(gctx, in)
			return nil
		})
	}
	// Detectors return findings, never errors.
	_ = g.Wait()

	var findings []Finding
	apiFired := false
	for _, batch := range results {
		for _, f := range batch {
			if f.Category == CategoryAPI {
				apiFired = true
			}
		}
		findings = append(findings, batch...)
	}

	// Undocumented API changes matter more than undocumented internals: a docs
	// gap is elevated when the public surface also moved.
	if apiFired {
		for i := range findings {
			if findings[i].Category == CategoryDocs && findings[i].Severity == SeverityLow {
				findings[i].Severity = SeverityMedium
			}
		}
	}
	return findings
}
