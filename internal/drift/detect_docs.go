// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"
	"fmt"
)

// DocsDetector flags code changes that land with no documentation change.
// The registry elevates the severity when the public API also moved.
type DocsDetector struct{}

func (d *DocsDetector) Name() string { return "docs" }

func (d *DocsDetector) Detect(_ context.Context, in *Input) []Finding {
	var code []string
	docsChanged := false
	for _, file := range in.Changes.Files {
		switch {
		case isDocFile(file):
			docsChanged = true
		case isCodeFile(file):
			code = append(code, file)
		}
	}
	if len(code) == 0 || docsChanged {
		return nil
	}

	return []Finding{{
		Category:    CategoryDocs,
		Severity:    SeverityLow,
		Confidence:  0.6,
		Title:       "Code changed without documentation changes",
		Expected:    "User-visible changes update the documentation alongside the code",
		Observed:    fmt.Sprintf("%d code file(s) changed and no documentation path did", len(code)),
		Files:       code,
		Remediation: "Update the README or docs/ pages affected by this change, or note why none apply",
		Risk:        "low",
		Verification: []string{
			"review the documentation for the changed features",
		},
		Attribution: in.Changes.Attribution(code, attributionDepth),
	}}
}
