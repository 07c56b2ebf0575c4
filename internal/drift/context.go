// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"context"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
	"github.com/bartekus/driftwatch/internal/policy"
)

// FileReader is the slice of the git gateway the detectors need: the working
// copy of a file and the baseline ref's version of it.
type FileReader interface {
	ReadWorkFile(path string) (string, error)
	ShowFile(ctx context.Context, ref, path string) string
}

// Input is the immutable read-only bundle every detector consumes. Detectors
// share no mutable state, so they may run in any order or in parallel.
type Input struct {
	Baseline *gitio.Baseline
	Changes  *gitio.ChangeSet
	Diff     *DiffIndex
	Gates    []execx.Result
	Policy   *policy.Policy
	Files    FileReader
}

// NewInput builds the detector input bundle, parsing the diff once.
func NewInput(b *gitio.Baseline, cs *gitio.ChangeSet, gates []execx.Result, pol *policy.Policy, files FileReader) *Input {
	return &Input{
		Baseline: b,
		Changes:  cs,
		Diff:     ParseDiff(cs.Diff),
		Gates:    gates,
		Policy:   pol,
		Files:    files,
	}
}

// GateResults returns the results recorded for one gate role.
func (in *Input) GateResults(role string) []execx.Result {
	var out []execx.Result
	for _, r := range in.Gates {
		if r.Name == role {
			out = append(out, r)
		}
	}
	return out
}

// GateFailed reports whether any command of the role failed. Unavailable and
// skipped commands do not count: a missing tool is not a failed check.
func (in *Input) GateFailed(role string) bool {
	for _, r := range in.GateResults(role) {
		if r.Status == execx.StatusFailed {
			return true
		}
	}
	return false
}

// Matcher matches repository-relative paths against gitignore-style patterns.
// A nil or empty matcher matches nothing.
type Matcher struct {
	gi *ignore.GitIgnore
}

// NewMatcher compiles a pattern list. Patterns use gitignore syntax, so
// "docs/", "**/*.pem", and negations all behave as git users expect.
func NewMatcher(patterns []string) *Matcher {
	if len(patterns) == 0 {
		return &Matcher{}
	}
	return &Matcher{gi: ignore.CompileIgnoreLines(patterns...)}
}

// Match reports whether path matches any pattern.
func (m *Matcher) Match(path string) bool {
	if m == nil || m.gi == nil {
		return false
	}
	return m.gi.MatchesPath(path)
}
