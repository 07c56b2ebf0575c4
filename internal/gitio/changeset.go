// SPDX-License-Identifier: AGPL-3.0-or-later
package gitio

import (
	"context"
	"sort"
)

// logLimit bounds the recent-history query; churn heuristics never need more.
const logLimit = 200

// ChangeSet is the immutable evidence bundle the detectors consume.
type ChangeSet struct {
	Files   []string
	Diff    string
	Commits []Commit
}

// Collect gathers the changed paths, the unified diff, and a bounded recent
// commit log for the resolved compare range. History failures degrade to an
// empty log; the change listing and diff are mandatory. Paths in artifacts
// are dropped from the listing so a run never audits its own prior output.
func Collect(ctx context.Context, g *Git, b *Baseline, lookbackDays int, artifacts []string) (*ChangeSet, error) {
	includeWorktree := !b.CIContext

	files, err := g.ChangedFiles(ctx, b.From, b.To, includeWorktree)
	if err != nil {
		return nil, err
	}
	files = ExcludePaths(files, artifacts)
	sort.Strings(files)

	diff, err := g.Diff(ctx, b.From, b.To, includeWorktree)
	if err != nil {
		return nil, err
	}

	return &ChangeSet{
		Files:   files,
		Diff:    diff,
		Commits: g.Log(ctx, lookbackDays, logLimit),
	}, nil
}

// Attribution maps each of the given files to up to max recent commit
// subjects touching it, drawn from the collected log.
func (cs *ChangeSet) Attribution(files []string, max int) map[string][]string {
	if len(files) == 0 || len(cs.Commits) == 0 {
		return nil
	}
	attribution := make(map[string][]string)
	for _, file := range files {
		for _, c := range cs.Commits {
			if len(attribution[file]) >= max {
				break
			}
			for _, touched := range c.Files {
				if touched == file {
					attribution[file] = append(attribution[file], c.Subject)
					break
				}
			}
		}
	}
	if len(attribution) == 0 {
		return nil
	}
	return attribution
}
