// SPDX-License-Identifier: AGPL-3.0-or-later
package gitio

import (
	"context"
	"fmt"

	"github.com/bartekus/driftwatch/internal/policy"
)

// Baseline describes the resolved comparison anchor and range for a run.
type Baseline struct {
	RequestedRef string `json:"requested_ref,omitempty"`
	ResolvedRef  string `json:"resolved_ref"`
	Commit       string `json:"commit"`
	Reason       string `json:"reason"`
	From         string `json:"compare_from"`
	To           string `json:"compare_to"`
	CIContext    bool   `json:"ci_context"`
}

type candidate struct {
	ref    string
	reason string
}

// ResolveBaseline walks the candidate chain and returns the first ref that
// resolves to a commit. The root commit terminates the chain, so resolution
// only fails on a repository with no commits at all.
func ResolveBaseline(ctx context.Context, g *Git, cfg policy.BaselineConfig, override string) (ref, commit, reason string, err error) {
	var candidates []candidate
	if override != "" {
		candidates = append(candidates, candidate{override, "explicit --baseline-ref"})
	}
	if cfg.Commit != "" {
		candidates = append(candidates, candidate{cfg.Commit, "configured baseline commit"})
	}
	if cfg.Tag != "" {
		candidates = append(candidates, candidate{cfg.Tag, "configured baseline tag"})
	}
	if cfg.Branch != "" {
		candidates = append(candidates,
			candidate{cfg.Branch, "configured baseline branch"},
			candidate{"origin/" + cfg.Branch, "configured baseline branch (remote)"})
	}
	candidates = append(candidates,
		candidate{"main", "conventional default branch"},
		candidate{"origin/main", "conventional default branch (remote)"},
		candidate{"master", "conventional default branch"},
		candidate{"origin/master", "conventional default branch (remote)"},
	)
	if tag := g.LatestTag(ctx); tag != "" {
		candidates = append(candidates, candidate{tag, "latest reachable tag"})
	}

	for _, c := range candidates {
		sha, rerr := g.ResolveCommit(ctx, c.ref)
		if rerr == nil {
			return c.ref, sha, c.reason, nil
		}
	}

	root, rerr := g.RootCommit(ctx)
	if rerr != nil {
		return "", "", "", fmt.Errorf("resolving baseline: %w", rerr)
	}
	return root, root, "repository root commit (unconditional fallback)", nil
}

// ResolveRange turns a resolved baseline into the concrete compare range.
// In CI context the from side becomes the merge base of head and baseline so
// the diff reflects only the incoming change, and the working tree is
// excluded. Outside CI the range ends at the working tree.
func ResolveRange(ctx context.Context, g *Git, b *Baseline, head string) error {
	if head == "" {
		h, err := g.Head(ctx)
		if err != nil {
			return fmt.Errorf("resolving HEAD: %w", err)
		}
		head = h
	} else {
		h, err := g.ResolveCommit(ctx, head)
		if err != nil {
			return fmt.Errorf("resolving compare head: %w", err)
		}
		head = h
	}

	b.From = b.Commit
	b.To = head
	if b.CIContext {
		base, err := g.MergeBase(ctx, head, b.Commit)
		if err == nil && base != "" {
			b.From = base
		}
	}
	return nil
}
