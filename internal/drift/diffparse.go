// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import "strings"

// FileDiff is the per-file view of a unified diff.
type FileDiff struct {
	Path    string
	Added   []string // content of + lines, without the marker
	Removed []string // content of - lines, without the marker
	Raw     []string // full diff body for this file, hunk headers included
}

// DiffIndex indexes a unified diff by file.
type DiffIndex struct {
	Files  []*FileDiff
	byPath map[string]*FileDiff
}

// ParseDiff splits a unified diff into per-file added/removed line sets.
// It only needs the line-level view, so rename detection and mode changes are
// ignored; the b-side path identifies each file.
func ParseDiff(diff string) *DiffIndex {
	idx := &DiffIndex{byPath: make(map[string]*FileDiff)}
	var current *FileDiff

	for _, line := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(line, "diff --git "):
			current = &FileDiff{Path: diffPath(line)}
			idx.Files = append(idx.Files, current)
			idx.byPath[current.Path] = current
		case current == nil:
			continue
		case strings.HasPrefix(line, "+++") || strings.HasPrefix(line, "---"):
			current.Raw = append(current.Raw, line)
		case strings.HasPrefix(line, "+"):
			current.Added = append(current.Added, line[1:])
			current.Raw = append(current.Raw, line)
		case strings.HasPrefix(line, "-"):
			current.Removed = append(current.Removed, line[1:])
			current.Raw = append(current.Raw, line)
		default:
			current.Raw = append(current.Raw, line)
		}
	}
	return idx
}

// diffPath extracts the b-side path from a "diff --git a/x b/y" header.
func diffPath(header string) string {
	fields := strings.Fields(header)
	if len(fields) < 4 {
		return ""
	}
	return strings.TrimPrefix(fields[3], "b/")
}

// For returns the parsed diff for path, or nil when path did not change.
func (idx *DiffIndex) For(path string) *FileDiff {
	return idx.byPath[path]
}

// AllAdded returns every added line across the diff, in file order.
func (idx *DiffIndex) AllAdded() []string {
	var lines []string
	for _, f := range idx.Files {
		lines = append(lines, f.Added...)
	}
	return lines
}

// AllRemoved returns every removed line across the diff, in file order.
func (idx *DiffIndex) AllRemoved() []string {
	var lines []string
	for _, f := range idx.Files {
		lines = append(lines, f.Removed...)
	}
	return lines
}
