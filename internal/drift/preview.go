// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"fmt"
	"strings"
)

// Preview bounds: top hotspot files and diff lines per file.
const (
	previewFiles = 3
	previewLines = 40
)

// BuildPreview extracts bounded diff hunks for the top hotspot files. Only
// recommend mode renders this; audit mode keeps the report shorter.
func BuildPreview(idx *DiffIndex, hotspots []Hotspot) string {
	var b strings.Builder
	shown := 0
	for _, h := range hotspots {
		if shown == previewFiles {
			break
		}
		fd := idx.For(h.File)
		if fd == nil {
			continue
		}
		shown++

		b.WriteString(fmt.Sprintf("--- %s (score %.2f)\n", h.File, h.Score))
		lines := fd.Raw
		truncated := false
		if len(lines) > previewLines {
			lines = lines[:previewLines]
			truncated = true
		}
		b.WriteString(strings.Join(lines, "\n"))
		b.WriteString("\n")
		if truncated {
			b.WriteString(fmt.Sprintf("... (%d more lines)\n", len(fd.Raw)-previewLines))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
