// SPDX-License-Identifier: AGPL-3.0-or-later
package report

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/bartekus/driftwatch/internal/drift"
)

// WriteJSON writes the full report structure with stable field names.
func WriteJSON(repoRoot, path string, rep *drift.Report) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}
