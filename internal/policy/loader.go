// SPDX-License-Identifier: AGPL-3.0-or-later
package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config file names probed in the repository root when --config is not given.
var discoveryNames = []string{"driftwatch.yaml", ".driftwatch.yaml", "driftwatch.yml"}

// Load resolves and merges the policy for a run. The returned Policy is always
// fully populated; loading problems never fail the run and are returned as
// human-readable issue strings so they can surface in the report.
func Load(path, repoRoot string) (*Policy, []string) {
	pol := Default()
	var issues []string

	explicit := path != ""
	if !explicit {
		path = Discover(repoRoot)
		if path == "" {
			return pol, nil
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			issues = append(issues, fmt.Sprintf("policy file %s does not exist; using built-in defaults", path))
		} else {
			issues = append(issues, fmt.Sprintf("policy file %s could not be parsed: %v; using built-in defaults", path, err))
		}
		return pol, issues
	}

	// Unmarshal only overrides keys present in the document; everything else
	// keeps its default, which is the deep-merge contract.
	if err := v.Unmarshal(pol); err != nil {
		issues = append(issues, fmt.Sprintf("policy file %s has an invalid structure: %v; using built-in defaults", path, err))
		return Default(), issues
	}

	issues = append(issues, normalize(pol)...)
	return pol, issues
}

// Discover returns the first conventional policy file under repoRoot, or "".
func Discover(repoRoot string) string {
	for _, name := range discoveryNames {
		candidate := filepath.Join(repoRoot, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

// normalize clamps merged values back to usable ones and reports what it fixed.
func normalize(pol *Policy) []string {
	var issues []string
	def := Default()

	if pol.Thresholds.FailScore <= 0 {
		issues = append(issues, fmt.Sprintf("thresholds.fail_score must be positive; falling back to %.0f", def.Thresholds.FailScore))
		pol.Thresholds.FailScore = def.Thresholds.FailScore
	}
	for cat, w := range pol.Thresholds.CategoryWeights {
		if w < 0 {
			issues = append(issues, fmt.Sprintf("thresholds.category_weights.%s is negative; ignoring override", cat))
			delete(pol.Thresholds.CategoryWeights, cat)
		}
	}
	if pol.AutoRemediation.MaxFilesChanged <= 0 {
		issues = append(issues, fmt.Sprintf("auto_remediation.max_files_changed must be positive; falling back to %d", def.AutoRemediation.MaxFilesChanged))
		pol.AutoRemediation.MaxFilesChanged = def.AutoRemediation.MaxFilesChanged
	}
	if pol.LookbackDays <= 0 {
		pol.LookbackDays = def.LookbackDays
	}
	switch pol.API.BreakingChangePolicy {
	case "strict", "default":
	default:
		issues = append(issues, fmt.Sprintf("api.breaking_change_policy %q is not recognized; using \"default\"", pol.API.BreakingChangePolicy))
		pol.API.BreakingChangePolicy = "default"
	}
	return issues
}
