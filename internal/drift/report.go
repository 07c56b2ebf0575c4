// SPDX-License-Identifier: AGPL-3.0-or-later
package drift

import (
	"time"

	"github.com/bartekus/driftwatch/internal/execx"
	"github.com/bartekus/driftwatch/internal/gitio"
	"github.com/bartekus/driftwatch/internal/remedy"
)

// Report is the aggregate output of one run. It is assembled exactly once per
// invocation and not mutated afterwards.
type Report struct {
	GeneratedAt      time.Time            `json:"generated_at"`
	Mode             string               `json:"mode"`
	Baseline         *gitio.Baseline      `json:"baseline"`
	DriftScore       float64              `json:"drift_score"`
	CategoryScores   map[Category]float64 `json:"category_scores"`
	CategoryCounts   map[Category]int     `json:"category_counts"`
	Hotspots         []Hotspot            `json:"hotspots"`
	Findings         []Finding            `json:"findings"`
	SuggestedActions []PlanEntry          `json:"suggested_actions"`
	PatchPreview     string               `json:"patch_preview,omitempty"`
	ToolRunStatus    []execx.Result       `json:"tool_run_status"`
	Thresholds       ReportThresholds     `json:"thresholds"`
	GateResult       string               `json:"gate_result"`
	AutoRemediation  *remedy.Result       `json:"auto_remediation,omitempty"`
	ChangedFiles     []string             `json:"changed_files"`
}

// ReportThresholds echoes the effective verdict threshold into the report.
type ReportThresholds struct {
	FailScore float64 `json:"fail_score"`
}
