// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Driftwatch - Driftwatch audits a working branch against a baseline, classifies the
differences into drift categories, scores the aggregate risk, and optionally applies
bounded automatic fixes with guaranteed rollback.

Copyright (C) 2025  Bartek Kus

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

// Package drift holds the detector suite and the scoring, ranking, planning,
// and preview stages that turn a change set into a drift report.
package drift

import "unicode/utf8"

// Category is one of the ten drift taxonomy values.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryAPI          Category = "api"
	CategoryArchitecture Category = "architecture"
	CategoryBehavioral   Category = "behavioral"
	CategoryDependency   Category = "dependency"
	CategoryTest         Category = "test"
	CategoryPerformance  Category = "performance"
	CategoryStyle        Category = "style"
	CategoryDocs         Category = "docs"
	CategoryConfigInfra  Category = "config_infra"
)

// Severity grades one finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Evidence bounds per finding.
const (
	maxEvidenceItems = 8
	maxEvidenceChars = 200
)

// Finding is the atomic unit of drift evidence. Score is derived: detectors
// never set it, the scoring stage recomputes it from category and severity
// before a finding is surfaced.
type Finding struct {
	Category     Category            `json:"category"`
	Severity     Severity            `json:"severity"`
	Confidence   float64             `json:"confidence"`
	Title        string              `json:"title"`
	Expected     string              `json:"expected"`
	Observed     string              `json:"observed"`
	Files        []string            `json:"files,omitempty"`
	Evidence     []string            `json:"evidence,omitempty"`
	Remediation  string              `json:"remediation"`
	Risk         string              `json:"risk"`
	Verification []string            `json:"verification,omitempty"`
	Attribution  map[string][]string `json:"attribution,omitempty"`
	Score        float64             `json:"score"`
}

// boundEvidence caps the evidence list so findings stay readable in reports.
func boundEvidence(lines []string) []string {
	if len(lines) > maxEvidenceItems {
		lines = lines[:maxEvidenceItems]
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if len(line) > maxEvidenceChars {
			line = cutAtRune(line, maxEvidenceChars)
		}
		out[i] = line
	}
	return out
}

// cutAtRune truncates s to at most max bytes, backing off so the cut never
// splits a multi-byte rune. Callers guarantee len(s) > max.
func cutAtRune(s string, max int) string {
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Hotspot is one file ranked by attributed score.
type Hotspot struct {
	File     string  `json:"file"`
	Score    float64 `json:"score"`
	Findings int     `json:"findings"`
}

// PlanEntry is one ordered step of the remediation plan.
type PlanEntry struct {
	Priority     int      `json:"priority"`
	Category     Category `json:"category"`
	Severity     Severity `json:"severity"`
	Title        string   `json:"title"`
	Action       string   `json:"action"`
	Approach     string   `json:"approach"`
	Risk         string   `json:"risk"`
	Verification []string `json:"verification,omitempty"`
}
