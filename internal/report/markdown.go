// SPDX-License-Identifier: AGPL-3.0-or-later
package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bartekus/driftwatch/internal/drift"
)

// WriteMarkdown renders the full Markdown report and writes it atomically.
func WriteMarkdown(repoRoot, path string, rep *drift.Report) error {
	if !filepath.IsAbs(path) {
		path = filepath.Join(repoRoot, path)
	}
	return atomicWrite(path, []byte(Markdown(rep)))
}

// Markdown renders the report document.
func Markdown(rep *drift.Report) string {
	var b strings.Builder

	b.WriteString(renderHeader(1, "Drift Report"))
	b.WriteString(summarySection(rep))

	if len(rep.Hotspots) > 0 {
		b.WriteString(renderHeader(2, "Hotspots"))
		b.WriteString(hotspotTable(rep.Hotspots))
		b.WriteString("\n")
	}

	if len(rep.Findings) > 0 {
		b.WriteString(renderHeader(2, "Findings"))
		b.WriteString(findingsSection(rep.Findings))
	} else {
		b.WriteString(renderHeader(2, "Findings"))
		b.WriteString("No drift detected in this range.\n\n")
	}

	if len(rep.SuggestedActions) > 0 {
		b.WriteString(renderHeader(2, "Remediation Plan"))
		b.WriteString(planSection(rep.SuggestedActions))
	}

	if rep.PatchPreview != "" {
		b.WriteString(renderHeader(2, "Patch Preview"))
		b.WriteString(renderCodeBlock(rep.PatchPreview))
		b.WriteString("\n")
	}

	if rep.AutoRemediation != nil {
		b.WriteString(renderHeader(2, "Auto-Remediation"))
		b.WriteString(remediationSection(rep))
	}

	if len(rep.ToolRunStatus) > 0 {
		b.WriteString(renderHeader(2, "Tool Runs"))
		b.WriteString(toolRunTable(rep))
		b.WriteString("\n")
	}

	if rep.Baseline != nil && rep.Baseline.CIContext {
		b.WriteString(renderHeader(2, "Merge Risk"))
		b.WriteString(mergeRisk(rep) + "\n")
	}

	return b.String()
}

func summarySection(rep *drift.Report) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Generated: %s  \n", rep.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))
	b.WriteString(fmt.Sprintf("Mode: `%s`  \n", rep.Mode))
	if base := rep.Baseline; base != nil {
		if base.RequestedRef != "" {
			b.WriteString(fmt.Sprintf("Baseline: `%s` (requested `%s`, %s)  \n", base.ResolvedRef, base.RequestedRef, base.Reason))
		} else {
			b.WriteString(fmt.Sprintf("Baseline: `%s` (%s)  \n", base.ResolvedRef, base.Reason))
		}
		b.WriteString(fmt.Sprintf("Compare range: `%s..%s`  \n", short(base.From), short(base.To)))
		if base.CIContext {
			b.WriteString("CI context: merge-base comparison, working tree excluded  \n")
		}
	}
	b.WriteString(fmt.Sprintf("Changed files: %d  \n", len(rep.ChangedFiles)))
	b.WriteString(fmt.Sprintf("**Drift score: %.2f / threshold %.2f — gate %s**\n\n",
		rep.DriftScore, rep.Thresholds.FailScore, strings.ToUpper(rep.GateResult)))
	return b.String()
}

func hotspotTable(hotspots []drift.Hotspot) string {
	rows := make([][]string, 0, len(hotspots))
	for _, h := range hotspots {
		rows = append(rows, []string{h.File, fmt.Sprintf("%.2f", h.Score), fmt.Sprintf("%d", h.Findings)})
	}
	return renderTable([]string{"File", "Score", "Findings"}, rows)
}

// findingsSection groups findings by category in remediation-priority order.
func findingsSection(findings []drift.Finding) string {
	grouped := make(map[drift.Category][]drift.Finding)
	for _, f := range findings {
		grouped[f.Category] = append(grouped[f.Category], f)
	}

	categories := make([]drift.Category, 0, len(grouped))
	for cat := range grouped {
		categories = append(categories, cat)
	}
	sort.Slice(categories, func(i, j int) bool {
		pi, pj := drift.CategoryPriority(categories[i]), drift.CategoryPriority(categories[j])
		if pi != pj {
			return pi < pj
		}
		return categories[i] < categories[j]
	})

	var b strings.Builder
	for _, cat := range categories {
		b.WriteString(renderHeader(3, string(cat)))
		for _, f := range grouped[cat] {
			b.WriteString(findingBlock(f))
		}
	}
	return b.String()
}

func findingBlock(f drift.Finding) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**%s** — %s, score %.2f, confidence %.2f\n\n", f.Title, f.Severity, f.Score, f.Confidence))
	b.WriteString(fmt.Sprintf("- Expected: %s\n", f.Expected))
	b.WriteString(fmt.Sprintf("- Observed: %s\n", f.Observed))
	if len(f.Files) > 0 {
		b.WriteString(fmt.Sprintf("- Files: %s\n", strings.Join(f.Files, ", ")))
	}
	b.WriteString(fmt.Sprintf("- Remediation: %s (post-fix risk: %s)\n", f.Remediation, f.Risk))
	if len(f.Verification) > 0 {
		b.WriteString(fmt.Sprintf("- Verify: %s\n", strings.Join(f.Verification, "; ")))
	}
	if len(f.Evidence) > 0 {
		b.WriteString("\n")
		b.WriteString(renderCodeBlock(strings.Join(f.Evidence, "\n")))
	}
	if len(f.Attribution) > 0 {
		files := make([]string, 0, len(f.Attribution))
		for file := range f.Attribution {
			files = append(files, file)
		}
		sort.Strings(files)
		b.WriteString("\nRecent commits:\n")
		for _, file := range files {
			b.WriteString(fmt.Sprintf("- %s: %s\n", file, strings.Join(f.Attribution[file], " / ")))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func planSection(plan []drift.PlanEntry) string {
	var b strings.Builder
	for i, entry := range plan {
		b.WriteString(fmt.Sprintf("%d. **[P%d/%s/%s]** %s — %s\n", i+1, entry.Priority, entry.Category, entry.Severity, entry.Title, entry.Action))
	}
	if len(plan) > 0 {
		b.WriteString(fmt.Sprintf("\nApproach: %s.\n\n", plan[0].Approach))
	}
	return b.String()
}

func remediationSection(rep *drift.Report) string {
	auto := rep.AutoRemediation
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Status: `%s` — %s\n\n", auto.Status, auto.Reason))
	if len(auto.FilesChanged) > 0 {
		b.WriteString(renderList(auto.FilesChanged))
		b.WriteString("\n")
	}
	if auto.PatchPath != "" {
		b.WriteString(fmt.Sprintf("Patch written to `%s`.\n", auto.PatchPath))
	}
	if auto.SuggestedCommitMessage != "" {
		b.WriteString(fmt.Sprintf("Suggested commit message: `%s`\n", auto.SuggestedCommitMessage))
	}
	b.WriteString("\n")
	return b.String()
}

func toolRunTable(rep *drift.Report) string {
	rows := make([][]string, 0, len(rep.ToolRunStatus))
	for _, res := range rep.ToolRunStatus {
		exit := "-"
		if res.ExitCode != nil {
			exit = fmt.Sprintf("%d", *res.ExitCode)
		}
		rows = append(rows, []string{res.Name, "`" + res.Command + "`", string(res.Status), exit, fmt.Sprintf("%.1fs", res.DurationSeconds)})
	}
	return renderTable([]string{"Gate", "Command", "Status", "Exit", "Duration"}, rows)
}

// mergeRisk labels a CI run from the score relative to the threshold.
func mergeRisk(rep *drift.Report) string {
	ratio := rep.DriftScore / rep.Thresholds.FailScore
	switch {
	case ratio >= 1:
		return "**High** — drift score at or above the failure threshold; do not merge without addressing the critical findings."
	case ratio >= 0.5:
		return "**Moderate** — notable drift below the threshold; review the plan's top entries before merging."
	default:
		return "**Low** — drift well below the threshold."
	}
}

func short(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
