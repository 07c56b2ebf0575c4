// SPDX-License-Identifier: AGPL-3.0-or-later
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bartekus/driftwatch/internal/drift"
)

var (
	passStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// consoleHotspots caps the hotspot lines in the console summary.
const consoleHotspots = 5

// Console prints the run summary. It stays quiet about sections with nothing
// to say; the Markdown and JSON artifacts carry the full detail.
func Console(w io.Writer, rep *drift.Report) {
	verdict := passStyle.Render("PASS")
	if rep.GateResult == "fail" {
		verdict = failStyle.Render("FAIL")
	}
	fmt.Fprintf(w, "%s  drift score %.2f / threshold %.2f  (%d finding(s), %d changed file(s))\n",
		verdict, rep.DriftScore, rep.Thresholds.FailScore, len(rep.Findings), len(rep.ChangedFiles))

	if len(rep.CategoryScores) > 0 {
		categories := make([]drift.Category, 0, len(rep.CategoryScores))
		for cat := range rep.CategoryScores {
			categories = append(categories, cat)
		}
		sort.Slice(categories, func(i, j int) bool {
			si, sj := rep.CategoryScores[categories[i]], rep.CategoryScores[categories[j]]
			if si != sj {
				return si > sj
			}
			return categories[i] < categories[j]
		})
		fmt.Fprintln(w, headingStyle.Render("By category:"))
		for _, cat := range categories {
			fmt.Fprintf(w, "  %s %.2f (%d)\n",
				categoryStyle.Render(fmt.Sprintf("%-14s", cat)),
				rep.CategoryScores[cat], rep.CategoryCounts[cat])
		}
	}

	if len(rep.Hotspots) > 0 {
		fmt.Fprintln(w, headingStyle.Render("Hotspots:"))
		for i, h := range rep.Hotspots {
			if i == consoleHotspots {
				break
			}
			fmt.Fprintf(w, "  %-40s %.2f\n", h.File, h.Score)
		}
	}

	if auto := rep.AutoRemediation; auto != nil {
		style := passStyle
		if auto.Failed() {
			style = failStyle
		}
		fmt.Fprintf(w, "Auto-remediation: %s %s\n", style.Render(string(auto.Status)), dimStyle.Render(auto.Reason))
	}

	if !strings.EqualFold(rep.Mode, "audit") {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("mode: %s", rep.Mode)))
	}
}
