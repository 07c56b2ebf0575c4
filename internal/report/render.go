// SPDX-License-Identifier: AGPL-3.0-or-later

// Package report renders the drift report to Markdown, JSON, and the console.
package report

import (
	"fmt"
	"strings"
)

// renderTable renders a Markdown table. Rows must already be in the order the
// report should show; determinism is the caller's job.
func renderTable(headers []string, rows [][]string) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
	return b.String()
}

// renderList renders a simple unordered Markdown list.
func renderList(items []string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(fmt.Sprintf("- %s\n", item))
	}
	return b.String()
}

// renderHeader renders a Markdown header.
func renderHeader(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}

// renderCodeBlock fences content as a code block.
func renderCodeBlock(content string) string {
	return "```\n" + strings.TrimRight(content, "\n") + "\n```\n"
}
