package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/minirag/core"
	"github.com/poiesic/minirag/session"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	answerStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	citeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func renderIngest(w io.Writer, result *session.IngestResult) {
	if result.Skipped {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s is already indexed, skipping", result.Source)))
		return
	}
	fmt.Fprintf(w, "Indexed %s (%d chunks)\n", result.Source, result.Chunks)
}

func renderAnswer(w io.Writer, result *core.QueryResult, showContext bool) {
	if result.NoAnswer {
		fmt.Fprintln(w, warnStyle.Render("No relevant information found in the indexed sources."))
		fmt.Fprintln(w, renderMetrics(result.Metrics))
		return
	}

	fmt.Fprintln(w, headerStyle.Render("Answer"))
	fmt.Fprintln(w, answerStyle.Render(result.Answer))
	if result.Citations.Invalid() {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Unmatched citations: %v", result.Citations.Unmatched())))
	}

	fmt.Fprintln(w, headerStyle.Render("Sources"))
	for i, doc := range result.Sources {
		marker := citeStyle.Render(fmt.Sprintf("[%d]", i+1))
		fmt.Fprintf(w, "%s %s #%d (%.3f)\n", marker, doc.Source, doc.ChunkID, doc.RelevanceScore)
		if showContext {
			fmt.Fprintln(w, indent(doc.Content, "    "))
		} else {
			fmt.Fprintln(w, dimStyle.Render("    "+doc.Preview))
		}
	}
	fmt.Fprintln(w, renderMetrics(result.Metrics))
}

func renderMetrics(m core.Metrics) string {
	return dimStyle.Render(fmt.Sprintf("%.2fs, ~%d tokens, ~$%.8f", m.LatencySeconds, m.EstimatedTokens, m.CostEstimate))
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
