package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"mailsweep/internal/model"
)

var riskStyles = map[model.RiskLevel]lipgloss.Style{
	model.RiskLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	model.RiskMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	model.RiskHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func riskBadge(r model.RiskLevel) string {
	return riskStyles[r].Render(string(r) + " risk")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printSnapshot(w io.Writer, snap model.Snapshot) {
	if snap.Failed() {
		fmt.Fprintln(w, errorStyle.Render("Analysis Error"))
		fmt.Fprintln(w, snap.Error)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, headerStyle.Render("CATEGORY")+"\tESTIMATED\tRISK\tQUERY")
	for _, r := range snap.Results {
		count := fmt.Sprintf("%d", r.Estimated)
		if r.Status == model.StatusFailed {
			count = "? (failed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.CategoryName, count, r.Risk, r.Query)
	}
	tw.Flush()
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total emails found: %d\n", snap.TotalEstimated)
	fmt.Fprintf(w, "Estimated space: %s MB\n", model.FormatMB(snap.SpaceReclaimedMB))
	fmt.Fprintf(w, "Categories analyzed: %d\n", snap.CategoriesAnalyzed)
	if n := snap.FailedQueries(); n > 0 {
		fmt.Fprintf(w, "Could not estimate %d %s; counted as 0.\n", n, plural(n, "category", "categories"))
	}
}

func printAction(w io.Writer, step int, rec model.ManualActionRecord) {
	fmt.Fprintf(w, "[%s] %d. %s: %d messages\n", rec.RecordedAt.Format("15:04:05"), step, rec.Category, rec.Count)
	fmt.Fprintf(w, "    search Gmail for: %s\n", rec.Query)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
