// Package output renders scan reports for humans and machines.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/jenian/envsync/internal/reconcile"
)

var (
	okMark   = color.GreenString("✓")
	diffMark = color.YellowString("≠")
	newMark  = color.RedString("+")
)

// Format writes the report to w. In JSON mode the report is emitted verbatim;
// otherwise one line per result plus a summary.
func Format(w io.Writer, report *reconcile.Report, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	return formatText(w, report)
}

func formatText(w io.Writer, report *reconcile.Report) error {
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No env files found in any repository.")
	}

	for _, r := range report.Results {
		note := ""
		if !r.Ignored {
			note = color.YellowString(" (not git-ignored!)")
		}
		fmt.Fprintf(w, "%s %-6s %s/%s [%s] %d keys%s\n",
			statusMark(r.Status), r.Status, r.Repo, r.File, r.EnvironmentDisplay(), r.LocalKeys, note)
	}

	for _, warning := range report.Warnings {
		fmt.Fprintf(w, "%s %s\n", color.YellowString("warning:"), warning)
	}

	fmt.Fprintf(w, "\n%d in sync, %d drifted, %d unregistered\n", report.OK, report.Diff, report.New)
	return nil
}

func statusMark(s reconcile.Status) string {
	switch s {
	case reconcile.StatusOK:
		return okMark
	case reconcile.StatusDiff:
		return diffMark
	default:
		return newMark
	}
}
