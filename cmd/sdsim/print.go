package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"sdsim/internal/ir"
	"sdsim/internal/simulate"
	"sdsim/pkg/apperror"
)

func printIssues(issues *apperror.NodeIssues) {
	for _, msg := range issues.ErrorMessages() {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	for _, msg := range issues.WarningMessages() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", msg)
	}
}

func printHistory(layout []ir.SlotInfo, rows []simulate.Row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprint(w, "time")
	for _, slot := range layout {
		fmt.Fprintf(w, "\t%s", slot.Name)
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		fmt.Fprintf(w, "%g", row.Time)
		for _, v := range row.Values {
			fmt.Fprintf(w, "\t%g", v)
		}
		fmt.Fprintln(w)
		for _, idx := range row.NonFinite {
			fmt.Fprintf(os.Stderr, "warning: non-finite value at t=%g, slot %q\n", row.Time, layout[idx].Name)
		}
	}
}
