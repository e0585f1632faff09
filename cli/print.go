package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"task-app/task"
)

// PrintList prints a simple fixed table to stdout.
// We rely on tabwriter to align columns regardless of content width.
// NOTE: stdout is for user-facing output; logs go to stderr via slog.
func PrintList(list []task.Task) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)

	// Header line (columns are separated by tabs; tabwriter turns tabs into padding).
	fmt.Fprintln(w, "TITLE\tPRIORITY\tSTATUS\tCREATED\tCOMPLETED")

	for _, t := range list {
		status := "active"
		if t.Done {
			status = "completed"
		}
		completed := "-"
		if t.CompletedAt != nil {
			completed = *t.CompletedAt
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", t.Title, t.Priority, status, t.CreatedAt, completed)
	}

	// Flush to ensure content is rendered even if buffers are not full.
	_ = w.Flush()
}

// PrintStats prints the active/completed counters.
func PrintStats(total, active, completed int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOTAL\tACTIVE\tCOMPLETED")
	fmt.Fprintf(w, "%d\t%d\t%d\n", total, active, completed)
	_ = w.Flush()
}
