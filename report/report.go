// Package report renders the task list in exportable formats.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"task-app/service"
)

// Exporter renders the current task collection as JSON, CSV or PDF.
type Exporter struct {
	app *service.App
}

func NewExporter(app *service.App) *Exporter { return &Exporter{app: app} }

// Export returns the full task list in the requested format
// ("json", "csv" or "pdf").
func (e *Exporter) Export(ctx context.Context, format string) ([]byte, error) {
	all, err := e.app.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(format) {
	case "json":
		return json.MarshalIndent(all, "", "  ")
	case "csv":
		var b strings.Builder
		w := csv.NewWriter(&b)
		_ = w.Write([]string{"title", "done", "priority", "created_at", "completed_at"})
		for _, t := range all {
			completed := ""
			if t.CompletedAt != nil {
				completed = *t.CompletedAt
			}
			_ = w.Write([]string{t.Title, fmt.Sprint(t.Done), fmt.Sprint(int(t.Priority)), t.CreatedAt, completed})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return []byte(b.String()), nil
	case "pdf":
		pdf := gofpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.Cell(40, 10, "Task List Report")
		pdf.Ln(12)
		pdf.SetFont("Arial", "", 10)
		for _, t := range all {
			status := "active"
			if t.Done {
				status = "completed"
			}
			line := fmt.Sprintf("[%s] %s (priority %d, created %s)", status, t.Title, t.Priority, t.CreatedAt)
			pdf.MultiCell(0, 6, line, "0", "L", false)
		}
		var buf bytes.Buffer
		if err := pdf.Output(&buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown format %s", format)
	}
}
