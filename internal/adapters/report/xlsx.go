package report

import (
	"bytes"
	"fmt"
	"time"

	"techdebt_export/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	RecordsSheet = "Records"
	SummarySheet = "Summary"
)

var recordsHeader = []any{"ID", "User", "Date", "Servers", "Status", "Page ID", "Page URL", "Error", "Duration (ms)"}

// RenderXLSX builds the run workbook: one row per record plus a summary sheet.
func RenderXLSX(run models.RunSummary) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		return nil, err
	}
	if err := f.SetSheetRow(RecordsSheet, "A1", &recordsHeader); err != nil {
		return nil, err
	}

	for i, res := range run.Results {
		errText := ""
		if res.Err != nil {
			errText = res.Err.Error()
		}
		row := []any{
			res.Record.ID,
			res.Record.User,
			res.Record.Date.Format("2006-01-02 15:04:05"),
			res.Record.Servers,
			string(res.Status),
			res.Page.ID,
			res.Page.URL,
			errText,
			res.Duration.Milliseconds(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(RecordsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i, err)
		}
	}
	_ = f.SetColWidth(RecordsSheet, "B", "D", 24)
	_ = f.SetColWidth(RecordsSheet, "G", "H", 48)

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, err
	}
	summary := [][]any{
		{"Run ID", run.RunID},
		{"Table", run.Table},
		{"Status", string(run.Status)},
		{"Dry run", run.DryRun},
		{"Started", formatTime(run.StartedAt)},
		{"Finished", formatTime(run.FinishedAt)},
		{"Fetched", run.Fetched},
		{"Published", run.Published},
		{"Failed", run.Failed},
		{"Marked exported", run.Marked},
		{"Error", run.Error},
	}
	for i, kv := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &kv); err != nil {
			return nil, err
		}
	}

	return f.WriteToBuffer()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
