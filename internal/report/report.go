// Package report captures operational errors with stable IDs and renders
// human-facing issue reports. Captured errors go to a JSONL file so a user
// can quote an error ID when asking for help; issue reports are written as
// styled xlsx workbooks for review outside the tool.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"sitenerd/internal/telemetry"
)

// CapturedError is one error record with a quotable ID.
type CapturedError struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"ts"`
	Operation string         `json:"op"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
}

// Capturer records errors to an append-only JSONL file.
type Capturer struct {
	appender *telemetry.Appender
}

// NewCapturer returns a capturer writing to path.
func NewCapturer(path string) *Capturer {
	return &Capturer{appender: telemetry.NewAppender(path)}
}

// Capture records err under operation op and returns the generated error ID.
// A nil err returns an empty ID and records nothing.
func (c *Capturer) Capture(op string, err error, context map[string]any) string {
	if err == nil {
		return ""
	}
	rec := CapturedError{
		ID:        uuid.New().String()[:8],
		Timestamp: time.Now(),
		Operation: op,
		Message:   err.Error(),
		Context:   context,
	}
	// Capture must never mask the original failure.
	_ = c.appender.Append(rec)
	return rec.ID
}

// Close closes the underlying log file.
func (c *Capturer) Close() error {
	return c.appender.Close()
}

// IssueRow is one row of an issue workbook.
type IssueRow struct {
	Type     string
	File     string
	Row      int
	Slug     string
	Severity string
	Code     string
	Message  string
	Action   string
}

var issueHeaders = []string{"Type", "File", "Row", "Slug", "Severity", "Code", "Message", "Action"}

// WriteIssueWorkbook renders issues as an xlsx workbook with a styled header
// row. Rows keep their input order so the workbook reads top to bottom the
// same way the dry-run output does.
func WriteIssueWorkbook(path string, issues []IssueRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create reports directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Issues"
	f.SetSheetName("Sheet1", sheet)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, h := range issueHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}
	f.SetColWidth(sheet, "B", "B", 24)
	f.SetColWidth(sheet, "G", "H", 60)

	for i, issue := range issues {
		rowNum := i + 2
		values := []any{issue.Type, issue.File, issue.Row, issue.Slug, issue.Severity, issue.Code, issue.Message, issue.Action}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowNum)
			f.SetCellValue(sheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save issue workbook: %w", err)
	}
	return nil
}
