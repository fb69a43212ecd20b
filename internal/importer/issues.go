package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Severity splits issues into errors that block apply and warnings that do
// not.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// TypeGlobal marks issues that belong to no single collection, such as
// duplicate slugs across files or a missing plan.
const TypeGlobal = "Global"

// Issue is one finding from a dry run. File and Row are empty for global
// issues.
type Issue struct {
	Type     string   `json:"type"`
	File     string   `json:"file,omitempty"`
	Row      int      `json:"row,omitempty"`
	Slug     string   `json:"slug,omitempty"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Action   string   `json:"action,omitempty"`
}

// Issue codes.
const (
	CodeMissingPlan        = "missing_plan"
	CodeCollectionDisabled = "collection_disabled"
	CodeMissingColumns     = "missing_columns"
	CodeReadFailed         = "read_failed"
	CodeInvalidRow         = "invalid_row"
	CodeDuplicateSlug      = "duplicate_slug"
	CodeFuzzyMatch         = "fuzzy_match"
	CodeMissingImage       = "missing_image"
	CodeMultipleCandidates = "multiple_candidates"
)

var actions = map[string]string{
	CodeMissingPlan:        "run the plan step, then re-run the dry run",
	CodeCollectionDisabled: "enable the collection in the site plan, or drop the file from the import",
	CodeMissingColumns:     "add the missing columns to the header row",
	CodeReadFailed:         "check that the file exists and is a readable .csv or .xlsx",
	CodeInvalidRow:         "fix the cell value and re-run the dry run",
	CodeDuplicateSlug:      "rename one of the slugs so each is unique",
	CodeFuzzyMatch:         "rename the image to match the slug exactly, or fill in the image column",
	CodeMissingImage:       "add an image named after the slug to content/images, or fill in the image column",
	CodeMultipleCandidates: "add a _main image or name one file exactly after the slug",
}

// SuggestedAction returns the remediation hint for an issue code.
func SuggestedAction(code string) string {
	return actions[code]
}

// Describe renders the issue with its location, for reports that show one
// line per finding.
func (i Issue) Describe() string {
	switch {
	case i.File != "" && i.Row > 0:
		return fmt.Sprintf("%s row %d: %s", i.File, i.Row, i.Message)
	case i.File != "":
		return fmt.Sprintf("%s: %s", i.File, i.Message)
	default:
		return i.Message
	}
}

// BlockingCount returns the number of error-severity issues.
func BlockingCount(issues []Issue) int {
	n := 0
	for _, i := range issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WriteIssuesCSV writes the findings to path. Callers only invoke it when
// there is at least one finding; a clean dry run removes the file instead.
func WriteIssuesCSV(path string, issues []Issue) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create issues directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create issues csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"Type", "Issue", "Severity", "Action"}); err != nil {
		return fmt.Errorf("write issues header: %w", err)
	}
	for _, issue := range issues {
		record := []string{issue.Type, issue.Describe(), severityLabel(issue.Severity), issue.Action}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write issue row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush issues csv: %w", err)
	}
	return nil
}

func severityLabel(s Severity) string {
	if s == SeverityError {
		return "Error"
	}
	return "Warning"
}
