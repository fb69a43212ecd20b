package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitenerd/internal/importer"
	"sitenerd/internal/report"
)

var importCollection string

// importCmd groups the import pipeline subcommands.
var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import content from spreadsheets",
	Long: `Imports products and pages from csv or xlsx files.

Always dry-run first: it validates every row and matches images by slug
without touching your content, writing _sitenerd/issues.csv when it finds
problems. Apply re-validates and commits behind a snapshot; undo restores
the snapshot of the last apply.`,
}

var importTemplateCmd = &cobra.Command{
	Use:   "template [products|pages]",
	Short: "Write a starter spreadsheet for a collection",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportTemplate,
}

var importDryRunCmd = &cobra.Command{
	Use:   "dry-run [files...]",
	Short: "Validate import files without changing anything",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImportDryRun,
}

var importApplyCmd = &cobra.Command{
	Use:   "apply [files...]",
	Short: "Validate and commit import files behind a snapshot",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImportApply,
}

var importUndoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Restore the content store to its state before the last apply",
	Args:  cobra.NoArgs,
	RunE:  runImportUndo,
}

func runImportTemplate(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	collection, err := parseCollection(args[0])
	if err != nil {
		return err
	}
	path := filepath.Join(s.ctx.ContentDir(), string(collection)+"_template.xlsx")
	if err := importer.WriteTemplate(collection, path); err != nil {
		return s.fail("import_template", err, map[string]any{"collection": collection})
	}
	s.rec.Activity("template_written", map[string]any{"collection": string(collection)})
	fmt.Printf("Template written to %s\n", path)
	return nil
}

func runImportDryRun(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	im := importer.New(s.ctx, s.cfg, s.rec)
	dry, err := im.DryRun(req)
	if err != nil {
		return s.fail("import_dry_run", err, nil)
	}
	printDryRun(dry)
	writeIssueReport(s, dry)
	return nil
}

func runImportApply(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	req, err := buildRequest(args)
	if err != nil {
		return err
	}

	im := importer.New(s.ctx, s.cfg, s.rec)
	res, err := im.Apply(req)
	if errors.Is(err, importer.ErrBlockingIssues) {
		printDryRun(res.DryRun)
		writeIssueReport(s, res.DryRun)
		return fmt.Errorf("apply refused: fix the blocking issues and retry")
	}
	if err != nil {
		return s.fail("import_apply", err, nil)
	}

	logger.Info("import applied",
		zap.Int("products", res.Products),
		zap.Int("pages", res.Pages),
		zap.String("snapshot", res.SnapshotPath))
	fmt.Printf("Applied: %d products, %d pages.\n", res.Products, res.Pages)
	fmt.Printf("Snapshot: %s\n", res.SnapshotPath)
	fmt.Println("Run 'sitenerd import undo' to roll this back.")
	return nil
}

func runImportUndo(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.close()

	im := importer.New(s.ctx, s.cfg, s.rec)
	res, err := im.Undo()
	if errors.Is(err, importer.ErrNothingToUndo) {
		return err
	}
	if err != nil {
		return s.fail("import_undo", err, nil)
	}
	fmt.Printf("Restored content from %s (undid import %s).\n", res.RestoredFrom, res.UndoneRunID)
	return nil
}

// buildRequest maps file arguments to collections. The --collection flag
// forces one collection for every file; otherwise the filename decides.
func buildRequest(paths []string) (importer.Request, error) {
	var req importer.Request
	for _, path := range paths {
		var collection importer.Collection
		if importCollection != "" {
			c, err := parseCollection(importCollection)
			if err != nil {
				return importer.Request{}, err
			}
			collection = c
		} else {
			c, err := inferCollection(path)
			if err != nil {
				return importer.Request{}, err
			}
			collection = c
		}
		req.Files = append(req.Files, importer.RequestFile{Path: path, Collection: collection})
	}
	return req, nil
}

func parseCollection(s string) (importer.Collection, error) {
	switch strings.ToLower(s) {
	case "products", "product":
		return importer.CollectionProducts, nil
	case "pages", "page":
		return importer.CollectionPages, nil
	default:
		return "", fmt.Errorf("unknown collection %q (use products or pages)", s)
	}
}

func inferCollection(path string) (importer.Collection, error) {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(base, "product"):
		return importer.CollectionProducts, nil
	case strings.Contains(base, "page"):
		return importer.CollectionPages, nil
	default:
		return "", fmt.Errorf("cannot infer a collection from %q: pass --collection", filepath.Base(path))
	}
}

func printDryRun(dry *importer.DryRunResult) {
	total := 0
	for _, n := range dry.Counts {
		total += n
	}
	fmt.Printf("Checked %d rows across %d file(s).\n", total, len(dry.Files))
	for _, status := range []importer.Status{
		importer.StatusValid, importer.StatusFuzzyMatch, importer.StatusExternalURL,
		importer.StatusMissingImage, importer.StatusMultipleCandidates, importer.StatusInvalid,
	} {
		if n := dry.Counts[status]; n > 0 {
			fmt.Printf("  %-20s %d\n", status, n)
		}
	}

	if len(dry.Issues) > 0 {
		fmt.Println("\nIssues:")
		for _, issue := range dry.Issues {
			loc := issue.File
			if issue.Row > 0 {
				loc = fmt.Sprintf("%s:%d", issue.File, issue.Row)
			}
			if loc == "" {
				loc = "(global)"
			}
			fmt.Printf("  [%s] %-24s %s\n", issue.Severity, loc, issue.Message)
		}
	}

	if dry.ReadyToApply {
		fmt.Println("\nReady to apply.")
	} else {
		fmt.Printf("\nNot ready: %d blocking issue(s).\n", importer.BlockingCount(dry.Issues))
	}
}

// writeIssueReport renders the xlsx issue report for runs with findings.
func writeIssueReport(s *session, dry *importer.DryRunResult) {
	if len(dry.Issues) == 0 {
		return
	}
	var rows []report.IssueRow
	for _, issue := range dry.Issues {
		rows = append(rows, report.IssueRow{
			Type:     issue.Type,
			File:     issue.File,
			Row:      issue.Row,
			Slug:     issue.Slug,
			Severity: string(issue.Severity),
			Code:     issue.Code,
			Message:  issue.Message,
			Action:   issue.Action,
		})
	}
	path := filepath.Join(s.ctx.ReportsDir(), "import_issues.xlsx")
	if err := report.WriteIssueWorkbook(path, rows); err != nil {
		logger.Warn("issue report not written", zap.Error(err))
		return
	}
	fmt.Printf("Issue report: %s\n", path)
}

func init() {
	importCmd.PersistentFlags().StringVar(&importCollection, "collection", "", "force a collection for all files (products or pages)")
	importCmd.AddCommand(importTemplateCmd)
	importCmd.AddCommand(importDryRunCmd)
	importCmd.AddCommand(importApplyCmd)
	importCmd.AddCommand(importUndoCmd)
}
