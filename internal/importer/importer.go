package importer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sitenerd/internal/config"
	"sitenerd/internal/project"
	"sitenerd/internal/spreadsheet"
	"sitenerd/internal/store"
	"sitenerd/internal/telemetry"
)

// ErrNothingToUndo is returned by Undo when no applied import is on record.
var ErrNothingToUndo = errors.New("nothing to undo: no applied import on record")

// ErrBlockingIssues is returned by Apply when the dry run found blocking
// issues. The ApplyResult carries the dry run so callers can show them.
var ErrBlockingIssues = errors.New("import has blocking issues")

// RequestFile names one spreadsheet to import into a collection.
type RequestFile struct {
	Path       string
	Collection Collection
}

// Request is the input to DryRun and Apply.
type Request struct {
	Files []RequestFile
}

// FileResult holds the validated rows of one requested file.
type FileResult struct {
	Path       string      `json:"path"`
	Collection Collection  `json:"collection"`
	Rows       []RowResult `json:"rows"`
}

// DryRunResult is the outcome of validating a request without writing
// anything to the content store.
type DryRunResult struct {
	RunID        string         `json:"run_id"`
	Files        []FileResult   `json:"files"`
	Issues       []Issue        `json:"issues,omitempty"`
	Counts       map[Status]int `json:"counts"`
	ReadyToApply bool           `json:"ready_to_apply"`
}

// ApplyResult is the outcome of committing a request.
type ApplyResult struct {
	DryRun       *DryRunResult `json:"dry_run"`
	SnapshotPath string        `json:"snapshot_path"`
	Products     int           `json:"products"`
	Pages        int           `json:"pages"`
}

// UndoResult reports what an undo restored.
type UndoResult struct {
	RestoredFrom string `json:"restored_from"`
	UndoneRunID  string `json:"undone_run_id"`
}

// Importer runs the import pipeline for one project. Apply and Undo are
// serialized by a mutex; DryRun never mutates the store and may run freely.
type Importer struct {
	ctx project.Context
	cfg *config.Config
	rec *telemetry.Recorder

	mu sync.Mutex
}

// New returns an importer for the project. A nil recorder disables
// telemetry.
func New(ctx project.Context, cfg *config.Config, rec *telemetry.Recorder) *Importer {
	if rec == nil {
		rec = telemetry.Disabled()
	}
	return &Importer{ctx: ctx, cfg: cfg, rec: rec}
}

// DryRun validates the request against the plan and the images directory.
// It writes the issues csv when there are findings but never touches the
// content store.
func (im *Importer) DryRun(req Request) (*DryRunResult, error) {
	result, err := im.dryRun(req)
	if err != nil {
		return nil, err
	}
	im.rec.ImportEvent(telemetry.EventImportDryRun, result.RunID, result.ReadyToApply, map[string]any{
		"files":    len(req.Files),
		"blocking": BlockingCount(result.Issues),
	})
	return result, nil
}

func (im *Importer) dryRun(req Request) (*DryRunResult, error) {
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("no files to import")
	}

	result := &DryRunResult{
		RunID:  uuid.New().String(),
		Counts: map[Status]int{},
	}

	plan, err := project.LoadPlan(im.ctx.PlanPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Issues = append(result.Issues, Issue{
				Type:     TypeGlobal,
				Severity: SeverityError,
				Code:     CodeMissingPlan,
				Message:  "no site plan found: run the plan step before importing content",
				Action:   SuggestedAction(CodeMissingPlan),
			})
			im.finishDryRun(result)
			return result, nil
		}
		return nil, err
	}

	resolver, err := NewResolver(im.ctx.ImagesDir(), filepath.Join("content", "images"), im.cfg.Import.ImageExtensions, im.cfg.Import.MaxExtraImages)
	if err != nil {
		return nil, err
	}

	type slugRef struct {
		file string
		row  int
	}
	seen := map[string][]slugRef{}

	for _, rf := range req.Files {
		base := filepath.Base(rf.Path)

		if !plan.EntityEnabled(string(rf.Collection)) {
			result.Issues = append(result.Issues, Issue{
				Type:     rf.Collection.Display(),
				File:     base,
				Severity: SeverityError,
				Code:     CodeCollectionDisabled,
				Message:  fmt.Sprintf("the %s collection is not enabled in the site plan", rf.Collection),
				Action:   SuggestedAction(CodeCollectionDisabled),
			})
			continue
		}

		file, err := spreadsheet.Read(rf.Path)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				Type:     rf.Collection.Display(),
				File:     base,
				Severity: SeverityError,
				Code:     CodeReadFailed,
				Message:  err.Error(),
				Action:   SuggestedAction(CodeReadFailed),
			})
			continue
		}

		if missing := file.MissingColumns(rf.Collection.RequiredColumns()); len(missing) > 0 {
			result.Issues = append(result.Issues, Issue{
				Type:     rf.Collection.Display(),
				File:     base,
				Severity: SeverityError,
				Code:     CodeMissingColumns,
				Message:  fmt.Sprintf("missing required columns: %v", missing),
				Action:   SuggestedAction(CodeMissingColumns),
			})
			continue
		}

		fr := FileResult{Path: rf.Path, Collection: rf.Collection}
		for _, row := range file.Rows {
			rr := ValidateRow(rf.Collection, row, resolver)
			fr.Rows = append(fr.Rows, rr)
			result.Counts[rr.Status]++

			if rr.Slug != "" {
				seen[rr.Slug] = append(seen[rr.Slug], slugRef{file: base, row: rr.SourceRow})
			}

			result.Issues = append(result.Issues, rowIssues(rf.Collection, base, rr)...)
		}
		result.Files = append(result.Files, fr)
	}

	// Duplicate slugs block globally, whether the copies are in one file or
	// spread across collections.
	for slug, refs := range seen {
		if len(refs) < 2 {
			continue
		}
		locations := make([]string, len(refs))
		for i, ref := range refs {
			locations[i] = fmt.Sprintf("%s row %d", ref.file, ref.row)
		}
		result.Issues = append(result.Issues, Issue{
			Type:     TypeGlobal,
			Slug:     slug,
			Severity: SeverityError,
			Code:     CodeDuplicateSlug,
			Message:  fmt.Sprintf("slug %q appears %d times (%s)", slug, len(refs), strings.Join(locations, ", ")),
			Action:   SuggestedAction(CodeDuplicateSlug),
		})
	}

	im.finishDryRun(result)
	return result, nil
}

func (im *Importer) finishDryRun(result *DryRunResult) {
	result.ReadyToApply = BlockingCount(result.Issues) == 0
	sortIssues(result.Issues)
	// The csv exists exactly when there are findings: a clean run removes
	// any stale file from a previous one. Best effort either way, a failed
	// write must not fail the dry run itself.
	path := im.ctx.IssuesCSVPath()
	if len(result.Issues) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			im.rec.RecordError("remove_issues_csv", err)
		}
		return
	}
	if err := WriteIssuesCSV(path, result.Issues); err != nil {
		im.rec.RecordError("write_issues_csv", err)
	}
}

func rowIssues(c Collection, file string, rr RowResult) []Issue {
	var code string
	var severity Severity
	switch rr.Status {
	case StatusInvalid:
		code, severity = CodeInvalidRow, SeverityError
	case StatusFuzzyMatch:
		code, severity = CodeFuzzyMatch, SeverityWarning
	case StatusMissingImage:
		code, severity = CodeMissingImage, SeverityWarning
	case StatusMultipleCandidates:
		code, severity = CodeMultipleCandidates, SeverityWarning
	default:
		return nil
	}

	var issues []Issue
	for _, msg := range rr.Messages {
		issues = append(issues, Issue{
			Type:     c.Display(),
			File:     file,
			Row:      rr.SourceRow,
			Slug:     rr.Slug,
			Severity: severity,
			Code:     code,
			Message:  msg,
			Action:   SuggestedAction(code),
		})
	}
	return issues
}

// Apply re-validates the request and, if nothing blocks, commits it to the
// content store behind a fresh snapshot. Exactly one snapshot is taken per
// apply, even when the request adds no rows.
func (im *Importer) Apply(req Request) (*ApplyResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	dry, err := im.dryRun(req)
	if err != nil {
		return nil, err
	}
	if !dry.ReadyToApply {
		im.rec.ImportEvent(telemetry.EventImportApply, dry.RunID, false, map[string]any{
			"blocking": BlockingCount(dry.Issues),
		})
		return &ApplyResult{DryRun: dry}, fmt.Errorf("%w: %d blocking", ErrBlockingIssues, BlockingCount(dry.Issues))
	}

	snapPath, err := store.CreateSnapshot(im.ctx.ContentStorePath(), im.ctx.SnapshotsDir())
	if err != nil {
		return nil, err
	}

	cs, err := store.Load(im.ctx.ContentStorePath())
	if err != nil {
		return nil, err
	}

	var products []store.Product
	var pages []store.Page
	imageMap := &ImageMap{RunID: dry.RunID, Entries: map[string]Resolution{}}
	replaceProducts := false
	var sourceFiles []string

	for _, fr := range dry.Files {
		sourceFiles = append(sourceFiles, filepath.Base(fr.Path))
		if fr.Collection == CollectionProducts {
			replaceProducts = true
		}
		for _, rr := range fr.Rows {
			if !rr.Status.Eligible() {
				continue
			}
			imageMap.Entries[rr.Slug] = rr.Resolution
			switch {
			case rr.Product != nil:
				products = append(products, *rr.Product)
			case rr.Page != nil:
				pages = append(pages, *rr.Page)
			}
		}
	}

	// Products are replaced wholesale by the spreadsheet; pages merge in.
	if replaceProducts {
		cs.ReplaceProducts(products)
	}
	cs.UpsertPages(pages)
	cs.LastImport = &store.LastImport{
		Timestamp:    time.Now(),
		RunID:        dry.RunID,
		SourceFiles:  sourceFiles,
		SnapshotPath: snapPath,
		Counts: map[string]int{
			"products": len(products),
			"pages":    len(pages),
		},
	}

	if err := store.Save(im.ctx.ContentStorePath(), cs); err != nil {
		return nil, err
	}
	if err := store.PruneSnapshots(im.ctx.SnapshotsDir(), im.cfg.Import.SnapshotRetention, snapPath); err != nil {
		im.rec.RecordError("prune_snapshots", err)
	}
	if err := SaveImageMap(im.ctx.MappingPath(), imageMap); err != nil {
		im.rec.RecordError("save_image_map", err)
	}

	im.rec.ImportEvent(telemetry.EventImportApply, dry.RunID, true, map[string]any{
		"products": len(products),
		"pages":    len(pages),
		"snapshot": snapPath,
	})

	return &ApplyResult{
		DryRun:       dry,
		SnapshotPath: snapPath,
		Products:     len(products),
		Pages:        len(pages),
	}, nil
}

// Undo restores the content store from the last applied import's snapshot.
// Only the most recent apply can be undone; with no import on record it
// fails with ErrNothingToUndo.
func (im *Importer) Undo() (*UndoResult, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	cs, err := store.Load(im.ctx.ContentStorePath())
	if err != nil {
		return nil, err
	}
	if cs.LastImport == nil || cs.LastImport.SnapshotPath == "" {
		return nil, ErrNothingToUndo
	}
	// A recorded path whose file is gone is the same failure as no path at
	// all: callers match one error either way.
	if _, err := os.Stat(cs.LastImport.SnapshotPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: snapshot %s no longer exists", ErrNothingToUndo, filepath.Base(cs.LastImport.SnapshotPath))
		}
		return nil, fmt.Errorf("check snapshot: %w", err)
	}

	if err := store.RestoreSnapshot(cs.LastImport.SnapshotPath, im.ctx.ContentStorePath()); err != nil {
		return nil, err
	}

	im.rec.ImportEvent(telemetry.EventImportUndo, cs.LastImport.RunID, true, map[string]any{
		"snapshot": cs.LastImport.SnapshotPath,
	})

	return &UndoResult{
		RestoredFrom: cs.LastImport.SnapshotPath,
		UndoneRunID:  cs.LastImport.RunID,
	}, nil
}

// sortIssues orders errors first, then by file, row, and slug, so the csv
// reads worst-first and repeat runs produce identical output.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if a.Severity != b.Severity {
			return a.Severity == SeverityError
		}
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Slug < b.Slug
	})
}
