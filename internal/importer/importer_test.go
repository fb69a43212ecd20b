package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"sitenerd/internal/config"
	"sitenerd/internal/project"
	"sitenerd/internal/store"
)

func newTestProject(t *testing.T) (project.Context, *config.Config) {
	t.Helper()
	ctx, cfg, err := project.NewManager().Create(t.TempDir(), "Test Shop")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	plan := &project.Plan{
		SiteName: "Test Shop",
		Entities: map[string]bool{"products": true, "pages": true},
	}
	if err := project.SavePlan(ctx.PlanPath(), plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	return ctx, cfg
}

func writeDataCSV(t *testing.T, ctx project.Context, name, content string) string {
	t.Helper()
	path := filepath.Join(ctx.ContentDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func addImage(t *testing.T, ctx project.Context, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(ctx.ImagesDir(), name), []byte("img"), 0644); err != nil {
		t.Fatalf("write image %s: %v", name, err)
	}
}

func TestDryRunReady(t *testing.T) {
	ctx, cfg := newTestProject(t)
	addImage(t, ctx, "desk-lamp.jpg")
	addImage(t, ctx, "desk-lamp_1.jpg")
	path := writeDataCSV(t, ctx, "products.csv",
		"slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")

	im := New(ctx, cfg, nil)
	dry, err := im.DryRun(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !dry.ReadyToApply {
		t.Fatalf("expected ready, issues: %+v", dry.Issues)
	}
	if dry.Counts[StatusValid] != 1 {
		t.Fatalf("unexpected counts: %v", dry.Counts)
	}
	rr := dry.Files[0].Rows[0]
	if rr.Product.Images.Main != "content/images/desk-lamp.jpg" {
		t.Fatalf("unexpected main image: %s", rr.Product.Images.Main)
	}
	if len(rr.Product.Images.Extras) != 1 {
		t.Fatalf("expected one extra image, got %v", rr.Product.Images.Extras)
	}
	if _, err := os.Stat(ctx.IssuesCSVPath()); !os.IsNotExist(err) {
		t.Fatal("a clean dry run must not leave an issues csv behind")
	}
	if _, err := os.Stat(ctx.ContentStorePath()); !os.IsNotExist(err) {
		t.Fatal("dry run must not create the content store")
	}
}

func TestDryRunIdempotent(t *testing.T) {
	ctx, cfg := newTestProject(t)
	addImage(t, ctx, "mug-blue-large.jpg")
	path := writeDataCSV(t, ctx, "products.csv",
		"slug,title,price\nmug-blue,Blue Mug,12\nBad-Slug,Bad,5\n")

	im := New(ctx, cfg, nil)
	req := Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}}
	first, err := im.DryRun(req)
	if err != nil {
		t.Fatalf("first dry run: %v", err)
	}
	second, err := im.DryRun(req)
	if err != nil {
		t.Fatalf("second dry run: %v", err)
	}
	if diff := cmp.Diff(first.Issues, second.Issues); diff != "" {
		t.Fatalf("dry runs must agree (-first +second):\n%s", diff)
	}
	if first.ReadyToApply != second.ReadyToApply {
		t.Fatal("readiness must not change between identical dry runs")
	}
}

func TestDryRunMissingPlan(t *testing.T) {
	ctx, cfg := newTestProject(t)
	if err := os.Remove(ctx.PlanPath()); err != nil {
		t.Fatalf("remove plan: %v", err)
	}
	path := writeDataCSV(t, ctx, "products.csv", "slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")

	im := New(ctx, cfg, nil)
	dry, err := im.DryRun(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.ReadyToApply {
		t.Fatal("missing plan must block apply")
	}
	if len(dry.Issues) != 1 || dry.Issues[0].Code != CodeMissingPlan {
		t.Fatalf("expected a single missing_plan issue, got %+v", dry.Issues)
	}
	if len(dry.Files) != 0 {
		t.Fatal("missing plan must stop before reading files")
	}
}

func TestDryRunMissingColumns(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "products.csv", "slug,title\na,A\nb,B\n")

	im := New(ctx, cfg, nil)
	dry, err := im.DryRun(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	var structural []Issue
	for _, issue := range dry.Issues {
		if issue.Code == CodeMissingColumns {
			structural = append(structural, issue)
		}
	}
	if len(structural) != 1 {
		t.Fatalf("expected exactly one structural issue per file, got %+v", dry.Issues)
	}
	if dry.ReadyToApply {
		t.Fatal("missing columns must block apply")
	}
}

func TestDryRunDuplicateSlugsAcrossCollections(t *testing.T) {
	ctx, cfg := newTestProject(t)
	addImage(t, ctx, "about.jpg")
	products := writeDataCSV(t, ctx, "products.csv", "slug,title,price,image_main\nabout,About Poster,5,about.jpg\n")
	pages := writeDataCSV(t, ctx, "pages.csv", "slug,title\nabout,About Us\n")

	im := New(ctx, cfg, nil)
	dry, err := im.DryRun(Request{Files: []RequestFile{
		{Path: products, Collection: CollectionProducts},
		{Path: pages, Collection: CollectionPages},
	}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.ReadyToApply {
		t.Fatal("duplicate slugs across collections must block apply")
	}
	found := false
	for _, issue := range dry.Issues {
		if issue.Code == CodeDuplicateSlug && issue.Slug == "about" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a duplicate_slug issue, got %+v", dry.Issues)
	}
}

func TestDryRunCollectionDisabled(t *testing.T) {
	ctx, cfg := newTestProject(t)
	plan := &project.Plan{SiteName: "Test Shop", Entities: map[string]bool{"pages": true}}
	if err := project.SavePlan(ctx.PlanPath(), plan); err != nil {
		t.Fatalf("save plan: %v", err)
	}
	path := writeDataCSV(t, ctx, "products.csv", "slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")

	im := New(ctx, cfg, nil)
	dry, err := im.DryRun(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if dry.ReadyToApply || dry.Issues[0].Code != CodeCollectionDisabled {
		t.Fatalf("disabled collection must block apply, got %+v", dry.Issues)
	}
}

func TestApplyAndUndoRoundTrip(t *testing.T) {
	ctx, cfg := newTestProject(t)
	addImage(t, ctx, "desk-lamp.jpg")
	products := writeDataCSV(t, ctx, "products.csv",
		"slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")
	pages := writeDataCSV(t, ctx, "pages.csv",
		"slug,title,body_markdown\nabout,About Us,Hello.\n")

	im := New(ctx, cfg, nil)
	req := Request{Files: []RequestFile{
		{Path: products, Collection: CollectionProducts},
		{Path: pages, Collection: CollectionPages},
	}}

	res, err := im.Apply(req)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Products != 1 || res.Pages != 1 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if _, err := os.Stat(res.SnapshotPath); err != nil {
		t.Fatal("apply must leave its snapshot on disk")
	}

	cs, err := store.Load(ctx.ContentStorePath())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if len(cs.Products) != 1 || cs.Products[0].Slug != "desk-lamp" {
		t.Fatalf("unexpected products: %+v", cs.Products)
	}
	if cs.Pages["about"].Title != "About Us" {
		t.Fatalf("unexpected pages: %+v", cs.Pages)
	}
	if cs.LastImport == nil || cs.LastImport.SnapshotPath != res.SnapshotPath {
		t.Fatalf("last_import must point at the snapshot, got %+v", cs.LastImport)
	}

	m, err := LoadImageMap(ctx.MappingPath())
	if err != nil {
		t.Fatalf("load image map: %v", err)
	}
	if m.Entries["desk-lamp"].Main != "content/images/desk-lamp.jpg" {
		t.Fatalf("unexpected image map: %+v", m.Entries)
	}

	// The snapshot captured an empty store, so undo returns to it exactly.
	snapBytes, err := os.ReadFile(res.SnapshotPath)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	undo, err := im.Undo()
	if err != nil {
		t.Fatalf("undo: %v", err)
	}
	if undo.RestoredFrom != res.SnapshotPath {
		t.Fatalf("undo restored from %s, want %s", undo.RestoredFrom, res.SnapshotPath)
	}
	after, err := os.ReadFile(ctx.ContentStorePath())
	if err != nil {
		t.Fatalf("read restored store: %v", err)
	}
	if !bytes.Equal(snapBytes, after) {
		t.Fatal("undo must restore the snapshot byte-for-byte")
	}
}

func TestApplyBlockedByInvalidRows(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "products.csv", "slug,title,price\nMug-Blue,Blue Mug,12\n")

	im := New(ctx, cfg, nil)
	res, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if !errors.Is(err, ErrBlockingIssues) {
		t.Fatalf("expected ErrBlockingIssues, got %v", err)
	}
	if res == nil || res.DryRun == nil {
		t.Fatal("a blocked apply must return the dry run for display")
	}
	if _, statErr := os.Stat(ctx.ContentStorePath()); !os.IsNotExist(statErr) {
		t.Fatal("a blocked apply must not touch the content store")
	}
	entries, _ := os.ReadDir(ctx.SnapshotsDir())
	if len(entries) != 0 {
		t.Fatal("a blocked apply must not take a snapshot")
	}
}

func TestApplyWarningsDoNotBlock(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "products.csv", "slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")

	im := New(ctx, cfg, nil)
	res, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}})
	if err != nil {
		t.Fatalf("missing-image warnings must not block apply: %v", err)
	}
	if res.Products != 1 {
		t.Fatalf("warned rows must still apply, got %+v", res)
	}
	cs, err := store.Load(ctx.ContentStorePath())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if cs.Products[0].Images.Main != "" {
		t.Fatalf("missing-image products keep an empty main image, got %q", cs.Products[0].Images.Main)
	}
}

func TestApplyProductsWholesalePagesUpsert(t *testing.T) {
	ctx, cfg := newTestProject(t)

	products1 := writeDataCSV(t, ctx, "p1.csv", "slug,title,price\na,A,1\nb,B,2\n")
	pages1 := writeDataCSV(t, ctx, "g1.csv", "slug,title\nabout,About\nfaq,FAQ\n")
	im := New(ctx, cfg, nil)
	if _, err := im.Apply(Request{Files: []RequestFile{
		{Path: products1, Collection: CollectionProducts},
		{Path: pages1, Collection: CollectionPages},
	}}); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	products2 := writeDataCSV(t, ctx, "p2.csv", "slug,title,price\nc,C,3\n")
	pages2 := writeDataCSV(t, ctx, "g2.csv", "slug,title\nabout,About Us\n")
	if _, err := im.Apply(Request{Files: []RequestFile{
		{Path: products2, Collection: CollectionProducts},
		{Path: pages2, Collection: CollectionPages},
	}}); err != nil {
		t.Fatalf("second apply: %v", err)
	}

	cs, err := store.Load(ctx.ContentStorePath())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if len(cs.Products) != 1 || cs.Products[0].Slug != "c" {
		t.Fatalf("products must be replaced wholesale, got %+v", cs.Products)
	}
	if len(cs.Pages) != 2 || cs.Pages["about"].Title != "About Us" || cs.Pages["faq"].Title != "FAQ" {
		t.Fatalf("pages must merge by slug, got %+v", cs.Pages)
	}
}

func TestApplyPagesOnlyKeepsProducts(t *testing.T) {
	ctx, cfg := newTestProject(t)

	products := writeDataCSV(t, ctx, "products.csv", "slug,title,price\na,A,1\n")
	im := New(ctx, cfg, nil)
	if _, err := im.Apply(Request{Files: []RequestFile{{Path: products, Collection: CollectionProducts}}}); err != nil {
		t.Fatalf("apply products: %v", err)
	}

	pages := writeDataCSV(t, ctx, "pages.csv", "slug,title\nabout,About\n")
	if _, err := im.Apply(Request{Files: []RequestFile{{Path: pages, Collection: CollectionPages}}}); err != nil {
		t.Fatalf("apply pages: %v", err)
	}

	cs, err := store.Load(ctx.ContentStorePath())
	if err != nil {
		t.Fatalf("load store: %v", err)
	}
	if len(cs.Products) != 1 {
		t.Fatal("a pages-only apply must not clear products")
	}
}

func TestApplyEmptyFileStillSnapshots(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "pages.csv", "slug,title\n")

	im := New(ctx, cfg, nil)
	res, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionPages}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Pages != 0 {
		t.Fatalf("expected zero pages, got %d", res.Pages)
	}
	if res.SnapshotPath == "" {
		t.Fatal("every apply takes a snapshot, even an empty one")
	}
	if _, err := os.Stat(res.SnapshotPath); err != nil {
		t.Fatalf("snapshot missing: %v", err)
	}
}

func TestApplySnapshotRetentionProtectsLastImport(t *testing.T) {
	ctx, cfg := newTestProject(t)
	cfg.Import.SnapshotRetention = 1

	im := New(ctx, cfg, nil)
	var lastSnap string
	for i := 0; i < 3; i++ {
		path := writeDataCSV(t, ctx, "pages.csv", "slug,title\nabout,About\n")
		res, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionPages}}})
		if err != nil {
			t.Fatalf("apply %d: %v", i, err)
		}
		lastSnap = res.SnapshotPath
	}

	entries, err := os.ReadDir(ctx.SnapshotsDir())
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("retention 1 must keep one snapshot, got %d", len(entries))
	}
	if filepath.Join(ctx.SnapshotsDir(), entries[0].Name()) != lastSnap {
		t.Fatal("the surviving snapshot must be the one backing undo")
	}

	if _, err := im.Undo(); err != nil {
		t.Fatalf("undo after pruning: %v", err)
	}
}

func TestUndoWithoutImport(t *testing.T) {
	ctx, cfg := newTestProject(t)

	im := New(ctx, cfg, nil)
	if _, err := im.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestUndoIsSingleLevel(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "pages.csv", "slug,title\nabout,About\n")

	im := New(ctx, cfg, nil)
	if _, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionPages}}}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := im.Undo(); err != nil {
		t.Fatalf("first undo: %v", err)
	}
	// The restored store predates the import, so there is nothing left to
	// undo.
	if _, err := im.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo on second undo, got %v", err)
	}
}

func TestUndoWithSnapshotFileMissing(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "pages.csv", "slug,title\nabout,About\n")

	im := New(ctx, cfg, nil)
	res, err := im.Apply(Request{Files: []RequestFile{{Path: path, Collection: CollectionPages}}})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := os.Remove(res.SnapshotPath); err != nil {
		t.Fatalf("remove snapshot: %v", err)
	}

	// A recorded snapshot path whose file is gone must fail the same way as
	// having no recorded import at all.
	if _, err := im.Undo(); !errors.Is(err, ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
}

func TestIssuesCSVContents(t *testing.T) {
	ctx, cfg := newTestProject(t)
	path := writeDataCSV(t, ctx, "products.csv", "slug,title,price\nMug-Blue,Blue Mug,12\n")

	im := New(ctx, cfg, nil)
	if _, err := im.DryRun(Request{Files: []RequestFile{{Path: path, Collection: CollectionProducts}}}); err != nil {
		t.Fatalf("dry run: %v", err)
	}

	f, err := os.Open(ctx.IssuesCSVPath())
	if err != nil {
		t.Fatalf("open issues csv: %v", err)
	}
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read issues csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header + 1 issue, got %d rows", len(records))
	}
	want := []string{"Type", "Issue", "Severity", "Action"}
	if diff := cmp.Diff(want, records[0]); diff != "" {
		t.Fatalf("header mismatch (-want +got):\n%s", diff)
	}
	row := records[1]
	if row[0] != "Products" || row[2] != "Error" {
		t.Fatalf("unexpected issue row: %v", row)
	}
	if !strings.Contains(row[1], "products.csv row 2") || !strings.Contains(row[1], "lowercase") {
		t.Fatalf("issue text must carry location and message, got %q", row[1])
	}
	if row[3] != SuggestedAction(CodeInvalidRow) {
		t.Fatalf("unexpected action: %q", row[3])
	}
}

func TestIssuesCSVRemovedOnCleanRun(t *testing.T) {
	ctx, cfg := newTestProject(t)
	addImage(t, ctx, "desk-lamp.jpg")
	bad := writeDataCSV(t, ctx, "products.csv", "slug,title,price\nMug-Blue,Blue Mug,12\n")

	im := New(ctx, cfg, nil)
	if _, err := im.DryRun(Request{Files: []RequestFile{{Path: bad, Collection: CollectionProducts}}}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(ctx.IssuesCSVPath()); err != nil {
		t.Fatalf("findings must produce an issues csv: %v", err)
	}

	good := writeDataCSV(t, ctx, "products.csv", "slug,title,price\ndesk-lamp,Desk Lamp,49.99\n")
	if _, err := im.DryRun(Request{Files: []RequestFile{{Path: good, Collection: CollectionProducts}}}); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(ctx.IssuesCSVPath()); !os.IsNotExist(err) {
		t.Fatal("a clean dry run must remove the stale issues csv")
	}
}
