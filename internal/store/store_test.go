package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadMissingReturnsEmptyStore(t *testing.T) {
	cs, err := Load(filepath.Join(t.TempDir(), "content_store.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cs.Products) != 0 || len(cs.Pages) != 0 {
		t.Fatalf("expected empty store, got %+v", cs)
	}
	if cs.Pages == nil {
		t.Fatal("pages map must be initialized")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content_store.json")

	cs := NewContentStore()
	cs.ReplaceProducts([]Product{
		{Slug: "desk-lamp", Title: "Desk Lamp", Price: 49.99, Images: Images{Main: "content/images/desk-lamp.jpg", Extras: []string{"content/images/desk-lamp_1.jpg"}}},
	})
	cs.UpsertPages([]Page{{Slug: "about", Title: "About Us", Body: "Hello."}})

	if err := Save(path, cs); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(cs.Products, loaded.Products); diff != "" {
		t.Fatalf("products mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(cs.Pages, loaded.Pages); diff != "" {
		t.Fatalf("pages mismatch (-want +got):\n%s", diff)
	}
	if loaded.UpdatedAt.IsZero() {
		t.Fatal("updated_at must be stamped on save")
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Save(filepath.Join(dir, "content_store.json"), NewContentStore()); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "content_store.json" {
		t.Fatalf("expected only the store file, found %v", entries)
	}
}

func TestReplaceProductsIsWholesale(t *testing.T) {
	cs := NewContentStore()
	cs.ReplaceProducts([]Product{{Slug: "a"}, {Slug: "b"}})
	cs.ReplaceProducts([]Product{{Slug: "c"}})
	if len(cs.Products) != 1 || cs.Products[0].Slug != "c" {
		t.Fatalf("replace must drop prior products, got %+v", cs.Products)
	}
}

func TestUpsertPagesMerges(t *testing.T) {
	cs := NewContentStore()
	cs.UpsertPages([]Page{{Slug: "about", Title: "About"}, {Slug: "faq", Title: "FAQ"}})
	cs.UpsertPages([]Page{{Slug: "about", Title: "About Us"}})

	if len(cs.Pages) != 2 {
		t.Fatalf("upsert must keep untouched pages, got %d", len(cs.Pages))
	}
	if cs.Pages["about"].Title != "About Us" {
		t.Fatalf("upsert must overwrite by slug, got %q", cs.Pages["about"].Title)
	}
	if diff := cmp.Diff([]string{"about", "faq"}, cs.PageSlugs()); diff != "" {
		t.Fatalf("slugs mismatch (-want +got):\n%s", diff)
	}
}
