// Package store persists the project's content as a single JSON document and
// manages the point-in-time snapshots that make imports undoable. The store
// file is the source of truth for the generator; it is only ever replaced
// atomically (write to a temp file, then rename).
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Product is one product record.
type Product struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Description string   `json:"description,omitempty"`
	SKU         string   `json:"sku,omitempty"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Images      Images   `json:"images"`
}

// Images holds a product's resolved image references: one main image plus
// ordered extras. Main may be a project-relative path or an external URL.
type Images struct {
	Main    string   `json:"main,omitempty"`
	Extras  []string `json:"extras,omitempty"`
	AltText string   `json:"alt_text,omitempty"`
}

// Page is one content page record.
type Page struct {
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	HeroHeadline string `json:"hero_headline,omitempty"`
	HeroSubtitle string `json:"hero_subtitle,omitempty"`
	Body         string `json:"body,omitempty"`
	HeroImage    string `json:"hero_image,omitempty"`
}

// LastImport records the most recent applied import. SnapshotPath is the
// only snapshot undo will restore from.
type LastImport struct {
	Timestamp    time.Time      `json:"timestamp"`
	RunID        string         `json:"run_id"`
	SourceFiles  []string       `json:"source_files"`
	SnapshotPath string         `json:"snapshot_path"`
	Counts       map[string]int `json:"counts"`
}

// ContentStore is the full content document.
type ContentStore struct {
	Products   []Product       `json:"products"`
	Pages      map[string]Page `json:"pages"`
	Global     map[string]any  `json:"global,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
	LastImport *LastImport     `json:"last_import,omitempty"`
}

// NewContentStore returns an empty store document.
func NewContentStore() *ContentStore {
	now := time.Now()
	return &ContentStore{
		Pages:     map[string]Page{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Load reads the store document at path. A missing file yields a fresh empty
// store, not an error: a project before its first import has no content yet.
func Load(path string) (*ContentStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewContentStore(), nil
		}
		return nil, fmt.Errorf("read content store: %w", err)
	}
	var cs ContentStore
	if err := json.Unmarshal(data, &cs); err != nil {
		return nil, fmt.Errorf("parse content store: %w", err)
	}
	if cs.Pages == nil {
		cs.Pages = map[string]Page{}
	}
	return &cs, nil
}

// Save writes the store document atomically, stamping UpdatedAt.
func Save(path string, cs *ContentStore) error {
	cs.UpdatedAt = time.Now()
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = cs.UpdatedAt
	}

	data, err := json.MarshalIndent(cs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal content store: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".content_store-*.json")
	if err != nil {
		return fmt.Errorf("create temp store file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp store file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace content store: %w", err)
	}
	return nil
}

// ReplaceProducts swaps the entire product list. Applied product imports are
// wholesale: rows in the spreadsheet become the catalog, rows absent from it
// are gone.
func (cs *ContentStore) ReplaceProducts(products []Product) {
	cs.Products = products
}

// UpsertPages merges pages by slug, keeping pages not named in the batch.
func (cs *ContentStore) UpsertPages(pages []Page) {
	if cs.Pages == nil {
		cs.Pages = map[string]Page{}
	}
	for _, p := range pages {
		cs.Pages[p.Slug] = p
	}
}

// PageSlugs returns the page slugs in sorted order.
func (cs *ContentStore) PageSlugs() []string {
	slugs := make([]string, 0, len(cs.Pages))
	for slug := range cs.Pages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}
