// Package importer implements the content import pipeline: spreadsheet rows
// are validated and matched to images in a dry run, and an apply commits the
// result to the content store behind a snapshot so it can be undone.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Confidence describes how an image was matched to a row.
type Confidence string

const (
	ConfidenceExternal Confidence = "external" // explicit http(s) URL in the cell
	ConfidenceManual   Confidence = "manual"   // explicit filename in the cell
	ConfidenceExact    Confidence = "exact"    // filename equals the slug
	ConfidenceFuzzy    Confidence = "fuzzy"    // filename starts with the slug
	ConfidenceNone     Confidence = "none"     // nothing matched
)

// Resolution is the outcome of resolving images for one row.
type Resolution struct {
	// Main is the chosen image: a path relative to the project root, or an
	// external URL. Empty when nothing matched.
	Main       string     `json:"main_image,omitempty"`
	Confidence Confidence `json:"confidence"`
	// Candidates lists every fuzzy candidate considered, relative paths,
	// sorted. Populated only for fuzzy resolution.
	Candidates []string `json:"candidates,omitempty"`
	// Extras are numbered companion images (slug_1.jpg, slug-2.png, ...)
	// plus any files named explicitly in the spreadsheet.
	Extras []string `json:"extra_images,omitempty"`
	// AltText is carried through from the spreadsheet untouched.
	AltText string `json:"alt_text,omitempty"`
}

// Resolver matches slugs to image files under a single images directory.
// The directory is listed once at construction; resolution itself touches
// no disk, so resolving the same rows twice gives identical results.
type Resolver struct {
	imagesDir  string // absolute path, for existence checks
	relDir     string // project-relative prefix recorded in resolutions
	extensions []string
	maxExtras  int
	files      map[string]bool // lowercase filename -> present
	names      []string        // lowercase filenames, sorted
	actual     map[string]string
}

// NewResolver lists imagesDir and returns a resolver. relDir is the
// project-relative form of the directory used in stored references
// (typically "content/images"). A missing directory resolves as empty.
func NewResolver(imagesDir, relDir string, extensions []string, maxExtras int) (*Resolver, error) {
	r := &Resolver{
		imagesDir:  imagesDir,
		relDir:     relDir,
		extensions: extensions,
		maxExtras:  maxExtras,
		files:      map[string]bool{},
		actual:     map[string]string{},
	}

	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, fmt.Errorf("list images directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		lower := strings.ToLower(e.Name())
		if !r.knownExtension(lower) {
			continue
		}
		r.files[lower] = true
		r.names = append(r.names, lower)
		r.actual[lower] = e.Name()
	}
	sort.Strings(r.names)
	return r, nil
}

// Resolve matches images for slug. explicit is the raw image cell value; an
// absolute http(s) URL always wins, a bare filename is looked up directly,
// and an empty cell triggers slug-based matching.
func (r *Resolver) Resolve(slug, explicit string) Resolution {
	explicit = strings.TrimSpace(explicit)

	if isExternalURL(explicit) {
		return Resolution{Main: explicit, Confidence: ConfidenceExternal}
	}

	if explicit != "" {
		lower := strings.ToLower(explicit)
		if r.files[lower] {
			return Resolution{
				Main:       r.rel(lower),
				Confidence: ConfidenceManual,
				Extras:     r.extras(slug),
			}
		}
		// Named file does not exist: fall through to slug matching so the
		// dry run can still suggest candidates.
	}

	lowerSlug := strings.ToLower(slug)

	// Exact patterns first: slug.<ext> and slug_main.<ext> for every
	// extension, collecting every match rather than stopping at the first.
	var candidates []string
	exact := false
	for _, ext := range r.extensions {
		for _, name := range []string{lowerSlug + ext, lowerSlug + "_main" + ext} {
			if r.files[name] {
				candidates = append(candidates, name)
			}
		}
	}
	if len(candidates) > 0 {
		exact = true
	} else {
		candidates = r.prefixCandidates(lowerSlug)
	}
	if len(candidates) == 0 {
		return Resolution{Confidence: ConfidenceNone}
	}

	// A candidate carrying _main is an explicit designation and settles any
	// ambiguity; otherwise the first candidate is the best guess.
	main := candidates[0]
	settled := len(candidates) == 1
	for _, c := range candidates {
		if strings.Contains(c, "_main") {
			main, settled = c, true
			break
		}
	}

	res := Resolution{Main: r.rel(main), Extras: r.extras(slug)}
	switch {
	case exact && settled:
		res.Confidence = ConfidenceExact
	case settled:
		res.Confidence = ConfidenceFuzzy
		res.Candidates = []string{res.Main}
	default:
		res.Confidence = ConfidenceFuzzy
		for _, c := range candidates {
			res.Candidates = append(res.Candidates, r.rel(c))
		}
	}
	return res
}

// prefixCandidates returns image names starting with slug, excluding the
// numbered extras that belong to the slug's gallery.
func (r *Resolver) prefixCandidates(lowerSlug string) []string {
	if lowerSlug == "" {
		return nil
	}
	extras := map[string]bool{}
	for i := 1; i <= r.maxExtras; i++ {
		for _, ext := range r.extensions {
			for _, sep := range []string{"_", "-"} {
				extras[fmt.Sprintf("%s%s%d%s", lowerSlug, sep, i, ext)] = true
			}
		}
	}

	var candidates []string
	for _, name := range r.names {
		if strings.HasPrefix(name, lowerSlug) && !extras[name] {
			candidates = append(candidates, name)
		}
	}
	return candidates
}

// extras collects numbered companion images: for each extension in
// configured order, indexes 1..N are probed with "_" before "-", and every
// match is kept. Gaps in the numbering are allowed.
func (r *Resolver) extras(slug string) []string {
	lowerSlug := strings.ToLower(slug)
	var found []string
	for _, ext := range r.extensions {
		for i := 1; i <= r.maxExtras; i++ {
			for _, sep := range []string{"_", "-"} {
				probe := fmt.Sprintf("%s%s%d%s", lowerSlug, sep, i, ext)
				if r.files[probe] {
					found = append(found, r.rel(probe))
				}
			}
		}
	}
	return found
}

// mergeExplicitExtras prepends filenames from a comma separated cell to the
// convention-scanned extras. Names that do not exist in the images directory
// are dropped; duplicates keep their first position.
func (r *Resolver) mergeExplicitExtras(cell string, scanned []string) []string {
	if strings.TrimSpace(cell) == "" {
		return scanned
	}
	seen := map[string]bool{}
	var merged []string
	for _, name := range strings.Split(cell, ",") {
		lower := strings.ToLower(strings.TrimSpace(name))
		if lower == "" || !r.files[lower] {
			continue
		}
		rel := r.rel(lower)
		if !seen[rel] {
			seen[rel] = true
			merged = append(merged, rel)
		}
	}
	for _, rel := range scanned {
		if !seen[rel] {
			seen[rel] = true
			merged = append(merged, rel)
		}
	}
	return merged
}

func (r *Resolver) knownExtension(name string) bool {
	ext := filepath.Ext(name)
	for _, e := range r.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (r *Resolver) rel(lowerName string) string {
	name := r.actual[lowerName]
	if name == "" {
		name = lowerName
	}
	return filepath.ToSlash(filepath.Join(r.relDir, name))
}

func isExternalURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
