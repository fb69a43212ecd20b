// Package generator renders the static site from the plan and the content
// store. Pages render concurrently; the output of two runs over the same
// inputs is identical file for file.
package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"

	"sitenerd/internal/project"
	"sitenerd/internal/store"
)

// Options configures a generation run.
type Options struct {
	OutputDir string
	// ImagesDir is the project images directory; its files are copied into
	// the site so the output is self-contained. Empty disables copying.
	ImagesDir string
	// Clean removes OutputDir before generating.
	Clean bool
}

// Result summarizes a generation run.
type Result struct {
	Pages    []string `json:"pages"`
	Products int      `json:"products"`
	Images   int      `json:"images"`
}

// Generator renders one site.
type Generator struct {
	plan *project.Plan
	cs   *store.ContentStore
	opts Options
	md   goldmark.Markdown
}

// New returns a generator over the given plan and content store.
func New(plan *project.Plan, cs *store.ContentStore, opts Options) (*Generator, error) {
	if plan == nil {
		return nil, fmt.Errorf("generation needs a site plan")
	}
	if cs == nil {
		cs = store.NewContentStore()
	}
	return &Generator{plan: plan, cs: cs, opts: opts, md: goldmark.New()}, nil
}

type navItem struct {
	Slug  string
	Title string
	Href  string
}

type pageData struct {
	SiteName     string
	Title        string
	Branding     project.Branding
	Nav          []navItem
	Body         template.HTML
	Hero         string
	HeroHeadline string
	HeroSubtitle string
	Products     []productView
}

type productView struct {
	Slug        string
	Title       string
	Price       float64
	Description string
	Image       string
	Alt         string
	Extras      []string
}

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}} | {{.SiteName}}</title>
  <link rel="stylesheet" href="assets/styles.css">
</head>
<body>
  <header>
    <nav data-nav>
      {{- range .Nav}}
      <a href="{{.Href}}">{{.Title}}</a>
      {{- end}}
    </nav>
  </header>
  <main>
    <h1>{{.Title}}</h1>
    {{- if .Hero}}
    <img class="hero" src="{{.Hero}}" alt="{{.Title}}">
    {{- end}}
    {{- if .HeroHeadline}}
    <p class="hero-headline">{{.HeroHeadline}}</p>
    {{- end}}
    {{- if .HeroSubtitle}}
    <p class="hero-subtitle">{{.HeroSubtitle}}</p>
    {{- end}}
    {{.Body}}
    {{- if .Products}}
    <section class="products">
      {{- range .Products}}
      <article class="product-card" id="{{.Slug}}">
        {{- if .Image}}
        <img src="{{.Image}}" alt="{{.Alt}}">
        {{- end}}
        <h2>{{.Title}}</h2>
        <p class="price">{{printf "%.2f" .Price}}</p>
        {{- if .Description}}
        <p>{{.Description}}</p>
        {{- end}}
      </article>
      {{- end}}
    </section>
    {{- end}}
  </main>
  <footer>
    <p>{{.Branding.Tagline}}</p>
  </footer>
</body>
</html>
`))

// Run generates the site.
func (g *Generator) Run(ctx context.Context) (*Result, error) {
	out := g.opts.OutputDir
	if out == "" {
		return nil, fmt.Errorf("output directory is required")
	}

	if g.opts.Clean {
		if err := os.RemoveAll(out); err != nil {
			return nil, fmt.Errorf("clean output directory: %w", err)
		}
	}
	for _, dir := range []string{out, filepath.Join(out, "data"), filepath.Join(out, "assets")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	result := &Result{Products: len(g.cs.Products)}

	eg, ctx := errgroup.WithContext(ctx)
	for _, page := range g.plan.Pages {
		page := page
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return g.renderPage(page)
		})
	}
	eg.Go(func() error { return g.exportData() })
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if g.opts.ImagesDir != "" {
		n, err := copyImages(g.opts.ImagesDir, filepath.Join(out, "images"))
		if err != nil {
			return nil, err
		}
		result.Images = n
	}

	for _, page := range g.plan.Pages {
		result.Pages = append(result.Pages, pageFilename(page.Slug))
	}
	sort.Strings(result.Pages)
	return result, nil
}

func (g *Generator) renderPage(page project.PlannedPage) error {
	data := pageData{
		SiteName: g.plan.SiteName,
		Title:    page.Title,
		Branding: g.plan.Branding,
		Nav:      g.nav(),
	}

	if stored, ok := g.cs.Pages[page.Slug]; ok {
		if stored.Title != "" {
			data.Title = stored.Title
		}
		data.Hero = siteImageRef(stored.HeroImage)
		data.HeroHeadline = stored.HeroHeadline
		data.HeroSubtitle = stored.HeroSubtitle
		if stored.Body != "" {
			var buf bytes.Buffer
			if err := g.md.Convert([]byte(stored.Body), &buf); err != nil {
				return fmt.Errorf("render markdown for %s: %w", page.Slug, err)
			}
			data.Body = template.HTML(buf.String())
		}
	}

	if page.Purpose == "listing" && len(g.cs.Products) > 0 {
		for _, p := range g.cs.Products {
			view := productView{
				Slug:        p.Slug,
				Title:       p.Title,
				Price:       p.Price,
				Description: p.Description,
				Image:       siteImageRef(p.Images.Main),
				Alt:         p.Images.AltText,
			}
			if view.Alt == "" {
				view.Alt = p.Title
			}
			for _, extra := range p.Images.Extras {
				view.Extras = append(view.Extras, siteImageRef(extra))
			}
			data.Products = append(data.Products, view)
		}
	}

	var buf bytes.Buffer
	if err := layoutTmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("render page %s: %w", page.Slug, err)
	}

	path := filepath.Join(g.opts.OutputDir, pageFilename(page.Slug))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create page directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write page %s: %w", page.Slug, err)
	}
	return nil
}

func (g *Generator) nav() []navItem {
	titles := map[string]string{}
	for _, p := range g.plan.Pages {
		titles[p.Slug] = p.Title
	}
	var items []navItem
	for _, slug := range g.plan.Nav {
		title := titles[slug]
		if title == "" {
			title = slug
		}
		items = append(items, navItem{Slug: slug, Title: title, Href: pageFilename(slug)})
	}
	return items
}

// exportData writes the machine-readable content exports consumed by the
// dashboard target and by external integrations.
func (g *Generator) exportData() error {
	products, err := json.MarshalIndent(g.cs.Products, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal products export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(g.opts.OutputDir, "data", "products.json"), products, 0644); err != nil {
		return fmt.Errorf("write products export: %w", err)
	}

	pages, err := json.MarshalIndent(g.cs.Pages, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pages export: %w", err)
	}
	if err := os.WriteFile(filepath.Join(g.opts.OutputDir, "data", "pages.json"), pages, 0644); err != nil {
		return fmt.Errorf("write pages export: %w", err)
	}
	return nil
}

// pageFilename maps a page slug to its output file. "home" becomes the site
// index; nested slugs keep their directories.
func pageFilename(slug string) string {
	if slug == "home" {
		return "index.html"
	}
	return slug + ".html"
}

// siteImageRef rewrites a stored project-relative image path to its location
// inside the generated site. External URLs pass through untouched.
func siteImageRef(ref string) string {
	if ref == "" || strings.HasPrefix(strings.ToLower(ref), "http://") || strings.HasPrefix(strings.ToLower(ref), "https://") {
		return ref
	}
	if rest, ok := strings.CutPrefix(ref, "content/images/"); ok {
		return "images/" + rest
	}
	return ref
}

func copyImages(srcDir, dstDir string) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("list images: %w", err)
	}
	if err := os.MkdirAll(dstDir, 0755); err != nil {
		return 0, fmt.Errorf("create images directory: %w", err)
	}

	n := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		if err != nil {
			return n, fmt.Errorf("read image %s: %w", e.Name(), err)
		}
		if err := os.WriteFile(filepath.Join(dstDir, e.Name()), data, 0644); err != nil {
			return n, fmt.Errorf("copy image %s: %w", e.Name(), err)
		}
		n++
	}
	return n, nil
}
