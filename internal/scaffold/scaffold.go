// Package scaffold writes the platform-target starter files into the output
// directory: base stylesheet and script for the htmljs target, an admin
// shell for the dashboard target, and a handoff document for projects that
// will be finished by an outside developer.
package scaffold

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"sitenerd/internal/project"
)

// Targets supported by Write.
const (
	TargetHTMLJS    = "htmljs"
	TargetDashboard = "dashboard"
	TargetHandoff   = "handoff"
)

var stylesTmpl = template.Must(template.New("styles").Parse(`:root {
  --color-primary: {{.Branding.PrimaryColor}};
  --color-secondary: {{.Branding.SecondaryColor}};
  --font-body: "{{.Branding.Font}}", system-ui, sans-serif;
}

body {
  margin: 0;
  font-family: var(--font-body);
  color: #1f2933;
  line-height: 1.6;
}

header nav a {
  color: var(--color-primary);
  margin-right: 1rem;
  text-decoration: none;
}

.product-card img {
  max-width: 100%;
  border-radius: 4px;
}

footer {
  color: var(--color-secondary);
  padding: 2rem 0;
}
`))

const siteJS = `document.addEventListener("DOMContentLoaded", () => {
  const toggle = document.querySelector("[data-nav-toggle]");
  const nav = document.querySelector("[data-nav]");
  if (toggle && nav) {
    toggle.addEventListener("click", () => nav.classList.toggle("open"));
  }
});
`

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.SiteName}} admin</title>
  <link rel="stylesheet" href="../assets/styles.css">
</head>
<body>
  <h1>{{.SiteName}} admin</h1>
  <p>Content lives in data/products.json and data/pages.json. Re-run the
  generator after editing imports.</p>
</body>
</html>
`))

var handoffTmpl = template.Must(template.New("handoff").Parse(`# {{.Plan.SiteName}} handoff

Generated {{.Date}}.

## Site plan

Platform target: {{.Plan.PlatformTarget}}

Pages:
{{range .Plan.Pages}}- /{{.Slug}} ({{.Purpose}}): {{.Title}}
{{end}}
Navigation order: {{range $i, $s := .Plan.Nav}}{{if $i}}, {{end}}{{$s}}{{end}}

## Branding

- Primary color: {{.Plan.Branding.PrimaryColor}}
- Secondary color: {{.Plan.Branding.SecondaryColor}}
- Font: {{.Plan.Branding.Font}}

## Data

Structured content is exported under data/ as products.json and pages.json.
Images referenced by relative path live under content/images in the project
root; external URLs are referenced as-is.
`))

// Write lays down the scaffold for target under outputDir and returns the
// paths written, relative to outputDir.
func Write(outputDir, target string, plan *project.Plan) ([]string, error) {
	if plan == nil {
		return nil, fmt.Errorf("scaffold needs a site plan")
	}

	var written []string
	emit := func(rel string, content []byte) error {
		path := filepath.Join(outputDir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("create scaffold directory: %w", err)
		}
		if err := os.WriteFile(path, content, 0644); err != nil {
			return fmt.Errorf("write %s: %w", rel, err)
		}
		written = append(written, rel)
		return nil
	}

	var styles bytes.Buffer
	if err := stylesTmpl.Execute(&styles, plan); err != nil {
		return nil, fmt.Errorf("render styles: %w", err)
	}

	switch target {
	case TargetHTMLJS:
		if err := emit(filepath.Join("assets", "styles.css"), styles.Bytes()); err != nil {
			return nil, err
		}
		if err := emit(filepath.Join("assets", "site.js"), []byte(siteJS)); err != nil {
			return nil, err
		}
	case TargetDashboard:
		if err := emit(filepath.Join("assets", "styles.css"), styles.Bytes()); err != nil {
			return nil, err
		}
		if err := emit(filepath.Join("assets", "site.js"), []byte(siteJS)); err != nil {
			return nil, err
		}
		var dash bytes.Buffer
		if err := dashboardTmpl.Execute(&dash, plan); err != nil {
			return nil, fmt.Errorf("render dashboard: %w", err)
		}
		if err := emit(filepath.Join("admin", "index.html"), dash.Bytes()); err != nil {
			return nil, err
		}
	case TargetHandoff:
		var doc bytes.Buffer
		data := struct {
			Plan *project.Plan
			Date string
		}{plan, time.Now().Format("2006-01-02")}
		if err := handoffTmpl.Execute(&doc, data); err != nil {
			return nil, fmt.Errorf("render handoff document: %w", err)
		}
		if err := emit("HANDOFF.md", doc.Bytes()); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown platform target %q (use %s, %s, or %s)", target, TargetHTMLJS, TargetDashboard, TargetHandoff)
	}

	return written, nil
}
