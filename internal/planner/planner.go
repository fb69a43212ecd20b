// Package planner infers a site plan from free-form requirements text.
// The classifier is a deterministic keyword scan: same requirements in,
// same plan out. No network, no model calls.
package planner

import (
	"strings"
	"time"

	"sitenerd/internal/project"
)

// Analysis is the intermediate classification of a requirements text.
type Analysis struct {
	SiteMode    string // ecommerce or brochure
	Features    []string
	ColorScheme string // professional, vibrant, minimal
}

var (
	ecommerceKeywords = []string{"shop", "store", "product", "buy", "sell", "cart", "checkout", "payment", "ecommerce", "e-commerce"}

	featureKeywords = []struct {
		feature string
		words   []string
	}{
		{"blog", []string{"blog", "news", "article"}},
		{"contact", []string{"contact", "form", "inquiry"}},
		{"search", []string{"search", "find", "filter"}},
		{"gallery", []string{"gallery", "portfolio", "showcase"}},
		{"testimonials", []string{"testimonial", "review", "feedback"}},
	}

	colorSchemes = map[string]project.Branding{
		"professional": {PrimaryColor: "#2563eb", SecondaryColor: "#64748b", Font: "Inter"},
		"vibrant":      {PrimaryColor: "#dc2626", SecondaryColor: "#f59e0b", Font: "Poppins"},
		"minimal":      {PrimaryColor: "#374151", SecondaryColor: "#9ca3af", Font: "Inter"},
	}
)

// Analyze classifies requirements text into site mode, features, and styling.
func Analyze(requirements string) Analysis {
	lower := strings.ToLower(requirements)

	a := Analysis{SiteMode: "brochure", ColorScheme: "professional"}
	if containsAny(lower, ecommerceKeywords) {
		a.SiteMode = "ecommerce"
	}

	for _, fk := range featureKeywords {
		if containsAny(lower, fk.words) {
			a.Features = append(a.Features, fk.feature)
		}
	}

	switch {
	case containsAny(lower, []string{"vibrant", "colorful", "bright"}):
		a.ColorScheme = "vibrant"
	case containsAny(lower, []string{"minimal", "clean", "simple"}):
		a.ColorScheme = "minimal"
	}

	return a
}

// InferPlan builds a complete site plan from a site name, platform target,
// and requirements text.
func InferPlan(siteName, platformTarget, requirements string) *project.Plan {
	a := Analyze(requirements)

	plan := &project.Plan{
		SiteName:       siteName,
		PlatformTarget: platformTarget,
		Branding:       brandingFor(a, siteName),
		Entities: map[string]bool{
			"products": a.SiteMode == "ecommerce",
			"pages":    true,
			"blog":     a.hasFeature("blog"),
			"contact":  a.hasFeature("contact"),
			"gallery":  a.hasFeature("gallery"),
		},
		CreatedAt: time.Now(),
	}

	plan.Pages = append(plan.Pages, project.PlannedPage{Slug: "home", Title: "Home", Purpose: "landing"})

	if a.SiteMode == "ecommerce" {
		plan.Pages = append(plan.Pages,
			project.PlannedPage{Slug: "shop", Title: "Shop", Purpose: "listing"},
		)
	} else {
		plan.Pages = append(plan.Pages, project.PlannedPage{Slug: "about", Title: "About", Purpose: "info"})
	}
	if a.hasFeature("blog") {
		plan.Pages = append(plan.Pages, project.PlannedPage{Slug: "blog", Title: "Blog", Purpose: "listing"})
	}
	if a.hasFeature("gallery") {
		plan.Pages = append(plan.Pages, project.PlannedPage{Slug: "gallery", Title: "Gallery", Purpose: "listing"})
	}
	if a.hasFeature("contact") {
		plan.Pages = append(plan.Pages, project.PlannedPage{Slug: "contact", Title: "Contact", Purpose: "form"})
	}

	for _, p := range plan.Pages {
		plan.Nav = append(plan.Nav, p.Slug)
	}

	return plan
}

func (a Analysis) hasFeature(name string) bool {
	for _, f := range a.Features {
		if f == name {
			return true
		}
	}
	return false
}

// SchemeBranding returns the branding for a named color scheme with the
// site name as tagline. ok is false for unknown scheme names.
func SchemeBranding(scheme, siteName string) (project.Branding, bool) {
	b, ok := colorSchemes[scheme]
	if !ok {
		return project.Branding{}, false
	}
	b.Tagline = siteName
	return b, true
}

func brandingFor(a Analysis, siteName string) project.Branding {
	b, ok := colorSchemes[a.ColorScheme]
	if !ok {
		b = colorSchemes["professional"]
	}
	b.Tagline = siteName
	return b
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
