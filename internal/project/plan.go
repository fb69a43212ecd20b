package project

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Plan is the inferred site plan: which pages exist, how they are ordered in
// navigation, what the site looks like, and which content entities are
// enabled. The import pipeline consults Entities before validating a
// collection; the generator renders Pages in Nav order.
type Plan struct {
	SiteName       string          `json:"site_name"`
	PlatformTarget string          `json:"platform_target"`
	Pages          []PlannedPage   `json:"pages"`
	Nav            []string        `json:"nav"`
	Branding       Branding        `json:"branding"`
	Entities       map[string]bool `json:"entities"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PlannedPage describes one page in the site plan.
type PlannedPage struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Purpose string `json:"purpose"` // landing, info, listing, detail, form
}

// Branding holds the visual identity choices.
type Branding struct {
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
	Font           string `json:"font"`
	Tagline        string `json:"tagline"`
}

// EntityEnabled reports whether the named content entity is enabled in the
// plan. A nil entity map means nothing is enabled.
func (p *Plan) EntityEnabled(name string) bool {
	if p == nil || p.Entities == nil {
		return false
	}
	return p.Entities[name]
}

// LoadPlan reads the plan document. A missing file returns os.ErrNotExist so
// callers can distinguish "no plan yet" from a corrupt one.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	return &p, nil
}

// SavePlan writes the plan document, stamping UpdatedAt.
func SavePlan(path string, p *Plan) error {
	p.UpdatedAt = time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = p.UpdatedAt
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create plan directory: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
