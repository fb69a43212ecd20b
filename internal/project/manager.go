package project

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"sitenerd/internal/config"
)

// Manager creates and opens siteNERD projects.
type Manager struct{}

// NewManager returns a project Manager.
func NewManager() *Manager { return &Manager{} }

// Create scaffolds a new project directory under baseDir, writes the default
// configuration, and returns its Context. The directory name is derived from
// the project name (lowercased, spaces and underscores collapsed to hyphens).
func (m *Manager) Create(baseDir, name string) (Context, *config.Config, error) {
	if strings.TrimSpace(name) == "" {
		return Context{}, nil, fmt.Errorf("project name is required")
	}

	ctx, err := NewContext(joinFolder(baseDir, FolderName(name)))
	if err != nil {
		return Context{}, nil, err
	}

	for _, dir := range []string{
		ctx.MetaPath(),
		ctx.SnapshotsDir(),
		ctx.LogsDir(),
		ctx.ReportsDir(),
		ctx.ContentDir(),
		ctx.ImagesDir(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Context{}, nil, fmt.Errorf("create project directory %s: %w", dir, err)
		}
	}

	cfg := config.DefaultConfig(name)
	if err := cfg.Save(ctx.ConfigPath()); err != nil {
		return Context{}, nil, err
	}

	return ctx, cfg, nil
}

// Open loads an existing project rooted at dir.
func (m *Manager) Open(dir string) (Context, *config.Config, error) {
	ctx, err := NewContext(dir)
	if err != nil {
		return Context{}, nil, err
	}

	cfg, err := config.Load(ctx.ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return Context{}, nil, fmt.Errorf("no siteNERD project found in %s", dir)
		}
		return Context{}, nil, err
	}

	return ctx, cfg, nil
}

// FolderName sanitizes a project name into a filesystem folder name.
func FolderName(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	lowered = strings.ReplaceAll(lowered, " ", "-")
	lowered = strings.ReplaceAll(lowered, "_", "-")

	var b strings.Builder
	for _, r := range lowered {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	folder := strings.Trim(b.String(), "-")
	if folder == "" {
		folder = "site"
	}
	return folder
}

func joinFolder(base, folder string) string {
	if base == "" {
		return folder
	}
	return strings.TrimRight(base, "/") + "/" + folder
}
