// Package project manages siteNERD project directories: layout, configuration,
// and the inferred site plan. All paths are resolved once into a Context that
// is passed explicitly to every component; nothing reads ambient global state.
package project

import "path/filepath"

// MetaDir is the project metadata directory name.
const MetaDir = "_sitenerd"

// Context holds the resolved paths for a single project. Build it once with
// NewContext and hand it to whichever component needs disk access.
type Context struct {
	// Root is the absolute project directory.
	Root string
}

// NewContext resolves a project root into a Context.
func NewContext(root string) (Context, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Context{}, err
	}
	return Context{Root: abs}, nil
}

// MetaPath returns the _sitenerd metadata directory.
func (c Context) MetaPath() string { return filepath.Join(c.Root, MetaDir) }

// ConfigPath returns the project configuration file path.
func (c Context) ConfigPath() string { return filepath.Join(c.MetaPath(), "project.yaml") }

// PlanPath returns the site plan document path.
func (c Context) PlanPath() string { return filepath.Join(c.MetaPath(), "plan.json") }

// ContentStorePath returns the Content Store document path.
func (c Context) ContentStorePath() string { return filepath.Join(c.MetaPath(), "content_store.json") }

// SnapshotsDir returns the Content Store snapshot directory.
func (c Context) SnapshotsDir() string { return filepath.Join(c.MetaPath(), "snapshots") }

// MappingPath returns the image mapping side file path.
func (c Context) MappingPath() string { return filepath.Join(c.MetaPath(), "mapping", "image_map.json") }

// IssuesCSVPath returns the dry-run issues export path.
func (c Context) IssuesCSVPath() string { return filepath.Join(c.MetaPath(), "issues.csv") }

// LogsDir returns the JSONL log directory.
func (c Context) LogsDir() string { return filepath.Join(c.MetaPath(), "logs") }

// ImportLogPath returns the append-only import log path.
func (c Context) ImportLogPath() string { return filepath.Join(c.LogsDir(), "import.log") }

// ActivityLogPath returns the append-only activity log path.
func (c Context) ActivityLogPath() string { return filepath.Join(c.LogsDir(), "activity.log") }

// TelemetryLogPath returns the append-only telemetry event log path.
func (c Context) TelemetryLogPath() string { return filepath.Join(c.LogsDir(), "telemetry.log") }

// ReportsDir returns the error report directory.
func (c Context) ReportsDir() string { return filepath.Join(c.MetaPath(), "reports") }

// ContentDir returns the user content directory.
func (c Context) ContentDir() string { return filepath.Join(c.Root, "content") }

// ImagesDir returns the image directory scanned by the Image Resolver.
func (c Context) ImagesDir() string { return filepath.Join(c.ContentDir(), "images") }

// OutputDir returns the generation output root for the given configured dir.
func (c Context) OutputDir(configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(c.Root, configured)
}
