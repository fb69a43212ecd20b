package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// snapshotPrefix keeps snapshot files sortable by creation time.
const snapshotPrefix = "content_store_"

// CreateSnapshot copies the store file at storePath into snapshotsDir and
// returns the snapshot path. If no store file exists yet an empty store
// document is snapshotted (without creating the live store file), so the
// very first import is still undoable back to nothing.
func CreateSnapshot(storePath, snapshotsDir string) (string, error) {
	if err := os.MkdirAll(snapshotsDir, 0755); err != nil {
		return "", fmt.Errorf("create snapshots directory: %w", err)
	}

	data, err := os.ReadFile(storePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read content store for snapshot: %w", err)
		}
		// First import: snapshot an empty store document. The live store
		// file stays absent until an apply actually writes it.
		if data, err = json.MarshalIndent(NewContentStore(), "", "  "); err != nil {
			return "", fmt.Errorf("marshal empty store for snapshot: %w", err)
		}
	}

	name := fmt.Sprintf("%s%s.json", snapshotPrefix, time.Now().UTC().Format("20060102T150405.000000000Z"))
	path := filepath.Join(snapshotsDir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}

// RestoreSnapshot replaces the store file with the snapshot's bytes. The
// restore is byte-exact: the store after undo is identical to the store
// before the apply that created the snapshot.
func RestoreSnapshot(snapshotPath, storePath string) error {
	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	dir := filepath.Dir(storePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".restore-*.json")
	if err != nil {
		return fmt.Errorf("create temp restore file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp restore file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp restore file: %w", err)
	}
	if err := os.Rename(tmpName, storePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace content store: %w", err)
	}
	return nil
}

// PruneSnapshots deletes the oldest snapshots so at most retain remain.
// retain <= 0 keeps everything. The snapshot at protectedPath is never
// deleted regardless of age, since it backs the undo of the last import.
func PruneSnapshots(snapshotsDir string, retain int, protectedPath string) error {
	if retain <= 0 {
		return nil
	}

	entries, err := os.ReadDir(snapshotsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read snapshots directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if filepath.Ext(e.Name()) == ".json" && len(e.Name()) > len(snapshotPrefix) && e.Name()[:len(snapshotPrefix)] == snapshotPrefix {
			names = append(names, e.Name())
		}
	}
	if len(names) <= retain {
		return nil
	}
	sort.Strings(names) // timestamped names, oldest first

	protected := filepath.Clean(protectedPath)
	excess := len(names) - retain
	for _, name := range names {
		if excess == 0 {
			break
		}
		path := filepath.Join(snapshotsDir, name)
		if filepath.Clean(path) == protected {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("prune snapshot %s: %w", name, err)
		}
		excess--
	}
	return nil
}
