package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCreateAndRestoreSnapshotByteExact(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "content_store.json")
	snapsDir := filepath.Join(dir, "snapshots")

	cs := NewContentStore()
	cs.ReplaceProducts([]Product{{Slug: "desk-lamp", Title: "Desk Lamp", Price: 49.99}})
	if err := Save(storePath, cs); err != nil {
		t.Fatalf("save: %v", err)
	}
	before, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}

	snapPath, err := CreateSnapshot(storePath, snapsDir)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	cs.ReplaceProducts([]Product{{Slug: "mug-blue", Title: "Blue Mug", Price: 12}})
	if err := Save(storePath, cs); err != nil {
		t.Fatalf("save mutated: %v", err)
	}

	if err := RestoreSnapshot(snapPath, storePath); err != nil {
		t.Fatalf("restore: %v", err)
	}
	after, err := os.ReadFile(storePath)
	if err != nil {
		t.Fatalf("read restored store: %v", err)
	}
	if !bytes.Equal(before, after) {
		t.Fatal("restored store must be byte-identical to the snapshotted state")
	}
}

func TestCreateSnapshotWithoutStore(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "content_store.json")

	snapPath, err := CreateSnapshot(storePath, filepath.Join(dir, "snapshots"))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	cs, err := Load(snapPath)
	if err != nil {
		t.Fatalf("load snapshot: %v", err)
	}
	if len(cs.Products) != 0 || len(cs.Pages) != 0 {
		t.Fatal("snapshot of a missing store must be an empty store")
	}
	if _, err := os.Stat(storePath); !os.IsNotExist(err) {
		t.Fatal("snapshotting must not create the live store file")
	}
}

func TestPruneSnapshotsRetention(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "content_store.json")
	snapsDir := filepath.Join(dir, "snapshots")

	if err := Save(storePath, NewContentStore()); err != nil {
		t.Fatalf("save: %v", err)
	}

	var paths []string
	for i := 0; i < 4; i++ {
		p, err := CreateSnapshot(storePath, snapsDir)
		if err != nil {
			t.Fatalf("snapshot %d: %v", i, err)
		}
		paths = append(paths, p)
		time.Sleep(2 * time.Millisecond)
	}

	// Protect the oldest snapshot: pruning must skip it even though it
	// would otherwise be deleted first.
	if err := PruneSnapshots(snapsDir, 2, paths[0]); err != nil {
		t.Fatalf("prune: %v", err)
	}

	remaining := map[string]bool{}
	entries, err := os.ReadDir(snapsDir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		remaining[filepath.Join(snapsDir, e.Name())] = true
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 snapshots after prune, got %d", len(remaining))
	}
	if !remaining[paths[0]] {
		t.Fatal("protected snapshot must survive pruning")
	}
	if !remaining[paths[3]] {
		t.Fatal("newest snapshot must survive pruning")
	}
}

func TestPruneSnapshotsKeepAll(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "content_store.json")
	snapsDir := filepath.Join(dir, "snapshots")

	if err := Save(storePath, NewContentStore()); err != nil {
		t.Fatalf("save: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := CreateSnapshot(storePath, snapsDir); err != nil {
			t.Fatalf("snapshot: %v", err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	if err := PruneSnapshots(snapsDir, 0, ""); err != nil {
		t.Fatalf("prune: %v", err)
	}
	entries, err := os.ReadDir(snapsDir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("retention 0 must keep all snapshots, got %d", len(entries))
	}
}

func TestRestoreMissingSnapshot(t *testing.T) {
	dir := t.TempDir()
	if err := RestoreSnapshot(filepath.Join(dir, "nope.json"), filepath.Join(dir, "content_store.json")); err == nil {
		t.Fatal("expected error restoring a missing snapshot")
	}
}
