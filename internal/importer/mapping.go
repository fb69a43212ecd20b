package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ImageMap records, per slug, how each applied row's images were resolved.
// It is written on apply so a user can audit the matching afterwards.
type ImageMap struct {
	RunID     string                `json:"run_id"`
	UpdatedAt time.Time             `json:"updated_at"`
	Entries   map[string]Resolution `json:"entries"`
}

// SaveImageMap writes the image map document.
func SaveImageMap(path string, m *ImageMap) error {
	m.UpdatedAt = time.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create mapping directory: %w", err)
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal image map: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write image map: %w", err)
	}
	return nil
}

// LoadImageMap reads the image map document. A missing file returns an empty
// map.
func LoadImageMap(path string) (*ImageMap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ImageMap{Entries: map[string]Resolution{}}, nil
		}
		return nil, fmt.Errorf("read image map: %w", err)
	}
	var m ImageMap
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse image map: %w", err)
	}
	if m.Entries == nil {
		m.Entries = map[string]Resolution{}
	}
	return &m, nil
}
