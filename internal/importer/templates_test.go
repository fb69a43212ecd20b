package importer

import (
	"path/filepath"
	"testing"

	"sitenerd/internal/spreadsheet"
)

func TestWriteTemplateMatchesRequiredColumns(t *testing.T) {
	for _, c := range []Collection{CollectionProducts, CollectionPages} {
		path := filepath.Join(t.TempDir(), string(c)+"_template.xlsx")
		if err := WriteTemplate(c, path); err != nil {
			t.Fatalf("write %s template: %v", c, err)
		}
		f, err := spreadsheet.Read(path)
		if err != nil {
			t.Fatalf("read %s template: %v", c, err)
		}
		if missing := f.MissingColumns(c.RequiredColumns()); missing != nil {
			t.Fatalf("%s template missing its own required columns: %v", c, missing)
		}
	}
}

func TestWriteTemplateUnknownCollection(t *testing.T) {
	if err := WriteTemplate(Collection("widgets"), filepath.Join(t.TempDir(), "w.xlsx")); err == nil {
		t.Fatal("expected error for unknown collection")
	}
}
