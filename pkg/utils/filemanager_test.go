package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArchiveName(t *testing.T) {
	name := ArchiveName("data.xlsx")
	if !strings.HasSuffix(name, "_data.xlsx") {
		t.Errorf("ArchiveName = %q, want *_data.xlsx", name)
	}
	// Path components in the original name are stripped.
	if got := ArchiveName("../../etc/passwd"); !strings.HasSuffix(got, "_passwd") {
		t.Errorf("ArchiveName with path = %q", got)
	}
	if got := ArchiveName(""); !strings.HasSuffix(got, "_upload") {
		t.Errorf("ArchiveName of empty name = %q", got)
	}
	// Two archives of the same name never collide.
	if ArchiveName("data.xlsx") == ArchiveName("data.xlsx") {
		t.Error("ArchiveName produced a duplicate")
	}
}

func TestSaveUpload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	path, err := SaveUpload(strings.NewReader("contenido"), dir, "data.xlsx")
	if err != nil {
		t.Fatalf("SaveUpload failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading saved upload: %v", err)
	}
	if string(data) != "contenido" {
		t.Errorf("saved content = %q", data)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("upload saved outside uploads dir: %s", path)
	}
}

func TestIsSpreadsheet(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"data.xlsx", true},
		{"DATA.XLSX", true},
		{"libro.xlsm", true},
		{"data.csv", true},
		{"data.pdf", false},
		{"data", false},
	}
	for _, tt := range tests {
		if got := IsSpreadsheet(tt.name); got != tt.want {
			t.Errorf("IsSpreadsheet(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f.txt")
	if FileExists(path) {
		t.Error("FileExists true for missing file")
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if !FileExists(path) {
		t.Error("FileExists false for existing file")
	}
}
