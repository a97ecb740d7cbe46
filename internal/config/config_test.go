package config

import (
	"os"
	"path/filepath"
	"testing"
)

// chdir changes into dir for the duration of the test, restoring the
// previous working directory on cleanup. It mirrors testing.T.Chdir,
// which is unavailable before Go 1.24.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	if err != nil {
		t.Fatalf("Load with missing file failed: %v", err)
	}
	if cfg.ListenAddr != ":8000" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr)
	}
	if cfg.DataFile != "./data.xlsx" {
		t.Errorf("DataFile = %q", cfg.DataFile)
	}
	if cfg.SchemaMode != "strict" || cfg.Palette != "classic" {
		t.Errorf("policy defaults = %q, %q", cfg.SchemaMode, cfg.Palette)
	}
	if cfg.SearchLimit != 50 {
		t.Errorf("SearchLimit = %d", cfg.SearchLimit)
	}
	if cfg.RequireExistingPatient {
		t.Error("RequireExistingPatient should default to false")
	}
	// validate creates the uploads directory.
	if _, err := os.Stat(cfg.UploadsDir); err != nil {
		t.Errorf("uploads dir not created: %v", err)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "registro.yaml")
	yaml := `
listen_addr: ":9100"
schema_mode: lenient
maestros:
  diagnoses: ./cie10.xlsx
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("REGISTRO_LISTEN_ADDR", ":9200")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Environment beats the file, the file beats the defaults.
	if cfg.ListenAddr != ":9200" {
		t.Errorf("ListenAddr = %q, want :9200", cfg.ListenAddr)
	}
	if cfg.SchemaMode != "lenient" {
		t.Errorf("SchemaMode = %q", cfg.SchemaMode)
	}
	if cfg.Maestros.Diagnoses != "./cie10.xlsx" {
		t.Errorf("Maestros.Diagnoses = %q", cfg.Maestros.Diagnoses)
	}
	if cfg.Maestros.Procedures != "./maestro_procedimientos.xlsx" {
		t.Errorf("Maestros.Procedures = %q", cfg.Maestros.Procedures)
	}
}

func TestLoadRejectsBadEnums(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := filepath.Join(dir, "registro.yaml")
	if err := os.WriteFile(path, []byte("schema_mode: fuzzy\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject an unknown schema_mode")
	}

	if err := os.WriteFile(path, []byte("palette: neon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load should reject an unknown palette")
	}
}
