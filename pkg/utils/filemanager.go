// =============================================================================
// Registro de Servicios - File Manager Utility
// =============================================================================
//
// This module provides the file utilities the upload and download paths
// rely on:
//   - Archival of uploaded spreadsheets under unique names
//   - Spreadsheet extension checks
//   - Directory management
//
// ARCHIVAL STRATEGY:
//   - Every uploaded file is written to the uploads directory under a
//     UUID-prefixed name, so repeated uploads of the same file name never
//     collide and nothing is ever overwritten.
//   - Archived uploads are kept indefinitely; CleanOldArchives implements
//     an age-based retention sweep for deployments that need one.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDir creates a directory if it does not exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// UPLOAD ARCHIVAL
// =============================================================================

// ArchiveName builds the archive file name for an upload: a fresh UUID,
// an underscore, and the sanitized original base name.
//
// EXAMPLE:
//   original: "data (mayo).xlsx"
//   output:   "a1b2c3d4-e5f6-7890-abcd-ef1234567890_data (mayo).xlsx"
func ArchiveName(original string) string {
	base := filepath.Base(strings.TrimSpace(original))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	return uuid.New().String() + "_" + base
}

// SaveUpload streams an uploaded file into the uploads directory under a
// UUID-prefixed name and returns the path it was written to.
func SaveUpload(r io.Reader, uploadsDir, originalName string) (string, error) {
	if err := EnsureDir(uploadsDir); err != nil {
		return "", err
	}

	path := filepath.Join(uploadsDir, ArchiveName(originalName))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write upload file: %w", err)
	}
	if err := f.Sync(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to sync upload file: %w", err)
	}

	return path, nil
}

// =============================================================================
// SPREADSHEET EXTENSIONS
// =============================================================================

// spreadsheetExts are the upload formats the ledger loader understands.
var spreadsheetExts = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// IsSpreadsheet reports whether a file name carries a supported
// spreadsheet extension.
func IsSpreadsheet(name string) bool {
	return spreadsheetExts[strings.ToLower(filepath.Ext(name))]
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// CleanOldArchives removes archived uploads older than the specified
// duration and returns the number of files removed.
func CleanOldArchives(archiveDir string, maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.Walk(archiveDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil {
				return err
			}
			removed++
		}

		return nil
	})

	if err != nil {
		return removed, fmt.Errorf("failed to clean archives: %w", err)
	}

	return removed, nil
}
