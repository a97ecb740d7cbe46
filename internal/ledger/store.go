// =============================================================================
// Registro de Servicios - Ledger Store Module
// =============================================================================
//
// The Store holds the in-memory ledger table and mirrors it to the data
// spreadsheet. The file is the durable anchor of the system: every mutating
// operation rewrites it in full and reapplies the color banding, so the
// file on disk always reflects the served state.
//
// All public methods are serialized by a single mutex. The table is small
// (one clinic's ledger, thousands of rows at most) and full-rewrite
// persistence already costs more than any locking scheme saves.
//
// =============================================================================

package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/avelasquezm/registro-servicios/internal/banding"
	"github.com/avelasquezm/registro-servicios/internal/schema"
)

// sheetName is the sheet the ledger lives on in files this process writes.
// Files produced elsewhere are read through their first sheet, whatever its
// name.
const sheetName = "Sheet1"

// Store is the mutex-serialized ledger table mirrored to a spreadsheet.
type Store struct {
	mu      sync.Mutex
	path    string
	mode    schema.Mode
	palette banding.Palette
	log     zerolog.Logger
	rows    []Row
}

// NewStore creates a store anchored at path. Call Load before serving.
func NewStore(path string, mode schema.Mode, palette banding.Palette, log zerolog.Logger) *Store {
	return &Store{
		path:    path,
		mode:    mode,
		palette: palette,
		log:     log.With().Str("component", "ledger").Logger(),
	}
}

// Path returns the data file the store mirrors to.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Load reads the data file into memory. A missing file is not an error:
// the store starts empty and the file appears on the first save.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		s.log.Info().Str("file", s.path).Msg("Data file absent, starting with an empty ledger")
		s.rows = nil
		return nil
	}

	rows, err := s.readFile(s.path)
	if err != nil {
		return err
	}
	s.rows = rows
	s.log.Info().Str("file", s.path).Int("rows", len(rows)).Msg("Loaded ledger")
	return nil
}

// ReplaceFromFile parses an uploaded spreadsheet, normalizes it against the
// column contract, replaces the in-memory table, and persists to the data
// file. On any error the previous table stays in place.
func (s *Store) ReplaceFromFile(path string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.readFile(path)
	if err != nil {
		return 0, err
	}
	s.rows = rows
	if err := s.persistLocked(); err != nil {
		return 0, err
	}
	s.log.Info().Str("source", path).Int("rows", len(rows)).Msg("Replaced ledger from upload")
	return len(rows), nil
}

// readFile decodes path (xlsx or csv, by extension) and normalizes the
// table against the column contract under the configured mode.
func (s *Store) readFile(path string) ([]Row, error) {
	var (
		table schema.Table
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		table, err = readCSV(path)
	} else {
		table, err = readXLSX(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	normalized, err := schema.Normalize(table, s.mode)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize %s: %w", path, err)
	}

	rows := make([]Row, len(normalized.Rows))
	for i, rec := range normalized.Rows {
		rows[i] = RowFromRecord(rec)
	}
	return rows, nil
}

// readXLSX returns the first sheet of an xlsx file as a raw table.
func readXLSX(path string) (schema.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return schema.Table{}, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return schema.Table{}, fmt.Errorf("workbook has no sheets")
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return schema.Table{}, err
	}
	if len(raw) == 0 {
		return schema.Table{}, nil
	}
	return schema.Table{Header: raw[0], Rows: raw[1:]}, nil
}

// readCSV returns a csv file as a raw table. Ragged rows are tolerated,
// normalization pads them.
func readCSV(path string) (schema.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return schema.Table{}, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err == io.EOF {
		return schema.Table{}, nil
	}
	if err != nil {
		return schema.Table{}, err
	}

	var rows [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return schema.Table{}, err
		}
		rows = append(rows, rec)
	}
	return schema.Table{Header: header, Rows: rows}, nil
}

// Rows returns a snapshot copy of the table.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}

// Len returns the current row count.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

// PatientNames returns the sorted, deduplicated patient names currently in
// the ledger. Deduplication is case-insensitive on the trimmed name; the
// first spelling seen wins.
func (s *Store) PatientNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var names []string
	for _, row := range s.rows {
		name := strings.TrimSpace(row.NombreBeneficiario)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SearchPatients returns patient names containing the query,
// case-insensitively, capped at limit. A limit of 0 or less is unbounded.
func (s *Store) SearchPatients(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []string{}
	for _, name := range s.PatientNames() {
		if q != "" && !strings.Contains(strings.ToLower(name), q) {
			continue
		}
		results = append(results, name)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Remove deletes the rows at the given 0-based positions, interpreted
// against the current ordering, and persists. Out-of-range and duplicate
// positions are ignored. It returns the number of rows removed.
func (s *Store) Remove(positions []int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p >= 0 && p < len(s.rows) {
			drop[p] = true
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}

	kept := make([]Row, 0, len(s.rows)-len(drop))
	for i, row := range s.rows {
		if !drop[i] {
			kept = append(kept, row)
		}
	}

	prev := s.rows
	s.rows = kept
	if err := s.persistLocked(); err != nil {
		s.rows = prev
		return 0, err
	}
	s.log.Info().Int("removed", len(drop)).Int("rows", len(kept)).Msg("Removed ledger rows")
	return len(drop), nil
}

// Persist rewrites the data file from the in-memory table.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked()
}

// persistLocked writes header plus rows to the data file and reapplies the
// color banding. The caller holds the mutex. A banding failure is logged
// and the unbanded file is kept.
func (s *Store) persistLocked() error {
	f := excelize.NewFile()
	defer f.Close()

	if f.GetSheetName(0) != sheetName {
		f.SetSheetName(f.GetSheetName(0), sheetName)
	}

	header := schema.Columns()
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		rec := row.Record()
		if err := f.SetSheetRow(sheetName, cell, &rec); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	applied, err := banding.Apply(f, sheetName, s.palette)
	if err != nil {
		s.log.Warn().Err(err).Msg("Color banding failed, saving unbanded")
	} else if !applied && len(s.rows) > 0 {
		s.log.Debug().Msg("Color banding skipped")
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("failed to save %s: %w", s.path, err)
	}
	return nil
}
