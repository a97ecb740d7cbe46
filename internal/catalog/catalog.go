// =============================================================================
// Registro de Servicios - Reference Catalog Module
// =============================================================================
//
// This module loads the three read-only maestro spreadsheets (procedures,
// medications, diagnoses) and answers the lookups the insertion engine and
// the search endpoints need:
//
//   - exact lookup by code
//   - exact, case-insensitive lookup by display name
//   - substring, case-insensitive search over display names
//
// Catalogs are immutable for the process lifetime: they are indexed once at
// load and never require synchronization afterwards.
//
// MAESTRO LAYOUTS:
//   procedures : DESCRIPCIÓN + CÓDIGO (some files spell it CODIGO)
//   medications: DESCRIPCIÓN + PRESENTACION + CÓDIGO; the display name is
//                the concatenation "DESCRIPCIÓN PRESENTACION", which is what
//                the front end shows and sends back
//   diagnoses  : NOMBRE + CÓDIGO
//
// =============================================================================

package catalog

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/avelasquezm/registro-servicios/internal/schema"
)

// Entry is one catalog record.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Catalog is an immutable, indexed reference table.
type Catalog struct {
	entries []Entry
	byCode  map[string]int
	byName  map[string]int
}

// New builds a catalog from a fixed entry list. Entries with an empty name
// are dropped; on duplicate codes or names the first entry wins.
func New(entries []Entry) *Catalog {
	c := &Catalog{
		byCode: make(map[string]int, len(entries)),
		byName: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		e.Code = strings.TrimSpace(e.Code)
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		idx := len(c.entries)
		c.entries = append(c.entries, e)
		if e.Code != "" {
			if _, dup := c.byCode[e.Code]; !dup {
				c.byCode[e.Code] = idx
			}
		}
		key := strings.ToLower(e.Name)
		if _, dup := c.byName[key]; !dup {
			c.byName[key] = idx
		}
	}
	return c
}

// FindByCode returns the entry with the exact given code.
func (c *Catalog) FindByCode(code string) (Entry, bool) {
	idx, ok := c.byCode[strings.TrimSpace(code)]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// FindByName returns the entry whose display name matches exactly,
// case-insensitively, after trimming.
func (c *Catalog) FindByName(name string) (Entry, bool) {
	idx, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Entry{}, false
	}
	return c.entries[idx], true
}

// Search returns the display names containing the query, case-insensitively,
// in catalog order, capped at limit. A limit of 0 or less means unbounded.
func (c *Catalog) Search(query string, limit int) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	results := []string{}
	for _, e := range c.entries {
		if q != "" && !strings.Contains(strings.ToLower(e.Name), q) {
			continue
		}
		results = append(results, e.Name)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results
}

// Entries returns the full catalog dump. The backing slice is shared: the
// catalog is immutable, so callers may cache the result for the process
// lifetime (the full-dump endpoints do).
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// =============================================================================
// MAESTRO LOADING
// =============================================================================

// LoadProcedures loads the procedures maestro: DESCRIPCIÓN is the display
// name, CÓDIGO (or CODIGO) the code.
func LoadProcedures(path string) (*Catalog, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load procedures maestro: %w", err)
	}
	return buildCatalog(rows, "DESCRIPCIÓN", "", path)
}

// LoadMedications loads the medications maestro. The display name is the
// concatenation of DESCRIPCIÓN and PRESENTACION, matching what the front
// end shows in its pickers and sends back on add-entry requests.
func LoadMedications(path string) (*Catalog, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load medications maestro: %w", err)
	}
	return buildCatalog(rows, "DESCRIPCIÓN", "PRESENTACION", path)
}

// LoadDiagnoses loads the diagnoses maestro: NOMBRE is the display name,
// CÓDIGO the CIE-10 code.
func LoadDiagnoses(path string) (*Catalog, error) {
	rows, err := readSheet(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnoses maestro: %w", err)
	}
	return buildCatalog(rows, "NOMBRE", "", path)
}

// readSheet returns all rows of the first sheet of an xlsx file.
func readSheet(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", path, err)
	}
	return rows, nil
}

// buildCatalog assembles a catalog from raw maestro rows. nameCol is the
// display-name column; extraCol, when present in the header, is appended to
// the name with a single space (the medications presentation column).
func buildCatalog(rows [][]string, nameCol, extraCol, path string) (*Catalog, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	nameIdx, codeIdx, extraIdx := -1, -1, -1
	for i, raw := range rows[0] {
		switch schema.CleanHeader(raw) {
		case nameCol:
			nameIdx = i
		case "CÓDIGO", "CODIGO":
			if codeIdx == -1 {
				codeIdx = i
			}
		case extraCol:
			if extraCol != "" {
				extraIdx = i
			}
		}
	}
	if nameIdx == -1 {
		return nil, fmt.Errorf("%s is missing the %s column", path, nameCol)
	}
	if codeIdx == -1 {
		return nil, fmt.Errorf("%s is missing the CÓDIGO column", path)
	}

	cell := func(row []string, idx int) string {
		if idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		name := cell(row, nameIdx)
		if name == "" {
			continue
		}
		if extra := cell(row, extraIdx); extra != "" {
			name = name + " " + extra
		}
		entries = append(entries, Entry{Code: cell(row, codeIdx), Name: name})
	}

	return New(entries), nil
}
