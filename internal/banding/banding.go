// =============================================================================
// Registro de Servicios - Color Banding Module
// =============================================================================
//
// This module paints the saved ledger spreadsheet so that consecutive rows
// belonging to the same visit share a background color. A visit is the pair
// (patient name, attention date); the palette advances cyclically on every
// transition between visit groups, which makes adjacent groups visually
// distinct even when the palette has only two colors.
//
// Banding is presentational. A failure to band never fails a save: callers
// log and keep the unbanded file.
//
// =============================================================================

package banding

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/avelasquezm/registro-servicios/internal/schema"
)

// Palette is an ordered list of ARGB fill colors.
type Palette []string

// Classic is the two-color palette of the shipped tool: green and blue.
var Classic = Palette{"FF92D050", "FF00B0F0"}

// Extended is a ten-color pastel palette for ledgers with many small visit
// groups, where two colors alternate too fast to help the eye.
var Extended = Palette{
	"FFFFC7CE", "FFC6EFCE", "FFFFEB9C", "FFBDD7EE", "FFE2B5F0",
	"FFF8CBAD", "FFD6DCE4", "FFB4E4DC", "FFFFF2CC", "FFD9EAD3",
}

// ForName maps a configuration palette name to its color list.
func ForName(name string) (Palette, error) {
	switch name {
	case "classic":
		return Classic, nil
	case "extended":
		return Extended, nil
	default:
		return nil, fmt.Errorf("unknown palette %q", name)
	}
}

// colorIndices assigns a palette slot to each row given its visit key. The
// slot advances on every key transition, the first row included, and wraps
// around the palette size.
func colorIndices(keys []string, size int) []int {
	out := make([]int, len(keys))
	slot := -1
	prev := ""
	for i, key := range keys {
		if i == 0 || key != prev {
			slot = (slot + 1) % size
			prev = key
		}
		out[i] = slot
	}
	return out
}

// Apply paints the data rows of the ledger sheet in place. It reports false
// without error when the sheet has no rows or its header lacks the patient
// or date column, which happens for tables loaded in lenient mode from
// files that never carried them.
func Apply(f *excelize.File, sheet string, palette Palette) (bool, error) {
	if len(palette) == 0 {
		return false, fmt.Errorf("empty palette")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return false, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return false, nil
	}

	patientIdx, dateIdx := -1, -1
	for i, raw := range rows[0] {
		switch schema.CleanHeader(raw) {
		case schema.ColPaciente:
			patientIdx = i
		case schema.ColFechaAtencion:
			dateIdx = i
		}
	}
	if patientIdx == -1 || dateIdx == -1 {
		return false, nil
	}

	cell := func(row []string, idx int) string {
		if idx < len(row) {
			return row[idx]
		}
		return ""
	}

	keys := make([]string, len(rows)-1)
	for i, row := range rows[1:] {
		keys[i] = cell(row, patientIdx) + "\x00" + cell(row, dateIdx)
	}

	// One style per palette slot; styles are deduplicated by excelize but
	// there is no reason to create one per row.
	styles := make([]int, len(palette))
	for i, color := range palette {
		styles[i], err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}},
		})
		if err != nil {
			return false, fmt.Errorf("failed to create fill style: %w", err)
		}
	}

	width := len(rows[0])
	if w := schema.NumColumns(); width < w {
		width = w
	}

	for i, slot := range colorIndices(keys, len(palette)) {
		rowNum := i + 2 // 1-based, after the header
		start, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return false, err
		}
		end, err := excelize.CoordinatesToCellName(width, rowNum)
		if err != nil {
			return false, err
		}
		if err := f.SetCellStyle(sheet, start, end, styles[slot]); err != nil {
			return false, fmt.Errorf("failed to style row %d: %w", rowNum, err)
		}
	}

	return true, nil
}
