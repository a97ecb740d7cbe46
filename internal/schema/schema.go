// =============================================================================
// Registro de Servicios - Column Schema Module
// =============================================================================
//
// This module owns the required-columns contract of the ledger spreadsheet
// and the normalization of incoming tables against it.
//
// Two generations of the column list exist in the field. They differ only
// in the spelling of two beneficiary columns and in stray whitespace or
// newlines embedded in the header cells. Rather than carrying several
// near-identical literals, this package keeps ONE canonical list (the
// newer generation's spellings, cleaned) and maps the older spellings to
// it as aliases.
//
// NORMALIZATION CONTRACT:
//   - Header cells are cleaned: trimmed, internal whitespace runs (including
//     newlines) collapsed to a single space.
//   - Older-generation spellings are rewritten to the canonical name.
//   - When two input columns clean to the same name, the first wins and the
//     duplicate is dropped.
//   - Strict mode fails with ErrMismatch when the cleaned, deduplicated
//     column count differs from the contract.
//   - Lenient mode always succeeds: missing columns are added empty,
//     unrecognized columns are discarded.
//   - Output column order is exactly the canonical order; every row is
//     padded to the full width.
//
// =============================================================================

package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMismatch is returned by Normalize in strict mode when the incoming
// table does not carry the expected number of columns.
var ErrMismatch = errors.New("schema mismatch")

// =============================================================================
// CANONICAL COLUMN LIST
// =============================================================================

// Column name constants for the fields the application reads or writes by
// name. The remaining columns are carried through untouched.
const (
	ColDependencia    = "CÓDIGO DEPENDENCIA (ESPECIALIDAD)"
	ColFechaAtencion  = "FECHA ANTENCION"
	ColCedula         = "CEDULA"
	ColPaciente       = "NOMBRE DE BENEFICIARIO"
	ColTipoServicio   = "TIPO DE SERVICIO/ATENCION"
	ColCodigo         = "CODIGO"
	ColDescripcion    = "DESCRIPCIÓN"
	ColObservaciones  = "OBSERVACIONES"
	ColDiagPrincipal  = "DIAGNOSTICO PRINCIPAL CIE-10"
	ColDiagPresuntivo = "DIAGNOSTICO PRESUNTIVO O DIFINITIVO"
	ColCantidad       = "CANTIDAD"
	ColFechaIngreso   = "FECHA DE INGRESO"
	ColFechaEgreso    = "FECHA DE EGRESO"
)

// canonical is the required-columns contract, in file order. It is the
// newer generation's list with header cells cleaned and the duplicate
// OBSERVACIONES column dropped. Spellings such as DIAGNSITICO and
// ANTENCION are faithful to the submitted file format and must not be
// corrected here.
var canonical = []string{
	ColDependencia,
	"PLANILLA",
	ColFechaAtencion,
	"TIPO DE BENEFICIARIO",
	ColCedula,
	ColPaciente,
	"SEXO-GENERO",
	"FECHA DE NACIMIENTO BENEFICIARIO",
	"EDAD BENEFICIARIO",
	ColTipoServicio,
	ColCodigo,
	ColDescripcion,
	ColObservaciones,
	ColDiagPrincipal,
	"DIAGNSITICO SECUNDARIO 1",
	"DIAGNSITICO SECUNDARIO 2",
	ColCantidad,
	"VALOR UNITARIO",
	"DURACION CONSULTA",
	"PARENTESCO",
	"IDENTIFICACION AFILIADO",
	"NOMBRE AFIALIADO",
	"CODIGO DE DERIVACION",
	"NUMERO SECUNCIAL DERIVACION",
	"CONTINGENCIA CUBIERTA",
	ColDiagPresuntivo,
	"TIEMPO ANESTESIA",
	"DIAGNSITICO SECUNDARIO 3",
	"DIAGNSITICO SECUNDARIO 4",
	"DIAGNSITICO SECUNDARIO 5",
	"PORCENTAJE IVA",
	"VALOR IVA",
	"VALOR TOTAL",
	"GASTOS DE GESTIÓN (VALOR UNITARIO) / MODIFICADORES NO GEOGRÁFICOS (VALOR UNITARIO)",
	ColFechaIngreso,
	ColFechaEgreso,
	"MOTIVO DE EGRESO",
	"COBERTURA COMPARTIDA",
	"TIPO DE COBERTURA",
	"DISCAPACIDAD CERTIFICADA",
	"TIPO DE PRESTACIÓN",
	"TIPO DE MÉDICO",
	"FECHA AUTORIZADA PARA INICIO DE ATENCIÓN",
	"MARCA FINAL (SIEMPRE F)",
}

// aliases maps older-generation spellings to the canonical names.
var aliases = map[string]string{
	"FECHA DE NACIMIENTO BENEFICIERO": "FECHA DE NACIMIENTO BENEFICIARIO",
	"EDAD BENEFICIERO":                "EDAD BENEFICIARIO",
}

// columnIndex maps canonical name -> position, built once at init.
var columnIndex = func() map[string]int {
	idx := make(map[string]int, len(canonical))
	for i, name := range canonical {
		idx[name] = i
	}
	return idx
}()

// Columns returns a copy of the canonical ordered column list.
func Columns() []string {
	out := make([]string, len(canonical))
	copy(out, canonical)
	return out
}

// NumColumns returns the width of the canonical schema.
func NumColumns() int {
	return len(canonical)
}

// Index returns the canonical position of a column name, or -1 when the
// name is not part of the contract.
func Index(name string) int {
	if i, ok := columnIndex[name]; ok {
		return i
	}
	return -1
}

// =============================================================================
// NORMALIZATION MODE
// =============================================================================

// Mode selects the normalization policy. The two generations of the tool
// disagreed on it, so the choice is explicit configuration rather than a
// silent default.
type Mode int

const (
	// Strict fails when the incoming column count does not match the
	// contract. This mirrors the behavior of the served generation, which
	// refused files it could not account for column-by-column.
	Strict Mode = iota

	// Lenient always succeeds, padding missing columns with empty strings
	// and discarding unrecognized ones.
	Lenient
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict":
		return Strict, nil
	case "lenient":
		return Lenient, nil
	default:
		return Strict, fmt.Errorf("unknown schema mode %q", s)
	}
}

// =============================================================================
// TABLE TYPE
// =============================================================================

// Table is a raw header-plus-rows tabular payload, as decoded from an xlsx
// sheet or a CSV file, before or after normalization.
type Table struct {
	Header []string
	Rows   [][]string
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// CleanHeader cleans a single header cell: trims surrounding whitespace,
// collapses internal whitespace runs (including the newlines the source
// files embed in several headers) to one space, and rewrites known
// older-generation spellings to the canonical name.
func CleanHeader(name string) string {
	cleaned := strings.Join(strings.Fields(name), " ")
	if alias, ok := aliases[cleaned]; ok {
		return alias
	}
	return cleaned
}

// Normalize enforces the required-columns contract on a raw table.
//
// The returned table has exactly the canonical columns in canonical order,
// with every row padded to the full width. In Strict mode an incoming
// table whose cleaned, deduplicated column count differs from the contract
// fails with an error wrapping ErrMismatch.
func Normalize(t Table, mode Mode) (Table, error) {
	// Clean headers and drop duplicates, keeping the first occurrence.
	// source[i] is the input column index feeding canonical column i, or
	// -1 when the input has no such column.
	seen := make(map[string]bool, len(t.Header))
	source := make([]int, len(canonical))
	for i := range source {
		source[i] = -1
	}

	kept := 0
	for col, raw := range t.Header {
		name := CleanHeader(raw)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		kept++
		if idx, ok := columnIndex[name]; ok && source[idx] == -1 {
			source[idx] = col
		}
	}

	if mode == Strict && kept != len(canonical) {
		return Table{}, fmt.Errorf("%w: expected %d columns, got %d", ErrMismatch, len(canonical), kept)
	}

	out := Table{Header: Columns(), Rows: make([][]string, len(t.Rows))}
	for r, row := range t.Rows {
		rec := make([]string, len(canonical))
		for i, src := range source {
			if src >= 0 && src < len(row) {
				rec[i] = row[src]
			}
		}
		out.Rows[r] = rec
	}

	return out, nil
}
