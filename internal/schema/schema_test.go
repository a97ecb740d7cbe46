package schema

import (
	"errors"
	"reflect"
	"testing"
)

func TestCleanHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"CÓDIGO DEPENDENCIA\n(ESPECIALIDAD)\n", "CÓDIGO DEPENDENCIA (ESPECIALIDAD)"},
		{"  OBSERVACIONES\n", "OBSERVACIONES"},
		{"PLANILLA", "PLANILLA"},
		{"EDAD BENEFICIERO", "EDAD BENEFICIARIO"},
		{"FECHA DE NACIMIENTO BENEFICIERO", "FECHA DE NACIMIENTO BENEFICIARIO"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanHeader(tt.in); got != tt.want {
			t.Errorf("CleanHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestColumnsContract(t *testing.T) {
	cols := Columns()
	if len(cols) != NumColumns() {
		t.Fatalf("Columns() length = %d, NumColumns() = %d", len(cols), NumColumns())
	}

	// No duplicates, and Index agrees with position.
	seen := make(map[string]bool)
	for i, name := range cols {
		if seen[name] {
			t.Errorf("duplicate canonical column %q", name)
		}
		seen[name] = true
		if Index(name) != i {
			t.Errorf("Index(%q) = %d, want %d", name, Index(name), i)
		}
	}

	if cols[0] != ColDependencia {
		t.Errorf("first column = %q, want %q", cols[0], ColDependencia)
	}
	if cols[len(cols)-1] != "MARCA FINAL (SIEMPRE F)" {
		t.Errorf("last column = %q, want MARCA FINAL (SIEMPRE F)", cols[len(cols)-1])
	}
	if Index("NO SUCH COLUMN") != -1 {
		t.Errorf("Index of unknown column should be -1")
	}
}

func TestNormalizeLenientMissingColumn(t *testing.T) {
	// A table with only three recognized columns: the missing ones must be
	// added empty, in canonical order, for every row.
	in := Table{
		Header: []string{ColPaciente, ColCodigo, ColCantidad},
		Rows: [][]string{
			{"ANA LI", "P001", "2"},
			{"JUAN PEREZ", "P002", "1"},
		},
	}

	out, err := Normalize(in, Lenient)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}

	if !reflect.DeepEqual(out.Header, Columns()) {
		t.Fatalf("output header does not match canonical column order")
	}
	if len(out.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(out.Rows))
	}
	for _, row := range out.Rows {
		if len(row) != NumColumns() {
			t.Fatalf("row width = %d, want %d", len(row), NumColumns())
		}
	}
	if out.Rows[0][Index(ColPaciente)] != "ANA LI" {
		t.Errorf("patient cell = %q, want ANA LI", out.Rows[0][Index(ColPaciente)])
	}
	if out.Rows[1][Index(ColCodigo)] != "P002" {
		t.Errorf("code cell = %q, want P002", out.Rows[1][Index(ColCodigo)])
	}
	if out.Rows[0][Index("PLANILLA")] != "" {
		t.Errorf("missing column should be empty, got %q", out.Rows[0][Index("PLANILLA")])
	}
}

func TestNormalizeColumnOrderPermutations(t *testing.T) {
	// Whatever the input column order, the output order is canonical and
	// the values land under the right names.
	permutations := [][]string{
		{ColCodigo, ColPaciente, ColFechaAtencion},
		{ColFechaAtencion, ColCodigo, ColPaciente},
		{ColPaciente, ColFechaAtencion, ColCodigo},
	}
	values := map[string]string{
		ColCodigo:        "M123",
		ColPaciente:      "ANA LI",
		ColFechaAtencion: "2024-05-01",
	}

	for _, header := range permutations {
		row := make([]string, len(header))
		for i, name := range header {
			row[i] = values[name]
		}
		out, err := Normalize(Table{Header: header, Rows: [][]string{row}}, Lenient)
		if err != nil {
			t.Fatalf("Normalize(%v) returned error: %v", header, err)
		}
		for name, want := range values {
			if got := out.Rows[0][Index(name)]; got != want {
				t.Errorf("header %v: column %q = %q, want %q", header, name, got, want)
			}
		}
	}
}

func TestNormalizeDropsDuplicateColumns(t *testing.T) {
	// Both OBSERVACIONES spellings clean to the same name; the first wins.
	in := Table{
		Header: []string{ColPaciente, "OBSERVACIONES", "OBSERVACIONES\n"},
		Rows:   [][]string{{"ANA LI", "first", "second"}},
	}
	out, err := Normalize(in, Lenient)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got := out.Rows[0][Index(ColObservaciones)]; got != "first" {
		t.Errorf("duplicate column resolution kept %q, want \"first\"", got)
	}
}

func TestNormalizeAliasedHeaders(t *testing.T) {
	in := Table{
		Header: []string{ColPaciente, "EDAD BENEFICIERO"},
		Rows:   [][]string{{"ANA LI", "34"}},
	}
	out, err := Normalize(in, Lenient)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	if got := out.Rows[0][Index("EDAD BENEFICIARIO")]; got != "34" {
		t.Errorf("aliased column value = %q, want 34", got)
	}
}

func TestNormalizeStrictMismatch(t *testing.T) {
	in := Table{
		Header: []string{ColPaciente, ColCodigo},
		Rows:   [][]string{{"ANA LI", "P001"}},
	}
	_, err := Normalize(in, Strict)
	if err == nil {
		t.Fatal("strict Normalize of a 2-column table should fail")
	}
	if !errors.Is(err, ErrMismatch) {
		t.Errorf("error = %v, want ErrMismatch", err)
	}
}

func TestNormalizeStrictFullWidth(t *testing.T) {
	// A file with exactly the contract's columns (one of them in the older
	// spelling, one duplicated) passes strict mode after cleaning.
	header := Columns()
	for i, name := range header {
		if name == "EDAD BENEFICIARIO" {
			header[i] = "EDAD BENEFICIERO"
		}
	}
	// Simulate the raw file's duplicated trailing OBSERVACIONES column.
	header = append(header, "OBSERVACIONES\n")

	row := make([]string, len(header))
	row[Index(ColPaciente)] = "ANA LI"

	out, err := Normalize(Table{Header: header, Rows: [][]string{row}}, Strict)
	if err != nil {
		t.Fatalf("strict Normalize of a contract-shaped table failed: %v", err)
	}
	if got := out.Rows[0][Index(ColPaciente)]; got != "ANA LI" {
		t.Errorf("patient cell = %q, want ANA LI", got)
	}
}

func TestNormalizeRoundTrip(t *testing.T) {
	// Normalizing an already-normalized table changes nothing.
	in := Table{
		Header: []string{ColPaciente, ColDescripcion},
		Rows:   [][]string{{"ANA LI", "CURACIÓN"}},
	}
	first, err := Normalize(in, Lenient)
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}
	second, err := Normalize(first, Strict)
	if err != nil {
		t.Fatalf("second (strict) Normalize failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("normalization is not idempotent")
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("strict"); err != nil || m != Strict {
		t.Errorf("ParseMode(strict) = %v, %v", m, err)
	}
	if m, err := ParseMode(" Lenient "); err != nil || m != Lenient {
		t.Errorf("ParseMode(Lenient) = %v, %v", m, err)
	}
	if _, err := ParseMode("fuzzy"); err == nil {
		t.Error("ParseMode(fuzzy) should fail")
	}
}
