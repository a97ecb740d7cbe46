package catalog

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func testCatalog() *Catalog {
	return New([]Entry{
		{Code: "A00", Name: "Cholera"},
		{Code: "A01", Name: "Typhoid fever"},
		{Code: "B20", Name: "HIV disease"},
		{Code: "", Name: "Unlisted supply"},
	})
}

func TestFindByCode(t *testing.T) {
	c := testCatalog()

	e, ok := c.FindByCode("A00")
	if !ok {
		t.Fatal("FindByCode(A00) not found")
	}
	if e.Name != "Cholera" {
		t.Errorf("FindByCode(A00).Name = %q, want Cholera", e.Name)
	}

	if _, ok := c.FindByCode("Z99"); ok {
		t.Error("FindByCode(Z99) should not resolve")
	}
	// Codes are exact: case is significant.
	if _, ok := c.FindByCode("a00"); ok {
		t.Error("FindByCode(a00) should not resolve")
	}
}

func TestFindByName(t *testing.T) {
	c := testCatalog()

	e, ok := c.FindByName("  cholera ")
	if !ok {
		t.Fatal("FindByName(cholera) not found")
	}
	if e.Code != "A00" {
		t.Errorf("FindByName(cholera).Code = %q, want A00", e.Code)
	}

	if _, ok := c.FindByName("malaria"); ok {
		t.Error("FindByName(malaria) should not resolve")
	}
}

func TestSearch(t *testing.T) {
	c := testCatalog()

	got := c.Search("FeVeR", 50)
	want := []string{"Typhoid fever"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Search(FeVeR) = %v, want %v", got, want)
	}

	// Empty query matches everything; the limit caps the result.
	if got := c.Search("", 2); len(got) != 2 {
		t.Errorf("Search(\"\", 2) returned %d results, want 2", len(got))
	}
	if got := c.Search("", 0); len(got) != c.Len() {
		t.Errorf("unbounded search returned %d results, want %d", len(got), c.Len())
	}
	if got := c.Search("nothing matches this", 50); len(got) != 0 {
		t.Errorf("no-match search returned %v", got)
	}
}

func TestNewDedupes(t *testing.T) {
	c := New([]Entry{
		{Code: "X1", Name: "Alpha"},
		{Code: "X1", Name: "Beta"},   // duplicate code, kept as entry
		{Code: "X2", Name: "alpha"},  // duplicate name (ci), kept as entry
		{Code: "X3", Name: "   "},    // blank name, dropped
	})

	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3", c.Len())
	}
	if e, _ := c.FindByCode("X1"); e.Name != "Alpha" {
		t.Errorf("first entry should win on duplicate code, got %q", e.Name)
	}
	if e, _ := c.FindByName("ALPHA"); e.Code != "X1" {
		t.Errorf("first entry should win on duplicate name, got %q", e.Code)
	}
}

// writeMaestro writes a small maestro xlsx for the loader tests.
func writeMaestro(t *testing.T, path string, header []string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDiagnoses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro_diagnosticos.xlsx")
	writeMaestro(t, path,
		[]string{"CÓDIGO", "NOMBRE"},
		[][]string{
			{"A00", "COLERA"},
			{"J00", "RINOFARINGITIS AGUDA"},
			{"", ""},
		})

	c, err := LoadDiagnoses(path)
	if err != nil {
		t.Fatalf("LoadDiagnoses failed: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if e, ok := c.FindByCode("J00"); !ok || e.Name != "RINOFARINGITIS AGUDA" {
		t.Errorf("FindByCode(J00) = %+v, %v", e, ok)
	}
}

func TestLoadMedicationsConcatenatesPresentation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro_medicamentos.xlsx")
	writeMaestro(t, path,
		[]string{"CODIGO", "DESCRIPCIÓN", "PRESENTACION"},
		[][]string{
			{"M10", "PARACETAMOL", "TABLETA 500MG"},
			{"M11", "SUERO FISIOLOGICO", ""},
		})

	c, err := LoadMedications(path)
	if err != nil {
		t.Fatalf("LoadMedications failed: %v", err)
	}
	if e, ok := c.FindByName("paracetamol tableta 500mg"); !ok || e.Code != "M10" {
		t.Errorf("concatenated name lookup = %+v, %v", e, ok)
	}
	// No presentation: the display name is the bare description.
	if e, ok := c.FindByName("SUERO FISIOLOGICO"); !ok || e.Code != "M11" {
		t.Errorf("bare-description lookup = %+v, %v", e, ok)
	}
}

func TestLoadProceduresMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maestro_procedimientos.xlsx")
	writeMaestro(t, path,
		[]string{"DESCRIPCIÓN"},
		[][]string{{"CURACIÓN SIMPLE"}})

	if _, err := LoadProcedures(path); err == nil {
		t.Fatal("loading a maestro without a code column should fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadProcedures(filepath.Join(t.TempDir(), "absent.xlsx")); err == nil {
		t.Fatal("loading a missing maestro should fail")
	}
}
