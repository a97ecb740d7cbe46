// =============================================================================
// Registro de Servicios - Row Insertion Engine
// =============================================================================
//
// AddEntry turns one visit entry (patient context plus procedure,
// medication, and supply items) into ledger rows and splices them in
// directly after the patient's last existing row, so a patient's history
// stays contiguous in the file the clerk reads.
//
// ITEM POLICY (skip-and-report): an item that fails catalog resolution is
// skipped and reported by name; the remaining items still go in. Only when
// nothing at all is insertable does the call fail, and then the ledger is
// untouched.
//
// =============================================================================

package ledger

import (
	"strings"

	"github.com/avelasquezm/registro-servicios/internal/catalog"
)

// defaultServiceType fills TIPO DE SERVICIO/ATENCION when neither the
// patient's prior rows nor the request supply one.
const defaultServiceType = "EMERGENCIA"

// Item is one requested procedure, medication, or supply line.
type Item struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Quantity string `json:"quantity"`
}

// Entry is one visit's worth of additions.
type Entry struct {
	Paciente        string
	Observaciones   string
	DiagnosticoName string
	DiagnosticoCode string
	Procedimientos  []Item
	Medicamentos    []Item
	Insumos         []Item
}

// Catalogs bundles the reference catalogs the engine resolves against.
type Catalogs struct {
	Procedures  *catalog.Catalog
	Medications *catalog.Catalog
	Diagnoses   *catalog.Catalog
}

// AddOptions carries the configurable insertion policies.
type AddOptions struct {
	// RequireExistingPatient rejects entries for patients with no prior
	// ledger rows instead of appending them at the end.
	RequireExistingPatient bool
}

// AddResult reports what an AddEntry call did.
type AddResult struct {
	// Inserted is the number of rows spliced into the ledger.
	Inserted int `json:"inserted"`

	// Skipped lists the display names of items that failed catalog
	// resolution and were left out.
	Skipped []string `json:"skipped"`
}

// AddEntry resolves, builds, and splices the rows for one visit entry,
// then persists. On error the ledger is unchanged.
func (s *Store) AddEntry(e Entry, cats Catalogs, opts AddOptions) (AddResult, error) {
	patient := strings.TrimSpace(e.Paciente)
	if patient == "" {
		return AddResult{}, ErrPatientNotFound
	}

	diagCode, err := resolveDiagnosis(e, cats.Diagnoses)
	if err != nil {
		return AddResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Last row of the patient, matched case-insensitively on the trimmed
	// name. New rows go directly after it.
	lastIdx := -1
	key := strings.ToLower(patient)
	for i, row := range s.rows {
		if strings.ToLower(strings.TrimSpace(row.NombreBeneficiario)) == key {
			lastIdx = i
		}
	}
	if lastIdx == -1 && opts.RequireExistingPatient {
		return AddResult{}, ErrPatientNotFound
	}

	// Context row: identity and visit fields new rows inherit. For a new
	// patient the context is empty and only the request fills the rows.
	var ctx Row
	if lastIdx >= 0 {
		ctx = s.rows[lastIdx]
	} else {
		ctx.NombreBeneficiario = patient
	}

	base := Row{
		CodigoDependencia:     ctx.CodigoDependencia,
		Planilla:              ctx.Planilla,
		FechaAtencion:         ctx.FechaAtencion,
		TipoBeneficiario:      ctx.TipoBeneficiario,
		Cedula:                ctx.Cedula,
		NombreBeneficiario:    ctx.NombreBeneficiario,
		SexoGenero:            ctx.SexoGenero,
		FechaNacimiento:       ctx.FechaNacimiento,
		EdadBeneficiario:      ctx.EdadBeneficiario,
		TipoServicio:          ctx.TipoServicio,
		Observaciones:         e.Observaciones,
		DiagnosticoPrincipal:  diagCode,
		DiagnosticoPresuntivo: presuntivoCode(e, diagCode),
		Parentesco:            ctx.Parentesco,
		MarcaFinal:            "F",
	}
	if base.TipoServicio == "" {
		base.TipoServicio = defaultServiceType
	}

	var newRows []Row
	var skipped []string

	add := func(code, name, quantity string) {
		row := base
		row.Codigo = code
		row.Descripcion = name
		row.Cantidad = quantity
		if row.Cantidad == "" {
			row.Cantidad = "1"
		}
		newRows = append(newRows, row)
	}

	resolveAndAdd := func(items []Item, cat *catalog.Catalog) {
		for _, it := range items {
			entry, label, ok := resolveItem(it, cat)
			if !ok {
				skipped = append(skipped, label)
				continue
			}
			add(entry.Code, entry.Name, strings.TrimSpace(it.Quantity))
		}
	}

	resolveAndAdd(e.Procedimientos, cats.Procedures)
	resolveAndAdd(e.Medicamentos, cats.Medications)

	// Supplies carry no catalog: the typed name goes in as-is, with
	// whatever code the request supplied.
	for _, it := range e.Insumos {
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		add(strings.TrimSpace(it.Code), name, strings.TrimSpace(it.Quantity))
	}

	if len(newRows) == 0 {
		return AddResult{Skipped: skipped}, ErrNoItems
	}

	at := lastIdx + 1
	if lastIdx == -1 {
		at = len(s.rows)
	}
	spliced := make([]Row, 0, len(s.rows)+len(newRows))
	spliced = append(spliced, s.rows[:at]...)
	spliced = append(spliced, newRows...)
	spliced = append(spliced, s.rows[at:]...)

	prev := s.rows
	s.rows = spliced
	if err := s.persistLocked(); err != nil {
		s.rows = prev
		return AddResult{}, err
	}

	s.log.Info().
		Str("patient", patient).
		Int("inserted", len(newRows)).
		Int("skipped", len(skipped)).
		Msg("Inserted visit entry")
	return AddResult{Inserted: len(newRows), Skipped: skipped}, nil
}

// resolveDiagnosis resolves the principal diagnosis code: the display name
// first, then the code field against the catalog.
func resolveDiagnosis(e Entry, diagnoses *catalog.Catalog) (string, error) {
	if name := strings.TrimSpace(e.DiagnosticoName); name != "" {
		if entry, ok := diagnoses.FindByName(name); ok {
			return entry.Code, nil
		}
	}
	if code := strings.TrimSpace(e.DiagnosticoCode); code != "" {
		if entry, ok := diagnoses.FindByCode(code); ok {
			return entry.Code, nil
		}
	}
	return "", ErrDiagnosisNotFound
}

// presuntivoCode picks the presumptive-diagnosis cell: the code exactly as
// the clerk typed it when one was given, otherwise the resolved code.
func presuntivoCode(e Entry, resolved string) string {
	if code := strings.TrimSpace(e.DiagnosticoCode); code != "" {
		return code
	}
	return resolved
}

// resolveItem resolves a catalog-backed item by display name, then by
// code. The returned label identifies the item in skip reports.
func resolveItem(it Item, cat *catalog.Catalog) (catalog.Entry, string, bool) {
	name := strings.TrimSpace(it.Name)
	code := strings.TrimSpace(it.Code)

	label := name
	if label == "" {
		label = code
	}
	if label == "" {
		return catalog.Entry{}, "(unnamed item)", false
	}

	if name != "" {
		if entry, ok := cat.FindByName(name); ok {
			return entry, label, true
		}
	}
	if code != "" {
		if entry, ok := cat.FindByCode(code); ok {
			return entry, label, true
		}
	}
	return catalog.Entry{}, label, false
}
