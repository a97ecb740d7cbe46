// =============================================================================
// Registro de Servicios - Ledger Row Type
// =============================================================================
//
// Row is the typed record for one ledger line. The struct fields follow the
// column contract in file order; Record and RowFromRecord convert between
// the struct and the positional []string form the schema and spreadsheet
// layers speak.
//
// Keeping the row typed means the insertion engine reads and writes fields
// by name instead of by magic index, and the compiler catches a renamed
// field everywhere it is used.
//
// =============================================================================

package ledger

import "github.com/avelasquezm/registro-servicios/internal/schema"

// Row is one ledger line. Field order matches the column contract.
type Row struct {
	CodigoDependencia          string
	Planilla                   string
	FechaAtencion              string
	TipoBeneficiario           string
	Cedula                     string
	NombreBeneficiario         string
	SexoGenero                 string
	FechaNacimiento            string
	EdadBeneficiario           string
	TipoServicio               string
	Codigo                     string
	Descripcion                string
	Observaciones              string
	DiagnosticoPrincipal       string
	DiagnosticoSecundario1     string
	DiagnosticoSecundario2     string
	Cantidad                   string
	ValorUnitario              string
	DuracionConsulta           string
	Parentesco                 string
	IdentificacionAfiliado     string
	NombreAfiliado             string
	CodigoDerivacion           string
	NumeroSecuencialDerivacion string
	ContingenciaCubierta       string
	DiagnosticoPresuntivo      string
	TiempoAnestesia            string
	DiagnosticoSecundario3     string
	DiagnosticoSecundario4     string
	DiagnosticoSecundario5     string
	PorcentajeIVA              string
	ValorIVA                   string
	ValorTotal                 string
	GastosGestion              string
	FechaIngreso               string
	FechaEgreso                string
	MotivoEgreso               string
	CoberturaCompartida        string
	TipoCobertura              string
	DiscapacidadCertificada    string
	TipoPrestacion             string
	TipoMedico                 string
	FechaAutorizada            string
	MarcaFinal                 string
}

// Record returns the row as a positional slice in column-contract order.
func (r Row) Record() []string {
	return []string{
		r.CodigoDependencia,
		r.Planilla,
		r.FechaAtencion,
		r.TipoBeneficiario,
		r.Cedula,
		r.NombreBeneficiario,
		r.SexoGenero,
		r.FechaNacimiento,
		r.EdadBeneficiario,
		r.TipoServicio,
		r.Codigo,
		r.Descripcion,
		r.Observaciones,
		r.DiagnosticoPrincipal,
		r.DiagnosticoSecundario1,
		r.DiagnosticoSecundario2,
		r.Cantidad,
		r.ValorUnitario,
		r.DuracionConsulta,
		r.Parentesco,
		r.IdentificacionAfiliado,
		r.NombreAfiliado,
		r.CodigoDerivacion,
		r.NumeroSecuencialDerivacion,
		r.ContingenciaCubierta,
		r.DiagnosticoPresuntivo,
		r.TiempoAnestesia,
		r.DiagnosticoSecundario3,
		r.DiagnosticoSecundario4,
		r.DiagnosticoSecundario5,
		r.PorcentajeIVA,
		r.ValorIVA,
		r.ValorTotal,
		r.GastosGestion,
		r.FechaIngreso,
		r.FechaEgreso,
		r.MotivoEgreso,
		r.CoberturaCompartida,
		r.TipoCobertura,
		r.DiscapacidadCertificada,
		r.TipoPrestacion,
		r.TipoMedico,
		r.FechaAutorizada,
		r.MarcaFinal,
	}
}

// RowFromRecord builds a Row from a positional slice. Short slices are
// accepted; missing trailing cells stay empty.
func RowFromRecord(rec []string) Row {
	cell := func(i int) string {
		if i < len(rec) {
			return rec[i]
		}
		return ""
	}
	return Row{
		CodigoDependencia:          cell(0),
		Planilla:                   cell(1),
		FechaAtencion:              cell(2),
		TipoBeneficiario:           cell(3),
		Cedula:                     cell(4),
		NombreBeneficiario:         cell(5),
		SexoGenero:                 cell(6),
		FechaNacimiento:            cell(7),
		EdadBeneficiario:           cell(8),
		TipoServicio:               cell(9),
		Codigo:                     cell(10),
		Descripcion:                cell(11),
		Observaciones:              cell(12),
		DiagnosticoPrincipal:       cell(13),
		DiagnosticoSecundario1:     cell(14),
		DiagnosticoSecundario2:     cell(15),
		Cantidad:                   cell(16),
		ValorUnitario:              cell(17),
		DuracionConsulta:           cell(18),
		Parentesco:                 cell(19),
		IdentificacionAfiliado:     cell(20),
		NombreAfiliado:             cell(21),
		CodigoDerivacion:           cell(22),
		NumeroSecuencialDerivacion: cell(23),
		ContingenciaCubierta:       cell(24),
		DiagnosticoPresuntivo:      cell(25),
		TiempoAnestesia:            cell(26),
		DiagnosticoSecundario3:     cell(27),
		DiagnosticoSecundario4:     cell(28),
		DiagnosticoSecundario5:     cell(29),
		PorcentajeIVA:              cell(30),
		ValorIVA:                   cell(31),
		ValorTotal:                 cell(32),
		GastosGestion:              cell(33),
		FechaIngreso:               cell(34),
		FechaEgreso:                cell(35),
		MotivoEgreso:               cell(36),
		CoberturaCompartida:        cell(37),
		TipoCobertura:              cell(38),
		DiscapacidadCertificada:    cell(39),
		TipoPrestacion:             cell(40),
		TipoMedico:                 cell(41),
		FechaAutorizada:            cell(42),
		MarcaFinal:                 cell(43),
	}
}

// Map returns the row keyed by canonical column name, the shape the JSON
// endpoints serve.
func (r Row) Map() map[string]string {
	rec := r.Record()
	out := make(map[string]string, len(rec))
	for i, name := range schema.Columns() {
		out[name] = rec[i]
	}
	return out
}
