// =============================================================================
// Registro de Servicios - HTTP Handlers
// =============================================================================
//
// One handler per endpoint. Domain errors surface as sentinel values from
// the ledger and schema packages; mapError translates them to HTTP status
// codes in one place so the handlers stay thin.
//
// =============================================================================

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/avelasquezm/registro-servicios/internal/config"
	"github.com/avelasquezm/registro-servicios/internal/ledger"
	"github.com/avelasquezm/registro-servicios/internal/schema"
	"github.com/avelasquezm/registro-servicios/pkg/utils"
)

// Handler carries the dependencies of the HTTP endpoints.
type Handler struct {
	cfg   *config.Config
	log   zerolog.Logger
	store *ledger.Store
	cats  ledger.Catalogs
}

// NewHandler creates the endpoint handler set.
func NewHandler(cfg *config.Config, log zerolog.Logger, store *ledger.Store, cats ledger.Catalogs) *Handler {
	return &Handler{cfg: cfg, log: log, store: store, cats: cats}
}

// RegisterRoutes registers every endpoint. The trailing slashes are part of
// the public contract.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	e.POST("/upload/", h.Upload)
	e.GET("/data/", h.Data)
	e.GET("/sync/diagnostic/", h.SyncDiagnostic)

	e.GET("/search/patients/", h.SearchPatients)
	e.GET("/search/diagnostics/", h.SearchDiagnostics)
	e.GET("/search/procedures/", h.SearchProcedures)
	e.GET("/search/medications/", h.SearchMedications)

	e.GET("/patients/full/", h.PatientsFull)
	e.GET("/diagnostics/full/", h.DiagnosticsFull)
	e.GET("/procedures/full/", h.ProceduresFull)
	e.GET("/medications/full/", h.MedicationsFull)

	e.GET("/download/", h.Download)
	e.POST("/add/", h.Add)
	e.POST("/delete/", h.Delete)
	e.POST("/save/", h.Save)
}

// mapError translates domain errors to HTTP errors.
func mapError(err error) error {
	switch {
	case errors.Is(err, ledger.ErrPatientNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ledger.ErrDiagnosisNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
	case errors.Is(err, ledger.ErrNoItems):
		return echo.NewHTTPError(http.StatusBadRequest, "no insertable items in request")
	case errors.Is(err, schema.ErrMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// Health handles GET /health.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Upload handles POST /upload/: archive the uploaded spreadsheet, parse
// and normalize it, and replace the served table.
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field 'file' is required")
	}
	if !utils.IsSpreadsheet(fh.Filename) {
		return echo.NewHTTPError(http.StatusBadRequest, "unsupported file type, expected .xlsx, .xlsm or .csv")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open upload")
	}
	defer src.Close()

	archived, err := utils.SaveUpload(src, h.cfg.UploadsDir, fh.Filename)
	if err != nil {
		return mapError(err)
	}

	rows, err := h.store.ReplaceFromFile(archived)
	if err != nil {
		return mapError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"rows":     rows,
		"archived": archived,
	})
}

// Data handles GET /data/: the full table as column-keyed maps with a
// positional id.
func (h *Handler) Data(c echo.Context) error {
	rows := h.store.Rows()
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		m := make(map[string]any, schema.NumColumns()+1)
		for name, value := range row.Map() {
			m[name] = value
		}
		m["id"] = i
		out[i] = m
	}
	return c.JSON(http.StatusOK, out)
}

// SyncDiagnostic handles GET /sync/diagnostic/?name=|code=: resolve one
// side of a diagnosis to the other.
func (h *Handler) SyncDiagnostic(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	code := strings.TrimSpace(c.QueryParam("code"))
	if name == "" && code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter 'name' or 'code' is required")
	}

	var (
		entry struct {
			Name string `json:"name"`
			Code string `json:"code"`
		}
		found bool
	)
	if name != "" {
		if e, ok := h.cats.Diagnoses.FindByName(name); ok {
			entry.Name, entry.Code, found = e.Name, e.Code, true
		}
	}
	if !found && code != "" {
		if e, ok := h.cats.Diagnoses.FindByCode(code); ok {
			entry.Name, entry.Code, found = e.Name, e.Code, true
		}
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
	}
	return c.JSON(http.StatusOK, entry)
}

// SearchPatients handles GET /search/patients/?query=.
func (h *Handler) SearchPatients(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.SearchPatients(c.QueryParam("query"), h.cfg.SearchLimit))
}

// SearchDiagnostics handles GET /search/diagnostics/?query=.
func (h *Handler) SearchDiagnostics(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Diagnoses.Search(c.QueryParam("query"), h.cfg.SearchLimit))
}

// SearchProcedures handles GET /search/procedures/?query=.
func (h *Handler) SearchProcedures(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Procedures.Search(c.QueryParam("query"), h.cfg.SearchLimit))
}

// SearchMedications handles GET /search/medications/?query=.
func (h *Handler) SearchMedications(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Medications.Search(c.QueryParam("query"), h.cfg.SearchLimit))
}

// PatientsFull handles GET /patients/full/: the live, sorted unique
// patient names. Unlike the catalog dumps this cannot be cached, the
// ledger changes under it.
func (h *Handler) PatientsFull(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.PatientNames())
}

// DiagnosticsFull handles GET /diagnostics/full/.
func (h *Handler) DiagnosticsFull(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Diagnoses.Entries())
}

// ProceduresFull handles GET /procedures/full/.
func (h *Handler) ProceduresFull(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Procedures.Entries())
}

// MedicationsFull handles GET /medications/full/.
func (h *Handler) MedicationsFull(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cats.Medications.Entries())
}

// Download handles GET /download/: the current data file as an attachment.
func (h *Handler) Download(c echo.Context) error {
	path := h.store.Path()
	if !utils.FileExists(path) {
		return echo.NewHTTPError(http.StatusNotFound, "data file not found")
	}
	return c.Attachment(path, "data.xlsx")
}

// quantity accepts both JSON numbers and JSON strings, because the front
// end has sent both over its lifetime.
type quantity string

func (q *quantity) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*q = quantity(n.String())
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*q = quantity(s)
	return nil
}

type itemRequest struct {
	Name     string   `json:"name"`
	Code     string   `json:"code"`
	Quantity quantity `json:"quantity"`
}

type addRequest struct {
	Paciente        string        `json:"paciente"`
	Observaciones   string        `json:"observaciones"`
	DiagnosticoName string        `json:"diagnostico_name"`
	DiagnosticoCode string        `json:"diagnostico_code"`
	Procedimientos  []itemRequest `json:"procedimientos"`
	Medicamentos    []itemRequest `json:"medicamentos"`
	Insumos         []itemRequest `json:"insumos"`
}

func toItems(reqs []itemRequest) []ledger.Item {
	items := make([]ledger.Item, len(reqs))
	for i, r := range reqs {
		items[i] = ledger.Item{Name: r.Name, Code: r.Code, Quantity: string(r.Quantity)}
	}
	return items
}

// Add handles POST /add/: insert one visit entry.
func (h *Handler) Add(c echo.Context) error {
	var req addRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.store.AddEntry(ledger.Entry{
		Paciente:        req.Paciente,
		Observaciones:   req.Observaciones,
		DiagnosticoName: req.DiagnosticoName,
		DiagnosticoCode: req.DiagnosticoCode,
		Procedimientos:  toItems(req.Procedimientos),
		Medicamentos:    toItems(req.Medicamentos),
		Insumos:         toItems(req.Insumos),
	}, h.cats, ledger.AddOptions{
		RequireExistingPatient: h.cfg.RequireExistingPatient,
	})
	if err != nil {
		return mapError(err)
	}

	if res.Skipped == nil {
		res.Skipped = []string{}
	}
	return c.JSON(http.StatusOK, res)
}

type deleteRequest struct {
	IDs []int `json:"ids"`
}

// Delete handles POST /delete/: remove rows by their positional ids.
func (h *Handler) Delete(c echo.Context) error {
	var req deleteRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	removed, err := h.store.Remove(req.IDs)
	if err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// Save handles POST /save/: force a rewrite of the data file.
func (h *Handler) Save(c echo.Context) error {
	if err := h.store.Persist(); err != nil {
		return mapError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"saved": true,
		"file":  h.store.Path(),
	})
}
