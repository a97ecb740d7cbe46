package ledger

import "errors"

// Sentinel errors for the insertion and deletion paths. The HTTP layer maps
// them to status codes, so they stay stable and comparable with errors.Is.
var (
	// ErrPatientNotFound is returned when the request names no patient, or
	// names one with no ledger rows while the store requires existing
	// patients.
	ErrPatientNotFound = errors.New("patient not found")

	// ErrDiagnosisNotFound is returned when neither the diagnosis name nor
	// a free-typed code resolves against the diagnoses catalog.
	ErrDiagnosisNotFound = errors.New("diagnosis not found")

	// ErrNoItems is returned when an add-entry request yields zero
	// insertable rows, either because it listed no items or because every
	// item was skipped.
	ErrNoItems = errors.New("no insertable items")
)
