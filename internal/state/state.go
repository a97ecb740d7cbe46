// =============================================================================
// Registro de Servicios - Run State Module
// =============================================================================
//
// A tiny JSON file remembers which data file the process was serving, so a
// restart after an upload keeps pointing at the same ledger even when the
// configuration names a file that no longer exists.
//
// =============================================================================

package state

import (
	"encoding/json"
	"fmt"
	"os"
)

// State is the persisted run state.
type State struct {
	// DataFile is the ledger spreadsheet served in the previous run.
	DataFile string `json:"data_file"`
}

// Load reads the state file. A missing file returns a zero state and no
// error; the caller falls back to its configuration.
func Load(path string) (State, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return State{}, nil
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to read state file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, fmt.Errorf("failed to parse state file: %w", err)
	}
	return st, nil
}

// Save writes the state file.
func Save(path string, st State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
