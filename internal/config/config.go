// =============================================================================
// Registro de Servicios - Configuration Module
// =============================================================================
//
// This module is responsible for loading the application configuration.
//
// CONFIGURATION SOURCES (later wins):
//   1. Built-in defaults
//   2. The YAML configuration file (registro.yaml)
//   3. REGISTRO_* environment variables (REGISTRO_LISTEN_ADDR, ...)
//
// The environment override layer exists so that a deployment can point the
// same binary at a different data file or port without editing the YAML.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// MaestroPaths holds the paths to the three read-only maestro catalogs.
// The process cannot serve requests without them; a load failure at
// startup is fatal.
type MaestroPaths struct {
	// Procedures is the path to the procedures maestro spreadsheet.
	// Default: "./maestro_procedimientos.xlsx"
	Procedures string `yaml:"procedures"`

	// Medications is the path to the medications maestro spreadsheet.
	// Default: "./maestro_medicamentos.xlsx"
	Medications string `yaml:"medications"`

	// Diagnoses is the path to the diagnoses maestro spreadsheet.
	// Default: "./maestro_diagnosticos.xlsx"
	Diagnoses string `yaml:"diagnoses"`
}

// Config holds the application configuration.
type Config struct {
	// =========================================================================
	// SERVER SETTINGS
	// =========================================================================

	// ListenAddr is the address the HTTP server binds to.
	// Default: ":8000"
	ListenAddr string `yaml:"listen_addr"`

	// CORSOrigins lists the browser origins allowed to call the API.
	// Default: ["http://localhost:3000"]
	CORSOrigins []string `yaml:"cors_origins"`

	// =========================================================================
	// FILE SETTINGS
	// =========================================================================

	// DataFile is the path of the ledger spreadsheet. It is the durable
	// anchor of the system: the in-memory table is a cache of it and the
	// whole file is rewritten on every mutating operation.
	// Default: "./data.xlsx"
	DataFile string `yaml:"data_file"`

	// UploadsDir is the directory where a copy of every uploaded file is
	// kept. Copies get a UUID-prefixed name so repeated uploads of the
	// same file never collide.
	// Default: "./uploads"
	UploadsDir string `yaml:"uploads_dir"`

	// StateFile is the path of the small JSON state file recording the
	// last served data file across runs.
	// Default: "./state.json"
	StateFile string `yaml:"state_file"`

	// Maestros contains the paths to the reference catalogs.
	Maestros MaestroPaths `yaml:"maestros"`

	// =========================================================================
	// LEDGER POLICY SETTINGS
	// =========================================================================

	// SchemaMode selects the column-contract policy applied when loading
	// or uploading a table.
	// Valid values:
	//   - "strict"  : the incoming column count must match the contract
	//   - "lenient" : missing columns are padded empty, extras discarded
	// Default: "strict"
	SchemaMode string `yaml:"schema_mode"`

	// RequireExistingPatient controls whether an add-entry request for a
	// patient with no prior ledger rows is rejected (the desktop
	// generation's behavior) or appended at the end (the web
	// generation's behavior).
	// Default: false
	RequireExistingPatient bool `yaml:"require_existing_patient"`

	// Palette selects the color-banding palette applied to the saved
	// spreadsheet.
	// Valid values: "classic" (2 colors), "extended" (10 colors)
	// Default: "classic"
	Palette string `yaml:"palette"`

	// SearchLimit caps the number of results returned by the substring
	// search endpoints.
	// Default: 50
	SearchLimit int `yaml:"search_limit"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// =============================================================================
// CONFIGURATION LOADING
// =============================================================================

// Load reads the configuration file, applies defaults, applies REGISTRO_*
// environment overrides, and validates the result. A missing configuration
// file is not an error: the defaults describe a complete local setup.
func Load(configPath string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8000"
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"http://localhost:3000"}
	}
	if cfg.DataFile == "" {
		cfg.DataFile = "./data.xlsx"
	}
	if cfg.UploadsDir == "" {
		cfg.UploadsDir = "./uploads"
	}
	if cfg.StateFile == "" {
		cfg.StateFile = "./state.json"
	}
	if cfg.Maestros.Procedures == "" {
		cfg.Maestros.Procedures = "./maestro_procedimientos.xlsx"
	}
	if cfg.Maestros.Medications == "" {
		cfg.Maestros.Medications = "./maestro_medicamentos.xlsx"
	}
	if cfg.Maestros.Diagnoses == "" {
		cfg.Maestros.Diagnoses = "./maestro_diagnosticos.xlsx"
	}
	if cfg.SchemaMode == "" {
		cfg.SchemaMode = "strict"
	}
	if cfg.Palette == "" {
		cfg.Palette = "classic"
	}
	if cfg.SearchLimit == 0 {
		cfg.SearchLimit = 50
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnvOverrides overrides a small set of deployment-facing options from
// REGISTRO_* environment variables (REGISTRO_LISTEN_ADDR, REGISTRO_DATA_FILE,
// REGISTRO_SCHEMA_MODE, REGISTRO_PALETTE, REGISTRO_LOG_LEVEL).
func applyEnvOverrides(cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix("REGISTRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if s := v.GetString("listen_addr"); s != "" {
		cfg.ListenAddr = s
	}
	if s := v.GetString("data_file"); s != "" {
		cfg.DataFile = s
	}
	if s := v.GetString("schema_mode"); s != "" {
		cfg.SchemaMode = s
	}
	if s := v.GetString("palette"); s != "" {
		cfg.Palette = s
	}
	if s := v.GetString("log_level"); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString("cors_origins"); s != "" {
		cfg.CORSOrigins = strings.Split(s, ",")
	}
}

// validate checks enumerated options and creates the uploads directory.
func validate(cfg *Config) error {
	switch cfg.SchemaMode {
	case "strict", "lenient":
	default:
		return fmt.Errorf("schema_mode must be \"strict\" or \"lenient\", got %q", cfg.SchemaMode)
	}

	switch cfg.Palette {
	case "classic", "extended":
	default:
		return fmt.Errorf("palette must be \"classic\" or \"extended\", got %q", cfg.Palette)
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	if cfg.SearchLimit < 0 {
		return fmt.Errorf("search_limit must not be negative, got %d", cfg.SearchLimit)
	}

	if _, err := os.Stat(cfg.UploadsDir); os.IsNotExist(err) {
		if err := os.MkdirAll(cfg.UploadsDir, 0o755); err != nil {
			return fmt.Errorf("failed to create uploads directory %s: %w", cfg.UploadsDir, err)
		}
	}

	return nil
}
