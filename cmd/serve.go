// =============================================================================
// Registro de Servicios - Serve Command
// =============================================================================
//
// This file defines the 'serve' command, which runs the HTTP backend.
//
// COMMAND USAGE:
//   registro serve [flags]
//
// STARTUP PIPELINE:
//   1. Load configuration (registro.yaml + REGISTRO_* overrides)
//   2. Build the logger
//   3. Consult the state file when the configured data file is absent
//   4. Load the three maestro catalogs (fatal on failure)
//   5. Load the ledger from the data file (absent file starts empty)
//   6. Serve until SIGINT/SIGTERM, then drain and write the state file
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/avelasquezm/registro-servicios/internal/banding"
	"github.com/avelasquezm/registro-servicios/internal/catalog"
	"github.com/avelasquezm/registro-servicios/internal/config"
	"github.com/avelasquezm/registro-servicios/internal/ledger"
	"github.com/avelasquezm/registro-servicios/internal/schema"
	"github.com/avelasquezm/registro-servicios/internal/server"
	"github.com/avelasquezm/registro-servicios/internal/state"
	"github.com/avelasquezm/registro-servicios/pkg/utils"
)

// shutdownTimeout bounds how long in-flight requests may drain.
const shutdownTimeout = 10 * time.Second

// =============================================================================
// SERVE COMMAND DEFINITION
// =============================================================================

// serveCmd represents the 'serve' command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP backend",
	Long: `The serve command loads the maestro catalogs and the ledger spreadsheet,
then serves the REST API the browser front end talks to.

The data file is the authoritative record: every mutating request rewrites
it in full, color banding included, so the spreadsheet on disk can be
opened or submitted at any moment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// =============================================================================
// SERVE PIPELINE
// =============================================================================

func runServe() error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	// When the configured data file is gone but a previous run recorded
	// one that still exists (an archived upload, typically), keep serving
	// that one.
	if !utils.FileExists(cfg.DataFile) {
		st, err := state.Load(cfg.StateFile)
		if err != nil {
			logger.Warn().Err(err).Msg("Ignoring unreadable state file")
		} else if st.DataFile != "" && utils.FileExists(st.DataFile) {
			logger.Info().
				Str("configured", cfg.DataFile).
				Str("state", st.DataFile).
				Msg("Configured data file absent, using the one from the state file")
			cfg.DataFile = st.DataFile
		}
	}

	mode, err := schema.ParseMode(cfg.SchemaMode)
	if err != nil {
		return err
	}
	palette, err := banding.ForName(cfg.Palette)
	if err != nil {
		return err
	}

	cats, err := loadCatalogs(cfg, logger)
	if err != nil {
		return err
	}

	store := ledger.NewStore(cfg.DataFile, mode, palette, logger)
	if err := store.Load(); err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	srv := server.New(cfg, logger, store, cats)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Shutdown did not complete cleanly")
	}

	if err := state.Save(cfg.StateFile, state.State{DataFile: store.Path()}); err != nil {
		logger.Error().Err(err).Msg("Failed to write state file")
	}

	return nil
}

// loadCatalogs loads the three maestro catalogs. Any failure is fatal: the
// insertion engine cannot resolve items without them.
func loadCatalogs(cfg *config.Config, logger zerolog.Logger) (ledger.Catalogs, error) {
	procedures, err := catalog.LoadProcedures(cfg.Maestros.Procedures)
	if err != nil {
		return ledger.Catalogs{}, err
	}
	medications, err := catalog.LoadMedications(cfg.Maestros.Medications)
	if err != nil {
		return ledger.Catalogs{}, err
	}
	diagnoses, err := catalog.LoadDiagnoses(cfg.Maestros.Diagnoses)
	if err != nil {
		return ledger.Catalogs{}, err
	}

	logger.Info().
		Int("procedures", procedures.Len()).
		Int("medications", medications.Len()).
		Int("diagnoses", diagnoses.Len()).
		Msg("Loaded maestro catalogs")

	return ledger.Catalogs{
		Procedures:  procedures,
		Medications: medications,
		Diagnoses:   diagnoses,
	}, nil
}

// buildLogger constructs the root logger. The --verbose flag forces debug
// level and a human-readable console writer.
func buildLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	if verbose {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(zerolog.DebugLevel).
			With().Timestamp().Logger(), nil
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}
