// =============================================================================
// Registro de Servicios - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands (like 'serve', 'version') are
// attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (registro)
//   ├── serveCmd (registro serve)
//   └── versionCmd (registro version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Handing the configuration path down to the subcommands
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables verbose logging when set to true.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
// This is the entry point for the CLI application.
var rootCmd = &cobra.Command{
	Use: "registro",

	Short: "Registro de Servicios - clinic billing data-entry backend",

	Long: `Registro de Servicios is the backend for a clinic's billing data-entry
tool. A clerk selects a patient, attaches a diagnosis, and appends rows for
procedures, medications and supplies to a growing spreadsheet ledger, which
is the authoritative record submitted to the insurer.

Key Features:
  - In-memory ledger mirrored to an xlsx data file on every mutation
  - Fixed required-columns contract with strict and lenient normalization
  - Maestro catalogs (procedures, medications, diagnoses) with code lookup
  - Deterministic per-visit color banding of the saved spreadsheet
  - REST API compatible with the existing browser front end

Example Usage:
  registro serve                       # Serve using registro.yaml defaults
  registro serve --config ./my.yaml    # Use a custom configuration file`,

	// Run is the function that will be executed when the root command is called
	// without any subcommands. In this case, we just print the help message.
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init is called automatically when the package is loaded.
// It sets up the global flags.
func init() {
	// Persistent flags are available to this command and all subcommands.

	// --config flag: Allows the user to specify a custom configuration file.
	// Default is "registro.yaml" in the current directory.
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"registro.yaml",
		"Path to the main configuration file (default is registro.yaml)",
	)

	// --verbose flag: Enables verbose/debug logging.
	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
