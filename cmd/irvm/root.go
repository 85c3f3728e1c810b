package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/irvm/pkg/cli"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "irvm",
	Short: "irvm - an execution engine for compiled policy plans",
	Long: `irvm executes compiled policies: intermediate-representation documents made
of a static string pool, named plans and the functions they call.

It evaluates a plan against an input and a data document and prints the
result set, one entry per successful execution path:
  - eval      evaluate a plan
  - validate  check policy documents against the IR schema and semantics
  - inspect   list plans, functions, built-ins and statement counts
  - test      run YAML test suites against a policy
  - bench     measure evaluation latency and throughput

Configuration is read from --config (YAML) and IRVM_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with the code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: json, text, console")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
