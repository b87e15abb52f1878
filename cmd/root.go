// Package cmd implements the bbcompare CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"os"

	"github.com/derickschaefer/bbcompare/internal/app"
	"github.com/derickschaefer/bbcompare/internal/config"
	"github.com/spf13/cobra"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	BaseURL     string
	Format      string
	Out         string
	LogLevel    string
	Concurrency int
	Quiet       bool
	Verbose     bool
	Debug       bool
	NoHistory   bool
}

// rootCmd is the base command. Running `bbcompare` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "bbcompare",
	Short: "bbcompare — broadband comparison URL generator",
	Long: `bbcompare turns a broadband search (postcode, speed, contract length,
providers and so on) into a validated comparison-site URL.

It never contacts the comparison site. It checks the parameters, normalizes
the postcode and builds the URL the site expects.

Quick start:
  bbcompare url --postcode "e14 9ww"                # URL for a postcode
  bbcompare url -p SW1A1AA --speed 100Mb --open     # print only the URL
  bbcompare params                                  # valid values per field
  bbcompare serve                                   # HTTP API
  bbcompare mcp                                     # MCP tool server on stdio`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container for
// one-shot CLI commands. Logs go to stderr as text.
func buildDeps() (*app.Deps, error) {
	return buildDepsWith(app.Options{})
}

// buildServerDeps is buildDeps for the long-running servers: JSON logs and
// a buffered interaction log.
func buildServerDeps() (*app.Deps, error) {
	return buildDepsWith(app.Options{LogFormat: "json", AsyncSink: true})
}

func buildDepsWith(opts app.Options) (*app.Deps, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, opts)
}

// resolveConfig loads the layered config and applies CLI flag overrides.
func resolveConfig() (*config.Config, error) {
	cfg, err := config.Load(globalFlags.BaseURL)
	if err != nil {
		return nil, err
	}

	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.LogLevel != "" {
		cfg.LogLevel = globalFlags.LogLevel
	}
	if globalFlags.Concurrency > 0 {
		cfg.Concurrency = globalFlags.Concurrency
	}
	if globalFlags.NoHistory {
		cfg.RecordHistory = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.BaseURL, "base-url", "",
		"comparison site base URL (overrides env BROADBAND_BASE_URL and config.json)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|yaml|md|url (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.LogLevel, "log-level", "",
		"log level: debug|info|warn|error (default: info)")
	pf.IntVar(&globalFlags.Concurrency, "concurrency", 0,
		"max parallel generations for --batch (default: 8)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show cache/timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"enable debug logging")
	pf.BoolVar(&globalFlags.NoHistory, "no-history", false,
		"do not record generations in the local history")
}
