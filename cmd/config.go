package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/derickschaefer/bbcompare/internal/config"
	"github.com/derickschaefer/bbcompare/internal/render"
	"github.com/spf13/cobra"
)

// configKeys lists the keys accepted by `config set`, in display order.
var configKeys = []string{
	"base_url", "default_format", "db_path", "log_level", "interaction_log",
	"listen_addr", "rate", "burst", "cache_size", "concurrency", "record_history",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage bbcompare configuration",
	Long: `Read and write bbcompare configuration stored in config.json in the
current directory.

Settings are resolved in order, later wins:
  defaults < config.json < environment < command-line flags

Environment variables:
  BROADBAND_BASE_URL          base_url
  BBCOMPARE_DB_PATH           db_path
  BBCOMPARE_LOG_LEVEL         log_level
  BBCOMPARE_INTERACTION_LOG   interaction_log`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a template config.json in the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFile
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config.json already exists at %s (delete it first to re-initialise)", path)
		}
		if err := config.WriteFile(path, config.Template()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Created %s\n", path)
		fmt.Fprintln(cmd.OutOrStdout(), "  Edit it or use 'bbcompare config set <key> <value>'.")
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(globalFlags.BaseURL)
		if err != nil {
			return err
		}

		src := "(not found)"
		if cfg.ConfigPath != "" {
			src = cfg.ConfigPath
		}
		interactionLog := cfg.InteractionLog
		if interactionLog == "" {
			interactionLog = "(disabled)"
		}

		format := cfg.Format
		if globalFlags.Format != "" {
			format = globalFlags.Format
		}

		switch format {
		case render.FormatJSON, render.FormatJSONL:
			type configOut struct {
				BaseURL        string  `json:"base_url"`
				Format         string  `json:"default_format"`
				DBPath         string  `json:"db_path"`
				LogLevel       string  `json:"log_level"`
				InteractionLog string  `json:"interaction_log"`
				ListenAddr     string  `json:"listen_addr"`
				Rate           float64 `json:"rate"`
				Burst          int     `json:"burst"`
				CacheSize      int     `json:"cache_size"`
				Concurrency    int     `json:"concurrency"`
				RecordHistory  bool    `json:"record_history"`
				ConfigFile     string  `json:"config_file"`
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			if format == render.FormatJSON {
				enc.SetIndent("", "  ")
			}
			if err := enc.Encode(configOut{
				BaseURL:        cfg.BaseURL,
				Format:         cfg.Format,
				DBPath:         cfg.DBPath,
				LogLevel:       cfg.LogLevel,
				InteractionLog: cfg.InteractionLog,
				ListenAddr:     cfg.ListenAddr,
				Rate:           cfg.Rate,
				Burst:          cfg.Burst,
				CacheSize:      cfg.CacheSize,
				Concurrency:    cfg.Concurrency,
				RecordHistory:  cfg.RecordHistory,
				ConfigFile:     src,
			}); err != nil {
				return err
			}
		default:
			rows := [][]string{
				{"base_url", cfg.BaseURL},
				{"default_format", cfg.Format},
				{"db_path", cfg.DBPath},
				{"log_level", cfg.LogLevel},
				{"interaction_log", interactionLog},
				{"listen_addr", cfg.ListenAddr},
				{"rate", fmt.Sprintf("%.1f req/s", cfg.Rate)},
				{"burst", strconv.Itoa(cfg.Burst)},
				{"cache_size", strconv.Itoa(cfg.CacheSize)},
				{"concurrency", strconv.Itoa(cfg.Concurrency)},
				{"record_history", strconv.FormatBool(cfg.RecordHistory)},
				{"config_file", src},
			}
			printKVTable(cmd.OutOrStdout(), rows)
		}

		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠  configuration problems:\n%v\n", err)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in config.json",
	Example: `  bbcompare config set base_url https://broadband.example.com/packages
  bbcompare config set default_format json
  bbcompare config set record_history false`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(args[0])

		// Load existing file or start from template
		path := config.DefaultConfigFile
		f := config.Template()
		existing, err := config.ReadFile(path)
		switch {
		case err == nil:
			f = *existing
		case !errors.Is(err, os.ErrNotExist):
			return err
		}

		if err := setConfigKey(&f, key, args[1]); err != nil {
			return err
		}
		if err := config.WriteFile(path, f); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set %s in %s\n", key, path)
		return nil
	},
}

// setConfigKey parses val for key and stores it in f.
func setConfigKey(f *config.File, key, val string) error {
	switch key {
	case "base_url":
		f.BaseURL = val
	case "default_format", "format":
		if !slices.Contains(config.Formats, val) {
			return fmt.Errorf("default_format must be one of %s", strings.Join(config.Formats, ", "))
		}
		f.DefaultFormat = val
	case "db_path":
		f.DBPath = val
	case "log_level":
		f.LogLevel = val
	case "interaction_log":
		f.InteractionLog = val
	case "listen_addr":
		f.ListenAddr = val
	case "rate":
		r, err := strconv.ParseFloat(val, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("rate must be a positive number")
		}
		f.Rate = r
	case "burst", "concurrency", "cache_size":
		n, err := strconv.Atoi(val)
		least := 1
		if key == "cache_size" {
			least = 0 // disables the cache
		}
		if err != nil || n < least {
			return fmt.Errorf("%s must be an integer >= %d", key, least)
		}
		switch key {
		case "burst":
			f.Burst = n
		case "concurrency":
			f.Concurrency = n
		default:
			f.CacheSize = &n
		}
	case "record_history":
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("record_history must be true or false")
		}
		f.RecordHistory = &b
	default:
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s", key, strings.Join(configKeys, ", "))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

// printKVTable renders a two-column key/value list using aligned columns.
func printKVTable(w io.Writer, rows [][]string) {
	maxKey := 0
	for _, r := range rows {
		if len(r[0]) > maxKey {
			maxKey = len(r[0])
		}
	}
	for _, r := range rows {
		padding := strings.Repeat(" ", maxKey-len(r[0]))
		fmt.Fprintf(w, "  %s%s  %s\n", r[0], padding, r[1])
	}
}
