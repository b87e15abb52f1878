package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/derickschaefer/bbcompare/internal/mcptool"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the URL generator as MCP tools over stdio",
	Long: `Run a Model Context Protocol server on stdin/stdout so an LLM client can
call the generator directly.

Tools:
  generate_url          build a comparison URL from search parameters
  validate_parameters   report provided, missing and invalid parameters
  parameter_help        valid values for every parameter, or for one field

stdout carries protocol messages only; logs are JSON on stderr. Set
interaction_log in config.json to record every tool call as JSONL.`,
	Example: `  bbcompare mcp
  bbcompare mcp --no-history

  # client configuration
  {"command": "bbcompare", "args": ["mcp"]}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildServerDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		var history mcptool.HistoryRecorder
		if deps.Config.RecordHistory {
			if err := deps.RequireStore(); err != nil {
				return err
			}
			history = deps
		}

		srv := mcptool.New(mcptool.Options{
			Version:   Version,
			Generator: deps.Generator,
			Logger:    deps.Logger,
			Sink:      deps.Sink,
			History:   history,
		})

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ServeStdio(ctx, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
