package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/derickschaefer/bbcompare/internal/api"
	"github.com/spf13/cobra"
)

var (
	serveAddr  string
	serveRate  float64
	serveBurst int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the URL generator over HTTP",
	Long: `Start an HTTP API in front of the URL generator.

Routes:
  GET  /healthz         liveness and the configured base URL
  GET  /v1/parameters   parameter reference
  POST /v1/generate     body: parameter object; 200 with a URL, 422 without
  POST /v1/inspect      body: parameter object; provided and missing fields

Requests under /v1 are rate limited per client address. Logs are JSON on
stderr. While the server records history it holds the database lock, so
'history' and 'saved' commands must wait until it stops.`,
	Example: `  bbcompare serve
  bbcompare serve --addr 127.0.0.1:9090 --rate 20 --burst 40
  curl -s -XPOST localhost:8080/v1/generate -d '{"postcode":"E14 9WW","speedInMb":"100Mb"}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildServerDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		cfg := deps.Config
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}
		if cmd.Flags().Changed("rate") {
			cfg.Rate = serveRate
		}
		if cmd.Flags().Changed("burst") {
			cfg.Burst = serveBurst
		}

		var history api.HistoryRecorder
		if cfg.RecordHistory {
			if err := deps.RequireStore(); err != nil {
				return err
			}
			history = deps
		}

		srv := api.New(api.Options{
			Generator: deps.Generator,
			Logger:    deps.Logger,
			Sink:      deps.Sink,
			History:   history,
			Rate:      cfg.Rate,
			Burst:     cfg.Burst,
			Version:   Version,
		})

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.ListenAndServe(ctx, cfg.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().Float64Var(&serveRate, "rate", 0, "per-client requests per second (0 disables limiting)")
	serveCmd.Flags().IntVar(&serveBurst, "burst", 0, "per-client burst size")
}
