package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/derickschaefer/bbcompare/internal/app"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/pipeline"
	"github.com/derickschaefer/bbcompare/internal/render"
	"github.com/spf13/cobra"
)

// urlFlags holds the per-field flags of `bbcompare url`.
var urlFlags struct {
	Postcode        string
	Speed           string
	ContractLength  string
	PhoneCalls      string
	ProductType     string
	Providers       string
	CurrentProvider string
	NewLine         bool
	SortBy          string
	Open            bool
	Batch           bool
}

var urlCmd = &cobra.Command{
	Use:   "url [POSTCODE]",
	Short: "Generate a comparison URL from search parameters",
	Long: `Generate a broadband comparison URL.

The postcode is required and may be given as an argument or with --postcode.
Every other field is optional; run 'bbcompare params' for the valid values.
Values are matched exactly, including case.

With --batch, requests are read from stdin as JSONL, one parameter object
per line, and one result per line is written in input order:

  {"postcode": "E14 9WW", "speedInMb": "100Mb"}
  {"postcode": "SW1A1AA", "providers": ["BT", "Sky"]}

The command exits non-zero when no URL could be generated.`,
	Example: `  bbcompare url "E14 9WW"
  bbcompare url -p sw1a1aa --speed 100Mb --contract "24 months" --providers BT,Sky
  bbcompare url -p "E14 9WW" --product-type broadband,phone --sort-by "First Year Cost" --open
  bbcompare url -p "E14 9WW" --format json
  cat searches.jsonl | bbcompare url --batch > urls.jsonl`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deps, err := buildDeps()
		if err != nil {
			return err
		}
		defer deps.Close()

		if urlFlags.Batch {
			return runBatch(commandContext(cmd), cmd, deps, cmd.InOrStdin())
		}

		raw := rawFromFlags(cmd, args)
		format := resolveFormat(deps.Config.Format)
		if urlFlags.Open {
			format = render.FormatURL
		}

		result, res := generate(deps, "url", "cli", raw)
		if err := emit(deps, cmd.OutOrStdout(), result, format); err != nil {
			return err
		}
		if !res.Success {
			return errors.New("no URL generated")
		}
		return nil
	},
}

// rawFromFlags collects the url flags into raw input. A positional postcode
// wins over --postcode; --new-line is only set when given explicitly.
func rawFromFlags(cmd *cobra.Command, args []string) params.Raw {
	raw := params.Raw{
		Postcode:        urlFlags.Postcode,
		Speed:           urlFlags.Speed,
		ContractLength:  urlFlags.ContractLength,
		PhoneCalls:      urlFlags.PhoneCalls,
		ProductType:     urlFlags.ProductType,
		CurrentProvider: urlFlags.CurrentProvider,
		SortBy:          urlFlags.SortBy,
	}
	if len(args) == 1 {
		raw.Postcode = args[0]
	}
	if urlFlags.Providers != "" {
		raw.Providers = params.SplitProviders(urlFlags.Providers)
	}
	if cmd.Flags().Changed("new-line") {
		v := urlFlags.NewLine
		raw.NewLine = &v
	}
	return raw
}

// runBatch generates one result per JSONL line of in. Output defaults to
// JSONL unless --format is given.
func runBatch(ctx context.Context, cmd *cobra.Command, deps *app.Deps, in io.Reader) error {
	if in == os.Stdin && pipeline.IsTTY() {
		return errors.New("--batch reads JSONL from stdin; pipe a file in")
	}
	reqs, err := pipeline.ReadRequests(in)
	if err != nil {
		return fmt.Errorf("reading batch input: %w", err)
	}

	items, err := pipeline.Generate(ctx, deps.Generator, reqs, deps.Config.Concurrency)
	if err != nil {
		return err
	}
	for i, req := range reqs {
		if req.Err == nil {
			deps.RecordHistory("batch", req.Raw, items[i].Result)
		}
	}

	format := render.FormatJSONL
	if globalFlags.Format != "" {
		format = globalFlags.Format
	}
	if urlFlags.Open {
		format = render.FormatURL
	}
	if err := emit(deps, cmd.OutOrStdout(), buildBatchResult("url --batch", items), format); err != nil {
		return err
	}

	if n := pipeline.Failures(items); n > 0 {
		return fmt.Errorf("%d of %d lines produced no URL", n, len(items))
	}
	return nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// addParamFlags registers one flag per search field on cmd, bound to
// urlFlags.
func addParamFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVarP(&urlFlags.Postcode, "postcode", "p", "", "UK postcode, e.g. \"E14 9WW\"")
	f.StringVar(&urlFlags.Speed, "speed", "", "minimum speed: 10Mb|30Mb|55Mb|100Mb")
	f.StringVar(&urlFlags.ContractLength, "contract", "", "contract length: \"12 months\"|\"18 months\"|\"24 months\"")
	f.StringVar(&urlFlags.PhoneCalls, "phone-calls", "", "phone call package, e.g. \"Evening and Weekend\"")
	f.StringVar(&urlFlags.ProductType, "product-type", "", "broadband|broadband,phone|broadband,phone,tv (default on URL: broadband)")
	f.StringVar(&urlFlags.Providers, "providers", "", "comma-separated provider names, e.g. BT,Sky")
	f.StringVar(&urlFlags.CurrentProvider, "current-provider", "", "the user's current provider")
	f.BoolVar(&urlFlags.NewLine, "new-line", false, "only show deals that include a new line installation")
	f.StringVar(&urlFlags.SortBy, "sort-by", "", "sort order, e.g. \"First Year Cost\" (default on URL: Recommended)")
}

func init() {
	rootCmd.AddCommand(urlCmd)

	addParamFlags(urlCmd)
	urlCmd.Flags().BoolVar(&urlFlags.Open, "open", false, "print only the URL (same as --format url)")
	urlCmd.Flags().BoolVar(&urlFlags.Batch, "batch", false, "read JSONL parameter objects from stdin")
}
