package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/derickschaefer/bbcompare/internal/app"
	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/render"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
	"github.com/olekukonko/tablewriter"
)

// resolveFormat returns the effective format string, falling back to "table".
func resolveFormat(cfgFormat string) string {
	if globalFlags.Format != "" {
		return globalFlags.Format
	}
	if cfgFormat != "" {
		return cfgFormat
	}
	return render.FormatTable
}

// outputWriter returns def, or the --out file when one is set. The returned
// close func must always be called.
func outputWriter(def io.Writer) (io.Writer, func() error, error) {
	if globalFlags.Out == "" {
		return def, func() error { return nil }, nil
	}
	f, err := os.Create(globalFlags.Out)
	if err != nil {
		return nil, nil, fmt.Errorf("creating output file: %w", err)
	}
	return f, f.Close, nil
}

// emit renders result to the --out file or def, then prints the footer to
// stderr unless --quiet is set.
func emit(deps *app.Deps, def io.Writer, result *model.Result, format string) error {
	w, closeFn, err := outputWriter(def)
	if err != nil {
		return err
	}
	renderErr := render.Render(w, result, format)
	if err := closeFn(); err != nil && renderErr == nil {
		renderErr = err
	}
	if renderErr != nil {
		return renderErr
	}
	if !deps.Config.Quiet {
		render.PrintFooter(os.Stderr, result, deps.Config.Verbose)
	}
	return nil
}

// generate runs one generation through the cached generator and records it
// in history. The envelope carries timing and whether the cache answered.
func generate(deps *app.Deps, command, source string, raw params.Raw) (*model.Result, urlgen.Result) {
	start := time.Now()
	res, hit := deps.Generator.Lookup(raw)
	deps.RecordHistory(source, raw, res)

	deps.Logger.Debug("generated",
		"command", command,
		"success", res.Success,
		"cache_hit", hit,
	)

	result := buildGenerationResult(command, res)
	result.Stats.CacheHit = hit
	result.Stats.DurationMs = time.Since(start).Milliseconds()
	return result, res
}

// buildGenerationResult wraps a urlgen.Result in a Result envelope.
func buildGenerationResult(command string, res urlgen.Result) *model.Result {
	result := model.NewResult(model.KindGeneration, command, &res, 0)
	if res.Success {
		result.Stats.Items = 1
	}
	return result
}

// buildBatchResult wraps batch items in a Result envelope; failed lines are
// reported as warnings.
func buildBatchResult(command string, items []model.BatchItem) *model.Result {
	result := model.NewResult(model.KindBatch, command, items, len(items))
	for _, it := range items {
		if !it.Result.Success {
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %s", it.Line, it.Result.Message))
		}
	}
	return result
}

// printSimpleTable renders a simple table with headers using tablewriter.
// The add callback is called with row values as variadic strings.
func printSimpleTable(w io.Writer, headers []string, fill func(add func(...string))) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(headers)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)

	fill(func(cols ...string) {
		tw.Append(cols)
	})
	tw.Render()
}
