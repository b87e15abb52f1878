// Package render converts Result values into human-readable or machine-parseable
// output. Each format is a separate function; the top-level Render dispatcher
// selects based on the format string.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/derickschaefer/bbcompare/internal/model"
	"github.com/derickschaefer/bbcompare/internal/params"
	"github.com/derickschaefer/bbcompare/internal/urlgen"
	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"
)

// Format constants matching --format flag values.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
	FormatYAML  = "yaml"
	FormatMD    = "md"
	FormatURL   = "url"
)

// Render writes result to w in the specified format.
func Render(w io.Writer, result *model.Result, format string) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, result)
	case FormatJSONL:
		return renderJSONL(w, result)
	case FormatYAML:
		return renderYAML(w, result)
	case FormatMD:
		return renderMarkdown(w, result)
	case FormatURL:
		return renderURL(w, result)
	default:
		return renderTable(w, result)
	}
}

// RenderTo writes to stdout by default; if path is non-empty, writes to file.
func RenderTo(path string, result *model.Result, format string) error {
	if path == "" {
		return Render(os.Stdout, result, format)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	return Render(f, result, format)
}

// ─── JSON / YAML ──────────────────────────────────────────────────────────────

func renderJSON(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result)
}

func renderYAML(w io.Writer, result *model.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

// ─── JSONL ────────────────────────────────────────────────────────────────────

// renderJSONL writes one compact record per line: each element for list
// payloads, the payload itself otherwise.
func renderJSONL(w io.Writer, result *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	switch data := result.Data.(type) {
	case []model.BatchItem:
		for _, it := range data {
			if err := enc.Encode(it); err != nil {
				return err
			}
		}
		return nil
	case []model.HistoryEntry:
		for _, h := range data {
			if err := enc.Encode(h); err != nil {
				return err
			}
		}
		return nil
	case []model.SavedSearch:
		for _, s := range data {
			if err := enc.Encode(s); err != nil {
				return err
			}
		}
		return nil
	case []params.FieldHelp:
		for _, f := range data {
			if err := enc.Encode(f); err != nil {
				return err
			}
		}
		return nil
	default:
		return enc.Encode(result.Data)
	}
}

// ─── URL ──────────────────────────────────────────────────────────────────────

// renderURL prints bare URLs, one per line, for piping into a browser or
// another tool. Failed batch lines print an empty line so output stays
// aligned with input.
func renderURL(w io.Writer, result *model.Result) error {
	switch data := result.Data.(type) {
	case *urlgen.Result:
		if !data.Success {
			return fmt.Errorf("no URL generated: %s", data.Message)
		}
		_, err := fmt.Fprintln(w, data.URL)
		return err
	case []model.BatchItem:
		for _, it := range data {
			if _, err := fmt.Fprintln(w, it.Result.URL); err != nil {
				return err
			}
		}
		return nil
	case *model.SavedSearch:
		if data.LastURL == "" {
			return fmt.Errorf("saved search %q has not been run yet", data.Name)
		}
		_, err := fmt.Fprintln(w, data.LastURL)
		return err
	case []model.HistoryEntry:
		for _, h := range data {
			if _, err := fmt.Fprintln(w, h.URL); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("format %q is not supported for %s output", FormatURL, result.Kind)
	}
}

// ─── Table ────────────────────────────────────────────────────────────────────

func newTable(w io.Writer, header []string) *tablewriter.Table {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(header)
	tw.SetBorder(true)
	tw.SetRowLine(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAutoWrapText(false)
	return tw
}

func renderTable(w io.Writer, result *model.Result) error {
	switch data := result.Data.(type) {
	case *urlgen.Result:
		return renderGenerationTable(w, data)
	case []model.BatchItem:
		return renderBatchTable(w, data)
	case []params.FieldHelp:
		return renderHelpTable(w, data)
	case *params.Inspection:
		return renderInspectionTable(w, data)
	case *model.SavedSearch:
		return renderSavedSearchTable(w, data)
	case []model.SavedSearch:
		return renderSavedSearchListTable(w, data)
	case []model.HistoryEntry:
		return renderHistoryTable(w, data)
	default:
		// Fallback: JSON
		return renderJSON(w, result)
	}
}

func renderGenerationTable(w io.Writer, r *urlgen.Result) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	for _, row := range generationRows(r) {
		tw.Append(row)
	}
	tw.Render()
	return nil
}

func renderBatchTable(w io.Writer, items []model.BatchItem) error {
	tw := newTable(w, []string{"LINE", "OK", "URL / MESSAGE"})
	for _, it := range items {
		tw.Append([]string{fmt.Sprintf("%d", it.Line), yesNo(it.Result.Success), outcome(it.Result)})
	}
	tw.Render()
	return nil
}

func renderHelpTable(w io.Writer, fields []params.FieldHelp) error {
	tw := newTable(w, []string{"PARAMETER", "REQUIRED", "DESCRIPTION", "OPTIONS"})
	tw.SetAutoWrapText(true)
	tw.SetColWidth(48)
	for _, f := range fields {
		tw.Append([]string{f.Name, yesNo(f.Required), f.Description, strings.Join(f.Options, ", ")})
	}
	tw.Render()
	return nil
}

func renderInspectionTable(w io.Writer, in *params.Inspection) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.Append([]string{"Has postcode", yesNo(in.HasPostcode)})
	tw.Append([]string{"Provided", strings.Join(in.Provided, ", ")})
	tw.Append([]string{"Missing optional", strings.Join(in.MissingOptional, ", ")})
	for _, p := range in.Problems {
		tw.Append([]string{"Problem", p})
	}
	for _, s := range in.Suggestions {
		tw.Append([]string{"Suggestion", s})
	}
	tw.Render()
	return nil
}

func renderSavedSearchTable(w io.Writer, s *model.SavedSearch) error {
	tw := newTable(w, []string{"FIELD", "VALUE"})
	tw.Append([]string{"ID", s.ID})
	tw.Append([]string{"Name", s.Name})
	tw.Append([]string{"Created", s.CreatedAt.Format(time.RFC3339)})
	tw.Append([]string{"Updated", s.UpdatedAt.Format(time.RFC3339)})
	for _, kv := range rawRows(s.Params) {
		tw.Append(kv)
	}
	if s.LastURL != "" {
		tw.Append([]string{"Last URL", s.LastURL})
	}
	tw.Render()
	return nil
}

func renderSavedSearchListTable(w io.Writer, list []model.SavedSearch) error {
	tw := newTable(w, []string{"NAME", "POSTCODE", "FILTERS", "UPDATED"})
	for _, s := range list {
		tw.Append([]string{s.Name, s.Params.Postcode, fmt.Sprintf("%d", len(rawRows(s.Params))-1), s.UpdatedAt.Format("2006-01-02 15:04")})
	}
	tw.Render()
	return nil
}

func renderHistoryTable(w io.Writer, list []model.HistoryEntry) error {
	tw := newTable(w, []string{"TIME", "SOURCE", "POSTCODE", "OK", "URL / MESSAGE"})
	for _, h := range list {
		detail := h.URL
		if !h.Success {
			detail = h.Message
		}
		tw.Append([]string{h.At.Local().Format("2006-01-02 15:04:05"), h.Source, h.Postcode, yesNo(h.Success), detail})
	}
	tw.Render()
	return nil
}

// ─── Markdown ─────────────────────────────────────────────────────────────────

func renderMarkdown(w io.Writer, result *model.Result) error {
	switch data := result.Data.(type) {
	case *urlgen.Result:
		fmt.Fprintf(w, "| FIELD | VALUE |\n|-------|-------|\n")
		for _, row := range generationRows(data) {
			fmt.Fprintf(w, "| %s | %s |\n", row[0], mdEscape(row[1]))
		}
		return nil
	case []model.BatchItem:
		fmt.Fprintf(w, "| LINE | OK | URL / MESSAGE |\n|------|----|---------------|\n")
		for _, it := range data {
			fmt.Fprintf(w, "| %d | %s | %s |\n", it.Line, yesNo(it.Result.Success), mdEscape(outcome(it.Result)))
		}
		return nil
	case []params.FieldHelp:
		fmt.Fprintf(w, "| PARAMETER | REQUIRED | DESCRIPTION | OPTIONS |\n|----|----|----|----|\n")
		for _, f := range data {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				f.Name, yesNo(f.Required), mdEscape(f.Description), mdEscape(strings.Join(f.Options, ", ")))
		}
		return nil
	case []model.HistoryEntry:
		fmt.Fprintf(w, "| TIME | SOURCE | POSTCODE | OK | URL |\n|----|----|----|----|----|\n")
		for _, h := range data {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s |\n",
				h.At.Format(time.RFC3339), h.Source, h.Postcode, yesNo(h.Success), mdEscape(h.URL))
		}
		return nil
	default:
		return renderJSON(w, result)
	}
}

// ─── Warnings / Stats Footer ─────────────────────────────────────────────────

// PrintFooter writes warnings and stats to w when verbose mode is on.
func PrintFooter(w io.Writer, result *model.Result, verbose bool) {
	for _, warn := range result.Warnings {
		fmt.Fprintf(w, "⚠  %s\n", warn)
	}
	if verbose {
		src := "generated"
		if result.Stats.CacheHit {
			src = "cache"
		}
		fmt.Fprintf(w, "\n[%s • %d items • %dms • %s]\n",
			result.GeneratedAt.Format(time.RFC3339),
			result.Stats.Items,
			result.Stats.DurationMs,
			src,
		)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// generationRows flattens a result into FIELD/VALUE rows. Parameters are
// listed postcode first, then alphabetically.
func generationRows(r *urlgen.Result) [][]string {
	rows := [][]string{
		{"Success", yesNo(r.Success)},
		{"Message", r.Message},
	}
	if r.URL != "" {
		rows = append(rows, []string{"URL", r.URL})
	}
	keys := make([]string, 0, len(r.ParametersUsed))
	for k := range r.ParametersUsed {
		if k != params.FieldPostcode {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := r.ParametersUsed[params.FieldPostcode]; ok {
		keys = append([]string{params.FieldPostcode}, keys...)
	}
	for _, k := range keys {
		rows = append(rows, []string{k, formatValue(r.ParametersUsed[k])})
	}
	if len(r.MissingOptional) > 0 {
		rows = append(rows, []string{"Missing optional", strings.Join(r.MissingOptional, ", ")})
	}
	for _, s := range r.Suggestions {
		rows = append(rows, []string{"Suggestion", s})
	}
	return rows
}

// rawRows lists the populated fields of a raw parameter set, postcode first.
func rawRows(r params.Raw) [][]string {
	rows := [][]string{{params.FieldPostcode, r.Postcode}}
	add := func(k, v string) {
		if v != "" {
			rows = append(rows, []string{k, v})
		}
	}
	add(params.FieldSpeed, r.Speed)
	add("speed", r.SpeedAlias)
	add(params.FieldContractLength, r.ContractLength)
	add(params.FieldPhoneCalls, r.PhoneCalls)
	add(params.FieldProductType, r.ProductType)
	add(params.FieldProviders, strings.Join(r.Providers, ", "))
	add(params.FieldCurrentProvider, r.CurrentProvider)
	if r.NewLine != nil {
		add(params.FieldNewLine, fmt.Sprintf("%t", *r.NewLine))
	}
	add(params.FieldSortBy, r.SortBy)
	add(params.FieldAddressID, r.AddressID)
	add(params.FieldMatryoshkaSpeed, r.MatryoshkaSpeed)
	add(params.FieldOpenProduct, r.OpenProduct)
	add(params.FieldTab, r.Tab)
	add(params.FieldTVChannels, r.TVChannels)
	return rows
}

func formatValue(v any) string {
	switch x := v.(type) {
	case []string:
		return strings.Join(x, ", ")
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

func outcome(r urlgen.Result) string {
	if r.Success {
		return r.URL
	}
	return r.Message
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
